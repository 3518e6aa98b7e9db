// Package apidocs holds the OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/server/main.go -o internal/apidocs
package apidocs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/classify": {
            "post": {
                "description": "Decide the invoice-family type of a text document. Never fails on backend errors; degrades to UNKNOWN",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["parse"],
                "summary": "Classify a document",
                "parameters": [
                    {"description": "Document text", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.ClassifyRequest"}}
                ],
                "responses": {
                    "200": {"description": "Classification", "schema": {"allOf": [{"$ref": "#/definitions/handler.Response"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/domain.Classification"}}}]}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/parse/batch": {
            "post": {
                "description": "Detect the type of every document and extract invoice-family ones. Per-document failures are reported in the results",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["parse"],
                "summary": "Process a batch of documents",
                "parameters": [
                    {"description": "Documents", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.BatchRequest"}}
                ],
                "responses": {
                    "200": {"description": "Per-document results in input order", "schema": {"allOf": [{"$ref": "#/definitions/handler.Response"}, {"type": "object", "properties": {"data": {"type": "array", "items": {"$ref": "#/definitions/domain.BatchResult"}}}}]}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/parse/image": {
            "post": {
                "description": "Classify (unless skipped) and extract an invoice-like record from a base64 image",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["parse"],
                "summary": "Extract a record from an image",
                "parameters": [
                    {"description": "Base64 image", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.ParseImageRequest"}}
                ],
                "responses": {
                    "200": {"description": "Extracted record", "schema": {"allOf": [{"$ref": "#/definitions/handler.Response"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/domain.ExtractedRecord"}}}]}},
                    "400": {"description": "Invalid request or unsupported image type", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}},
                    "502": {"description": "Backend failure", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}},
                    "503": {"description": "Backend rate limited", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/parse/text": {
            "post": {
                "description": "Classify (unless skipped) and extract an invoice-like record from plain text",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["parse"],
                "summary": "Extract a record from text",
                "parameters": [
                    {"description": "Document text", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.ParseTextRequest"}}
                ],
                "responses": {
                    "200": {"description": "Extracted record", "schema": {"allOf": [{"$ref": "#/definitions/handler.Response"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/domain.ExtractedRecord"}}}]}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}},
                    "502": {"description": "Backend failure", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}},
                    "503": {"description": "Backend rate limited", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        }
    },
    "definitions": {
        "domain.BatchResult": {
            "type": "object",
            "properties": {
                "classification": {"$ref": "#/definitions/domain.Classification"},
                "data": {"$ref": "#/definitions/domain.ExtractedRecord"},
                "error": {"type": "string"},
                "failedStage": {"type": "string"},
                "id": {"type": "string"},
                "state": {"type": "string"}
            }
        },
        "domain.Classification": {
            "type": "object",
            "properties": {
                "confidence": {"type": "number"},
                "metadata": {"type": "object", "additionalProperties": {"type": "string"}},
                "possibleTypes": {"type": "array", "items": {"type": "string"}},
                "type": {"type": "string"}
            }
        },
        "domain.ExtractedRecord": {
            "type": "object",
            "properties": {
                "classification": {"$ref": "#/definitions/domain.Classification"},
                "currency": {"type": "string"},
                "customerAddress": {"type": "string"},
                "customerName": {"type": "string"},
                "dueDate": {"type": "string"},
                "extensions": {"type": "object", "additionalProperties": true},
                "invoiceDate": {"type": "string"},
                "invoiceNumber": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/domain.LineItem"}},
                "paymentTerms": {"type": "string"},
                "subtotal": {"type": "number"},
                "tax": {"type": "number"},
                "totalAmount": {"type": "number"},
                "vendorAddress": {"type": "string"},
                "vendorName": {"type": "string"}
            }
        },
        "domain.LineItem": {
            "type": "object",
            "properties": {
                "amount": {"type": "number"},
                "description": {"type": "string"},
                "quantity": {"type": "number"},
                "unitPrice": {"type": "number"}
            }
        },
        "handler.BatchDocument": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "invoice-001"},
                "image": {"type": "string"},
                "mimeType": {"type": "string", "example": "image/png"},
                "text": {"type": "string"}
            }
        },
        "handler.BatchRequest": {
            "type": "object",
            "required": ["documents"],
            "properties": {
                "concurrency": {"type": "integer", "example": 4},
                "documents": {"type": "array", "minItems": 1, "items": {"$ref": "#/definitions/handler.BatchDocument"}},
                "extract": {"type": "boolean", "example": true}
            }
        },
        "handler.ClassifyRequest": {
            "type": "object",
            "required": ["text"],
            "properties": {
                "text": {"type": "string", "example": "PURCHASE ORDER PO-7781"}
            }
        },
        "handler.ErrorResponseBody": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "NO_CONTENT"},
                "error": {"type": "string", "example": "backend returned no content"},
                "success": {"type": "boolean", "example": false}
            }
        },
        "handler.ParseImageRequest": {
            "type": "object",
            "required": ["image"],
            "properties": {
                "image": {"type": "string", "example": "/9j/4AAQSkZJRgABAQ..."},
                "mimeType": {"type": "string", "example": "image/jpeg"},
                "skipClassification": {"type": "boolean", "example": false}
            }
        },
        "handler.ParseTextRequest": {
            "type": "object",
            "required": ["text"],
            "properties": {
                "skipClassification": {"type": "boolean", "example": false},
                "text": {"type": "string"}
            }
        },
        "handler.Response": {
            "type": "object",
            "properties": {
                "data": {},
                "success": {"type": "boolean", "example": true}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "docparse API",
	Description:      "Classifies financial and logistics documents and extracts normalized invoice-like records through a language-model backend.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
