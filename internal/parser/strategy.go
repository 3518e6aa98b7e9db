package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"docparse/internal/domain"
)

// FieldSpec declares one extra field a document type wants extracted.
type FieldSpec struct {
	Type        string `yaml:"type" json:"type"`
	Description string `yaml:"description" json:"description,omitempty"`
}

func (f FieldSpec) property() map[string]any {
	prop := map[string]any{"type": f.Type}
	if f.Description != "" {
		prop["description"] = f.Description
	}
	return prop
}

// SchemaExtension is the per-type addition to the generic extraction schema.
type SchemaExtension struct {
	Hint   string               `yaml:"hint"`
	Fields map[string]FieldSpec `yaml:"fields"`
}

// FieldNames returns the extension's field names, sorted.
func (e *SchemaExtension) FieldNames() []string {
	if e == nil {
		return nil
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Strategy is the instruction and schema chosen for one document.
type Strategy struct {
	Type        domain.DocumentType
	Instruction string
	Schema      map[string]any
	Extension   *SchemaExtension
}

// StrategySelector maps a classification to an extraction strategy through a
// table keyed by document type. Unregistered types use the generic schema.
type StrategySelector struct {
	mu         sync.RWMutex
	extensions map[domain.DocumentType]*SchemaExtension
}

// NewStrategySelector creates a selector with the built-in purchase order and
// receipt extensions registered.
func NewStrategySelector() *StrategySelector {
	s := &StrategySelector{extensions: map[domain.DocumentType]*SchemaExtension{}}
	for t, ext := range builtinExtensions() {
		// built-ins are static and known to compile
		_ = s.Register(t, ext)
	}
	return s
}

func builtinExtensions() map[domain.DocumentType]SchemaExtension {
	return map[domain.DocumentType]SchemaExtension{
		domain.DocumentTypePurchaseOrder: {
			Hint: "Also extract the ship-to address.",
			Fields: map[string]FieldSpec{
				"shipToAddress": {Type: "string", Description: "delivery address for the ordered goods"},
			},
		},
		domain.DocumentTypeReceipt: {
			Hint: "Also extract the payment method (for example CASH, CARD, TRANSFER).",
			Fields: map[string]FieldSpec{
				"paymentMethod": {Type: "string", Description: "how the purchase was paid"},
			},
		},
	}
}

// Register adds or replaces the schema extension for a document type. The
// extended schema must compile as JSON Schema.
func (s *StrategySelector) Register(t domain.DocumentType, ext SchemaExtension) error {
	if t == "" || t == domain.DocumentTypeUnknown {
		return fmt.Errorf("%w: cannot register a strategy for type %q", domain.ErrInvalidInput, t)
	}
	if err := compileSchema(BuildRecordSchema(&ext)); err != nil {
		return fmt.Errorf("strategy for %s: %w", t, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.extensions[t] = &ext
	return nil
}

// Select returns the extraction strategy for a classification. A nil
// classification (skipped) or an UNKNOWN type yields the generic strategy.
func (s *StrategySelector) Select(c *domain.Classification) Strategy {
	if c == nil || c.Type == domain.DocumentTypeUnknown || c.Type == "" {
		schema := BuildRecordSchema(nil)
		return Strategy{
			Type:        domain.DocumentTypeUnknown,
			Instruction: composeInstruction("", nil, schema),
			Schema:      schema,
		}
	}

	s.mu.RLock()
	ext := s.extensions[c.Type]
	s.mu.RUnlock()

	schema := BuildRecordSchema(ext)
	return Strategy{
		Type:        c.Type,
		Instruction: composeInstruction(c.Type, ext, schema),
		Schema:      schema,
		Extension:   ext,
	}
}

// GenericInstruction is the instruction used when no type hint applies.
func GenericInstruction() string {
	return composeInstruction("", nil, BuildRecordSchema(nil))
}

func composeInstruction(t domain.DocumentType, ext *SchemaExtension, schema map[string]any) string {
	var b bytes.Buffer
	b.WriteString(genericExtractionInstruction)
	if t != "" {
		b.WriteString("\n\nThis is a ")
		b.WriteString(string(t))
		b.WriteString(" document.")
		if ext != nil && ext.Hint != "" {
			b.WriteString(" ")
			b.WriteString(ext.Hint)
		}
	}
	b.WriteString("\n\nThe JSON object must follow this JSON Schema:\n")
	b.WriteString(mustJSON(schema))
	return b.String()
}

func compileSchema(schema map[string]any) error {
	raw, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("record.json", bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	if _, err := compiler.Compile("record.json"); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	return nil
}
