package domain

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrDocumentDecode      = errors.New("document could not be decoded")

	// ErrBackendUnavailable marks failures reaching or authenticating with the model backend.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrNoContent is returned when the backend answers an extraction with no content.
	ErrNoContent = errors.New("backend returned no content")
	// ErrMalformedResponse is returned when an extraction reply is not a JSON object.
	ErrMalformedResponse = errors.New("backend returned malformed JSON")
)
