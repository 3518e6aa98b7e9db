package port

import (
	"context"
)

// CompletionRequest describes one call to the model backend.
type CompletionRequest struct {
	// Instructions is the system-level framing text.
	Instructions string
	// Text is inlined document text. Ignored when Image is set.
	Text string
	// Image is a raw image payload sent inline with MimeType.
	Image    []byte
	MimeType string
	// JSONOutput requests a strict JSON-object reply.
	JSONOutput bool
	// Deterministic requests zero-temperature sampling.
	Deterministic bool
}

// Completion is the backend's reply. An empty Content means the backend
// produced no content.
type Completion struct {
	Content string
	Model   string
}

// Gateway abstracts the language-model backend as an opaque text-in/JSON-out oracle.
type Gateway interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}
