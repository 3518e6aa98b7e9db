package port

import (
	"context"

	"docparse/internal/domain"
)

// DocumentLoader reads a batch item by its location and decodes it into a Document
// whose ID is the location.
type DocumentLoader interface {
	Load(ctx context.Context, location string) (*domain.Document, error)
}
