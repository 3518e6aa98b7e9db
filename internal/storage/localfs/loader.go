package localfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"docparse/internal/domain"
	"docparse/internal/storage"
)

// Loader reads batch documents from the local filesystem.
type Loader struct{}

// NewLoader creates a filesystem Loader.
func NewLoader() *Loader {
	return &Loader{}
}

func (l *Loader) Load(ctx context.Context, location string) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, location)
		}
		return nil, fmt.Errorf("stat %s: %w", location, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, location)
	}
	if info.Size() > storage.MaxDocumentBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrInvalidInput, location, storage.MaxDocumentBytes)
	}

	data, err := os.ReadFile(location)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", location, err)
	}
	return storage.Decode(location, data)
}
