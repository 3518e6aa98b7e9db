package storage

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"docparse/internal/domain"
)

// MaxDocumentBytes caps the size of a single batch document.
const MaxDocumentBytes = 20 << 20

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// Decode turns raw bytes read from location into a Document whose ID is the
// location. The content type is taken from the location's extension.
func Decode(location string, data []byte) (*domain.Document, error) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(location), "."))
	contentType, err := domain.ContentTypeForExtension(ext)
	if err != nil {
		return nil, fmt.Errorf("%w: %q (%s)", domain.ErrUnsupportedFileType, ext, location)
	}
	if len(data) > MaxDocumentBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrInvalidInput, location, MaxDocumentBytes)
	}

	doc := &domain.Document{ID: location}
	if !strings.HasPrefix(contentType, "image/") {
		data = bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("%w: %s is not valid UTF-8 text", domain.ErrDocumentDecode, location)
		}
		doc.Text = string(data)
		return doc, nil
	}

	doc.Image = data
	doc.MimeType = contentType
	return doc, nil
}
