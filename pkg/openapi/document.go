package openapi

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
)

// Document wraps a raw OpenAPI payload and where it came from.
type Document struct {
	location string
	raw      []byte
}

// NewDocument validates and copies raw.
func NewDocument(location string, raw []byte) (Document, error) {
	if len(raw) == 0 {
		return Document{}, errors.New("openapi rules: raw document is empty")
	}
	return Document{location: location, raw: append([]byte(nil), raw...)}, nil
}

// ReadDocument loads name from fsys.
func ReadDocument(ctx context.Context, fsys fs.FS, name string) (Document, error) {
	if fsys == nil {
		return Document{}, errors.New("openapi rules: filesystem is not configured")
	}
	if name == "" {
		return Document{}, errors.New("openapi rules: document path is required")
	}
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Document{}, fmt.Errorf("openapi rules: read %s: %w", name, err)
	}
	return NewDocument(name, data)
}

// Location returns the origin of the document.
func (d Document) Location() string {
	return d.location
}

// Raw returns a copy of the payload.
func (d Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}
