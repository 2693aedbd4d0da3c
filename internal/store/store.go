package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("document not found")

// Document is a schemaless record: an id assigned on insert plus untyped
// field values.
type Document struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// Collection is a named set of documents. ListAll returns documents in the
// store's enumeration order, which is insertion order for both drivers.
type Collection interface {
	ListAll(ctx context.Context) ([]Document, error)
	Insert(ctx context.Context, fields map[string]any) (string, error)
	Get(ctx context.Context, id string) (Document, error)
	Replace(ctx context.Context, id string, fields map[string]any) error
	DeleteByID(ctx context.Context, id string) error
}

type Store interface {
	Collection(name string) Collection
	Close() error
}

func newDocumentID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate document id: %w", err)
	}
	return id.String(), nil
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
