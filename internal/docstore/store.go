package docstore

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("document not found")

// Document is the raw payload of one stored record. Typed entities are
// converted in and out of it at a single serialization boundary per
// entity; nothing below the repository layer sees these maps.
type Document map[string]any

// Filter is an equality match on a single field.
type Filter struct {
	Field string
	Value any
}

// Order sorts the result of a List call by one field. Passing several
// orders to List applies them in sequence: later fields break ties
// left by earlier ones.
type Order struct {
	Field string
	Desc  bool
}

// Store is generic CRUD over named collections. No transactions are
// assumed across collections or across calls.
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	List(ctx context.Context, collection string, filters []Filter, orders ...Order) ([]Document, error)
	Create(ctx context.Context, collection, id string, data Document) (Document, error)
	Update(ctx context.Context, collection, id string, data Document) (Document, error)
	Delete(ctx context.Context, collection, id string) error
}
