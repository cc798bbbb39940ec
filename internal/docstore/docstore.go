// Package docstore is a small document-store abstraction: named collections
// of JSON-like documents queried with flat conjunctive filters. It has a
// SQLite backend (documents as JSON text) and a MongoDB backend.
package docstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by FindOne when no document matches.
	ErrNotFound = errors.New("docstore: document not found")
	// ErrDuplicate is returned when a write violates a unique field.
	ErrDuplicate = errors.New("docstore: duplicate key")
)

// IDField is the document identity field. Documents are encoded with an
// "id" JSON key and an "_id" BSON key; filters always use IDField.
const IDField = "id"

// CollectionSpec declares a collection and the fields it indexes.
type CollectionSpec struct {
	Name    string
	Unique  []string
	Indexes []string
}

// Store is an open document database.
type Store interface {
	// Collection returns a handle to the named collection. It does not
	// create anything; call Ensure first.
	Collection(name string) Collection
	// Ensure creates collections and indexes. It is idempotent.
	Ensure(ctx context.Context, specs ...CollectionSpec) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Collection is a set of documents of one kind. Documents are Go structs
// carrying both `json` and `bson` tags for the same field names, with the
// identity tagged `json:"id" bson:"_id"`.
type Collection interface {
	// Insert stores a new document. The id is taken from the document.
	Insert(ctx context.Context, doc any) error
	// FindOne decodes the first match (by opts.Sort) into out.
	FindOne(ctx context.Context, f Filter, out any, opts ...FindOptions) error
	// Find decodes all matches into out, which must point to a slice.
	Find(ctx context.Context, f Filter, out any, opts FindOptions) error
	Count(ctx context.Context, f Filter) (int64, error)
	// Replace overwrites the document with the given id. It reports whether
	// a document was matched.
	Replace(ctx context.Context, id string, doc any) (bool, error)
	// Upsert overwrites or inserts the document with the given id.
	Upsert(ctx context.Context, id string, doc any) error
	// Delete removes the document with the given id. It reports whether a
	// document was removed.
	Delete(ctx context.Context, id string) (bool, error)
	// DeleteMany removes every match and reports how many were removed.
	DeleteMany(ctx context.Context, f Filter) (int64, error)
}

// SortField orders results by one field.
type SortField struct {
	Field string
	Desc  bool
}

// FindOptions controls ordering, paging and array projection.
type FindOptions struct {
	Sort  []SortField
	Skip  int64
	Limit int64 // 0 means no limit
	// Slice truncates array fields to at most n elements.
	Slice map[string]int
}
