package docstore

import (
	"context"
	"testing"

	"github.com/erazemk/estatedesk/internal/db"
)

// NewTestStore returns an in-memory SQLite store with the given collections.
func NewTestStore(t *testing.T, specs ...CollectionSpec) *SQLite {
	t.Helper()

	s := NewSQLite(db.NewTestDB(t))
	if err := s.Ensure(context.Background(), specs...); err != nil {
		t.Fatalf("creating test collections: %v", err)
	}
	return s
}
