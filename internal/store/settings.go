package store

import (
	"context"
	"fmt"

	"github.com/erazemk/estatedesk/internal/docstore"
	"github.com/erazemk/estatedesk/internal/model"
)

// Settings is the site settings repository. It holds a single document.
type Settings struct {
	coll docstore.Collection
}

// Get returns the saved settings, or the defaults if none were saved yet.
func (r *Settings) Get(ctx context.Context) (*model.Settings, error) {
	s, err := findOne[model.Settings](ctx, r.coll, docstore.ByID(model.SettingsID))
	if err != nil {
		return nil, fmt.Errorf("getting settings: %w", err)
	}
	if s == nil {
		def := model.DefaultSettings()
		return &def, nil
	}
	if s.Social == nil {
		s.Social = map[string]string{}
	}
	return s, nil
}

// Put applies changes to the current settings and saves them.
func (r *Settings) Put(ctx context.Context, apply func(*model.Settings) error) (*model.Settings, error) {
	cur, err := r.Get(ctx)
	if err != nil {
		return nil, err
	}

	next := *cur
	if err := apply(&next); err != nil {
		return nil, err
	}

	t := now()
	next.ID, next.CreatedAt, next.UpdatedAt = model.SettingsID, cur.CreatedAt, t
	if next.CreatedAt.IsZero() {
		next.CreatedAt = t
	}
	if next.Social == nil {
		next.Social = map[string]string{}
	}

	if err := model.Validate(next); err != nil {
		return nil, err
	}
	if err := r.coll.Upsert(ctx, next.ID, next); err != nil {
		return nil, writeErr("saving settings", err)
	}
	return &next, nil
}
