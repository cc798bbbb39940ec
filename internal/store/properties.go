package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/erazemk/estatedesk/internal/docstore"
	"github.com/erazemk/estatedesk/internal/model"
	"github.com/erazemk/estatedesk/internal/notify"
	"github.com/erazemk/estatedesk/internal/query"
	"github.com/erazemk/estatedesk/internal/slug"
)

// Properties is the property repository.
type Properties struct {
	coll docstore.Collection
	pub  notify.Publisher
}

// Get returns the full property, including every image and amenity.
func (r *Properties) Get(ctx context.Context, id string) (*model.Property, error) {
	p, err := getByID[model.Property](ctx, r.coll, id)
	if err != nil {
		return nil, fmt.Errorf("getting property: %w", err)
	}
	return p, nil
}

// GetBySlug returns the full property with the given slug.
func (r *Properties) GetBySlug(ctx context.Context, s string) (*model.Property, error) {
	p, err := findOne[model.Property](ctx, r.coll, docstore.Filter{docstore.Eq("slug", s)})
	if err != nil {
		return nil, fmt.Errorf("getting property by slug: %w", err)
	}
	return p, nil
}

// List returns one page of matches with list-view projection.
func (r *Properties) List(ctx context.Context, p query.Params) (*query.Result, error) {
	return query.Run(ctx, r.coll, p)
}

// Featured returns the featured carousel.
func (r *Properties) Featured(ctx context.Context) ([]model.Property, error) {
	return query.Featured(ctx, r.coll)
}

// Create stores a new property. A missing slug is derived from the title.
func (r *Properties) Create(ctx context.Context, p model.Property) (*model.Property, error) {
	t := now()
	p.ID = model.NewID()
	if p.Slug == "" {
		p.Slug = slug.OrFallback(p.Title, "property", p.ID)
	}
	p.CreatedAt, p.UpdatedAt = t, t
	p.Normalize()

	if err := model.Validate(p); err != nil {
		return nil, err
	}
	if err := r.coll.Insert(ctx, p); err != nil {
		return nil, writeErr("creating property", err)
	}

	r.publish(ctx, notify.PropertyCreated, p)
	return &p, nil
}

// Update applies changes to the stored property. It returns (nil, nil) if
// the property does not exist.
func (r *Properties) Update(ctx context.Context, id string, apply func(*model.Property) error) (*model.Property, error) {
	cur, err := r.Get(ctx, id)
	if err != nil || cur == nil {
		return nil, err
	}

	next := *cur
	if err := apply(&next); err != nil {
		return nil, err
	}
	next.ID, next.CreatedAt, next.UpdatedAt = cur.ID, cur.CreatedAt, now()
	if next.Slug == "" {
		next.Slug = slug.OrFallback(next.Title, "property", next.ID)
	}
	next.Normalize()

	if err := model.Validate(next); err != nil {
		return nil, err
	}
	ok, err := r.coll.Replace(ctx, next.ID, next)
	if err != nil {
		return nil, writeErr("updating property", err)
	}
	if !ok {
		return nil, nil
	}

	r.publish(ctx, notify.PropertyUpdated, next)
	return &next, nil
}

// Delete removes the property. Leads that reference it are kept.
func (r *Properties) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := deleteByID(ctx, r.coll, id)
	if err != nil {
		return false, fmt.Errorf("deleting property: %w", err)
	}
	if ok {
		r.publish(ctx, notify.PropertyDeleted, map[string]string{"id": id})
	}
	return ok, nil
}

// publish never fails the write that triggered it.
func (r *Properties) publish(ctx context.Context, typ string, v any) {
	e, err := notify.NewEvent(typ, v)
	if err == nil {
		err = r.pub.Publish(context.WithoutCancel(ctx), e)
	}
	if err != nil {
		slog.Warn("publishing property event", "event", typ, "error", err)
	}
}
