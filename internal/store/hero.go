package store

import (
	"context"
	"fmt"

	"github.com/erazemk/estatedesk/internal/docstore"
	"github.com/erazemk/estatedesk/internal/model"
)

// HeroSlides is the home page banner repository.
type HeroSlides struct {
	coll docstore.Collection
}

func (r *HeroSlides) Get(ctx context.Context, id string) (*model.HeroSlide, error) {
	s, err := getByID[model.HeroSlide](ctx, r.coll, id)
	if err != nil {
		return nil, fmt.Errorf("getting hero slide: %w", err)
	}
	return s, nil
}

// List returns slides by display order, active ones only unless
// includeInactive is set.
func (r *HeroSlides) List(ctx context.Context, includeInactive bool) ([]model.HeroSlide, error) {
	var f docstore.Filter
	if !includeInactive {
		f = docstore.Filter{docstore.Eq("active", true)}
	}
	slides, err := findAll[model.HeroSlide](ctx, r.coll, f, docstore.FindOptions{Sort: byOrder})
	if err != nil {
		return nil, fmt.Errorf("listing hero slides: %w", err)
	}
	return slides, nil
}

func (r *HeroSlides) Create(ctx context.Context, s model.HeroSlide) (*model.HeroSlide, error) {
	t := now()
	s.ID = model.NewID()
	s.CreatedAt, s.UpdatedAt = t, t

	if err := model.Validate(s); err != nil {
		return nil, err
	}
	if err := r.coll.Insert(ctx, s); err != nil {
		return nil, writeErr("creating hero slide", err)
	}
	return &s, nil
}

func (r *HeroSlides) Update(ctx context.Context, id string, apply func(*model.HeroSlide) error) (*model.HeroSlide, error) {
	cur, err := r.Get(ctx, id)
	if err != nil || cur == nil {
		return nil, err
	}

	next := *cur
	if err := apply(&next); err != nil {
		return nil, err
	}
	next.ID, next.CreatedAt, next.UpdatedAt = cur.ID, cur.CreatedAt, now()

	if err := model.Validate(next); err != nil {
		return nil, err
	}
	ok, err := r.coll.Replace(ctx, next.ID, next)
	if err != nil {
		return nil, writeErr("updating hero slide", err)
	}
	if !ok {
		return nil, nil
	}
	return &next, nil
}

func (r *HeroSlides) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := deleteByID(ctx, r.coll, id)
	if err != nil {
		return false, fmt.Errorf("deleting hero slide: %w", err)
	}
	return ok, nil
}
