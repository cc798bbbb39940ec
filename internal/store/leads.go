package store

import (
	"context"
	"fmt"

	"github.com/erazemk/estatedesk/internal/docstore"
	"github.com/erazemk/estatedesk/internal/model"
)

// Leads is the enquiry repository.
type Leads struct {
	coll docstore.Collection
}

// LeadQuery selects a page of leads.
type LeadQuery struct {
	Status string
	Page   int
	Limit  int
}

// LeadResult is one page of leads.
type LeadResult struct {
	Leads []model.Lead `json:"leads"`
	Total int64        `json:"total"`
}

func leadFilter(status string) docstore.Filter {
	if status == "" {
		return nil
	}
	return docstore.Filter{docstore.Eq("status", status)}
}

func (r *Leads) Get(ctx context.Context, id string) (*model.Lead, error) {
	l, err := getByID[model.Lead](ctx, r.coll, id)
	if err != nil {
		return nil, fmt.Errorf("getting lead: %w", err)
	}
	return l, nil
}

// List returns leads newest first.
func (r *Leads) List(ctx context.Context, q LeadQuery) (*LeadResult, error) {
	f := leadFilter(q.Status)

	total, err := r.coll.Count(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("counting leads: %w", err)
	}

	skip, limit := paging(q.Page, q.Limit)
	leads, err := findAll[model.Lead](ctx, r.coll, f, docstore.FindOptions{
		Sort:  newestFirst,
		Skip:  skip,
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("listing leads: %w", err)
	}
	return &LeadResult{Leads: leads, Total: total}, nil
}

// All returns every lead with the given status (any status if empty),
// newest first.
func (r *Leads) All(ctx context.Context, status string) ([]model.Lead, error) {
	leads, err := findAll[model.Lead](ctx, r.coll, leadFilter(status), docstore.FindOptions{Sort: newestFirst})
	if err != nil {
		return nil, fmt.Errorf("exporting leads: %w", err)
	}
	return leads, nil
}

// Create records a new enquiry with status new.
func (r *Leads) Create(ctx context.Context, l model.Lead) (*model.Lead, error) {
	l.ID = model.NewID()
	l.CreatedAt = now()
	l.Status = model.LeadNew
	if l.Source == "" {
		l.Source = model.DefaultLeadSource
	}

	if err := model.Validate(l); err != nil {
		return nil, err
	}
	if err := r.coll.Insert(ctx, l); err != nil {
		return nil, writeErr("creating lead", err)
	}
	return &l, nil
}

func (r *Leads) Update(ctx context.Context, id string, apply func(*model.Lead) error) (*model.Lead, error) {
	cur, err := r.Get(ctx, id)
	if err != nil || cur == nil {
		return nil, err
	}

	next := *cur
	if err := apply(&next); err != nil {
		return nil, err
	}
	next.ID, next.CreatedAt = cur.ID, cur.CreatedAt

	if err := model.Validate(next); err != nil {
		return nil, err
	}
	ok, err := r.coll.Replace(ctx, next.ID, next)
	if err != nil {
		return nil, writeErr("updating lead", err)
	}
	if !ok {
		return nil, nil
	}
	return &next, nil
}

func (r *Leads) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := deleteByID(ctx, r.coll, id)
	if err != nil {
		return false, fmt.Errorf("deleting lead: %w", err)
	}
	return ok, nil
}
