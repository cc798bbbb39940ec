package store

import (
	"context"
	"fmt"

	"github.com/erazemk/estatedesk/internal/docstore"
	"github.com/erazemk/estatedesk/internal/model"
)

// TeamMembers is the team repository.
type TeamMembers struct {
	coll docstore.Collection
}

func (r *TeamMembers) Get(ctx context.Context, id string) (*model.TeamMember, error) {
	m, err := getByID[model.TeamMember](ctx, r.coll, id)
	if err != nil {
		return nil, fmt.Errorf("getting team member: %w", err)
	}
	return m, nil
}

// List returns every member by display order.
func (r *TeamMembers) List(ctx context.Context) ([]model.TeamMember, error) {
	members, err := findAll[model.TeamMember](ctx, r.coll, nil, docstore.FindOptions{Sort: byOrder})
	if err != nil {
		return nil, fmt.Errorf("listing team members: %w", err)
	}
	return members, nil
}

func (r *TeamMembers) Create(ctx context.Context, m model.TeamMember) (*model.TeamMember, error) {
	m.ID = model.NewID()
	m.CreatedAt = now()

	if err := model.Validate(m); err != nil {
		return nil, err
	}
	if err := r.coll.Insert(ctx, m); err != nil {
		return nil, writeErr("creating team member", err)
	}
	return &m, nil
}

func (r *TeamMembers) Update(ctx context.Context, id string, apply func(*model.TeamMember) error) (*model.TeamMember, error) {
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
		return nil, writeErr("updating team member", err)
	}
	if !ok {
		return nil, nil
	}
	return &next, nil
}

func (r *TeamMembers) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := deleteByID(ctx, r.coll, id)
	if err != nil {
		return false, fmt.Errorf("deleting team member: %w", err)
	}
	return ok, nil
}
