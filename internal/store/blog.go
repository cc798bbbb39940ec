package store

import (
	"context"
	"fmt"

	"github.com/erazemk/estatedesk/internal/docstore"
	"github.com/erazemk/estatedesk/internal/model"
	"github.com/erazemk/estatedesk/internal/slug"
)

// BlogPosts is the blog repository.
type BlogPosts struct {
	coll docstore.Collection
}

// BlogQuery selects a page of posts.
type BlogQuery struct {
	IncludeUnpublished bool
	Tag                string
	Page               int
	Limit              int
}

// BlogResult is one page of posts.
type BlogResult struct {
	Posts []model.BlogPost `json:"posts"`
	Total int64            `json:"total"`
}

func (r *BlogPosts) Get(ctx context.Context, id string) (*model.BlogPost, error) {
	b, err := getByID[model.BlogPost](ctx, r.coll, id)
	if err != nil {
		return nil, fmt.Errorf("getting blog post: %w", err)
	}
	return b, nil
}

func (r *BlogPosts) GetBySlug(ctx context.Context, s string) (*model.BlogPost, error) {
	b, err := findOne[model.BlogPost](ctx, r.coll, docstore.Filter{docstore.Eq("slug", s)})
	if err != nil {
		return nil, fmt.Errorf("getting blog post by slug: %w", err)
	}
	return b, nil
}

// List returns posts newest first.
func (r *BlogPosts) List(ctx context.Context, q BlogQuery) (*BlogResult, error) {
	var f docstore.Filter
	if !q.IncludeUnpublished {
		f = append(f, docstore.Eq("published", true))
	}
	if q.Tag != "" {
		f = append(f, docstore.Has("tags", q.Tag))
	}

	total, err := r.coll.Count(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("counting blog posts: %w", err)
	}

	skip, limit := paging(q.Page, q.Limit)
	posts, err := findAll[model.BlogPost](ctx, r.coll, f, docstore.FindOptions{
		Sort:  newestFirst,
		Skip:  skip,
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("listing blog posts: %w", err)
	}
	return &BlogResult{Posts: posts, Total: total}, nil
}

func (r *BlogPosts) Create(ctx context.Context, b model.BlogPost) (*model.BlogPost, error) {
	t := now()
	b.ID = model.NewID()
	if b.Slug == "" {
		b.Slug = slug.OrFallback(b.Title, "post", b.ID)
	}
	b.CreatedAt, b.UpdatedAt = t, t
	b.PublishedAt = nil
	b.Normalize(t)

	if err := model.Validate(b); err != nil {
		return nil, err
	}
	if err := r.coll.Insert(ctx, b); err != nil {
		return nil, writeErr("creating blog post", err)
	}
	return &b, nil
}

func (r *BlogPosts) Update(ctx context.Context, id string, apply func(*model.BlogPost) error) (*model.BlogPost, error) {
	cur, err := r.Get(ctx, id)
	if err != nil || cur == nil {
		return nil, err
	}

	next := *cur
	if err := apply(&next); err != nil {
		return nil, err
	}
	t := now()
	next.ID, next.CreatedAt, next.UpdatedAt, next.PublishedAt = cur.ID, cur.CreatedAt, t, cur.PublishedAt
	if next.Slug == "" {
		next.Slug = slug.OrFallback(next.Title, "post", next.ID)
	}
	next.Normalize(t)

	if err := model.Validate(next); err != nil {
		return nil, err
	}
	ok, err := r.coll.Replace(ctx, next.ID, next)
	if err != nil {
		return nil, writeErr("updating blog post", err)
	}
	if !ok {
		return nil, nil
	}
	return &next, nil
}

func (r *BlogPosts) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := deleteByID(ctx, r.coll, id)
	if err != nil {
		return false, fmt.Errorf("deleting blog post: %w", err)
	}
	return ok, nil
}
