// Package store holds one repository per entity on top of a docstore.
//
// Reads return (nil, nil) when nothing matches and a non-nil error only for
// store failures. Writes return ErrConflict when a unique field collides and
// a *model.ValidationError when the result would violate an invariant.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erazemk/estatedesk/internal/docstore"
	"github.com/erazemk/estatedesk/internal/model"
	"github.com/erazemk/estatedesk/internal/notify"
)

// ErrConflict is returned when a write collides with a unique field.
var ErrConflict = errors.New("conflicts with an existing record")

// Collection names.
const (
	PropertiesCollection = "properties"
	BlogCollection       = "blog_posts"
	TeamCollection       = "team_members"
	LeadsCollection      = "leads"
	HeroCollection       = "hero_slides"
	SettingsCollection   = "settings"
	UsersCollection      = "users"
	TokensCollection     = "revoked_tokens"
	MetaCollection       = "meta"
)

// Collections lists every collection with its indexes.
func Collections() []docstore.CollectionSpec {
	return []docstore.CollectionSpec{
		{
			Name:    PropertiesCollection,
			Unique:  []string{"slug"},
			Indexes: []string{"createdAt", "status", "priceETB", "coordinates.geohash"},
		},
		{Name: BlogCollection, Unique: []string{"slug"}, Indexes: []string{"createdAt", "published"}},
		{Name: TeamCollection, Indexes: []string{"order"}},
		{Name: LeadsCollection, Indexes: []string{"createdAt", "status"}},
		{Name: HeroCollection, Indexes: []string{"order"}},
		{Name: SettingsCollection},
		{Name: UsersCollection, Unique: []string{"email"}},
		{Name: TokensCollection, Indexes: []string{"expiresAt"}},
		{Name: MetaCollection},
	}
}

// Store bundles the repositories.
type Store struct {
	Properties *Properties
	Blog       *BlogPosts
	Team       *TeamMembers
	Leads      *Leads
	Hero       *HeroSlides
	Settings   *Settings
	Users      *Users
	Tokens     *Tokens

	ds docstore.Store
}

// New wires the repositories to ds. Property changes are published to pub;
// pass notify.Discard to disable notifications.
func New(ds docstore.Store, pub notify.Publisher) *Store {
	if pub == nil {
		pub = notify.Discard
	}
	return &Store{
		Properties: &Properties{coll: ds.Collection(PropertiesCollection), pub: pub},
		Blog:       &BlogPosts{coll: ds.Collection(BlogCollection)},
		Team:       &TeamMembers{coll: ds.Collection(TeamCollection)},
		Leads:      &Leads{coll: ds.Collection(LeadsCollection)},
		Hero:       &HeroSlides{coll: ds.Collection(HeroCollection)},
		Settings:   &Settings{coll: ds.Collection(SettingsCollection)},
		Users:      &Users{coll: ds.Collection(UsersCollection), meta: ds.Collection(MetaCollection)},
		Tokens:     &Tokens{coll: ds.Collection(TokensCollection), meta: ds.Collection(MetaCollection)},
		ds:         ds,
	}
}

// Ensure creates all collections and indexes.
func (s *Store) Ensure(ctx context.Context) error {
	return s.ds.Ensure(ctx, Collections()...)
}

// Ping checks the underlying store.
func (s *Store) Ping(ctx context.Context) error {
	return s.ds.Ping(ctx)
}

// Paging defaults for lists other than properties.
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

func paging(page, limit int) (skip, lim int64) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)
	return int64(page-1) * int64(limit), int64(limit)
}

func now() time.Time {
	return time.Now().UTC()
}

// getByID treats a malformed id as not found.
func getByID[T any](ctx context.Context, c docstore.Collection, id string) (*T, error) {
	if !model.ValidID(id) {
		return nil, nil
	}
	return findOne[T](ctx, c, docstore.ByID(id))
}

func findOne[T any](ctx context.Context, c docstore.Collection, f docstore.Filter, opts ...docstore.FindOptions) (*T, error) {
	var v T
	err := c.FindOne(ctx, f, &v, opts...)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func findAll[T any](ctx context.Context, c docstore.Collection, f docstore.Filter, opts docstore.FindOptions) ([]T, error) {
	out := []T{}
	if err := c.Find(ctx, f, &out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// deleteByID treats a malformed id as not found.
func deleteByID(ctx context.Context, c docstore.Collection, id string) (bool, error) {
	if !model.ValidID(id) {
		return false, nil
	}
	return c.Delete(ctx, id)
}

// writeErr maps duplicate keys to ErrConflict.
func writeErr(action string, err error) error {
	if errors.Is(err, docstore.ErrDuplicate) {
		return fmt.Errorf("%s: %w", action, ErrConflict)
	}
	return fmt.Errorf("%s: %w", action, err)
}

var byOrder = []docstore.SortField{
	{Field: "order"},
	{Field: "createdAt"},
	{Field: docstore.IDField},
}

var newestFirst = []docstore.SortField{
	{Field: "createdAt", Desc: true},
	{Field: docstore.IDField, Desc: true},
}
