package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/erazemk/estatedesk/internal/docstore"
	"github.com/erazemk/estatedesk/internal/model"
)

// ErrBootstrapClosed is returned by CreateFirst once any account exists.
var ErrBootstrapClosed = errors.New("first account already created")

const bootstrapKey = "bootstrap_admin"

// Users is the account repository.
type Users struct {
	coll docstore.Collection
	meta docstore.Collection
}

// userDoc is the stored form of a user. model.User never serialises its
// password hash, so it is carried here explicitly.
type userDoc struct {
	ID           string    `json:"id" bson:"_id"`
	Email        string    `json:"email" bson:"email"`
	Name         string    `json:"name" bson:"name"`
	PasswordHash string    `json:"passwordHash" bson:"passwordHash"`
	Role         string    `json:"role" bson:"role"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (d *userDoc) user() *model.User {
	return &model.User{
		ID:           d.ID,
		Email:        d.Email,
		Name:         d.Name,
		PasswordHash: d.PasswordHash,
		Role:         d.Role,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func toUserDoc(u *model.User) userDoc {
	return userDoc{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create creates a new user.
func (r *Users) Create(ctx context.Context, email, name, passwordHash, role string) (*model.User, error) {
	u, err := newUser(email, name, passwordHash, role)
	if err != nil {
		return nil, err
	}
	if err := r.coll.Insert(ctx, toUserDoc(u)); err != nil {
		return nil, writeErr("creating user", err)
	}
	return u, nil
}

// CreateFirst creates the initial admin account. Only one caller can win:
// the claim is a fixed-id meta document, so concurrent attempts fail with
// ErrBootstrapClosed, as does any attempt once users exist.
func (r *Users) CreateFirst(ctx context.Context, email, name, passwordHash string) (*model.User, error) {
	u, err := newUser(email, name, passwordHash, model.RoleAdmin)
	if err != nil {
		return nil, err
	}

	n, err := r.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrBootstrapClosed
	}

	err = r.meta.Insert(ctx, metaValue{ID: bootstrapKey, Value: u.ID})
	if errors.Is(err, docstore.ErrDuplicate) {
		return nil, ErrBootstrapClosed
	}
	if err != nil {
		return nil, fmt.Errorf("claiming first account: %w", err)
	}

	if err := r.coll.Insert(ctx, toUserDoc(u)); err != nil {
		if _, derr := r.meta.Delete(context.WithoutCancel(ctx), bootstrapKey); derr != nil {
			slog.Warn("releasing first account claim", "error", derr)
		}
		return nil, writeErr("creating user", err)
	}
	return u, nil
}

func newUser(email, name, passwordHash, role string) (*model.User, error) {
	t := now()
	u := &model.User{
		ID:           model.NewID(),
		Email:        NormalizeEmail(email),
		Name:         strings.TrimSpace(name),
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    t,
		UpdatedAt:    t,
	}
	if err := model.Validate(u); err != nil {
		return nil, err
	}
	return u, nil
}

// Get returns a user by ID.
func (r *Users) Get(ctx context.Context, id string) (*model.User, error) {
	d, err := getByID[userDoc](ctx, r.coll, id)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	if d == nil {
		return nil, nil
	}
	return d.user(), nil
}

// GetByEmail returns a user by email.
func (r *Users) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	d, err := findOne[userDoc](ctx, r.coll, docstore.Filter{docstore.Eq("email", NormalizeEmail(email))})
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	if d == nil {
		return nil, nil
	}
	return d.user(), nil
}

// List returns all users, oldest first.
func (r *Users) List(ctx context.Context) ([]model.User, error) {
	docs, err := findAll[userDoc](ctx, r.coll, nil, docstore.FindOptions{
		Sort: []docstore.SortField{{Field: "createdAt"}, {Field: docstore.IDField}},
	})
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	users := make([]model.User, len(docs))
	for i := range docs {
		users[i] = *docs[i].user()
	}
	return users, nil
}

// Count returns the number of users.
func (r *Users) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.Count(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

// UpdatePassword replaces a user's password hash. It reports whether the
// user exists.
func (r *Users) UpdatePassword(ctx context.Context, id, passwordHash string) (bool, error) {
	u, err := r.Get(ctx, id)
	if err != nil || u == nil {
		return false, err
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = now()

	ok, err := r.coll.Replace(ctx, u.ID, toUserDoc(u))
	if err != nil {
		return false, fmt.Errorf("updating user password: %w", err)
	}
	return ok, nil
}

// Delete removes a user.
func (r *Users) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := deleteByID(ctx, r.coll, id)
	if err != nil {
		return false, fmt.Errorf("deleting user: %w", err)
	}
	return ok, nil
}
