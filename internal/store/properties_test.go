package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/estatedesk/internal/model"
	"github.com/erazemk/estatedesk/internal/notify"
	"github.com/erazemk/estatedesk/internal/query"
)

func intp(n int) *int { return &n }

func sampleProperty(title string) model.Property {
	return model.Property{
		Title:        title,
		Location:     "Bole",
		PropertyType: model.TypeApartment,
		Bedrooms:     intp(3),
		PriceETB:     4_500_000,
		Amenities:    []string{"parking", "lift", "generator", "garden"},
		Images:       []string{"https://img.example/a.jpg", "https://img.example/b.jpg"},
	}
}

func TestPropertyCreateAndGet(t *testing.T) {
	s, rec := newTestStore(t)
	ctx := context.Background()

	p, err := s.Properties.Create(ctx, sampleProperty("Sunny Flat in Bole"))
	require.NoError(t, err)
	assert.True(t, model.ValidID(p.ID))
	assert.Equal(t, "sunny-flat-in-bole", p.Slug)
	assert.Equal(t, model.StatusActive, p.Status)
	assert.False(t, p.CreatedAt.IsZero())
	assert.Equal(t, []string{notify.PropertyCreated}, rec.types())

	got, err := s.Properties.Get(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.Title, got.Title)
	assert.Len(t, got.Amenities, 4, "detail view keeps every amenity")
	assert.Equal(t, 3, *got.Bedrooms)

	bySlug, err := s.Properties.GetBySlug(ctx, "sunny-flat-in-bole")
	require.NoError(t, err)
	require.NotNil(t, bySlug)
	assert.Equal(t, p.ID, bySlug.ID)
}

func TestPropertyGetMissing(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	got, err := s.Properties.Get(ctx, "not-a-uuid")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.Properties.Get(ctx, model.NewID())
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.Properties.GetBySlug(ctx, "nothing-here")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPropertyCreateValidation(t *testing.T) {
	s, rec := newTestStore(t)

	p := sampleProperty("Villa")
	p.PropertyType = "castle"
	_, err := s.Properties.Create(context.Background(), p)

	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "propertyType", verr.Field)
	assert.Empty(t, rec.types())
}

func TestPropertySlugConflict(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Properties.Create(ctx, sampleProperty("Twin House"))
	require.NoError(t, err)

	_, err = s.Properties.Create(ctx, sampleProperty("Twin House"))
	assert.True(t, errors.Is(err, ErrConflict), "got %v", err)
}

func TestPropertyUntitledSlugFallback(t *testing.T) {
	s, _ := newTestStore(t)

	p, err := s.Properties.Create(context.Background(), sampleProperty("ቤት"))
	require.NoError(t, err)
	assert.Regexp(t, `^property-[0-9a-f]{8}$`, p.Slug)
}

func TestPropertyUpdate(t *testing.T) {
	s, rec := newTestStore(t)
	ctx := context.Background()

	p, err := s.Properties.Create(ctx, sampleProperty("Corner Shop"))
	require.NoError(t, err)

	updated, err := s.Properties.Update(ctx, p.ID, func(next *model.Property) error {
		return json.Unmarshal([]byte(`{"id":"forged","priceETB":1200000,"status":"sold","coordinates":{"lat":9.0108,"lng":38.7613}}`), next)
	})
	require.NoError(t, err)
	require.NotNil(t, updated)

	assert.Equal(t, p.ID, updated.ID)
	assert.Equal(t, "Corner Shop", updated.Title, "omitted fields keep their value")
	assert.Equal(t, 1_200_000.0, updated.PriceETB)
	assert.Equal(t, model.StatusSold, updated.Status)
	assert.True(t, updated.CreatedAt.Equal(p.CreatedAt))
	assert.False(t, updated.UpdatedAt.Before(p.UpdatedAt))
	require.NotNil(t, updated.Coordinates)
	assert.NotEmpty(t, updated.Coordinates.Geohash)

	assert.Equal(t, []string{notify.PropertyCreated, notify.PropertyUpdated}, rec.types())

	missing, err := s.Properties.Update(ctx, model.NewID(), func(*model.Property) error { return nil })
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPropertyUpdateInvalidKeepsStored(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	p, err := s.Properties.Create(ctx, sampleProperty("Plot"))
	require.NoError(t, err)

	_, err = s.Properties.Update(ctx, p.ID, func(next *model.Property) error {
		next.Status = "archived"
		return nil
	})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)

	got, err := s.Properties.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, got.Status)
}

func TestPropertyDelete(t *testing.T) {
	s, rec := newTestStore(t)
	ctx := context.Background()

	p, err := s.Properties.Create(ctx, sampleProperty("Old Warehouse"))
	require.NoError(t, err)

	ok, err := s.Properties.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Properties.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.Len(t, rec.events, 2)
	deleted := rec.events[1]
	assert.Equal(t, notify.PropertyDeleted, deleted.Type)
	assert.JSONEq(t, `{"id":"`+p.ID+`"}`, string(deleted.Data))
}

func TestPropertyListAndFeatured(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, title := range []string{"One", "Two", "Three"} {
		p := sampleProperty(title)
		p.Featured = title != "Two"
		_, err := s.Properties.Create(ctx, p)
		require.NoError(t, err)
	}
	draft := sampleProperty("Hidden")
	draft.Status = model.StatusDraft
	_, err := s.Properties.Create(ctx, draft)
	require.NoError(t, err)

	res, err := s.Properties.List(ctx, query.Params{Page: 1, Limit: 12})
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.Total)
	for _, p := range res.Properties {
		assert.Len(t, p.Amenities, query.ListAmenities)
		assert.Len(t, p.Images, query.ListImages)
	}

	featured, err := s.Properties.Featured(ctx)
	require.NoError(t, err)
	assert.Len(t, featured, 2)
}
