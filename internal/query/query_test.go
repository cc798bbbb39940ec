package query

import (
	"context"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/estatedesk/internal/docstore"
	"github.com/erazemk/estatedesk/internal/model"
)

func ptr[T any](v T) *T { return &v }

func TestParseDefaults(t *testing.T) {
	for _, bag := range []map[string]any{nil, {}, {"unknown": "x", "sort": "price"}} {
		p := Parse(bag)
		assert.Equal(t, Params{Page: DefaultPage, Limit: DefaultLimit}, p)
		assert.Equal(t, docstore.Filter{docstore.In("status", model.PublicStatuses...)}, Build(p))
	}
}

func TestParseCoercion(t *testing.T) {
	tests := []struct {
		name string
		bag  map[string]any
		want Params
	}{
		{
			name: "all supplied",
			bag: map[string]any{
				"includeAllStatuses": "true", "status": "sold", "location": " Bole ",
				"propertyType": "house", "bedrooms": "2", "minPrice": "1000000",
				"maxPrice": "5e6", "geohash": "SC3", "page": "3", "limit": "24",
			},
			want: Params{
				IncludeAllStatuses: true, Status: "sold", Location: "Bole", PropertyType: "house",
				MinBedrooms: ptr(2.0), MinPrice: ptr(1000000.0), MaxPrice: ptr(5000000.0),
				Geohash: "sc3", Page: 3, Limit: 24,
			},
		},
		{
			name: "typed values",
			bag:  map[string]any{"includeAllStatuses": true, "bedrooms": 1, "minPrice": 2.5, "page": 2},
			want: Params{IncludeAllStatuses: true, MinBedrooms: ptr(1.0), MinPrice: ptr(2.5), Page: 2, Limit: DefaultLimit},
		},
		{
			name: "unparseable numbers are absent",
			bag:  map[string]any{"bedrooms": "abc", "minPrice": "cheap", "maxPrice": "", "page": "x", "limit": "many"},
			want: Params{Page: DefaultPage, Limit: DefaultLimit},
		},
		{
			name: "nan and infinity are absent",
			bag:  map[string]any{"bedrooms": "NaN", "minPrice": "-Inf", "maxPrice": "+Infinity"},
			want: Params{Page: DefaultPage, Limit: DefaultLimit},
		},
		{
			name: "negative bedrooms are absent",
			bag:  map[string]any{"bedrooms": "-1"},
			want: Params{Page: DefaultPage, Limit: DefaultLimit},
		},
		{
			name: "bad paging falls back",
			bag:  map[string]any{"page": "0", "limit": "-5"},
			want: Params{Page: DefaultPage, Limit: DefaultLimit},
		},
		{
			name: "fractional paging falls back",
			bag:  map[string]any{"page": "1.5", "limit": "2.5"},
			want: Params{Page: DefaultPage, Limit: DefaultLimit},
		},
		{
			name: "limit is capped",
			bag:  map[string]any{"limit": "1000"},
			want: Params{Page: DefaultPage, Limit: MaxLimit},
		},
		{
			name: "unparseable bool is false",
			bag:  map[string]any{"includeAllStatuses": "maybe"},
			want: Params{Page: DefaultPage, Limit: DefaultLimit},
		},
		{
			name: "blank strings are absent",
			bag:  map[string]any{"status": "  ", "location": ""},
			want: Params{Page: DefaultPage, Limit: DefaultLimit},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.bag))
		})
	}
}

func TestFromValues(t *testing.T) {
	v := url.Values{"bedrooms": {"3", "1"}, "location": {"cmc"}}
	p := FromValues(v)
	require.NotNil(t, p.MinBedrooms)
	assert.Equal(t, 3.0, *p.MinBedrooms)
	assert.Equal(t, "cmc", p.Location)
}

func TestBuild(t *testing.T) {
	p := Params{
		Status: "rented", Location: "Bole", PropertyType: "apartment",
		MinBedrooms: ptr(2.0), MinPrice: ptr(10.0), MaxPrice: ptr(20.0), Geohash: "sc",
	}
	assert.Equal(t, docstore.Filter{
		docstore.Eq("status", "rented"),
		docstore.ContainsFold("location", "Bole"),
		docstore.Eq("propertyType", "apartment"),
		docstore.Gte("bedrooms", 2.0),
		docstore.Gte("priceETB", 10.0),
		docstore.Lte("priceETB", 20.0),
		docstore.Prefix("coordinates.geohash", "sc"),
	}, Build(p))

	assert.Empty(t, Build(Params{IncludeAllStatuses: true}))
	assert.Equal(t, docstore.Filter{docstore.Eq("status", "draft")}, Build(Params{Status: "draft"}))
}

func TestPublic(t *testing.T) {
	p := Params{IncludeAllStatuses: true, Status: model.StatusDraft}.Public()
	assert.False(t, p.IncludeAllStatuses)
	assert.Empty(t, p.Status)

	p = Params{Status: model.StatusSold}.Public()
	assert.Equal(t, model.StatusSold, p.Status)
}

func TestSkip(t *testing.T) {
	assert.EqualValues(t, 0, Params{Page: 1, Limit: 12}.Skip())
	assert.EqualValues(t, 24, Params{Page: 3, Limit: 12}.Skip())
}

// listing fixtures

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newColl(t *testing.T) docstore.Collection {
	t.Helper()
	spec := docstore.CollectionSpec{Name: "properties", Unique: []string{"slug"}}
	return docstore.NewTestStore(t, spec).Collection(spec.Name)
}

func insert(t *testing.T, c docstore.Collection, i int, mutate func(*model.Property)) model.Property {
	t.Helper()
	p := model.Property{
		ID:           model.NewID(),
		Title:        fmt.Sprintf("Property %d", i),
		Slug:         fmt.Sprintf("property-%d", i),
		PropertyType: model.TypeApartment,
		Status:       model.StatusActive,
		Amenities:    []string{"parking", "lift", "generator", "pool", "gym"},
		Images:       []string{"https://img/1.jpg", "https://img/2.jpg"},
		CreatedAt:    base.Add(time.Duration(i) * time.Minute),
	}
	if mutate != nil {
		mutate(&p)
	}
	p.UpdatedAt = p.CreatedAt
	require.NoError(t, c.Insert(context.Background(), p))
	return p
}

func TestRunDefaultHidesDrafts(t *testing.T) {
	c := newColl(t)
	ctx := context.Background()
	insert(t, c, 1, nil)
	draft := insert(t, c, 2, func(p *model.Property) {
		p.Title, p.Slug, p.PropertyType = "Test", "test", model.TypeHouse
		p.SizeSqm, p.PriceETB, p.Status = 100, 500000, model.StatusDraft
	})

	res, err := Run(ctx, c, Parse(nil))
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Total)
	for _, p := range res.Properties {
		assert.NotEqual(t, draft.ID, p.ID)
	}

	res, err = Run(ctx, c, Parse(map[string]any{"includeAllStatuses": "true"}))
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Total)
	assert.Equal(t, draft.ID, res.Properties[0].ID)
}

func TestRunPriceAndBedrooms(t *testing.T) {
	c := newColl(t)
	ctx := context.Background()
	insert(t, c, 1, func(p *model.Property) { p.PriceETB, p.Bedrooms = 900000, ptr(1) })
	second := insert(t, c, 2, func(p *model.Property) { p.PriceETB, p.Bedrooms = 1200000, ptr(3) })
	insert(t, c, 3, func(p *model.Property) { p.PriceETB = 2000000 })

	res, err := Run(ctx, c, Parse(map[string]any{"minPrice": "1000000", "maxPrice": "1500000"}))
	require.NoError(t, err)
	require.Len(t, res.Properties, 1)
	assert.Equal(t, second.ID, res.Properties[0].ID)

	res, err = Run(ctx, c, Parse(map[string]any{"minPrice": "1000000"}))
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Total)
	for _, p := range res.Properties {
		assert.GreaterOrEqual(t, p.PriceETB, 1000000.0)
	}

	res, err = Run(ctx, c, Parse(map[string]any{"bedrooms": "2"}))
	require.NoError(t, err)
	require.Len(t, res.Properties, 1)
	assert.GreaterOrEqual(t, *res.Properties[0].Bedrooms, 2)

	res, err = Run(ctx, c, Parse(map[string]any{"bedrooms": "abc", "minPrice": "NaN"}))
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.Total)
}

func TestRunLocationTypeGeohash(t *testing.T) {
	c := newColl(t)
	ctx := context.Background()
	insert(t, c, 1, func(p *model.Property) {
		p.Location = "Bole, Addis Ababa"
		p.Coordinates = &model.Coordinates{Lat: 9.0, Lng: 38.76}
		p.Normalize()
	})
	insert(t, c, 2, func(p *model.Property) { p.Location = "Hawassa"; p.PropertyType = model.TypeLand })

	res, err := Run(ctx, c, Parse(map[string]any{"location": "BOLE"}))
	require.NoError(t, err)
	require.Len(t, res.Properties, 1)
	assert.Contains(t, res.Properties[0].Location, "Bole")

	res, err = Run(ctx, c, Parse(map[string]any{"propertyType": "land"}))
	require.NoError(t, err)
	require.Len(t, res.Properties, 1)
	assert.Equal(t, "Hawassa", res.Properties[0].Location)

	res, err = Run(ctx, c, Parse(map[string]any{"geohash": "sc"}))
	require.NoError(t, err)
	require.Len(t, res.Properties, 1)
	assert.Contains(t, res.Properties[0].Location, "Bole")
}

func TestRunPaginationAndProjection(t *testing.T) {
	c := newColl(t)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		insert(t, c, i, nil)
	}

	res, err := Run(ctx, c, Parse(map[string]any{"page": "1", "limit": "2"}))
	require.NoError(t, err)
	assert.EqualValues(t, 5, res.Total)
	require.Len(t, res.Properties, 2)
	assert.Equal(t, "Property 5", res.Properties[0].Title)
	assert.Equal(t, "Property 4", res.Properties[1].Title)
	for _, p := range res.Properties {
		assert.LessOrEqual(t, len(p.Images), ListImages)
		assert.LessOrEqual(t, len(p.Amenities), ListAmenities)
	}

	res, err = Run(ctx, c, Parse(map[string]any{"page": "3", "limit": "2"}))
	require.NoError(t, err)
	assert.Len(t, res.Properties, 1)
	assert.Equal(t, "Property 1", res.Properties[0].Title)

	res, err = Run(ctx, c, Parse(map[string]any{"page": "9", "limit": "2"}))
	require.NoError(t, err)
	assert.EqualValues(t, 5, res.Total)
	assert.NotNil(t, res.Properties)
	assert.Empty(t, res.Properties)
}

func TestFeatured(t *testing.T) {
	c := newColl(t)
	ctx := context.Background()
	for i := 1; i <= FeaturedLimit+2; i++ {
		insert(t, c, i, func(p *model.Property) { p.Featured = true })
	}
	insert(t, c, 20, func(p *model.Property) { p.Featured, p.Status = true, model.StatusSold })
	insert(t, c, 21, nil)

	got, err := Featured(ctx, c)
	require.NoError(t, err)
	require.Len(t, got, FeaturedLimit)
	assert.Equal(t, fmt.Sprintf("Property %d", FeaturedLimit+2), got[0].Title)
	for _, p := range got {
		assert.True(t, p.Featured)
		assert.Equal(t, model.StatusActive, p.Status)
		assert.LessOrEqual(t, len(p.Images), ListImages)
	}
}

type failingColl struct{ docstore.Collection }

func (failingColl) Count(context.Context, docstore.Filter) (int64, error) {
	return 0, fmt.Errorf("connection refused")
}

func TestRunPropagatesStoreErrors(t *testing.T) {
	res, err := Run(context.Background(), failingColl{}, Parse(nil))
	require.Error(t, err)
	assert.Nil(t, res)
}
