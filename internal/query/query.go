// Package query turns listing parameters into property store queries: a
// flat conjunction of filters, newest-first ordering, paging, and a reduced
// projection for list views.
package query

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/spf13/cast"

	"github.com/erazemk/estatedesk/internal/docstore"
	"github.com/erazemk/estatedesk/internal/model"
)

// Paging defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 12
	MaxLimit     = 100

	// FeaturedLimit caps the featured carousel.
	FeaturedLimit = 6
)

// List view array caps.
const (
	ListImages    = 1
	ListAmenities = 3
)

// Params are the recognised listing parameters. Nil pointers and empty
// strings mean the parameter was not supplied.
type Params struct {
	IncludeAllStatuses bool
	Status             string
	Location           string
	PropertyType       string
	MinBedrooms        *float64
	MinPrice           *float64
	MaxPrice           *float64
	Geohash            string

	Page  int
	Limit int
}

// Result is one page of a listing.
type Result struct {
	Properties []model.Property `json:"properties"`
	Total      int64            `json:"total"`
}

// Parse reads Params from an untyped bag. Values that do not parse, or parse
// to NaN or an infinity, are treated as absent. Unknown keys are ignored.
func Parse(bag map[string]any) Params {
	p := Params{Page: DefaultPage, Limit: DefaultLimit}

	if v, ok := bag["includeAllStatuses"]; ok {
		if b, err := cast.ToBoolE(v); err == nil {
			p.IncludeAllStatuses = b
		}
	}

	p.Status = text(bag, "status")
	p.Location = text(bag, "location")
	p.PropertyType = text(bag, "propertyType")
	p.Geohash = strings.ToLower(text(bag, "geohash"))

	if n, ok := number(bag, "bedrooms"); ok && n >= 0 {
		p.MinBedrooms = &n
	}
	if n, ok := number(bag, "minPrice"); ok {
		p.MinPrice = &n
	}
	if n, ok := number(bag, "maxPrice"); ok {
		p.MaxPrice = &n
	}

	if n, ok := number(bag, "page"); ok && n >= 1 && n == math.Trunc(n) && n <= math.MaxInt32 {
		p.Page = int(n)
	}
	if n, ok := number(bag, "limit"); ok && n >= 1 && n == math.Trunc(n) {
		p.Limit = int(min(n, MaxLimit))
	}

	return p
}

// FromValues reads Params from a query string, using the first value of
// each key.
func FromValues(v url.Values) Params {
	bag := make(map[string]any, len(v))
	for k, vs := range v {
		if len(vs) > 0 {
			bag[k] = vs[0]
		}
	}
	return Parse(bag)
}

func text(bag map[string]any, key string) string {
	v, ok := bag[key]
	if !ok || v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func number(bag map[string]any, key string) (float64, bool) {
	v, ok := bag[key]
	if !ok || v == nil {
		return 0, false
	}
	if s, isString := v.(string); isString {
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, false
		}
		v = s
	}
	n, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// Public drops the parameters that would expose drafts to anonymous callers.
func (p Params) Public() Params {
	p.IncludeAllStatuses = false
	if p.Status == model.StatusDraft {
		p.Status = ""
	}
	return p
}

// paged fills in the paging defaults for Params built by hand.
func (p Params) paged() Params {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	p.Limit = min(p.Limit, MaxLimit)
	return p
}

// Skip is the number of matches before the requested page.
func (p Params) Skip() int64 {
	return int64(p.Page-1) * int64(p.Limit)
}

// Build translates p into a store filter, one predicate per supplied
// parameter.
func Build(p Params) docstore.Filter {
	var f docstore.Filter

	switch {
	case p.Status != "":
		f = append(f, docstore.Eq("status", p.Status))
	case !p.IncludeAllStatuses:
		f = append(f, docstore.In("status", model.PublicStatuses...))
	}

	if p.Location != "" {
		f = append(f, docstore.ContainsFold("location", p.Location))
	}
	if p.PropertyType != "" {
		f = append(f, docstore.Eq("propertyType", p.PropertyType))
	}
	if p.MinBedrooms != nil {
		f = append(f, docstore.Gte("bedrooms", *p.MinBedrooms))
	}
	if p.MinPrice != nil {
		f = append(f, docstore.Gte("priceETB", *p.MinPrice))
	}
	if p.MaxPrice != nil {
		f = append(f, docstore.Lte("priceETB", *p.MaxPrice))
	}
	if p.Geohash != "" {
		f = append(f, docstore.Prefix("coordinates.geohash", p.Geohash))
	}

	return f
}

// Newest orders by creation time, most recent first. Ids are UUIDv7, so
// equal timestamps fall back to insertion order.
func Newest() []docstore.SortField {
	return []docstore.SortField{
		{Field: "createdAt", Desc: true},
		{Field: docstore.IDField, Desc: true},
	}
}

// ListProjection caps the arrays returned in list views.
func ListProjection() map[string]int {
	return map[string]int{"images": ListImages, "amenities": ListAmenities}
}

// FeaturedFilter matches active properties flagged as featured.
func FeaturedFilter() docstore.Filter {
	return docstore.Filter{
		docstore.Eq("featured", true),
		docstore.Eq("status", model.StatusActive),
	}
}

// Run executes a listing against the properties collection.
func Run(ctx context.Context, coll docstore.Collection, p Params) (*Result, error) {
	p = p.paged()
	f := Build(p)

	total, err := coll.Count(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("counting properties: %w", err)
	}

	props := []model.Property{}
	err = coll.Find(ctx, f, &props, docstore.FindOptions{
		Sort:  Newest(),
		Skip:  p.Skip(),
		Limit: int64(p.Limit),
		Slice: ListProjection(),
	})
	if err != nil {
		return nil, fmt.Errorf("listing properties: %w", err)
	}

	return &Result{Properties: props, Total: total}, nil
}

// Featured returns up to FeaturedLimit featured properties, newest first.
func Featured(ctx context.Context, coll docstore.Collection) ([]model.Property, error) {
	props := []model.Property{}
	err := coll.Find(ctx, FeaturedFilter(), &props, docstore.FindOptions{
		Sort:  Newest(),
		Limit: FeaturedLimit,
		Slice: ListProjection(),
	})
	if err != nil {
		return nil, fmt.Errorf("listing featured properties: %w", err)
	}
	return props, nil
}
