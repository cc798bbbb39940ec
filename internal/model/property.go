package model

import (
	"time"

	"github.com/mmcloughlin/geohash"
)

// Property is a listing.
type Property struct {
	ID           string       `json:"id" bson:"_id"`
	Title        string       `json:"title" bson:"title" validate:"required,max=200"`
	Slug         string       `json:"slug" bson:"slug" validate:"required,slug,max=200"`
	Description  string       `json:"description" bson:"description"`
	Location     string       `json:"location" bson:"location" validate:"max=200"`
	PropertyType string       `json:"propertyType" bson:"propertyType" validate:"required,oneof=apartment house commercial shop land"`
	Bedrooms     *int         `json:"bedrooms,omitempty" bson:"bedrooms,omitempty" validate:"omitempty,gte=0"`
	Bathrooms    *int         `json:"bathrooms,omitempty" bson:"bathrooms,omitempty" validate:"omitempty,gte=0"`
	SizeSqm      float64      `json:"sizeSqm" bson:"sizeSqm" validate:"gte=0"`
	PriceETB     float64      `json:"priceETB" bson:"priceETB" validate:"gte=0"`
	Status       string       `json:"status" bson:"status" validate:"required,oneof=active draft sold rented"`
	Featured     bool         `json:"featured" bson:"featured"`
	Amenities    []string     `json:"amenities" bson:"amenities" validate:"dive,required,max=100"`
	Images       []string     `json:"images" bson:"images" validate:"dive,imageref"`
	ProjectName  string       `json:"projectName,omitempty" bson:"projectName,omitempty"`
	Coordinates  *Coordinates `json:"coordinates,omitempty" bson:"coordinates,omitempty"`
	CreatedAt    time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// Coordinates locate a property. Geohash is derived from Lat and Lng.
type Coordinates struct {
	Lat     float64 `json:"lat" bson:"lat" validate:"gte=-90,lte=90"`
	Lng     float64 `json:"lng" bson:"lng" validate:"gte=-180,lte=180"`
	Geohash string  `json:"geohash,omitempty" bson:"geohash,omitempty"`
}

// Property statuses.
const (
	StatusActive = "active"
	StatusDraft  = "draft"
	StatusSold   = "sold"
	StatusRented = "rented"
)

// PublicStatuses are the statuses listed when drafts are excluded.
var PublicStatuses = []string{StatusActive, StatusSold, StatusRented}

// Property types.
const (
	TypeApartment  = "apartment"
	TypeHouse      = "house"
	TypeCommercial = "commercial"
	TypeShop       = "shop"
	TypeLand       = "land"
)

// Normalize fills defaults and derived fields.
func (p *Property) Normalize() {
	if p.Status == "" {
		p.Status = StatusActive
	}
	if p.Amenities == nil {
		p.Amenities = []string{}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Coordinates != nil {
		p.Coordinates.Geohash = geohash.Encode(p.Coordinates.Lat, p.Coordinates.Lng)
	}
}
