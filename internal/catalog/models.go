package catalog

import (
	"errors"
	"slices"
)

var (
	// ErrUnknownRegion is returned when a region lookup finds no record.
	ErrUnknownRegion = errors.New("catalog: unknown region")
	// ErrUnknownTour is returned when a relation references a tour that was never added.
	ErrUnknownTour = errors.New("catalog: unknown tour")
	// ErrUnknownAttraction is returned when a relation references an attraction that was never added.
	ErrUnknownAttraction = errors.New("catalog: unknown attraction")
	// ErrDuplicateID is returned when two records of the same kind share an identifier.
	ErrDuplicateID = errors.New("catalog: duplicate id")
	// ErrInvalidRecord is returned for records with negative cost, duration or value.
	ErrInvalidRecord = errors.New("catalog: invalid record")
)

// Region is a geographic grouping of tours.
type Region struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Tour is a purchasable bundle granting a set of attractions.
type Tour struct {
	ID           int     `json:"id"`
	RegionID     string  `json:"region_id"`
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	DurationDays int     `json:"duration_days"`
	Cost         float64 `json:"cost"`

	// attractions is filled by Builder.Build in link order.
	attractions []int
}

// Attractions returns the ids of the attractions this tour grants.
func (t *Tour) Attractions() []int {
	return slices.Clone(t.attractions)
}

// Attraction is a point of interest whose cultural value is credited at most
// once per package.
type Attraction struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	CulturalValue int    `json:"cultural_value"`

	tours []int
}

// Tours returns the ids of the tours granting this attraction.
func (a *Attraction) Tours() []int {
	return slices.Clone(a.tours)
}

// Grant is one row of the tour↔attraction relation.
type Grant struct {
	TourID       int `json:"tour_id"`
	AttractionID int `json:"attraction_id"`
}

// Stats summarises catalog size for status endpoints and logs.
type Stats struct {
	Regions     int `json:"regions"`
	Tours       int `json:"tours"`
	Attractions int `json:"attractions"`
	Grants      int `json:"grants"`
}
