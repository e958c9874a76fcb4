package catalog

import (
	"fmt"
	"slices"
)

// Catalog is an immutable, fully resolved set of regions, tours and
// attractions. It is safe for concurrent readers.
type Catalog struct {
	regions     []*Region
	tours       []*Tour
	attractions []*Attraction
	grants      []Grant

	regionByID     map[string]*Region
	tourByID       map[int]*Tour
	attractionByID map[int]*Attraction
}

// Builder assembles a Catalog from loose records in insertion order.
// Records are validated by Build, not on Add.
type Builder struct {
	regions     []Region
	tours       []Tour
	attractions []Attraction
	grants      []Grant
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) AddRegion(r Region) *Builder {
	b.regions = append(b.regions, r)
	return b
}

func (b *Builder) AddTour(t Tour) *Builder {
	t.attractions = nil
	b.tours = append(b.tours, t)
	return b
}

func (b *Builder) AddAttraction(a Attraction) *Builder {
	a.tours = nil
	b.attractions = append(b.attractions, a)
	return b
}

// Link records that tourID grants attractionID.
func (b *Builder) Link(tourID, attractionID int) *Builder {
	b.grants = append(b.grants, Grant{TourID: tourID, AttractionID: attractionID})
	return b
}

// Build validates the records and resolves both directions of the relation.
// Tours may reference regions that were never added; such regions simply
// have no record (Region returns ErrUnknownRegion) but still filter.
func (b *Builder) Build() (*Catalog, error) {
	c := &Catalog{
		regionByID:     make(map[string]*Region, len(b.regions)),
		tourByID:       make(map[int]*Tour, len(b.tours)),
		attractionByID: make(map[int]*Attraction, len(b.attractions)),
	}

	for i := range b.regions {
		r := b.regions[i]
		if r.ID == "" {
			return nil, fmt.Errorf("%w: region with empty id", ErrInvalidRecord)
		}
		if _, ok := c.regionByID[r.ID]; ok {
			return nil, fmt.Errorf("%w: region %q", ErrDuplicateID, r.ID)
		}
		c.regions = append(c.regions, &r)
		c.regionByID[r.ID] = &r
	}

	for i := range b.tours {
		t := b.tours[i]
		if _, ok := c.tourByID[t.ID]; ok {
			return nil, fmt.Errorf("%w: tour %d", ErrDuplicateID, t.ID)
		}
		if t.Cost < 0 || t.DurationDays < 0 {
			return nil, fmt.Errorf("%w: tour %d has cost %v and duration %d", ErrInvalidRecord, t.ID, t.Cost, t.DurationDays)
		}
		c.tours = append(c.tours, &t)
		c.tourByID[t.ID] = &t
	}

	for i := range b.attractions {
		a := b.attractions[i]
		if _, ok := c.attractionByID[a.ID]; ok {
			return nil, fmt.Errorf("%w: attraction %d", ErrDuplicateID, a.ID)
		}
		if a.CulturalValue < 0 {
			return nil, fmt.Errorf("%w: attraction %d has cultural value %d", ErrInvalidRecord, a.ID, a.CulturalValue)
		}
		c.attractions = append(c.attractions, &a)
		c.attractionByID[a.ID] = &a
	}

	seen := make(map[Grant]bool, len(b.grants))
	for _, g := range b.grants {
		t, ok := c.tourByID[g.TourID]
		if !ok {
			return nil, fmt.Errorf("%w: %d (linked to attraction %d)", ErrUnknownTour, g.TourID, g.AttractionID)
		}
		a, ok := c.attractionByID[g.AttractionID]
		if !ok {
			return nil, fmt.Errorf("%w: %d (granted by tour %d)", ErrUnknownAttraction, g.AttractionID, g.TourID)
		}
		// Relation rows are a set; repeated rows collapse.
		if seen[g] {
			continue
		}
		seen[g] = true
		t.attractions = append(t.attractions, a.ID)
		a.tours = append(a.tours, t.ID)
		c.grants = append(c.grants, g)
	}

	return c, nil
}

// Regions returns all region records in catalog order.
func (c *Catalog) Regions() []Region {
	out := make([]Region, len(c.regions))
	for i, r := range c.regions {
		out[i] = *r
	}
	return out
}

// Region returns the region record for id.
func (c *Catalog) Region(id string) (Region, error) {
	r, ok := c.regionByID[id]
	if !ok {
		return Region{}, fmt.Errorf("%w: %q", ErrUnknownRegion, id)
	}
	return *r, nil
}

// Tours returns every tour in catalog order. The pointers are shared and
// must be treated as read-only.
func (c *Catalog) Tours() []*Tour {
	return slices.Clone(c.tours)
}

// Tour looks up a tour by id.
func (c *Catalog) Tour(id int) (*Tour, bool) {
	t, ok := c.tourByID[id]
	return t, ok
}

// Attractions returns every attraction in catalog order.
func (c *Catalog) Attractions() []*Attraction {
	return slices.Clone(c.attractions)
}

// Attraction looks up an attraction by id.
func (c *Catalog) Attraction(id int) (*Attraction, bool) {
	a, ok := c.attractionByID[id]
	return a, ok
}

// Grants returns the deduplicated tour↔attraction relation in link order.
func (c *Catalog) Grants() []Grant {
	return slices.Clone(c.grants)
}

// RegionTours returns the tours of regionID, preserving catalog order.
// An unknown region yields an empty list.
func (c *Catalog) RegionTours(regionID string) []*Tour {
	var out []*Tour
	for _, t := range c.tours {
		if t.RegionID == regionID {
			out = append(out, t)
		}
	}
	return out
}

// AttractionsOf resolves the attractions granted by tourID.
func (c *Catalog) AttractionsOf(tourID int) []*Attraction {
	t, ok := c.tourByID[tourID]
	if !ok {
		return nil
	}
	out := make([]*Attraction, 0, len(t.attractions))
	for _, id := range t.attractions {
		out = append(out, c.attractionByID[id])
	}
	return out
}

// ToursOf resolves the tours granting attractionID.
func (c *Catalog) ToursOf(attractionID int) []*Tour {
	a, ok := c.attractionByID[attractionID]
	if !ok {
		return nil
	}
	out := make([]*Tour, 0, len(a.tours))
	for _, id := range a.tours {
		out = append(out, c.tourByID[id])
	}
	return out
}

// Stats reports record counts.
func (c *Catalog) Stats() Stats {
	return Stats{
		Regions:     len(c.regions),
		Tours:       len(c.tours),
		Attractions: len(c.attractions),
		Grants:      len(c.grants),
	}
}
