package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"tour-planner/internal/catalog"
)

var (
	// ErrInvalidInput marks caller or catalog contract violations: negative
	// bounds, a missing catalog, or tours referencing unknown attractions.
	ErrInvalidInput = errors.New("invalid input")
	// ErrSearchCancelled is returned when the caller's context ends mid-search.
	ErrSearchCancelled = errors.New("search cancelled")
)

// ExclusionMode selects how the used-attraction set behaves on backtrack.
type ExclusionMode int

const (
	// ExclusionRestore unmarks a tour's attractions when the tour is removed,
	// so sibling branches are explored independently.
	ExclusionRestore ExclusionMode = iota
	// ExclusionAccumulate keeps attractions marked after backtracking. Later
	// branches can then reject tours that would be feasible on their own.
	// Kept only for reproducing results of the legacy planner.
	ExclusionAccumulate
)

func (m ExclusionMode) String() string {
	switch m {
	case ExclusionRestore:
		return "restore"
	case ExclusionAccumulate:
		return "accumulate"
	}
	return fmt.Sprintf("ExclusionMode(%d)", int(m))
}

// ParseExclusionMode maps a config string to a mode.
func ParseExclusionMode(s string) (ExclusionMode, error) {
	switch s {
	case "", "restore":
		return ExclusionRestore, nil
	case "accumulate":
		return ExclusionAccumulate, nil
	}
	return 0, fmt.Errorf("%w: unknown exclusion mode %q", ErrInvalidInput, s)
}

const (
	// noSolution is the best-so-far value before any node is visited.
	// Cultural values are non-negative, so the empty selection always beats it.
	noSolution = -1
	// cancelCheckInterval is how many nodes pass between context checks.
	cancelCheckInterval = 4096
)

// Result is the winning package for one region.
type Result struct {
	RegionID    string          `json:"region_id"`
	Tours       []*catalog.Tour `json:"tours"`
	Attractions []int           `json:"attractions"`
	TotalCost   float64         `json:"total_cost"`
	TotalDays   int             `json:"total_days"`
	TotalValue  int             `json:"total_value"`
	Stats       SearchStats     `json:"stats"`
}

// SearchStats describes the work one search performed.
type SearchStats struct {
	Candidates   int           `json:"candidates"`
	NodesVisited int64         `json:"nodes_visited"`
	Improvements int           `json:"improvements"`
	Elapsed      time.Duration `json:"elapsed_ns"`
}

// Optimizer selects the highest-value feasible package of tours in a region.
// It holds no search state of its own; every call builds a fresh session, so
// one Optimizer may serve concurrent callers.
type Optimizer struct {
	cat  *catalog.Catalog
	mode ExclusionMode
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithExclusionMode overrides the default ExclusionRestore behaviour.
func WithExclusionMode(m ExclusionMode) Option {
	return func(o *Optimizer) {
		o.mode = m
	}
}

// NewOptimizer creates an optimizer over a loaded catalog.
func NewOptimizer(cat *catalog.Catalog, opts ...Option) *Optimizer {
	o := &Optimizer{cat: cat}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Catalog returns the catalog the optimizer searches.
func (o *Optimizer) Catalog() *catalog.Catalog {
	return o.cat
}

// GeneratePackage runs the exhaustive search for regionID. An unknown region
// or one with no feasible tours yields the empty package, not an error.
func (o *Optimizer) GeneratePackage(regionID string, maxDays Limit[int], maxBudget Limit[float64]) (*Result, error) {
	return o.GeneratePackageContext(context.Background(), regionID, maxDays, maxBudget)
}

// GeneratePackageContext is GeneratePackage with a cancellation hook for
// embedding callers that need a deadline. The context is polled every few
// thousand nodes; a cancelled search returns ErrSearchCancelled.
func (o *Optimizer) GeneratePackageContext(ctx context.Context, regionID string, maxDays Limit[int], maxBudget Limit[float64]) (*Result, error) {
	if err := validateBounds(maxDays, maxBudget); err != nil {
		return nil, err
	}
	if o.cat == nil {
		return nil, fmt.Errorf("%w: optimizer has no catalog", ErrInvalidInput)
	}

	cands, err := o.candidates(regionID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	s := newSession(ctx, cands, maxDays, maxBudget, o.mode)
	s.search(0, 0, 0, 0)
	if s.err != nil {
		return nil, fmt.Errorf("%w: region %q after %d nodes: %w", ErrSearchCancelled, regionID, s.nodes, s.err)
	}

	res := s.result(regionID)
	res.Stats.Elapsed = time.Since(start)
	return res, nil
}

func validateBounds(maxDays Limit[int], maxBudget Limit[float64]) error {
	if d, ok := maxDays.Value(); ok && d < 0 {
		return fmt.Errorf("%w: max days %d is negative", ErrInvalidInput, d)
	}
	if b, ok := maxBudget.Value(); ok && (b < 0 || math.IsNaN(b)) {
		return fmt.Errorf("%w: max budget %v is negative", ErrInvalidInput, b)
	}
	return nil
}

// candidate is a region tour with its grants resolved once up front.
type candidate struct {
	tour        *catalog.Tour
	attractions []int
	// value is the sum over the tour's attractions. The exclusivity rule
	// rejects any tour overlapping the used set, so an accepted tour always
	// credits all of it.
	value int
}

func (o *Optimizer) candidates(regionID string) ([]candidate, error) {
	tours := o.cat.RegionTours(regionID)
	out := make([]candidate, 0, len(tours))
	for _, t := range tours {
		c := candidate{tour: t, attractions: t.Attractions()}
		for _, id := range c.attractions {
			a, ok := o.cat.Attraction(id)
			if !ok {
				return nil, fmt.Errorf("%w: tour %d grants attraction %d: %w", ErrInvalidInput, t.ID, id, catalog.ErrUnknownAttraction)
			}
			c.value += a.CulturalValue
		}
		out = append(out, c)
	}
	return out, nil
}
