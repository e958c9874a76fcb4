package engine

import (
	"context"
	"slices"

	"tour-planner/internal/catalog"
)

// session is the state of one GeneratePackage call: the partial selection
// being extended and the best selection seen so far. It is never shared.
type session struct {
	ctx       context.Context
	cands     []candidate
	maxDays   Limit[int]
	maxBudget Limit[float64]
	mode      ExclusionMode

	// partial selection
	selection []*catalog.Tour
	used      map[int]bool

	// best so far
	best      []*catalog.Tour
	bestCost  float64
	bestDays  int
	bestValue int

	nodes        int64
	improvements int
	err          error
}

func newSession(ctx context.Context, cands []candidate, maxDays Limit[int], maxBudget Limit[float64], mode ExclusionMode) *session {
	return &session{
		ctx:       ctx,
		cands:     cands,
		maxDays:   maxDays,
		maxBudget: maxBudget,
		mode:      mode,
		selection: make([]*catalog.Tour, 0, len(cands)),
		used:      make(map[int]bool),
		bestValue: noSolution,
	}
}

// search visits the node for the current selection, then branches on every
// tour at index >= start. Running totals travel as arguments so backtracking
// never has to subtract floats.
func (s *session) search(start, days int, cost float64, value int) {
	s.nodes++
	if s.nodes%cancelCheckInterval == 0 {
		if err := s.ctx.Err(); err != nil {
			s.err = err
		}
	}
	if s.err != nil {
		return
	}

	// Strictly greater: ties keep the earlier selection in enumeration order.
	if value > s.bestValue {
		s.best = slices.Clone(s.selection)
		s.bestCost = cost
		s.bestDays = days
		s.bestValue = value
		s.improvements++
	}

	for i := start; i < len(s.cands); i++ {
		c := &s.cands[i]
		if !s.feasible(c, days, cost) {
			continue
		}

		s.selection = append(s.selection, c.tour)
		for _, id := range c.attractions {
			s.used[id] = true
		}

		s.search(i+1, days+c.tour.DurationDays, cost+c.tour.Cost, value+c.value)

		s.selection = s.selection[:len(s.selection)-1]
		if s.mode == ExclusionRestore {
			for _, id := range c.attractions {
				delete(s.used, id)
			}
		}
		if s.err != nil {
			return
		}
	}
}

// feasible applies the validity rule before a tour is added.
func (s *session) feasible(c *candidate, days int, cost float64) bool {
	if !s.maxDays.Allows(days + c.tour.DurationDays) {
		return false
	}
	if !s.maxBudget.Allows(cost + c.tour.Cost) {
		return false
	}
	for _, id := range c.attractions {
		if s.used[id] {
			return false
		}
	}
	return true
}

func (s *session) result(regionID string) *Result {
	res := &Result{
		RegionID:    regionID,
		Tours:       make([]*catalog.Tour, 0, len(s.best)),
		Attractions: []int{},
		TotalCost:   s.bestCost,
		TotalDays:   s.bestDays,
		TotalValue:  s.bestValue,
		Stats: SearchStats{
			Candidates:   len(s.cands),
			NodesVisited: s.nodes,
			Improvements: s.improvements,
		},
	}
	res.Tours = append(res.Tours, s.best...)
	for _, t := range s.best {
		res.Attractions = append(res.Attractions, t.Attractions()...)
	}
	return res
}
