package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"tour-planner/internal/engine"
)

// PlanRecord represents one completed package search.
type PlanRecord struct {
	ID         int64    `json:"id"`
	Timestamp  string   `json:"timestamp"`
	RegionID   string   `json:"region_id"`
	MaxDays    *int     `json:"max_days"`
	MaxBudget  *float64 `json:"max_budget"`
	TourIDs    []int    `json:"tour_ids"`
	TotalValue int      `json:"total_value"`
	TotalCost  float64  `json:"total_cost"`
	TotalDays  int      `json:"total_days"`
	Nodes      int64    `json:"nodes"`
	DurationMs int64    `json:"duration_ms"`
}

// InsertPlan stores a search result and returns its ID. Unset bounds are
// stored as NULL.
func (d *DB) InsertPlan(ctx context.Context, res *engine.Result, maxDays engine.Limit[int], maxBudget engine.Limit[float64]) (int64, error) {
	ids := make([]int, len(res.Tours))
	for i, t := range res.Tours {
		ids[i] = t.ID
	}
	idsJSON, _ := json.Marshal(ids)

	var days sql.NullInt64
	if v, ok := maxDays.Value(); ok {
		days = sql.NullInt64{Int64: int64(v), Valid: true}
	}
	var budget sql.NullFloat64
	if v, ok := maxBudget.Value(); ok {
		budget = sql.NullFloat64{Float64: v, Valid: true}
	}

	result, err := d.sql.ExecContext(ctx,
		`INSERT INTO plan_history
		 (timestamp, region_id, max_days, max_budget, tour_ids, total_value, total_cost, total_days, nodes, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().Format(time.RFC3339), res.RegionID, days, budget, string(idsJSON),
		res.TotalValue, res.TotalCost, res.TotalDays, res.Stats.NodesVisited, res.Stats.Elapsed.Milliseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert plan: %w", err)
	}
	return result.LastInsertId()
}

// GetHistory returns the last N plan records (newest first).
func (d *DB) GetHistory(ctx context.Context, limit int) ([]PlanRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.sql.QueryContext(ctx,
		`SELECT id, timestamp, region_id, max_days, max_budget, tour_ids,
		 total_value, total_cost, total_days, nodes, duration_ms
		 FROM plan_history ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := []PlanRecord{}
	for rows.Next() {
		var r PlanRecord
		var days sql.NullInt64
		var budget sql.NullFloat64
		var idsJSON string
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.RegionID, &days, &budget, &idsJSON,
			&r.TotalValue, &r.TotalCost, &r.TotalDays, &r.Nodes, &r.DurationMs); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if days.Valid {
			v := int(days.Int64)
			r.MaxDays = &v
		}
		if budget.Valid {
			v := budget.Float64
			r.MaxBudget = &v
		}
		if err := json.Unmarshal([]byte(idsJSON), &r.TourIDs); err != nil {
			r.TourIDs = []int{}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
