package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tour-planner/internal/catalog"
)

// ErrNoCatalog is returned by Meta before any catalog has been imported.
var ErrNoCatalog = errors.New("db: no catalog imported")

// CatalogMeta describes the last import.
type CatalogMeta struct {
	Source     string    `json:"source"`
	ImportedAt time.Time `json:"imported_at"`
}

// Load implements catalog.Source.
func (d *DB) Load(ctx context.Context) (*catalog.Catalog, error) {
	return d.LoadCatalog(ctx)
}

// LoadCatalog reads every table and assembles a catalog in import order.
func (d *DB) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	b := catalog.NewBuilder()

	regions, err := d.Regions(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range regions {
		b.AddRegion(r)
	}

	rows, err := d.sql.QueryContext(ctx,
		`SELECT id, region_id, name, description, duration_days, cost
		 FROM tour ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query tours: %w", err)
	}
	for rows.Next() {
		var t catalog.Tour
		if err := rows.Scan(&t.ID, &t.RegionID, &t.Name, &t.Description, &t.DurationDays, &t.Cost); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan tour: %w", err)
		}
		b.AddTour(t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read tours: %w", err)
	}

	rows, err = d.sql.QueryContext(ctx,
		`SELECT id, name, description, cultural_value
		 FROM attraction ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query attractions: %w", err)
	}
	for rows.Next() {
		var a catalog.Attraction
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.CulturalValue); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan attraction: %w", err)
		}
		b.AddAttraction(a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read attractions: %w", err)
	}

	rows, err = d.sql.QueryContext(ctx,
		`SELECT tour_id, attraction_id FROM tour_attraction ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query tour_attraction: %w", err)
	}
	for rows.Next() {
		var tourID, attrID int
		if err := rows.Scan(&tourID, &attrID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan tour_attraction: %w", err)
		}
		b.Link(tourID, attrID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read tour_attraction: %w", err)
	}

	return b.Build()
}

// Regions returns all region records in import order.
func (d *DB) Regions(ctx context.Context) ([]catalog.Region, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT id, name FROM region ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("query regions: %w", err)
	}
	defer rows.Close()

	out := []catalog.Region{}
	for rows.Next() {
		var r catalog.Region
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ImportCatalog replaces the stored catalog with cat in one transaction and
// records source in catalog_meta.
func (d *DB) ImportCatalog(ctx context.Context, cat *catalog.Catalog, source string) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"tour_attraction", "tour", "attraction", "region"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if err := insertEach(ctx, tx, "INSERT INTO region (id, name, position) VALUES (?, ?, ?)",
		cat.Regions(), func(i int, r catalog.Region) []any {
			return []any{r.ID, r.Name, i}
		}); err != nil {
		return fmt.Errorf("insert regions: %w", err)
	}
	if err := insertEach(ctx, tx,
		"INSERT INTO tour (id, region_id, name, description, duration_days, cost, position) VALUES (?, ?, ?, ?, ?, ?, ?)",
		cat.Tours(), func(i int, t *catalog.Tour) []any {
			return []any{t.ID, t.RegionID, t.Name, t.Description, t.DurationDays, t.Cost, i}
		}); err != nil {
		return fmt.Errorf("insert tours: %w", err)
	}
	if err := insertEach(ctx, tx,
		"INSERT INTO attraction (id, name, description, cultural_value, position) VALUES (?, ?, ?, ?, ?)",
		cat.Attractions(), func(i int, a *catalog.Attraction) []any {
			return []any{a.ID, a.Name, a.Description, a.CulturalValue, i}
		}); err != nil {
		return fmt.Errorf("insert attractions: %w", err)
	}
	if err := insertEach(ctx, tx,
		"INSERT INTO tour_attraction (tour_id, attraction_id, position) VALUES (?, ?, ?)",
		cat.Grants(), func(i int, g catalog.Grant) []any {
			return []any{g.TourID, g.AttractionID, i}
		}); err != nil {
		return fmt.Errorf("insert grants: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO catalog_meta (id, source, imported_at) VALUES (1, ?, ?)",
		source, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("write catalog_meta: %w", err)
	}

	return tx.Commit()
}

func insertEach[T any](ctx context.Context, tx *sql.Tx, query string, items []T, args func(int, T) []any) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, item := range items {
		if _, err := stmt.ExecContext(ctx, args(i, item)...); err != nil {
			return err
		}
	}
	return nil
}

// Meta returns the source and time of the last import.
func (d *DB) Meta(ctx context.Context) (CatalogMeta, error) {
	var m CatalogMeta
	var ts string
	err := d.sql.QueryRowContext(ctx, "SELECT source, imported_at FROM catalog_meta WHERE id = 1").Scan(&m.Source, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrNoCatalog
	}
	if err != nil {
		return m, fmt.Errorf("read catalog_meta: %w", err)
	}
	m.ImportedAt, _ = time.Parse(time.RFC3339, ts)
	return m, nil
}
