package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"tour-planner/internal/catalog"
	"tour-planner/internal/engine"

	_ "modernc.org/sqlite"
)

// openTestDB opens an in-memory SQLite DB and runs migrations (for testing only).
func openTestDB(t *testing.T) *DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", ":memory:?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	// Each pooled connection would get its own empty :memory: database.
	sqlDB.SetMaxOpenConns(1)
	d := &DB{sql: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		t.Fatalf("migrate: %v", err)
	}
	return d
}

func sampleCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.NewBuilder().
		AddRegion(catalog.Region{ID: "TOS", Name: "Toscana"}).
		AddRegion(catalog.Region{ID: "LAZ", Name: "Lazio"}).
		// Ids deliberately out of order so position, not id, drives ordering.
		AddTour(catalog.Tour{ID: 30, RegionID: "TOS", Name: "Firenze", DurationDays: 2, Cost: 150.5}).
		AddTour(catalog.Tour{ID: 10, RegionID: "TOS", Name: "Siena", Description: "Palio", DurationDays: 1, Cost: 80}).
		AddTour(catalog.Tour{ID: 20, RegionID: "LAZ", Name: "Roma", DurationDays: 3, Cost: 300}).
		AddAttraction(catalog.Attraction{ID: 2, Name: "Uffizi", CulturalValue: 9}).
		AddAttraction(catalog.Attraction{ID: 1, Name: "Duomo di Siena", CulturalValue: 7}).
		AddAttraction(catalog.Attraction{ID: 3, Name: "Colosseo", CulturalValue: 10}).
		Link(30, 2).
		Link(10, 1).
		Link(30, 1).
		Link(20, 3).
		Build()
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	return cat
}

func TestDB_MigrateIsIdempotent(t *testing.T) {
	d := openTestDB(t)
	defer d.Close()
	if err := d.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	var n int
	if err := d.sql.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("schema_version rows = %d, want 3", n)
	}
}

func TestDB_CatalogRoundTrip(t *testing.T) {
	d := openTestDB(t)
	defer d.Close()
	ctx := context.Background()

	want := sampleCatalog(t)
	if err := d.ImportCatalog(ctx, want, "fixtures.json"); err != nil {
		t.Fatalf("ImportCatalog: %v", err)
	}
	got, err := d.LoadCatalog(ctx)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}

	if got.Stats() != want.Stats() {
		t.Errorf("Stats = %+v, want %+v", got.Stats(), want.Stats())
	}
	var ids []int
	for _, tr := range got.RegionTours("TOS") {
		ids = append(ids, tr.ID)
	}
	if len(ids) != 2 || ids[0] != 30 || ids[1] != 10 {
		t.Errorf("RegionTours(TOS) = %v, want [30 10]", ids)
	}
	firenze, ok := got.Tour(30)
	if !ok {
		t.Fatal("tour 30 missing")
	}
	if attrs := firenze.Attractions(); len(attrs) != 2 || attrs[0] != 2 || attrs[1] != 1 {
		t.Errorf("tour 30 attractions = %v, want [2 1]", attrs)
	}
	if firenze.Cost != 150.5 || firenze.DurationDays != 2 {
		t.Errorf("tour 30 = %+v", firenze)
	}
	siena, _ := got.Tour(10)
	if siena.Description != "Palio" {
		t.Errorf("description = %q, want Palio", siena.Description)
	}
	if tours := got.ToursOf(1); len(tours) != 2 {
		t.Errorf("ToursOf(1) len = %d, want 2", len(tours))
	}
}

func TestDB_ImportReplacesPrevious(t *testing.T) {
	d := openTestDB(t)
	defer d.Close()
	ctx := context.Background()

	if err := d.ImportCatalog(ctx, sampleCatalog(t), "first"); err != nil {
		t.Fatal(err)
	}
	small, err := catalog.NewBuilder().
		AddRegion(catalog.Region{ID: "SIC", Name: "Sicilia"}).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	if err := d.ImportCatalog(ctx, small, "second"); err != nil {
		t.Fatal(err)
	}

	regions, err := d.Regions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(regions) != 1 || regions[0].ID != "SIC" {
		t.Errorf("Regions = %+v, want [SIC]", regions)
	}
	meta, err := d.Meta(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Source != "second" {
		t.Errorf("Meta.Source = %q, want second", meta.Source)
	}
	if meta.ImportedAt.IsZero() {
		t.Error("Meta.ImportedAt is zero")
	}
}

func TestDB_MetaBeforeImport(t *testing.T) {
	d := openTestDB(t)
	defer d.Close()
	if _, err := d.Meta(context.Background()); !errors.Is(err, ErrNoCatalog) {
		t.Errorf("Meta err = %v, want ErrNoCatalog", err)
	}
}

func TestDB_PlanHistoryRoundTrip(t *testing.T) {
	d := openTestDB(t)
	defer d.Close()
	ctx := context.Background()

	cat := sampleCatalog(t)
	opt := engine.NewOptimizer(cat)
	res, err := opt.GeneratePackage("TOS", engine.Max(2), engine.Unlimited[float64]())
	if err != nil {
		t.Fatal(err)
	}
	id, err := d.InsertPlan(ctx, res, engine.Max(2), engine.Unlimited[float64]())
	if err != nil {
		t.Fatalf("InsertPlan: %v", err)
	}
	if id <= 0 {
		t.Fatalf("InsertPlan id = %d", id)
	}

	records, err := d.GetHistory(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("GetHistory len = %d, want 1", len(records))
	}
	r := records[0]
	if r.RegionID != "TOS" || r.TotalValue != res.TotalValue {
		t.Errorf("record = %+v, want region TOS value %d", r, res.TotalValue)
	}
	if r.MaxDays == nil || *r.MaxDays != 2 {
		t.Errorf("MaxDays = %v, want 2", r.MaxDays)
	}
	if r.MaxBudget != nil {
		t.Errorf("MaxBudget = %v, want nil", *r.MaxBudget)
	}
	if len(r.TourIDs) != len(res.Tours) {
		t.Errorf("TourIDs = %v, want %d ids", r.TourIDs, len(res.Tours))
	}
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tours.db")
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := d.ImportCatalog(context.Background(), sampleCatalog(t), "file"); err != nil {
		t.Fatal(err)
	}
	d.Close()

	d, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer d.Close()
	cat, err := d.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if cat.Stats().Tours != 3 {
		t.Errorf("tours after reopen = %d, want 3", cat.Stats().Tours)
	}
}
