package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tour-planner/internal/dataset"
)

const fixture = `{
  "regions": [{"id": "TOS", "name": "Toscana"}],
  "tours": [
    {"id": 1, "region_id": "TOS", "name": "Firenze", "duration_days": 2, "cost": 200},
    {"id": 2, "region_id": "TOS", "name": "Pisa", "duration_days": 1, "cost": 50},
    {"id": 3, "region_id": "TOS", "name": "Lucca", "duration_days": 1, "cost": 60}
  ],
  "attractions": [
    {"id": 10, "name": "Uffizi", "cultural_value": 9},
    {"id": 11, "name": "Torre", "cultural_value": 5},
    {"id": 12, "name": "Mura", "cultural_value": 3}
  ],
  "tour_attractions": [
    {"tour_id": 1, "attraction_id": 10},
    {"tour_id": 2, "attraction_id": 11},
    {"tour_id": 3, "attraction_id": 12},
    {"tour_id": 3, "attraction_id": 11}
  ]
}`

func writeFixture(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "tuscany.json")
	require.NoError(t, os.WriteFile(p, []byte(fixture), 0o644))
	return p
}

// run executes the CLI with args and returns what it printed to stdout.
func run(t *testing.T, args ...string) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = old }()

	rootCmd.SetArgs(args)
	execErr := rootCmd.Execute()
	w.Close()

	var buf bytes.Buffer
	io.Copy(&buf, r)
	require.NoError(t, execErr, buf.String())
	return buf.String()
}

func TestPlanCommand_JSON(t *testing.T) {
	t.Setenv("TOURPLAN_SOURCE", "json")
	t.Setenv("TOURPLAN_DATASET", writeFixture(t))

	out := run(t, "plan", "--region", "TOS", "--max-budget", "260", "--json")
	var res struct {
		TotalValue int `json:"total_value"`
		Tours      []struct {
			ID int `json:"id"`
		} `json:"tours"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	assert.Equal(t, 17, res.TotalValue)
	require.Len(t, res.Tours, 2)
	assert.Equal(t, 1, res.Tours[0].ID)
	assert.Equal(t, 3, res.Tours[1].ID)
}

func TestImportExport_SQLite(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TOURPLAN_SOURCE", "sqlite")
	t.Setenv("TOURPLAN_SQLITE_PATH", filepath.Join(dir, "tours.db"))

	run(t, "import", "--from", writeFixture(t), "--to", "sqlite")

	out := filepath.Join(dir, "export.json.zst")
	run(t, "export", "--out", out)

	cat, err := dataset.Load(out)
	require.NoError(t, err)
	assert.Equal(t, 3, cat.Stats().Tours)
	assert.Equal(t, 4, cat.Stats().Grants)
}
