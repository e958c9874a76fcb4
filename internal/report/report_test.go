package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tour-planner/internal/catalog"
	"tour-planner/internal/engine"
)

func sample(t *testing.T) (*catalog.Catalog, *engine.Result) {
	t.Helper()
	cat, err := catalog.NewBuilder().
		AddRegion(catalog.Region{ID: "VEN", Name: "Veneto"}).
		AddTour(catalog.Tour{ID: 1, RegionID: "VEN", Name: "Venezia", DurationDays: 2, Cost: 1250.5}).
		AddTour(catalog.Tour{ID: 2, RegionID: "VEN", DurationDays: 1, Cost: 40}).
		AddAttraction(catalog.Attraction{ID: 10, Name: "San Marco", CulturalValue: 9}).
		AddAttraction(catalog.Attraction{ID: 11, Name: "Arena", CulturalValue: 6}).
		Link(1, 10).
		Link(2, 11).
		Build()
	require.NoError(t, err)

	res, err := engine.NewOptimizer(cat).GeneratePackage("VEN", engine.Unlimited[int](), engine.Unlimited[float64]())
	require.NoError(t, err)
	return cat, res
}

func TestMarkdown_ListsToursAndTotals(t *testing.T) {
	cat, res := sample(t)
	md := Markdown(res, cat)

	assert.Contains(t, md, "## Package for Veneto (VEN)")
	assert.Contains(t, md, "| 1 | Venezia (#1) | 2 | €1,250.50 | San Marco |")
	assert.Contains(t, md, "| 2 | #2 | 1 | €40.00 | Arena |")
	assert.Contains(t, md, "**Cultural value:** 15")
	assert.Contains(t, md, "- Arena (value 6)")
}

func TestMarkdown_EmptyPackage(t *testing.T) {
	md := Markdown(&engine.Result{RegionID: "XX", Tours: []*catalog.Tour{}, Stats: engine.SearchStats{Elapsed: time.Millisecond}}, nil)
	assert.Contains(t, md, "## Package for XX")
	assert.Contains(t, md, "_No feasible tours._")
	assert.NotContains(t, md, "### Attractions")
}

func TestRender_PlainWhenNotStyled(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, "# Title\n", false))
	assert.Equal(t, "# Title\n", buf.String())
}

func TestRender_Styled(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, "# Title\n", true))
	assert.Contains(t, buf.String(), "Title")
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "€0.00", Money(0))
	assert.Equal(t, "€1,000,000.25", Money(1000000.25))
}
