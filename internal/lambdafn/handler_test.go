package lambdafn

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tour-planner/internal/catalog"
	"tour-planner/internal/engine"
)

func newHandler(t *testing.T) *Handler {
	t.Helper()
	cat, err := catalog.NewBuilder().
		AddRegion(catalog.Region{ID: "SIC", Name: "Sicilia"}).
		AddRegion(catalog.Region{ID: "MOL", Name: "Molise"}).
		AddTour(catalog.Tour{ID: 1, RegionID: "SIC", DurationDays: 2, Cost: 120}).
		AddTour(catalog.Tour{ID: 2, RegionID: "SIC", DurationDays: 3, Cost: 90}).
		AddAttraction(catalog.Attraction{ID: 1, CulturalValue: 7}).
		AddAttraction(catalog.Attraction{ID: 2, CulturalValue: 4}).
		Link(1, 1).
		Link(2, 2).
		Build()
	require.NoError(t, err)
	p := catalog.NewProvider(catalog.SourceFunc(func(context.Context) (*catalog.Catalog, error) {
		return cat, nil
	}))
	return New(p, engine.ExclusionRestore)
}

func invoke(t *testing.T, h *Handler, body string, b64 bool) (int, map[string]any) {
	t.Helper()
	ev := events.LambdaFunctionURLRequest{Body: body}
	if b64 {
		ev.Body = base64.StdEncoding.EncodeToString([]byte(body))
		ev.IsBase64Encoded = true
	}
	resp, err := h.Handle(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &out))
	return resp.StatusCode, out
}

func TestHandle_Package(t *testing.T) {
	h := newHandler(t)

	code, out := invoke(t, h, `{"region":"SIC","max_days":4}`, false)
	assert.Equal(t, 200, code)
	assert.EqualValues(t, 7, out["total_value"])

	code, out = invoke(t, h, `{"region":"SIC","max_budget":100}`, true)
	assert.Equal(t, 200, code)
	assert.EqualValues(t, 4, out["total_value"])
}

func TestHandle_RegionWithoutTours(t *testing.T) {
	code, out := invoke(t, newHandler(t), `{"region":"MOL"}`, false)
	assert.Equal(t, 200, code)
	assert.EqualValues(t, 0, out["total_value"])
	assert.Equal(t, []any{}, out["tours"])
}

func TestHandle_Errors(t *testing.T) {
	h := newHandler(t)
	tests := []struct {
		name string
		body string
		code int
	}{
		{"bad json", `{`, 400},
		{"missing region", `{"max_days":2}`, 400},
		{"negative budget", `{"region":"SIC","max_budget":-1}`, 400},
		{"unknown region", `{"region":"ZZZ"}`, 404},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out := invoke(t, h, tt.body, false)
			assert.Equal(t, tt.code, code)
			assert.NotEmpty(t, out["error"])
		})
	}

	resp, err := h.Handle(context.Background(), events.LambdaFunctionURLRequest{Body: "%%%", IsBase64Encoded: true})
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestHandle_CatalogFailure(t *testing.T) {
	p := catalog.NewProvider(catalog.SourceFunc(func(context.Context) (*catalog.Catalog, error) {
		return nil, errors.New("no such bucket")
	}))
	code, out := invoke(t, New(p, engine.ExclusionRestore), `{"region":"SIC"}`, false)
	assert.Equal(t, 500, code)
	assert.Equal(t, "catalog unavailable", out["error"])
}
