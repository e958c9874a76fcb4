// Package lambdafn serves package searches behind an AWS Lambda function URL.
package lambdafn

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"

	"tour-planner/internal/catalog"
	"tour-planner/internal/engine"
	"tour-planner/internal/logger"
)

var jsonHeader = map[string]string{
	"Content-Type": "application/json",
}

// Handler answers function-URL invocations from a cached catalog.
type Handler struct {
	catalogs *catalog.Provider
	mode     engine.ExclusionMode
}

// New creates a handler. The catalog is loaded on the first invocation and
// reused while the execution environment stays warm.
func New(catalogs *catalog.Provider, mode engine.ExclusionMode) *Handler {
	return &Handler{catalogs: catalogs, mode: mode}
}

// Handle decodes {"region","max_days","max_budget"} and returns the package
// as JSON, or {"error":...} with 400, 404 or 500.
func (h *Handler) Handle(ctx context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	body := event.Body
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return errResp(400, "invalid base64 body")
		}
		body = string(decoded)
	}

	var req engine.Request
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return errResp(400, "invalid JSON: "+err.Error())
	}
	if req.RegionID == "" {
		return errResp(400, "missing region")
	}

	cat, err := h.catalogs.Get(ctx)
	if err != nil {
		logger.Error("Lambda", fmt.Sprintf("load catalog: %v", err))
		return errResp(500, "catalog unavailable")
	}
	if _, err := cat.Region(req.RegionID); err != nil && len(cat.RegionTours(req.RegionID)) == 0 {
		return errResp(404, fmt.Sprintf("region %q not found", req.RegionID))
	}

	res, err := engine.NewOptimizer(cat, engine.WithExclusionMode(h.mode)).
		GeneratePackageContext(ctx, req.RegionID, req.MaxDays, req.MaxBudget)
	switch {
	case errors.Is(err, engine.ErrInvalidInput):
		return errResp(400, err.Error())
	case err != nil:
		logger.Error("Lambda", err.Error())
		return errResp(500, err.Error())
	}

	respJSON, _ := json.Marshal(res)
	return events.LambdaFunctionURLResponse{StatusCode: 200, Headers: jsonHeader, Body: string(respJSON)}, nil
}

func errResp(code int, msg string) (events.LambdaFunctionURLResponse, error) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	return events.LambdaFunctionURLResponse{StatusCode: code, Headers: jsonHeader, Body: string(body)}, nil
}
