package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"tour-planner/internal/catalog"
	"tour-planner/internal/dataset"
	"tour-planner/internal/engine"
	"tour-planner/internal/lambdafn"
	"tour-planner/internal/logger"
)

func main() {
	path := os.Getenv("TOURPLAN_DATASET")
	if path == "" {
		logger.Error("Lambda", "TOURPLAN_DATASET is not set")
		os.Exit(1)
	}
	mode, err := engine.ParseExclusionMode(os.Getenv("TOURPLAN_EXCLUSION_MODE"))
	if err != nil {
		logger.Error("Lambda", err.Error())
		os.Exit(1)
	}

	provider := catalog.NewProvider(catalog.SourceFunc(func(context.Context) (*catalog.Catalog, error) {
		return dataset.Load(path)
	}))
	lambda.Start(lambdafn.New(provider, mode).Handle)
}
