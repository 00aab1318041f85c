package main

import (
	"context"

	"lambda-events/internal/config"
	"lambda-events/internal/functions"
	"lambda-events/internal/objects"
	"lambda-events/pkg/lambda"
)

func main() {
	cfg, logger := functions.Runtime()

	client, err := objects.NewClient(context.Background(), cfg.Storage)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create S3 client")
	}

	fetcher := objects.NewFetcher(client, int64(config.GetEnvAsInt("OBJECT_MAX_BYTES", objects.DefaultMaxBytes)))
	lambda.Start(functions.NewObjectInspector(fetcher, logger), functions.Observe(logger))
}
