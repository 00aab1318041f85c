package main

import (
	"lambda-events/internal/functions"
	"lambda-events/pkg/lambda"
)

func main() {
	_, logger := functions.Runtime()
	lambda.Start(functions.NewHeartbeat(logger, nil), functions.Observe(logger))
}
