package main

import (
	"lambda-events/internal/customresource"
	"lambda-events/internal/functions"
	"lambda-events/pkg/lambda"
)

func main() {
	_, logger := functions.Runtime()
	sender := customresource.NewSender(nil, nil, logger)
	lambda.Start(customresource.NewHandler(functions.RandomStringProvider{}, sender), functions.Observe(logger))
}
