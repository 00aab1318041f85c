package main

import (
	"lambda-events/internal/functions"
	"lambda-events/pkg/lambda"
)

func main() {
	_, logger := functions.Runtime()
	lambda.Start(functions.NewSecurityHeaders(logger), functions.Observe(logger))
}
