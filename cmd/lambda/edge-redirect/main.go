package main

import (
	_ "embed"
	"encoding/json"

	"lambda-events/internal/functions"
	"lambda-events/pkg/lambda"
)

// Lambda@Edge functions have no environment, so the table ships with the binary.
//
//go:embed redirects.json
var redirectsJSON []byte

func main() {
	_, logger := functions.Runtime()

	var redirects map[string]string
	if err := json.Unmarshal(redirectsJSON, &redirects); err != nil {
		logger.WithError(err).Fatal("Invalid redirect table")
	}
	lambda.Start(functions.NewEdgeRedirect(redirects, logger), functions.Observe(logger))
}
