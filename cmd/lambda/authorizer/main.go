package main

import (
	"lambda-events/internal/auth"
	"lambda-events/internal/functions"
	"lambda-events/pkg/lambda"
)

func main() {
	cfg, logger := functions.Runtime()
	if cfg.JWT.Secret == "" {
		logger.Fatal("JWT_SECRET is required")
	}
	lambda.Start(auth.NewAuthorizer(functions.AuthService(cfg), logger), functions.Observe(logger))
}
