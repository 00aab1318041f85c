package main

import (
	"strings"

	"lambda-events/internal/config"
	"lambda-events/internal/functions"
	"lambda-events/pkg/lambda"
)

func main() {
	_, logger := functions.Runtime()

	var domains []string
	for _, d := range strings.Split(config.GetEnv("AUTO_CONFIRM_DOMAINS", ""), ",") {
		if d = strings.TrimSpace(d); d != "" {
			domains = append(domains, d)
		}
	}

	opts := functions.CognitoOptions{
		AutoConfirmDomains: domains,
		MaxAttempts:        config.GetEnvAsInt("CHALLENGE_MAX_ATTEMPTS", 3),
		CodeLength:         config.GetEnvAsInt("CHALLENGE_CODE_LENGTH", 6),
	}
	lambda.Start(functions.NewCognitoTrigger(opts, logger), functions.Observe(logger))
}
