package functions

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"lambda-events/internal/auth"
	"lambda-events/internal/config"
	"lambda-events/internal/logging"
	"lambda-events/pkg/lambda"
)

// Runtime loads the configuration and logger of a deployed function. It
// panics when the configuration is invalid so that the init phase fails.
func Runtime() (*config.Config, *logrus.Logger) {
	cfg, err := config.GetOptimizedConfig()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	logger := logging.New(cfg.Logging, os.Stdout)
	logger.WithField("mode", config.GetDeploymentMode()).Debug("Configuration loaded")
	return cfg, logger
}

// Observe is the invoke option every deployed function runs with.
func Observe(logger logrus.FieldLogger) lambda.InvokeOption {
	return lambda.WithObserver(logging.Observer(logger))
}

// AuthService builds the token service from the JWT settings.
func AuthService(cfg *config.Config) *auth.AuthService {
	return auth.NewAuthService(&auth.AuthConfig{
		JWTSecret:     cfg.JWT.Secret,
		TokenDuration: time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
		Issuer:        cfg.JWT.Issuer,
	})
}
