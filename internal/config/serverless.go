package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"lambda-events/pkg/lambda"
)

// ServerlessConfig holds the runtime metadata AWS Lambda exposes through the
// environment
type ServerlessConfig struct {
	IsLambda        bool
	FunctionName    string
	FunctionVersion string
	MemoryMB        int
	Region          string
	LogGroup        string
	LogStream       string
	Stage           string
}

// Global serverless configuration
var (
	serverlessConfig *ServerlessConfig
	serverlessOnce   sync.Once
)

// GetServerlessConfig returns the serverless configuration
func GetServerlessConfig() *ServerlessConfig {
	serverlessOnce.Do(func() {
		serverlessConfig = readServerlessConfig()
	})
	return serverlessConfig
}

func readServerlessConfig() *ServerlessConfig {
	return &ServerlessConfig{
		IsLambda:        isRunningInLambda(),
		FunctionName:    os.Getenv("AWS_LAMBDA_FUNCTION_NAME"),
		FunctionVersion: os.Getenv("AWS_LAMBDA_FUNCTION_VERSION"),
		MemoryMB:        GetEnvAsInt("AWS_LAMBDA_FUNCTION_MEMORY_SIZE", 0),
		Region:          GetEnv("AWS_REGION", os.Getenv("AWS_DEFAULT_REGION")),
		LogGroup:        os.Getenv("AWS_LAMBDA_LOG_GROUP_NAME"),
		LogStream:       os.Getenv("AWS_LAMBDA_LOG_STREAM_NAME"),
		Stage:           GetEnv("STAGE", "dev"),
	}
}

// isRunningInLambda detects if the application is running in AWS Lambda
func isRunningInLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

// IsServerlessMode returns true if running in serverless mode
func IsServerlessMode() bool {
	return GetServerlessConfig().IsLambda
}

// GetDeploymentMode returns the current deployment mode
func GetDeploymentMode() string {
	if IsServerlessMode() {
		return "serverless"
	}
	return "local"
}

// AdaptConfigForServerless overlays the Lambda environment onto config. The
// journal lives on local disk, so it is switched off inside Lambda.
func AdaptConfigForServerless(config *Config, sc *ServerlessConfig) *Config {
	if !sc.IsLambda {
		return config
	}

	config.Function.Name = sc.FunctionName
	if sc.FunctionVersion != "" {
		config.Function.Version = sc.FunctionVersion
	}
	if sc.MemoryMB > 0 {
		config.Function.MemoryMB = sc.MemoryMB
	}
	if sc.Region != "" {
		config.Function.Region = sc.Region
	}
	if sc.LogGroup != "" {
		config.Function.LogGroup = sc.LogGroup
	}
	if sc.LogStream != "" {
		config.Function.LogStream = sc.LogStream
	}
	config.Emulator.Stage = sc.Stage
	config.Journal.Enabled = false

	return config
}

// GetOptimizedConfig returns configuration adapted to the current deployment mode
func GetOptimizedConfig() (*Config, error) {
	config, err := Load()
	if err != nil {
		return nil, err
	}

	return AdaptConfigForServerless(config, GetServerlessConfig()), nil
}

// NewLambdaContext builds the invocation context a local invocation of the
// configured function receives.
func (c *Config) NewLambdaContext(requestID string, now time.Time) *lambda.Context {
	logStream := c.Function.LogStream
	if logStream == "" {
		logStream = fmt.Sprintf("%s/[%s]%s", now.UTC().Format("2006/01/02"), c.Function.Version, requestID)
	}

	return &lambda.Context{
		CallbackWaitsForEmptyEventLoop: c.Function.CallbackWaitsForEmptyEventLoop,
		FunctionName:                   c.Function.Name,
		FunctionVersion:                c.Function.Version,
		InvokedFunctionArn:             c.FunctionARN(),
		MemoryLimitInMB:                c.Function.MemoryMB,
		AwsRequestID:                   requestID,
		LogGroupName:                   c.Function.LogGroup,
		LogStreamName:                  logStream,
		Deadline:                       now.Add(c.Function.Timeout),
	}
}
