package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, "local-function", cfg.Function.Name)
	assert.Equal(t, "$LATEST", cfg.Function.Version)
	assert.Equal(t, 128, cfg.Function.MemoryMB)
	assert.Equal(t, 3*time.Second, cfg.Function.Timeout)
	assert.True(t, cfg.Function.CallbackWaitsForEmptyEventLoop)
	assert.Equal(t, "/aws/lambda/local-function", cfg.Function.LogGroup)
	assert.Equal(t, "3000", cfg.Emulator.Port)
	assert.Equal(t, "us-east-1", cfg.Storage.S3Region)
	assert.Empty(t, cfg.Schedules)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("FUNCTION_NAME", "orders")
	t.Setenv("FUNCTION_MEMORY_MB", "512")
	t.Setenv("FUNCTION_TIMEOUT", "30s")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("S3_ENDPOINT", "http://localhost:9000")
	t.Setenv("S3_PATH_STYLE", "true")

	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, "orders", cfg.Function.Name)
	assert.Equal(t, 512, cfg.Function.MemoryMB)
	assert.Equal(t, 30*time.Second, cfg.Function.Timeout)
	assert.Equal(t, "eu-west-1", cfg.Storage.S3Region)
	assert.Equal(t, "http://localhost:9000", cfg.Storage.S3Endpoint)
	assert.True(t, cfg.Storage.S3PathStyle)
	assert.Equal(t, "arn:aws:lambda:eu-west-1:123456789012:function:orders", cfg.FunctionARN())
}

func TestLoadSchedulesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lambdalocal.yaml")
	content := `schedules:
  - name: heartbeat
    expression: "@every 1m"
  - name: nightly
    expression: "0 3 * * *"
    detail: '{"job":"cleanup"}'
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, cfg.Schedules, 2)
	assert.Equal(t, "heartbeat", cfg.Schedules[0].Name)
	assert.Equal(t, "0 3 * * *", cfg.Schedules[1].Expression)
	assert.Equal(t, `{"job":"cleanup"}`, cfg.Schedules[1].Detail)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"memory too low", func(c *Config) { c.Function.MemoryMB = 64 }, true},
		{"zero timeout", func(c *Config) { c.Function.Timeout = 0 }, true},
		{"authorizer without secret", func(c *Config) { c.Emulator.Authorizer = true }, true},
		{"authorizer with secret", func(c *Config) {
			c.Emulator.Authorizer = true
			c.JWT.Secret = "s3cret"
		}, false},
		{"schedule without expression", func(c *Config) {
			c.Schedules = []ScheduleConfig{{Name: "x"}}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Function: FunctionConfig{Name: "f", MemoryMB: 128, Timeout: time.Second}}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAdaptConfigForServerless(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)

	local := AdaptConfigForServerless(cfg, &ServerlessConfig{})
	assert.True(t, local.Journal.Enabled)

	adapted := AdaptConfigForServerless(cfg, &ServerlessConfig{
		IsLambda:        true,
		FunctionName:    "deployed",
		FunctionVersion: "7",
		MemoryMB:        1024,
		Region:          "ap-south-1",
		LogGroup:        "/aws/lambda/deployed",
		Stage:           "prod",
	})
	assert.Equal(t, "deployed", adapted.Function.Name)
	assert.Equal(t, "7", adapted.Function.Version)
	assert.Equal(t, 1024, adapted.Function.MemoryMB)
	assert.Equal(t, "prod", adapted.Emulator.Stage)
	assert.False(t, adapted.Journal.Enabled)
}

func TestNewLambdaContext(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)

	now := time.Now()
	lc := cfg.NewLambdaContext("req-42", now)

	assert.Equal(t, "req-42", lc.AwsRequestID)
	assert.Equal(t, cfg.FunctionARN(), lc.InvokedFunctionArn)
	assert.Equal(t, 128, lc.MemoryLimitInMB)
	assert.Contains(t, lc.LogStreamName, "req-42")
	assert.Equal(t, now.Add(3*time.Second), lc.Deadline)
	assert.True(t, lc.CallbackWaitsForEmptyEventLoop)
}
