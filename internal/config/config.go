package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the local runtime and the deployed functions
type Config struct {
	Environment string
	Function    FunctionConfig
	Emulator    EmulatorConfig
	Journal     JournalConfig
	JWT         JWTConfig
	Logging     LoggingConfig
	Storage     StorageConfig
	Schedules   []ScheduleConfig
}

// FunctionConfig describes the function the runtime metadata is reported for
type FunctionConfig struct {
	Name      string
	Version   string
	MemoryMB  int
	Timeout   time.Duration
	Region    string
	AccountID string
	LogGroup  string
	LogStream string

	// CallbackWaitsForEmptyEventLoop seeds the flag on every invocation context
	CallbackWaitsForEmptyEventLoop bool
}

// EmulatorConfig holds the local API Gateway emulator configuration
type EmulatorConfig struct {
	Port       string
	Stage      string
	APIID      string
	RateLimit  float64
	RateBurst  int
	Authorizer bool
}

// JournalConfig holds invocation journal configuration
type JournalConfig struct {
	Enabled bool
	Path    string
}

// JWTConfig holds configuration for the token authorizer
type JWTConfig struct {
	Secret      string
	Issuer      string
	ExpiryHours int
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// StorageConfig holds S3 client configuration
type StorageConfig struct {
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool
}

// ScheduleConfig is one scheduled rule fired by the local scheduler
type ScheduleConfig struct {
	Name       string `mapstructure:"name"`
	Expression string `mapstructure:"expression"`
	Detail     string `mapstructure:"detail"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	return LoadFile(os.Getenv("LAMBDALOCAL_CONFIG"))
}

// LoadFile loads configuration with the given YAML file layered under the
// environment. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	config := &Config{
		Environment: v.GetString("ENVIRONMENT"),
		Function: FunctionConfig{
			Name:                           v.GetString("FUNCTION_NAME"),
			Version:                        v.GetString("FUNCTION_VERSION"),
			MemoryMB:                       v.GetInt("FUNCTION_MEMORY_MB"),
			Timeout:                        v.GetDuration("FUNCTION_TIMEOUT"),
			Region:                         v.GetString("AWS_REGION"),
			AccountID:                      v.GetString("AWS_ACCOUNT_ID"),
			LogGroup:                       v.GetString("FUNCTION_LOG_GROUP"),
			LogStream:                      v.GetString("FUNCTION_LOG_STREAM"),
			CallbackWaitsForEmptyEventLoop: v.GetBool("FUNCTION_WAIT_FOR_EMPTY_LOOP"),
		},
		Emulator: EmulatorConfig{
			Port:       v.GetString("PORT"),
			Stage:      v.GetString("STAGE"),
			APIID:      v.GetString("EMULATOR_API_ID"),
			RateLimit:  v.GetFloat64("EMULATOR_RATE_LIMIT"),
			RateBurst:  v.GetInt("EMULATOR_RATE_BURST"),
			Authorizer: v.GetBool("EMULATOR_AUTHORIZER"),
		},
		Journal: JournalConfig{
			Enabled: v.GetBool("JOURNAL_ENABLED"),
			Path:    v.GetString("JOURNAL_PATH"),
		},
		JWT: JWTConfig{
			Secret:      v.GetString("JWT_SECRET"),
			Issuer:      v.GetString("JWT_ISSUER"),
			ExpiryHours: v.GetInt("JWT_EXPIRY_HOURS"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Storage: StorageConfig{
			S3Region:    v.GetString("S3_REGION"),
			S3Endpoint:  v.GetString("S3_ENDPOINT"),
			S3PathStyle: v.GetBool("S3_PATH_STYLE"),
		},
	}

	if config.Storage.S3Region == "" {
		config.Storage.S3Region = config.Function.Region
	}
	if config.Function.LogGroup == "" {
		config.Function.LogGroup = "/aws/lambda/" + config.Function.Name
	}

	if err := v.UnmarshalKey("schedules", &config.Schedules); err != nil {
		return nil, fmt.Errorf("failed to decode schedules: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("FUNCTION_NAME", "local-function")
	v.SetDefault("FUNCTION_VERSION", "$LATEST")
	v.SetDefault("FUNCTION_MEMORY_MB", 128)
	v.SetDefault("FUNCTION_TIMEOUT", "3s")
	v.SetDefault("FUNCTION_WAIT_FOR_EMPTY_LOOP", true)
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("AWS_ACCOUNT_ID", "123456789012")
	v.SetDefault("PORT", "3000")
	v.SetDefault("STAGE", "local")
	v.SetDefault("EMULATOR_API_ID", "local")
	v.SetDefault("EMULATOR_RATE_LIMIT", 100.0)
	v.SetDefault("EMULATOR_RATE_BURST", 200)
	v.SetDefault("EMULATOR_AUTHORIZER", false)
	v.SetDefault("JOURNAL_ENABLED", true)
	v.SetDefault("JOURNAL_PATH", "./data/invocations.db")
	v.SetDefault("JWT_ISSUER", "lambda-events")
	v.SetDefault("JWT_EXPIRY_HOURS", 24)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// Validate checks the values that would otherwise fail later at runtime
func (c *Config) Validate() error {
	if c.Function.Name == "" {
		return fmt.Errorf("function name cannot be empty")
	}
	if c.Function.MemoryMB < 128 || c.Function.MemoryMB > 10240 {
		return fmt.Errorf("function memory must be between 128 and 10240 MB, got %d", c.Function.MemoryMB)
	}
	if c.Function.Timeout <= 0 {
		return fmt.Errorf("function timeout must be positive")
	}
	if c.Emulator.RateLimit < 0 || c.Emulator.RateBurst < 0 {
		return fmt.Errorf("rate limit settings cannot be negative")
	}
	if c.Emulator.Authorizer && c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required when the emulator authorizer is enabled")
	}
	for i, s := range c.Schedules {
		if s.Name == "" || s.Expression == "" {
			return fmt.Errorf("schedule %d needs a name and an expression", i)
		}
	}
	return nil
}

// FunctionARN returns the ARN the function is invoked through
func (c *Config) FunctionARN() string {
	return fmt.Sprintf("arn:aws:lambda:%s:%s:function:%s", c.Function.Region, c.Function.AccountID, c.Function.Name)
}

// GetEnv gets an environment variable with a fallback value
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// GetEnvAsInt gets an environment variable as integer with a fallback value
func GetEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}
