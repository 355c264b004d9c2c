package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	env_utils "tentspace/internal/util/env"
	"tentspace/internal/util/logger"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

var log = logger.GetLogger()

const (
	defaultDevelopmentSampleRate = 1.0
	defaultProductionSampleRate  = 0.5
)

type EnvVariables struct {
	IsTesting       bool
	EnvMode         env_utils.EnvMode `env:"ENV_MODE"                            env-default:"development"`
	BackendRootPath string
	ServerPort      string `env:"SERVER_PORT"                         env-default:"4005"`
	Release         string `env:"RELEASE"                             env-default:"dev"`
	// cloudwatch logs
	AWSRegion                 string `env:"AWS_REGION"                          env-default:"ap-northeast-1"`
	AWSAccessKeyID            string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey        string `env:"AWS_SECRET_ACCESS_KEY"`
	AWSEndpointURL            string `env:"AWS_ENDPOINT_URL"`
	CloudWatchLogGroupPrefix  string `env:"CLOUDWATCH_LOG_GROUP_PREFIX"         env-default:"/tentspace/frontend"`
	CloudWatchLogStreamPrefix string `env:"CLOUDWATCH_LOG_STREAM_PREFIX"        env-default:"errors"`
	// error tracking client
	ErrorSampleRate float64 `env:"ERROR_SAMPLE_RATE"                   env-default:"-1"`
	ErrorRelayURL   string  `env:"ERROR_RELAY_URL"`
	// relay volume cap, 0 means unlimited
	ErrorLoggingRateLimitPerSecond int `env:"ERROR_LOGGING_RATE_LIMIT_PER_SECOND" env-default:"0"`
	// auth provider session tokens
	AuthJWTSecret string `env:"AUTH_JWT_SECRET"`
	// cache
	ValkeyHost     string `env:"VALKEY_HOST"`
	ValkeyPort     string `env:"VALKEY_PORT"                         env-default:"6379"`
	ValkeyUsername string `env:"VALKEY_USERNAME"`
	ValkeyPassword string `env:"VALKEY_PASSWORD"`
	ValkeyIsSsl    bool   `env:"VALKEY_IS_SSL"                       env-default:"false"`
}

// IsAWSConfigured reports whether ingestion credentials for the remote log
// store are present.
func (e EnvVariables) IsAWSConfigured() bool {
	return e.AWSAccessKeyID != "" && e.AWSSecretAccessKey != ""
}

func (e EnvVariables) IsCacheConfigured() bool {
	return e.ValkeyHost != ""
}

var (
	env  EnvVariables
	once sync.Once
)

func GetEnv() EnvVariables {
	once.Do(loadEnvVariables)
	return env
}

func loadEnvVariables() {
	cwd, err := os.Getwd()
	if err != nil {
		log.Warn("could not get current working directory", "error", err)
		cwd = "."
	}

	backendRoot := cwd
	for {
		if _, err := os.Stat(filepath.Join(backendRoot, "go.mod")); err == nil {
			break
		}

		parent := filepath.Dir(backendRoot)
		if parent == backendRoot {
			break
		}

		backendRoot = parent
	}

	env.BackendRootPath = backendRoot

	envPaths := []string{
		filepath.Join(cwd, ".env"),
		filepath.Join(backendRoot, ".env"),
	}

	var loaded bool
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			log.Info("Successfully loaded .env", "path", path)
			loaded = true
			break
		}
	}

	if !loaded {
		// Deployments inject the environment directly.
		log.Info("No .env file found, reading configuration from the process environment")
	}

	err = cleanenv.ReadEnv(&env)
	if err != nil {
		log.Error("Configuration could not be loaded", "error", err)
		os.Exit(1)
	}

	for _, arg := range os.Args {
		if strings.Contains(arg, "test") {
			env.IsTesting = true
			break
		}
	}

	if !env.EnvMode.IsValid() {
		log.Error("ENV_MODE is invalid", "mode", env.EnvMode)
		os.Exit(1)
	}
	log.Info("ENV_MODE loaded", "mode", env.EnvMode)

	if env.ErrorSampleRate < 0 {
		env.ErrorSampleRate = defaultSampleRate(env.EnvMode)
	}
	if env.ErrorSampleRate > 1 {
		log.Warn("ERROR_SAMPLE_RATE above 1, clamping", "rate", env.ErrorSampleRate)
		env.ErrorSampleRate = 1
	}

	if env.ErrorRelayURL == "" {
		env.ErrorRelayURL = "http://127.0.0.1:" + env.ServerPort + "/api/error-logging"
	}

	if env.ErrorLoggingRateLimitPerSecond < 0 {
		log.Error("ERROR_LOGGING_RATE_LIMIT_PER_SECOND must not be negative")
		os.Exit(1)
	}

	if !env.IsAWSConfigured() {
		log.Warn("AWS credentials are not configured, error logs will not reach CloudWatch")
	}

	log.Info("Environment variables loaded successfully!")
}

func defaultSampleRate(mode env_utils.EnvMode) float64 {
	if mode.IsProduction() {
		return defaultProductionSampleRate
	}

	return defaultDevelopmentSampleRate
}
