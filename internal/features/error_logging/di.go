package error_logging

import (
	"context"
	"net/http"

	"tentspace/internal/cache"
	"tentspace/internal/config"
	"tentspace/internal/util/logger"
	rate_limit "tentspace/internal/util/rate_limit"
)

var errorLoggingService = NewErrorLoggingService(
	settingsFromEnv(config.GetEnv()),
	newLogStoreFromEnv(config.GetEnv(), nil),
	rate_limit.NewRateLimiter(cache.GetCache(), "error_logging:rate_limit:"),
	logger.GetLogger(),
)

var errorLoggingController = &ErrorLoggingController{
	errorLoggingService,
	logger.GetLogger(),
}

func GetErrorLoggingService() *ErrorLoggingService {
	return errorLoggingService
}

func GetErrorLoggingController() *ErrorLoggingController {
	return errorLoggingController
}

// SetupDependencies routes the relay's CloudWatch calls through httpClient,
// which records them as breadcrumbs.
func SetupDependencies(httpClient *http.Client) {
	errorLoggingService.SetLogStore(newLogStoreFromEnv(config.GetEnv(), httpClient))
}

func settingsFromEnv(env config.EnvVariables) Settings {
	return Settings{
		EnvMode:            env.EnvMode,
		LogGroupPrefix:     env.CloudWatchLogGroupPrefix,
		LogStreamPrefix:    env.CloudWatchLogStreamPrefix,
		IsAWSConfigured:    env.IsAWSConfigured(),
		RateLimitPerSecond: env.ErrorLoggingRateLimitPerSecond,
	}
}

func newLogStoreFromEnv(env config.EnvVariables, httpClient *http.Client) *LogStore {
	if !env.IsAWSConfigured() {
		return nil
	}

	client, err := NewCloudWatchClient(context.Background(), CloudWatchConfig{
		Region:          env.AWSRegion,
		AccessKeyID:     env.AWSAccessKeyID,
		SecretAccessKey: env.AWSSecretAccessKey,
		Endpoint:        env.AWSEndpointURL,
		HTTPClient:      httpClient,
	})
	if err != nil {
		logger.GetLogger().Error("Failed to create CloudWatch Logs client", "error", err)
		return nil
	}

	return NewLogStore(client, env.EnvMode.IsProduction(), cache.GetCache(), logger.GetLogger())
}
