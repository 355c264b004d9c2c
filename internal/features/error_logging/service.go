package error_logging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	telemetry_core "tentspace/internal/features/telemetry/core"
	env_utils "tentspace/internal/util/env"
	rate_limit "tentspace/internal/util/rate_limit"

	"github.com/google/uuid"
)

// Burst capacity as a multiple of the per-second limit.
const RateLimitBurstMultiplier = 5

type Settings struct {
	EnvMode            env_utils.EnvMode
	LogGroupPrefix     string
	LogStreamPrefix    string
	IsAWSConfigured    bool
	RateLimitPerSecond int
}

type ErrorLoggingService struct {
	settings    Settings
	logStore    *LogStore
	rateLimiter *rate_limit.RateLimiter
	logger      *slog.Logger
	now         func() time.Time
}

func NewErrorLoggingService(
	settings Settings,
	logStore *LogStore,
	rateLimiter *rate_limit.RateLimiter,
	logger *slog.Logger,
) *ErrorLoggingService {
	return &ErrorLoggingService{
		settings:    settings,
		logStore:    logStore,
		rateLimiter: rateLimiter,
		logger:      logger,
		now:         time.Now,
	}
}

// SetLogStore replaces the log store. Call it before serving requests.
func (s *ErrorLoggingService) SetLogStore(logStore *LogStore) {
	s.logStore = logStore
}

func (s *ErrorLoggingService) GetStatus() *StatusResponseDTO {
	destination := s.destination(s.now())

	return &StatusResponseDTO{
		Status:          "ok",
		LogGroupName:    destination.LogGroupName,
		LogStreamName:   destination.LogStreamName,
		LogStreamPrefix: s.settings.LogStreamPrefix,
		Environment:     string(s.settings.EnvMode),
		AWSConfigured:   s.isConfigured(),
	}
}

// CheckRateLimit is a no-op unless a per-second limit is configured.
func (s *ErrorLoggingService) CheckRateLimit(clientIP string) error {
	if s.settings.RateLimitPerSecond <= 0 || s.rateLimiter == nil {
		return nil
	}

	result, err := s.rateLimiter.CheckRateLimit(
		clientIP,
		s.settings.RateLimitPerSecond,
		s.settings.RateLimitPerSecond*RateLimitBurstMultiplier,
	)
	if err != nil {
		// Reports must not be lost because the limiter backend is down.
		s.logger.Warn("Rate limit check failed, allowing request", slog.String("error", err.Error()))
		return nil
	}

	if !result.Allowed {
		return &RateLimitError{
			ValidationError: ValidationError{
				Code:    ErrorRateLimitExceeded,
				Message: "Too many error reports",
			},
			RetryAfterSec: result.RetryAfterSec,
		}
	}

	return nil
}

// CheckConfigured returns nil when ingestion credentials are present. In
// development it returns the soft-fail response to send instead; in
// production it returns a NOT_CONFIGURED error.
func (s *ErrorLoggingService) CheckConfigured() (*DevelopmentModeResponseDTO, error) {
	if s.isConfigured() {
		return nil, nil
	}

	if s.settings.EnvMode.IsProduction() {
		return nil, &ValidationError{
			Code:    ErrorNotConfigured,
			Message: "Error logging is not configured",
		}
	}

	return &DevelopmentModeResponseDTO{
		Success:    true,
		Mode:       string(env_utils.EnvModeDevelopment),
		CloudWatch: false,
	}, nil
}

// LogLocally writes a report to the relay's own log. Used when the remote
// store is not configured in development.
func (s *ErrorLoggingService) LogLocally(request *IngestErrorRequestDTO) {
	record := request.ToRecord(s.now())

	s.logger.Warn("Client error (CloudWatch not configured)",
		slog.String("type", string(record.Type)),
		slog.String("severity", string(record.Severity)),
		slog.String("message", SanitizePII(record.Message)),
		slog.String("url", record.URL),
		slog.String("fingerprint", telemetry_core.FingerprintKey(record.Fingerprint)))
}

func (s *ErrorLoggingService) IngestError(
	ctx context.Context,
	request *IngestErrorRequestDTO,
) (*IngestErrorResponseDTO, error) {
	now := s.now()
	log := s.logger.With(slog.String("requestId", uuid.NewString()))

	record := request.ToRecord(now)
	record.Message = SanitizePII(record.Message)
	record.Stack = SanitizePII(record.Stack)

	destination := s.destination(now)
	if err := s.logStore.EnsureLogStream(ctx, destination); err != nil {
		log.Error("Failed to ensure log stream", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to ensure log stream: %w", err)
	}

	eventID := telemetry_core.NewTimestampedID(now)
	environment := string(s.settings.EnvMode)
	entry := NewLogEntry(eventID, environment, record)

	message, err := json.Marshal(entry)
	if err != nil {
		log.Error("Failed to serialize log entry", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to serialize log entry: %w", err)
	}

	err = s.logStore.PutEvent(ctx, destination, now, string(message))
	if isResourceNotFound(err) {
		// The stream or group was removed after it was remembered.
		log.Warn("Log stream disappeared, recreating it",
			slog.String("logGroup", destination.LogGroupName),
			slog.String("logStream", destination.LogStreamName))

		s.logStore.Forget(destination)
		if err = s.logStore.EnsureLogStream(ctx, destination); err == nil {
			err = s.logStore.PutEvent(ctx, destination, now, string(message))
		}
	}
	if err != nil {
		log.Error("Failed to write log event", slog.String("error", err.Error()))
		return nil, err
	}

	log.Debug("Client error logged",
		slog.String("eventId", eventID),
		slog.String("fingerprint", entry.Fingerprint))

	return &IngestErrorResponseDTO{
		Success:     true,
		EventID:     eventID,
		Environment: environment,
		LogGroup:    destination.LogGroupName,
		Fingerprint: entry.Fingerprint,
	}, nil
}

func (s *ErrorLoggingService) isConfigured() bool {
	return s.settings.IsAWSConfigured && s.logStore != nil
}

func (s *ErrorLoggingService) destination(now time.Time) Destination {
	return NewDestination(
		s.settings.LogGroupPrefix,
		s.settings.LogStreamPrefix,
		string(s.settings.EnvMode),
		now,
	)
}
