package error_logging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	cache_utils "tentspace/internal/util/cache"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/valkey-io/valkey-go"
)

const (
	productionRetentionDays  = 30
	developmentRetentionDays = 7

	ensuredStreamCachePrefix = "error_logging:stream:"
	// A stream is only written for one day; the marker outlives it slightly.
	ensuredStreamCacheExpiry = 26 * time.Hour
)

// LogStoreClient is the part of the CloudWatch Logs API the relay uses.
// *cloudwatchlogs.Client satisfies it.
type LogStoreClient interface {
	CreateLogGroup(
		ctx context.Context,
		params *cloudwatchlogs.CreateLogGroupInput,
		optFns ...func(*cloudwatchlogs.Options),
	) (*cloudwatchlogs.CreateLogGroupOutput, error)
	CreateLogStream(
		ctx context.Context,
		params *cloudwatchlogs.CreateLogStreamInput,
		optFns ...func(*cloudwatchlogs.Options),
	) (*cloudwatchlogs.CreateLogStreamOutput, error)
	PutRetentionPolicy(
		ctx context.Context,
		params *cloudwatchlogs.PutRetentionPolicyInput,
		optFns ...func(*cloudwatchlogs.Options),
	) (*cloudwatchlogs.PutRetentionPolicyOutput, error)
	PutLogEvents(
		ctx context.Context,
		params *cloudwatchlogs.PutLogEventsInput,
		optFns ...func(*cloudwatchlogs.Options),
	) (*cloudwatchlogs.PutLogEventsOutput, error)
}

type CloudWatchConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint is optional, for LocalStack and similar.
	Endpoint string
	// HTTPClient is optional; the SDK's own client is used when nil.
	HTTPClient *http.Client
}

func NewCloudWatchClient(ctx context.Context, cfg CloudWatchConfig) (*cloudwatchlogs.Client, error) {
	loadOptions := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	}
	if cfg.HTTPClient != nil {
		loadOptions = append(loadOptions, config.WithHTTPClient(cfg.HTTPClient))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return cloudwatchlogs.NewFromConfig(awsCfg, func(o *cloudwatchlogs.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// LogStore writes error entries to a remote log store, creating log groups
// and streams on first use. Streams known to exist are remembered in process
// and, when a cache is configured, across relay instances.
type LogStore struct {
	client        LogStoreClient
	retentionDays int32
	ensured       sync.Map
	markers       *cache_utils.CacheUtil[bool]
	logger        *slog.Logger
}

func NewLogStore(
	client LogStoreClient,
	isProduction bool,
	cacheClient valkey.Client,
	logger *slog.Logger,
) *LogStore {
	store := &LogStore{
		client:        client,
		retentionDays: developmentRetentionDays,
		logger:        logger,
	}
	if isProduction {
		store.retentionDays = productionRetentionDays
	}
	if cacheClient != nil {
		store.markers = cache_utils.NewCacheUtil[bool](cacheClient, ensuredStreamCachePrefix).
			WithExpiry(ensuredStreamCacheExpiry)
	}

	return store
}

// EnsureLogStream makes sure the destination stream exists. Concurrent and
// repeated calls are safe: "already exists" counts as success.
func (s *LogStore) EnsureLogStream(ctx context.Context, destination Destination) error {
	if s.isKnown(destination) {
		return nil
	}

	err := s.createLogStream(ctx, destination)
	if isResourceNotFound(err) {
		if err := s.createLogGroup(ctx, destination.LogGroupName); err != nil {
			return err
		}
		err = s.createLogStream(ctx, destination)
	}
	if err != nil {
		return fmt.Errorf("failed to create log stream %s: %w", destination.LogStreamName, err)
	}

	s.remember(destination)
	return nil
}

func (s *LogStore) PutEvent(ctx context.Context, destination Destination, timestamp time.Time, message string) error {
	_, err := s.client.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  aws.String(destination.LogGroupName),
		LogStreamName: aws.String(destination.LogStreamName),
		LogEvents: []types.InputLogEvent{
			{
				Message:   aws.String(message),
				Timestamp: aws.Int64(timestamp.UnixMilli()),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to put log event: %w", err)
	}

	return nil
}

func (s *LogStore) createLogStream(ctx context.Context, destination Destination) error {
	_, err := s.client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(destination.LogGroupName),
		LogStreamName: aws.String(destination.LogStreamName),
	})
	if err == nil || isResourceAlreadyExists(err) {
		return nil
	}

	return err
}

func (s *LogStore) createLogGroup(ctx context.Context, logGroupName string) error {
	_, err := s.client.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
		LogGroupName: aws.String(logGroupName),
	})
	if err != nil && !isResourceAlreadyExists(err) {
		return fmt.Errorf("failed to create log group %s: %w", logGroupName, err)
	}

	_, err = s.client.PutRetentionPolicy(ctx, &cloudwatchlogs.PutRetentionPolicyInput{
		LogGroupName:    aws.String(logGroupName),
		RetentionInDays: aws.Int32(s.retentionDays),
	})
	if err != nil {
		return fmt.Errorf("failed to set retention on log group %s: %w", logGroupName, err)
	}

	s.logger.Info("Created log group",
		slog.String("logGroup", logGroupName),
		slog.Int("retentionDays", int(s.retentionDays)))

	return nil
}

func (s *LogStore) isKnown(destination Destination) bool {
	key := destination.key()
	if _, ok := s.ensured.Load(key); ok {
		return true
	}

	if s.markers == nil {
		return false
	}

	if marker := s.markers.Get(key); marker != nil && *marker {
		s.ensured.Store(key, struct{}{})
		return true
	}

	return false
}

func (s *LogStore) remember(destination Destination) {
	key := destination.key()
	s.ensured.Store(key, struct{}{})

	if s.markers != nil {
		ensured := true
		if err := s.markers.Set(key, &ensured); err != nil {
			s.logger.Warn("Failed to share log stream marker", slog.String("error", err.Error()))
		}
	}
}

// Forget drops what is remembered about destination, so the next
// EnsureLogStream asks the remote store again.
func (s *LogStore) Forget(destination Destination) {
	key := destination.key()
	s.ensured.Delete(key)

	if s.markers != nil {
		if err := s.markers.Invalidate(key); err != nil {
			s.logger.Warn("Failed to clear log stream marker", slog.String("error", err.Error()))
		}
	}
}

func isResourceAlreadyExists(err error) bool {
	var alreadyExists *types.ResourceAlreadyExistsException
	return errors.As(err, &alreadyExists)
}

func isResourceNotFound(err error) bool {
	var notFound *types.ResourceNotFoundException
	return errors.As(err, &notFound)
}
