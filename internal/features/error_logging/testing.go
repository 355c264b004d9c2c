package error_logging

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

// FakeLogStoreClient is an in-memory LogStoreClient that behaves like
// CloudWatch Logs for the calls the relay makes.
type FakeLogStoreClient struct {
	mu sync.Mutex

	Groups    map[string]bool
	Streams   map[string]bool
	Retention map[string]int32
	Events    []FakeLogEvent

	CreateLogGroupCalls  int
	CreateLogStreamCalls int

	// Errors injected into the next calls of each method when set.
	CreateLogStreamErr error
	PutLogEventsErr    error
}

type FakeLogEvent struct {
	LogGroupName  string
	LogStreamName string
	Message       string
	Timestamp     int64
}

func NewFakeLogStoreClient() *FakeLogStoreClient {
	return &FakeLogStoreClient{
		Groups:    map[string]bool{},
		Streams:   map[string]bool{},
		Retention: map[string]int32{},
	}
}

func (f *FakeLogStoreClient) CreateLogGroup(
	_ context.Context,
	params *cloudwatchlogs.CreateLogGroupInput,
	_ ...func(*cloudwatchlogs.Options),
) (*cloudwatchlogs.CreateLogGroupOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.CreateLogGroupCalls++
	group := aws.ToString(params.LogGroupName)
	if f.Groups[group] {
		return nil, &types.ResourceAlreadyExistsException{Message: aws.String("The specified log group already exists")}
	}
	f.Groups[group] = true

	return &cloudwatchlogs.CreateLogGroupOutput{}, nil
}

func (f *FakeLogStoreClient) CreateLogStream(
	_ context.Context,
	params *cloudwatchlogs.CreateLogStreamInput,
	_ ...func(*cloudwatchlogs.Options),
) (*cloudwatchlogs.CreateLogStreamOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.CreateLogStreamCalls++
	if f.CreateLogStreamErr != nil {
		return nil, f.CreateLogStreamErr
	}

	group := aws.ToString(params.LogGroupName)
	if !f.Groups[group] {
		return nil, &types.ResourceNotFoundException{Message: aws.String("The specified log group does not exist")}
	}

	key := group + "|" + aws.ToString(params.LogStreamName)
	if f.Streams[key] {
		return nil, &types.ResourceAlreadyExistsException{Message: aws.String("The specified log stream already exists")}
	}
	f.Streams[key] = true

	return &cloudwatchlogs.CreateLogStreamOutput{}, nil
}

func (f *FakeLogStoreClient) PutRetentionPolicy(
	_ context.Context,
	params *cloudwatchlogs.PutRetentionPolicyInput,
	_ ...func(*cloudwatchlogs.Options),
) (*cloudwatchlogs.PutRetentionPolicyOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Retention[aws.ToString(params.LogGroupName)] = aws.ToInt32(params.RetentionInDays)
	return &cloudwatchlogs.PutRetentionPolicyOutput{}, nil
}

func (f *FakeLogStoreClient) PutLogEvents(
	_ context.Context,
	params *cloudwatchlogs.PutLogEventsInput,
	_ ...func(*cloudwatchlogs.Options),
) (*cloudwatchlogs.PutLogEventsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.PutLogEventsErr != nil {
		return nil, f.PutLogEventsErr
	}

	group := aws.ToString(params.LogGroupName)
	stream := aws.ToString(params.LogStreamName)
	if !f.Streams[group+"|"+stream] {
		return nil, &types.ResourceNotFoundException{Message: aws.String("The specified log stream does not exist")}
	}

	for _, event := range params.LogEvents {
		f.Events = append(f.Events, FakeLogEvent{
			LogGroupName:  group,
			LogStreamName: stream,
			Message:       aws.ToString(event.Message),
			Timestamp:     aws.ToInt64(event.Timestamp),
		})
	}

	return &cloudwatchlogs.PutLogEventsOutput{}, nil
}

func (f *FakeLogStoreClient) EventsSnapshot() []FakeLogEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeLogEvent(nil), f.Events...)
}
