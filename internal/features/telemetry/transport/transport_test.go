package telemetry_transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	telemetry_core "tentspace/internal/features/telemetry/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type relayStub struct {
	mu       sync.Mutex
	received []telemetry_core.ErrorRecord
	release  chan struct{}
	server   *httptest.Server
}

func newRelayStub(t *testing.T, status int, block bool) *relayStub {
	stub := &relayStub{release: make(chan struct{})}
	if !block {
		close(stub.release)
	}

	stub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var record telemetry_core.ErrorRecord
		_ = json.Unmarshal(body, &record)

		stub.mu.Lock()
		stub.received = append(stub.received, record)
		stub.mu.Unlock()

		<-stub.release
		w.WriteHeader(status)
	}))
	t.Cleanup(stub.server.Close)

	return stub
}

func (s *relayStub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.received)
}

func (s *relayStub) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := make([]string, 0, len(s.received))
	for _, record := range s.received {
		messages = append(messages, record.Message)
	}
	return messages
}

func Test_Send_WithReachableRelay_DeliversSerializedRecord(t *testing.T) {
	relay := newRelayStub(t, http.StatusOK, false)
	transport := New(Config{Endpoint: relay.server.URL})

	transport.Send(&telemetry_core.ErrorRecord{
		Message:     "boom",
		Type:        telemetry_core.RecordTypeError,
		Severity:    telemetry_core.SeverityError,
		Fingerprint: []string{"panic", "main.run"},
	})

	require.NoError(t, transport.Shutdown(context.Background()))
	assert.Equal(t, []string{"boom"}, relay.messages())
	assert.Equal(t, []string{"panic", "main.run"}, relay.received[0].Fingerprint)
}

func Test_Send_WhenBeaconQueueIsFull_FallsBackToKeepaliveRequest(t *testing.T) {
	relay := newRelayStub(t, http.StatusOK, true)
	transport := New(Config{Endpoint: relay.server.URL, MaxInFlight: 1})

	transport.Send(&telemetry_core.ErrorRecord{Message: "first"})
	assert.Eventually(t, func() bool { return relay.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	transport.Send(&telemetry_core.ErrorRecord{Message: "second"})
	assert.Eventually(t, func() bool { return relay.count() == 2 }, 2*time.Second, 10*time.Millisecond)

	close(relay.release)
	require.NoError(t, transport.Shutdown(context.Background()))
	assert.ElementsMatch(t, []string{"first", "second"}, relay.messages())
}

func Test_Send_WithBeaconDisabled_StillDelivers(t *testing.T) {
	relay := newRelayStub(t, http.StatusOK, false)
	transport := New(Config{Endpoint: relay.server.URL, MaxInFlight: -1})

	transport.Send(&telemetry_core.ErrorRecord{Message: "no beacon"})

	require.NoError(t, transport.Shutdown(context.Background()))
	assert.Equal(t, []string{"no beacon"}, relay.messages())
}

func Test_Send_AfterShutdownStarted_UsesKeepalivePath(t *testing.T) {
	relay := newRelayStub(t, http.StatusOK, false)
	transport := New(Config{Endpoint: relay.server.URL})
	require.NoError(t, transport.Shutdown(context.Background()))

	transport.Send(&telemetry_core.ErrorRecord{Message: "during unload"})

	assert.Eventually(t, func() bool { return relay.count() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func Test_Send_ConcurrentWithShutdown_DeliversEverythingWithoutPanicking(t *testing.T) {
	relay := newRelayStub(t, http.StatusOK, false)
	transport := New(Config{Endpoint: relay.server.URL, MaxInFlight: -1})

	const senders = 20
	var wg sync.WaitGroup
	wg.Add(senders + 1)
	for range senders {
		go func() {
			defer wg.Done()
			assert.NotPanics(t, func() {
				transport.Send(&telemetry_core.ErrorRecord{Message: "late report"})
			})
		}()
	}
	go func() {
		defer wg.Done()
		assert.NoError(t, transport.Shutdown(context.Background()))
	}()
	wg.Wait()

	assert.Eventually(t, func() bool { return relay.count() == senders }, 2*time.Second, 10*time.Millisecond)
}

func Test_Send_WhenRelayUnreachableOrFailing_NeverBlocksOrPanics(t *testing.T) {
	failing := newRelayStub(t, http.StatusInternalServerError, false)

	for _, endpoint := range []string{"http://127.0.0.1:1/api/error-logging", failing.server.URL, "::not a url"} {
		transport := New(Config{Endpoint: endpoint})

		started := time.Now()
		assert.NotPanics(t, func() {
			transport.Send(&telemetry_core.ErrorRecord{Message: "lost"})
		})
		assert.Less(t, time.Since(started), time.Second)

		assert.NoError(t, transport.Shutdown(context.Background()))
	}
}

func Test_Shutdown_WhenContextExpires_ReturnsContextError(t *testing.T) {
	relay := newRelayStub(t, http.StatusOK, true)
	defer close(relay.release)
	transport := New(Config{Endpoint: relay.server.URL})

	transport.Send(&telemetry_core.ErrorRecord{Message: "slow"})
	assert.Eventually(t, func() bool { return relay.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, transport.Shutdown(ctx), context.DeadlineExceeded)
}
