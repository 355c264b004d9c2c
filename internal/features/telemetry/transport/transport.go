package telemetry_transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	telemetry_core "tentspace/internal/features/telemetry/core"
	"tentspace/internal/util/logger"

	"golang.org/x/sync/errgroup"
)

const (
	// The default number of in-flight beacon deliveries.
	defaultMaxInFlight = 16
	// Absolute per-delivery limit.
	deliveryTimeout = 10 * time.Second
)

type Config struct {
	// Endpoint is the relay URL records are posted to.
	Endpoint string
	// HTTPClient is optional; a client with a delivery timeout is used when nil.
	HTTPClient *http.Client
	// MaxInFlight bounds concurrent beacon deliveries. Zero selects the
	// default, a negative value disables the beacon path entirely.
	MaxInFlight int
	Logger      *slog.Logger
}

// Transport delivers records to the relay fire-and-forget. Send never blocks
// on the network, never reports failure and never retries.
//
// Delivery first goes through the beacon path, a bounded group of in-flight
// requests tied to the transport's lifetime. When the group is full, or
// the beacon path is unavailable because it is disabled or the transport is
// shutting down, the record is posted on a detached goroutine that outlives
// cancellation of the transport.
type Transport struct {
	logger   *slog.Logger
	client   *http.Client
	endpoint string

	beaconsCtx    context.Context
	cancelBeacons context.CancelFunc
	beacons       *errgroup.Group
	hasBeacon     bool

	// fallbacksMu orders fallbacks.Add before Shutdown starts waiting.
	fallbacksMu  sync.Mutex
	fallbacks    sync.WaitGroup
	draining     bool
	shuttingDown atomic.Bool
}

func New(config Config) *Transport {
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: deliveryTimeout}
	}

	log := config.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	maxInFlight := config.MaxInFlight
	if maxInFlight == 0 {
		maxInFlight = defaultMaxInFlight
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	beacons, beaconsCtx := errgroup.WithContext(baseCtx)
	if maxInFlight > 0 {
		beacons.SetLimit(maxInFlight)
	}

	return &Transport{
		logger:        log.With("component", "error_transport"),
		client:        client,
		endpoint:      config.Endpoint,
		beaconsCtx:    beaconsCtx,
		cancelBeacons: cancel,
		beacons:       beacons,
		hasBeacon:     maxInFlight > 0,
	}
}

func (t *Transport) Send(record *telemetry_core.ErrorRecord) {
	if record == nil {
		return
	}

	payload, err := json.Marshal(record)
	if err != nil {
		t.logger.Warn("failed to serialize error record", "error", err)
		return
	}

	if t.trySendBeacon(payload) {
		return
	}

	t.sendKeepalive(payload)
}

func (t *Transport) trySendBeacon(payload []byte) bool {
	if !t.hasBeacon || t.shuttingDown.Load() {
		return false
	}

	return t.beacons.TryGo(func() error {
		ctx, cancel := context.WithTimeout(t.beaconsCtx, deliveryTimeout)
		defer cancel()

		if err := t.post(ctx, payload); err != nil {
			// Reports about errors should not produce more error noise.
			t.logger.Debug("failed to deliver error record", "path", "beacon", "error", err)
		}

		return nil
	})
}

// sendKeepalive posts on a goroutine detached from the transport's lifetime,
// so it survives Shutdown giving up on in-flight beacons.
func (t *Transport) sendKeepalive(payload []byte) {
	ctx := context.WithoutCancel(t.beaconsCtx)

	deliver := func() {
		ctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
		defer cancel()

		if err := t.post(ctx, payload); err != nil {
			t.logger.Debug("failed to deliver error record", "path", "keepalive", "error", err)
		}
	}

	t.fallbacksMu.Lock()
	defer t.fallbacksMu.Unlock()

	// Once Shutdown is waiting, late records are still posted but no longer
	// tracked.
	if t.draining {
		go deliver()
		return
	}

	t.fallbacks.Add(1)
	go func() {
		defer t.fallbacks.Done()
		deliver()
	}()
}

func (t *Transport) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("relay responded with status %d", resp.StatusCode)
	}

	return nil
}

// Shutdown stops accepting beacon deliveries and waits for everything in
// flight. When ctx expires first, beacons are cancelled and ctx's error is
// returned; keepalive deliveries keep running on their own.
func (t *Transport) Shutdown(ctx context.Context) error {
	t.shuttingDown.Store(true)

	t.fallbacksMu.Lock()
	t.draining = true
	t.fallbacksMu.Unlock()

	done := make(chan error, 1)
	go func() {
		defer close(done)

		err := t.beacons.Wait()
		t.fallbacks.Wait()
		done <- err
	}()

	select {
	case <-ctx.Done():
		t.cancelBeacons()
		return ctx.Err()
	case err := <-done:
		t.cancelBeacons()
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}
