package monitoring

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremon "github.com/kilianp07/tradeflow/core/monitoring"
)

func TestNewSentryMonitor_NoDSN(t *testing.T) {
	mon, err := NewSentryMonitor(SentryConfig{})
	require.NoError(t, err)
	assert.IsType(t, coremon.NopMonitor{}, mon)
}

func TestNewSentryMonitor_InvalidDSN(t *testing.T) {
	_, err := NewSentryMonitor(SentryConfig{DSN: "::not-a-dsn"})
	assert.Error(t, err)
}

func TestSentryMonitor_CaptureTags(t *testing.T) {
	var (
		mu     sync.Mutex
		events []*sentry.Event
	)
	mon, err := newSentryMonitor(SentryConfig{DSN: "https://public@example.com/1", Environment: "test"},
		func(e *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
			return nil
		})
	require.NoError(t, err)

	mon.CaptureException(nil, nil)
	mon.CaptureException(errors.New("year failed"), map[string]string{"year": "1990", "module": "generator"})
	mon.CaptureException(errors.New("publish failed"), map[string]string{"module": "mqtt"})
	mon.Flush(10 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2)
	assert.Equal(t, "tradeflow", events[0].Tags["service"])
	assert.Equal(t, "1990", events[0].Tags["year"])
	assert.Equal(t, "test", events[0].Environment)
	assert.Equal(t, "mqtt", events[1].Tags["module"])
	_, leaked := events[1].Tags["year"]
	assert.False(t, leaked)
}
