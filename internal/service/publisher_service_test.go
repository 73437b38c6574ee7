package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nebioudaniel/family-academy-api/pkg/config"
)

type mockPromoter struct {
	mu       sync.Mutex
	promoted int64
	err      error
	calls    int
	lastNow  time.Time
}

func (m *mockPromoter) PromoteDueScheduled(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastNow = now
	return m.promoted, m.err
}

func TestPublisherServiceSweep(t *testing.T) {
	promoter := &mockPromoter{promoted: 3}
	svc := NewPublisherService(promoter, nil, config.PublisherConfig{SweepInterval: time.Minute}, nil)
	svc.now = func() time.Time { return fixedNow }

	promoted, err := svc.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3), promoted)
	assert.Equal(t, 1, promoter.calls)
	assert.True(t, promoter.lastNow.Equal(fixedNow.UTC()))
}

func TestPublisherServiceSweepError(t *testing.T) {
	promoter := &mockPromoter{err: errors.New("db down")}
	svc := NewPublisherService(promoter, nil, config.PublisherConfig{}, nil)

	_, err := svc.Sweep(context.Background())
	require.Error(t, err)
}

func TestPublisherServiceStartStop(t *testing.T) {
	promoter := &mockPromoter{}
	svc := NewPublisherService(promoter, nil, config.PublisherConfig{SweepInterval: 10 * time.Millisecond}, nil)

	svc.Start(context.Background())
	time.Sleep(35 * time.Millisecond)
	svc.Stop()

	promoter.mu.Lock()
	calls := promoter.calls
	promoter.mu.Unlock()
	assert.GreaterOrEqual(t, calls, 1)

	// Stop again is a no-op.
	svc.Stop()
}

func TestPublisherServiceStartIsIdempotent(t *testing.T) {
	promoter := &mockPromoter{}
	svc := NewPublisherService(promoter, nil, config.PublisherConfig{SweepInterval: time.Hour}, nil)

	svc.Start(context.Background())
	svc.Start(context.Background())
	svc.Stop()
}
