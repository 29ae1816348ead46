package nominatim

import (
	"context"
	"testing"
	"time"

	"github.com/couchcryptid/threat-data-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottled_FirstCallImmediate(t *testing.T) {
	inner := &countingGeocoder{geo: domain.Geo{Lat: 1}, ok: true}
	th := NewThrottled(inner, time.Second, nil)

	start := time.Now()
	_, ok, err := th.Resolve(context.Background(), "Japan")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestThrottled_EnforcesMinInterval(t *testing.T) {
	inner := &countingGeocoder{geo: domain.Geo{Lat: 1}, ok: true}
	th := NewThrottled(inner, 50*time.Millisecond, nil)

	start := time.Now()
	_, _, err := th.Resolve(context.Background(), "Japan")
	require.NoError(t, err)
	_, _, err = th.Resolve(context.Background(), "Brazil")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.Equal(t, 2, inner.calls)
}

func TestThrottled_ContextCancelledDuringWait(t *testing.T) {
	inner := &countingGeocoder{geo: domain.Geo{Lat: 1}, ok: true}
	th := NewThrottled(inner, time.Hour, nil)

	_, _, err := th.Resolve(context.Background(), "Japan")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _, err = th.Resolve(ctx, "Brazil")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, inner.calls, "inner should not be called after cancellation")
}
