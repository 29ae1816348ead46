package nominatim

import (
	"context"
	"sync"
	"time"

	"github.com/couchcryptid/threat-data-etl/internal/domain"
	"github.com/jonboulle/clockwork"
)

// Throttled enforces a minimum delay between outbound lookups, per the
// Nominatim usage policy. Calls are serialized: the mutex is held through
// the wait and the inner call, so concurrent callers queue up behind the
// same pacing. Place this decorator below the cache so hits skip the delay.
type Throttled struct {
	inner       domain.Geocoder
	clock       clockwork.Clock
	minInterval time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewThrottled creates a throttling decorator. Pass nil for clock to use
// real time; tests inject a fake.
func NewThrottled(inner domain.Geocoder, minInterval time.Duration, clock clockwork.Clock) *Throttled {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Throttled{
		inner:       inner,
		clock:       clock,
		minInterval: minInterval,
	}
}

func (t *Throttled) Resolve(ctx context.Context, country string) (domain.Geo, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.last.IsZero() {
		wait := t.minInterval - t.clock.Since(t.last)
		if wait > 0 {
			select {
			case <-ctx.Done():
				return domain.Geo{}, false, ctx.Err()
			case <-t.clock.After(wait):
			}
		}
	}
	t.last = t.clock.Now()

	return t.inner.Resolve(ctx, country)
}
