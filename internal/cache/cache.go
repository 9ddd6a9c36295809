// Package cache stores computed meal metrics per owner.
//
// GENERATIONS:
// Every owner has a generation counter. Metrics are stored under the
// generation that was current when they were read from the Record Store:
//
//	Get        → reads the owner's generation g, then the entry stored for g
//	Set(g, m)  → stores m for generation g
//	Invalidate → increments the generation to g+1
//
// A write always commits to the store before it invalidates. So a value
// computed from a list that misses the write was computed under a generation
// that is older than the one every later Get sees, and it is never served
// again. Deleting a single key cannot give that guarantee: a slow reader can
// Set its old value after the delete.
//
// The service treats the cache as best effort. A miss or an error falls back
// to computing metrics from the Record Store.
package cache

import (
	"context"

	"github.com/Robson16/daily-diet-api/internal/model"
)

// MetricsCache is implemented by Redis and by Nop.
type MetricsCache interface {
	// Get returns the owner's current generation and, when one is stored
	// for that generation, the cached metrics. ok is false on a miss; gen
	// is valid either way and is what the caller passes to Set.
	Get(ctx context.Context, ownerID string) (m model.Metrics, gen int64, ok bool, err error)

	// Set stores m for the owner under generation gen. Storing under a
	// generation that has since been invalidated is allowed and has no
	// visible effect.
	Set(ctx context.Context, ownerID string, gen int64, m model.Metrics) error

	// Invalidate advances the owner's generation so no entry stored before
	// the call is returned by Get.
	Invalidate(ctx context.Context, ownerID string) error

	// Close releases the connection to the backing server.
	Close() error
}

// Nop is a MetricsCache that never stores anything. It is used when no
// REDIS_URL is configured.
type Nop struct{}

// COMPILE-TIME INTERFACE CHECK:
// `var _ X = Y{}` fails to compile if Y stops implementing X, which catches
// a changed MetricsCache signature here instead of at the wiring site.
var _ MetricsCache = Nop{}

// Get always misses.
func (Nop) Get(context.Context, string) (model.Metrics, int64, bool, error) {
	return model.Metrics{}, 0, false, nil
}

// Set discards m.
func (Nop) Set(context.Context, string, int64, model.Metrics) error { return nil }

// Invalidate does nothing; there is nothing to invalidate.
func (Nop) Invalidate(context.Context, string) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }
