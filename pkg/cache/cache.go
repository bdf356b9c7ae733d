// Package cache stores computed chart snapshots between runs.
//
// Snapshots are keyed by the content of the chart that produced them, so
// an entry never goes stale: a changed chart hashes to a different key.
// TTLs only bound the storage.
//
// Four backends implement [Cache]:
//   - [NullCache] stores nothing
//   - [MemoryCache] is an in-process LRU
//   - [FileCache] writes one file per entry, for the CLI
//   - [RedisCache] is shared between HTTP adapter instances
package cache

import (
	"context"
	"time"
)

// TTLs per entry kind.
const (
	TTLSnapshot  = 7 * 24 * time.Hour
	TTLPartition = 7 * 24 * time.Hour
	TTLTicks     = 24 * time.Hour
)

// Cache is a byte store with per-entry expiry. Implementations are safe
// for concurrent use.
type Cache interface {
	// Get returns the value for key. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// SnapshotKeyOpts are the run options that change an XY snapshot.
type SnapshotKeyOpts struct {
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	TickCount int     `json:"tick_count"`
	Legend    any     `json:"legend,omitempty"`
}

// PartitionKeyOpts are the run options that change a partition layout.
type PartitionKeyOpts struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Legend string  `json:"legend,omitempty"`
}

// Keyer derives cache keys. Chart hashes come from [Hash] over the
// serialized chart document.
type Keyer interface {
	SnapshotKey(chartHash string, opts SnapshotKeyOpts) string
	PartitionKey(chartHash string, opts PartitionKeyOpts) string
}

// DefaultKeyer produces keys of the form "kind:hash".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SnapshotKey returns the key of an XY snapshot.
func (DefaultKeyer) SnapshotKey(chartHash string, opts SnapshotKeyOpts) string {
	return hashKey("xy", chartHash, opts)
}

// PartitionKey returns the key of a partition layout.
func (DefaultKeyer) PartitionKey(chartHash string, opts PartitionKeyOpts) string {
	return hashKey("partition", chartHash, opts)
}
