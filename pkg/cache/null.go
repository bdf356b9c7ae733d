package cache

import (
	"context"
	"time"
)

// NullCache backs runs with caching switched off: the CLI's --no-cache
// flag and runners built without a cache. Every lookup misses, so each
// run recomputes its snapshot and reports a miss to the cache hooks.
type NullCache struct{}

func NewNullCache() Cache { return &NullCache{} }

func (*NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set discards the snapshot.
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (*NullCache) Delete(context.Context, string) error { return nil }

func (*NullCache) Close() error { return nil }

var _ Cache = (*NullCache)(nil)
