package cache

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/zeebo/xxh3"
)

// hashKey builds "prefix:hash(parts...)".
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}

// Hash returns the 128-bit xxh3 hash of data as 32 hex characters.
func Hash(data []byte) string {
	h := xxh3.Hash128(data).Bytes()
	return fmt.Sprintf("%x", h[:])
}
