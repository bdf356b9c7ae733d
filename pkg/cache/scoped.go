package cache

// ScopedKeyer prefixes every key of an inner Keyer, giving each tenant of
// a shared cache its own namespace.
//
//	k := NewScopedKeyer(NewDefaultKeyer(), "team:ops:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// SnapshotKey returns the prefixed snapshot key.
func (k *ScopedKeyer) SnapshotKey(chartHash string, opts SnapshotKeyOpts) string {
	return k.prefix + k.inner.SnapshotKey(chartHash, opts)
}

// PartitionKey returns the prefixed partition key.
func (k *ScopedKeyer) PartitionKey(chartHash string, opts PartitionKeyOpts) string {
	return k.prefix + k.inner.PartitionKey(chartHash, opts)
}
