package blobcache

// An EmptyCache always misses. It contains nothing and saves nothing.
type EmptyCache struct{}

var _ Cache = EmptyCache{}

// Contains always returns false.
func (EmptyCache) Contains(key string) bool {
	return false
}

// Get always returns a cache miss.
func (EmptyCache) Get(key string) ([]byte, bool) {
	return nil, false
}

// Put discards the data.
func (EmptyCache) Put(key string, data []byte) error {
	return nil
}
