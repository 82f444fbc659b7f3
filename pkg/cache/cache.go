// Package cache provides a small result cache for the conversion pipeline.
//
// The expensive part of a conversion is the first full pass over the input
// file (the range scan). Its result is tiny and fully determined by the file
// contents and the score column, so it is cached keyed by the file's
// identity (path, size, modification time). A second run over an unchanged
// input skips the scan pass entirely.
//
// Two implementations are provided: FileCache stores entries as JSON files
// under a directory (CLI usage), and NullCache disables caching.
package cache

import (
	"context"
	"time"
)

// TTL values for cached entries.
const (
	// TTLRange is how long a cached range scan stays valid. The key already
	// encodes file size and mtime, so entries mostly age out as garbage
	// collection rather than correctness.
	TTLRange = 30 * 24 * time.Hour
)

// Cache is the interface for pipeline result caching.
type Cache interface {
	// Get retrieves a value. The second return value reports a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// RangeKeyOpts holds the inputs that determine a range scan result.
// Sensitivity is deliberately not part of the key: it does not change the
// computed range, only whether the range is acceptable, and that check is the
// reader's job (see cloud.ScoreRange.Check).
type RangeKeyOpts struct {
	Size        int64
	ModTime     int64
	ScoreColumn string
	Delimiter   string
}

// RangeKey generates a cache key for a range scan over the given file.
func RangeKey(path string, opts RangeKeyOpts) string {
	return hashKey("range", path, opts.Size, opts.ModTime, opts.ScoreColumn, opts.Delimiter)
}
