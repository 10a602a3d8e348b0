package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hollowware/ghostsite/internal/logger"
)

// Freshness classifies how a fetch result was obtained.
type Freshness int

const (
	// Empty means no value exists: the key is unknown, or the remote
	// failed with nothing cached to fall back to.
	Empty Freshness = iota
	// Fresh means the value came from the remote source or from a cache
	// entry within its freshness window.
	Fresh
	// Stale means the remote failed and the last cached value was served.
	Stale
)

func (f Freshness) String() string {
	switch f {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "empty"
	}
}

// Result is the outcome of a cached fetch. Data is nil when Freshness is
// Empty.
type Result struct {
	Data      json.RawMessage
	Freshness Freshness
	FetchedAt time.Time
}

// FetchFunc retrieves a value from the remote source. The returned value
// must be JSON-serializable; its serialized form is what gets cached.
type FetchFunc func(ctx context.Context, opts interface{}) (interface{}, error)

// Fetcher maps resource keys to remote fetch functions and mediates every
// fetch through the on-disk store.
type Fetcher struct {
	store *Store
	funcs map[string]FetchFunc
	log   *logger.Logger
}

// NewFetcher creates a fetcher over the given store.
func NewFetcher(store *Store, log *logger.Logger) *Fetcher {
	return &Fetcher{
		store: store,
		funcs: make(map[string]FetchFunc),
		log:   log,
	}
}

// Register binds a resource key to its remote fetch function.
func (f *Fetcher) Register(key string, fn FetchFunc) {
	f.funcs[key] = fn
}

// Fetch returns the value for key and opts. A cached value within maxAge is
// returned as-is without contacting the remote source. Otherwise the
// registered fetch function runs and its result is persisted. When the
// remote fails, the last cached value is served instead and the error is
// not propagated. An unrecognized key yields an Empty result, not an error.
func (f *Fetcher) Fetch(ctx context.Context, key string, maxAge time.Duration, opts interface{}) (Result, error) {
	fn, ok := f.funcs[key]
	if !ok {
		f.log.Debug("unknown cache key", "key", key)
		return Result{Freshness: Empty}, nil
	}

	id, err := Identifier(key, opts)
	if err != nil {
		return Result{}, fmt.Errorf("cache identifier for %s: %w", key, err)
	}

	entry, err := f.store.Get(id)
	if err != nil {
		return Result{}, fmt.Errorf("read cache entry %s: %w", id, err)
	}

	if entry != nil && time.Since(entry.FetchedAt) <= maxAge {
		f.log.Debug("cache hit", "key", id, "age", time.Since(entry.FetchedAt))
		return Result{Data: entry.Data, Freshness: Fresh, FetchedAt: entry.FetchedAt}, nil
	}

	value, err := fn(ctx, opts)
	if err != nil {
		// Serve-stale-on-error: the site must still build when the CMS
		// is unreachable.
		f.log.Warn("remote fetch failed", "key", id, "error", err)
		if entry != nil {
			return Result{Data: entry.Data, Freshness: Stale, FetchedAt: entry.FetchedAt}, nil
		}
		return Result{Freshness: Empty}, nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return Result{}, fmt.Errorf("marshal value for %s: %w", id, err)
	}

	fetchedAt := time.Now()
	if err := f.store.Put(id, data, fetchedAt); err != nil {
		return Result{}, fmt.Errorf("write cache entry %s: %w", id, err)
	}

	f.log.Debug("cache refreshed", "key", id)
	return Result{Data: data, Freshness: Fresh, FetchedAt: fetchedAt}, nil
}

// Identifier derives the cache identifier for key and a serialization of
// the call options. Equal options always produce the same identifier.
func Identifier(key string, opts interface{}) (string, error) {
	if opts == nil {
		return key, nil
	}
	serialized, err := json.Marshal(opts)
	if err != nil {
		return "", err
	}
	return key + ":" + string(serialized), nil
}
