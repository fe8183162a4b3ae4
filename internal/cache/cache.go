package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/giantswarm/mcpkit/internal/metrics"
	"github.com/giantswarm/mcpkit/pkg/logging"
)

// KeyFunc computes the cache key of a call from its arguments.
type KeyFunc func(ctx context.Context, args map[string]interface{}) (string, error)

// Policy configures caching of one function.
type Policy struct {
	MaxAge               time.Duration
	StaleWhileRevalidate time.Duration
	// Group namespaces keys, e.g. "mcp-tool:echo". Also used as the
	// metrics label.
	Group string
	// Key overrides DefaultKey when set.
	Key KeyFunc
}

// key returns the full cache key of a call.
func (p Policy) key(ctx context.Context, args map[string]interface{}) (string, error) {
	var k string
	if p.Key != nil {
		var err error
		if k, err = p.Key(ctx, args); err != nil {
			return "", err
		}
	} else {
		k = DefaultKey(args)
	}
	if p.Group == "" {
		return k, nil
	}
	return p.Group + ":" + k, nil
}

// ToolGroup returns the key group of a tool.
func ToolGroup(tool string) string {
	return "mcp-tool:" + tool
}

// DefaultKey joins the argument values ordered by argument name. Each
// value is stringified, path separators become "-" and one leading "-" is
// dropped.
func DefaultKey(args map[string]interface{}) string {
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		s := stringify(args[name])
		s = strings.NewReplacer("/", "-", `\`, "-").Replace(s)
		parts = append(parts, strings.TrimPrefix(s, "-"))
	}
	return strings.Join(parts, ":")
}

func stringify(v interface{}) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case string:
		return vv
	case fmt.Stringer:
		return vv.String()
	case map[string]interface{}, []interface{}:
		data, err := json.Marshal(vv)
		if err != nil {
			return fmt.Sprint(vv)
		}
		return string(data)
	default:
		return fmt.Sprint(vv)
	}
}

// ErrSkip is returned by Codec.Encode for values that must not be stored.
var ErrSkip = errors.New("value not cacheable")

// Codec converts cached values to bytes.
type Codec[T any] interface {
	Encode(T) ([]byte, error)
	Decode([]byte) (T, error)
}

// JSONCodec encodes values as JSON.
type JSONCodec[T any] struct{}

// Encode implements Codec.
func (JSONCodec[T]) Encode(v T) ([]byte, error) {
	return json.Marshal(v)
}

// Decode implements Codec.
func (JSONCodec[T]) Decode(data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

// Func is a cacheable function.
type Func[T any] func(ctx context.Context, args map[string]interface{}) (T, error)

// Cache memoizes function results in a Store. Concurrent cold misses and
// revalidations of the same key share one execution.
type Cache struct {
	store Store
	group singleflight.Group
	now   func() time.Time
	wg    sync.WaitGroup
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a cache backed by store.
func New(store Store, opts ...Option) *Cache {
	c := &Cache{store: store, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the backing store.
func (c *Cache) Store() Store {
	return c.store
}

// Wait blocks until background revalidations have finished.
func (c *Cache) Wait() {
	c.wg.Wait()
}

// Wrap decorates fn with the cache. Errors are never cached. A failing key
// function or store falls back to calling fn directly.
func Wrap[T any](c *Cache, p Policy, codec Codec[T], fn Func[T]) Func[T] {
	return func(ctx context.Context, args map[string]interface{}) (T, error) {
		key, err := p.key(ctx, args)
		if err != nil {
			metrics.CacheLookups.WithLabelValues(p.Group, "error").Inc()
			logging.Warn("Cache", "Cache key for %s failed, calling through: %v", p.Group, err)
			return fn(ctx, args)
		}

		entry, ok, err := c.store.Get(ctx, key)
		if err != nil {
			metrics.CacheLookups.WithLabelValues(p.Group, "error").Inc()
			logging.Warn("Cache", "Cache lookup for %s failed: %v", key, err)
			ok = false
		}

		if ok {
			now := c.now()
			switch {
			case entry.Fresh(now):
				if v, err := codec.Decode(entry.Value); err == nil {
					metrics.CacheLookups.WithLabelValues(p.Group, "hit").Inc()
					return v, nil
				}
			case entry.Stale(now):
				if v, err := codec.Decode(entry.Value); err == nil {
					metrics.CacheLookups.WithLabelValues(p.Group, "stale").Inc()
					revalidate(ctx, c, p, key, codec, fn, args)
					return v, nil
				}
			}
		}

		metrics.CacheLookups.WithLabelValues(p.Group, "miss").Inc()
		// The shared computation must not die with the first caller.
		shared := context.WithoutCancel(ctx)
		ch := c.group.DoChan(key, func() (interface{}, error) {
			return compute(shared, c, p, key, codec, fn, args)
		})

		var zero T
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				return zero, res.Err
			}
			return res.Val.(T), nil
		}
	}
}

// revalidate refreshes key in the background. The refresh outlives the
// request that triggered it.
func revalidate[T any](ctx context.Context, c *Cache, p Policy, key string, codec Codec[T], fn Func[T], args map[string]interface{}) {
	bg := context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		_, err, _ := c.group.Do(key, func() (interface{}, error) {
			return compute(bg, c, p, key, codec, fn, args)
		})
		if err != nil {
			logging.Warn("Cache", "Revalidation of %s failed, keeping stale entry: %v", key, err)
		}
	}()
}

// PanicError reports a panic raised by a cached function. Cached functions
// run outside the caller's goroutine, so the panic is returned instead.
type PanicError struct {
	Key   string
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic while computing %s: %v", e.Key, e.Value)
}

// call invokes fn, converting a panic into a *PanicError.
func call[T any](ctx context.Context, key string, fn Func[T], args map[string]interface{}) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Cache", fmt.Errorf("panic: %v", r), "Cached function for %s panicked", key)
			err = &PanicError{Key: key, Value: r}
		}
	}()
	return fn(ctx, args)
}

// compute runs fn and stores its result.
func compute[T any](ctx context.Context, c *Cache, p Policy, key string, codec Codec[T], fn Func[T], args map[string]interface{}) (interface{}, error) {
	v, err := call(ctx, key, fn, args)
	if err != nil {
		return nil, err
	}

	data, err := codec.Encode(v)
	if errors.Is(err, ErrSkip) {
		return v, nil
	}
	if err != nil {
		logging.Warn("Cache", "Cannot encode result for %s, not caching: %v", key, err)
		return v, nil
	}
	entry := Entry{
		Value:                data,
		StoredAt:             c.now(),
		MaxAge:               p.MaxAge,
		StaleWhileRevalidate: p.StaleWhileRevalidate,
	}
	if err := c.store.Set(ctx, key, entry); err != nil {
		logging.Warn("Cache", "Cannot store result for %s: %v", key, err)
	}
	return v, nil
}

// Sweep removes expired entries when the store supports it.
func (c *Cache) Sweep(ctx context.Context) (int, error) {
	sweeper, ok := c.store.(Sweeper)
	if !ok {
		return 0, nil
	}
	n, err := sweeper.Sweep(ctx, c.now())
	if err != nil {
		return 0, err
	}
	metrics.CacheSwept.Add(float64(n))
	return n, nil
}
