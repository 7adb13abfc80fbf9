package resource

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/sync/singleflight"
)

// Lazy holds a value that is built on first use and shared afterwards.
// Concurrent first callers share one build; a failed build is not cached,
// so the next caller starts a fresh one.
type Lazy[T any] struct {
	name   string
	build  func(ctx context.Context) (T, error)
	value  atomic.Pointer[T]
	group  singleflight.Group
	builds atomic.Int64
}

func NewLazy[T any](name string, build func(ctx context.Context) (T, error)) *Lazy[T] {
	return &Lazy[T]{name: name, build: build}
}

// Get returns the cached value, building it if needed. The build is detached
// from ctx cancellation so one caller going away does not fail the others
// waiting on the same build.
func (l *Lazy[T]) Get(ctx context.Context) (T, error) {
	if v := l.value.Load(); v != nil {
		return *v, nil
	}

	res, err, shared := l.group.Do(l.name, func() (any, error) {
		if v := l.value.Load(); v != nil {
			return v, nil
		}
		slog.Info("initializing resource", "resource", l.name)
		start := time.Now()
		l.builds.Inc()
		v, err := l.build(context.WithoutCancel(ctx))
		if err != nil {
			slog.Error("fail to initialize resource", "resource", l.name, "error", err)
			return nil, err
		}
		l.value.Store(&v)
		slog.Info("resource initialized", "resource", l.name, "elapsed", time.Since(start))
		return &v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	if shared {
		slog.Debug("joined in-flight initialization", "resource", l.name)
	}
	return *res.(*T), nil
}

// Peek returns the value if it has been built, without building it.
func (l *Lazy[T]) Peek() (T, bool) {
	if v := l.value.Load(); v != nil {
		return *v, true
	}
	var zero T
	return zero, false
}

// Builds returns how many times the build function has been started.
func (l *Lazy[T]) Builds() int64 {
	return l.builds.Load()
}
