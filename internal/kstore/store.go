// Package kstore provides a cached, serialized store for a single value.
//
// The store owns the in-memory copy and the lock; persistence is delegated to
// an encoder and a decoder supplied at construction.
package kstore

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Config configures a Store.
type Config[T any] struct {
	// Default is returned by Get when the decoder reports no value.
	Default *T
	// EnableCache serves Get from memory until the value is written or
	// invalidated. When false every Get decodes.
	EnableCache bool
	// Encoder persists a value. nil clears the persisted value.
	Encoder func(*T) error
	// Decoder loads the persisted value. It returns nil when there is none.
	Decoder func() (*T, error)
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Store handles caching and serialized access for one persisted value.
//
// Values passed in and handed out are shallow copies; callers must not share
// mutable references held inside T.
type Store[T any] struct {
	mu     sync.Mutex
	cfg    Config[T]
	log    *slog.Logger
	cached *T
	valid  bool

	obsMu     sync.Mutex
	observers map[int]func(*T)
	nextObs   int
}

// New creates a Store. Nothing is read until the first Get.
func New[T any](cfg Config[T]) (*Store[T], error) {
	if cfg.Encoder == nil {
		return nil, errors.New("encoder is required")
	}
	if cfg.Decoder == nil {
		return nil, errors.New("decoder is required")
	}
	l := cfg.Logger
	if l == nil {
		l = slog.Default()
	}
	return &Store[T]{cfg: cfg, log: l, observers: map[int]func(*T){}}, nil
}

// Get returns the current value, or a copy of the default if none is
// persisted. It returns nil when neither exists.
func (s *Store[T]) Get(ctx context.Context) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.EnableCache && s.valid {
		return clone(s.cached), nil
	}
	v, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	return clone(v), nil
}

// Set persists v. nil clears the persisted value.
func (s *Store[T]) Set(ctx context.Context, v *T) error {
	s.mu.Lock()
	err := s.write(ctx, v)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(v)
	return nil
}

// Update applies fn to the current value and persists the result, all under
// the store lock. fn receives nil when there is neither a value nor a default
// and may return nil to clear. An error from fn aborts without writing.
func (s *Store[T]) Update(ctx context.Context, fn func(*T) (*T, error)) (*T, error) {
	s.mu.Lock()
	cur := s.cached
	if !s.cfg.EnableCache || !s.valid {
		var err error
		if cur, err = s.read(ctx); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	next, err := fn(clone(cur))
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	err = s.write(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.notify(next)
	return clone(next), nil
}

// Delete clears the persisted value. Subsequent Get calls return the default.
func (s *Store[T]) Delete(ctx context.Context) error {
	return s.Set(ctx, nil)
}

// Reset persists the default value.
func (s *Store[T]) Reset(ctx context.Context) error {
	return s.Set(ctx, s.cfg.Default)
}

// Invalidate drops the cached value so the next Get decodes again. Use it
// when the persisted value changed behind the store's back.
func (s *Store[T]) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
	s.valid = false
}

// Subscribe registers fn to be called with a copy of every value written
// through the store. A cleared value is reported as nil. fn runs on the
// writer's goroutine after the store lock is released.
func (s *Store[T]) Subscribe(fn func(*T)) (cancel func()) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		delete(s.observers, id)
	}
}

// read decodes the persisted value and refreshes the cache. Callers hold mu.
func (s *Store[T]) read(ctx context.Context) (*T, error) {
	v, err := s.cfg.Decoder()
	if err != nil {
		return nil, err
	}
	if v == nil {
		s.log.DebugContext(ctx, "No persisted value, using default")
		v = clone(s.cfg.Default)
	}
	if s.cfg.EnableCache {
		s.cached = v
		s.valid = true
	}
	return v, nil
}

// write persists v and refreshes the cache. Callers hold mu.
func (s *Store[T]) write(ctx context.Context, v *T) error {
	if err := s.cfg.Encoder(v); err != nil {
		// The persisted state is unknown; force the next Get to look.
		s.cached = nil
		s.valid = false
		return err
	}
	if v == nil {
		s.log.DebugContext(ctx, "Cleared persisted value")
		s.cached = clone(s.cfg.Default)
	} else {
		s.cached = clone(v)
	}
	s.valid = s.cfg.EnableCache
	return nil
}

func (s *Store[T]) notify(v *T) {
	s.obsMu.Lock()
	fns := make([]func(*T), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()
	for _, fn := range fns {
		fn(clone(v))
	}
}

func clone[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
