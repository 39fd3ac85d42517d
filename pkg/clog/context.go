package clog

import (
	"context"
	"maps"
	"sync"
)

const (
	ErrorAttributeKey = "error.message"
	StackAttributeKey = "error.stack"
)

// bag holds the attributes shared by every log line written for one request.
type bag struct {
	mu    sync.Mutex
	attrs map[string]any
}

type bagKey struct{}

// ContextWithSlog attaches an empty attribute bag to ctx. Middlewares call it
// once per request; handlers then enrich the request's log line.
func ContextWithSlog(ctx context.Context) context.Context {
	return context.WithValue(ctx, bagKey{}, &bag{attrs: make(map[string]any)})
}

func bagFrom(ctx context.Context) *bag {
	b, _ := ctx.Value(bagKey{}).(*bag)
	return b
}

// AddAttribute sets key, replacing any previous value. It is a no-op when
// ctx carries no bag.
func AddAttribute(ctx context.Context, key string, value any) {
	b := bagFrom(ctx)
	if b == nil {
		return
	}
	b.mu.Lock()
	b.attrs[key] = value
	b.mu.Unlock()
}

// AddAttributes merges attrs into the bag. Nested map[string]any values are
// merged key by key instead of replaced.
func AddAttributes(ctx context.Context, attrs map[string]any) {
	b := bagFrom(ctx)
	if b == nil {
		return
	}
	b.mu.Lock()
	merge(b.attrs, attrs)
	b.mu.Unlock()
}

func merge(dst, src map[string]any) {
	for k, v := range src {
		sub, isMap := v.(map[string]any)
		cur, hasMap := dst[k].(map[string]any)
		if isMap && hasMap {
			merge(cur, sub)
			continue
		}
		dst[k] = v
	}
}

// GetAttribute returns the value under key, or the zero T when it is missing
// or of another type.
func GetAttribute[T any](ctx context.Context, key string) T {
	var zero T
	b := bagFrom(ctx)
	if b == nil {
		return zero
	}
	b.mu.Lock()
	v, ok := b.attrs[key].(T)
	b.mu.Unlock()
	if !ok {
		return zero
	}
	return v
}

// GetAttributes returns a snapshot of the bag, or nil without one.
func GetAttributes(ctx context.Context) map[string]any {
	b := bagFrom(ctx)
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return maps.Clone(b.attrs)
}

func AddError(ctx context.Context, err error) {
	AddAttribute(ctx, ErrorAttributeKey, err)
}

func GetError(ctx context.Context) error {
	return GetAttribute[error](ctx, ErrorAttributeKey)
}

func AddStack(ctx context.Context, stack string) {
	AddAttribute(ctx, StackAttributeKey, stack)
}

func GetStack(ctx context.Context) string {
	return GetAttribute[string](ctx, StackAttributeKey)
}
