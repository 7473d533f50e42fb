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

// requestAttrs collects attributes over the life of one request so the
// final log record carries everything the handler learned.
type requestAttrs struct {
	mu    sync.Mutex
	attrs map[string]any
}

type requestAttrsKey struct{}

func ContextWithSlog(ctx context.Context) context.Context {
	return context.WithValue(ctx, requestAttrsKey{}, &requestAttrs{attrs: map[string]any{}})
}

func fromContext(ctx context.Context) *requestAttrs {
	ra, _ := ctx.Value(requestAttrsKey{}).(*requestAttrs)
	return ra
}

func AddAttribute(ctx context.Context, key string, value any) {
	AddAttributes(ctx, map[string]any{key: value})
}

// AddAttributes merges attrs into the request; nested maps merge key by key.
func AddAttributes(ctx context.Context, attrs map[string]any) {
	ra := fromContext(ctx)
	if ra == nil {
		return
	}
	ra.mu.Lock()
	defer ra.mu.Unlock()
	mergeMaps(ra.attrs, attrs)
}

func mergeMaps(dst, src map[string]any) {
	for k, v := range src {
		vMap, ok := v.(map[string]any)
		if !ok {
			dst[k] = v
			continue
		}
		if dstMap, ok := dst[k].(map[string]any); ok {
			mergeMaps(dstMap, vMap)
		} else {
			dst[k] = vMap
		}
	}
}

func AddError(ctx context.Context, err error) {
	AddAttribute(ctx, ErrorAttributeKey, err)
}

func AddStack(ctx context.Context, stack string) {
	AddAttribute(ctx, StackAttributeKey, stack)
}

func GetAttributes(ctx context.Context) map[string]any {
	ra := fromContext(ctx)
	if ra == nil {
		return nil
	}
	ra.mu.Lock()
	defer ra.mu.Unlock()
	return maps.Clone(ra.attrs)
}
