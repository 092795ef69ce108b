package hxnav

import (
	"context"
	"sync"
)

// Bootstrap records data loaded while the server renders a page, so the
// client's first navigation can reuse it instead of loading it again.
//
// Bootstrap is safe for concurrent use.
type Bootstrap struct {
	mu   sync.Mutex
	data map[string]any
}

type bootstrapKey struct{}

type bootstrapDataKey struct{}

// WithBootstrapRecorder attaches a recorder to ctx.
func WithBootstrapRecorder(ctx context.Context) (context.Context, *Bootstrap) {
	b := &Bootstrap{data: make(map[string]any)}
	return context.WithValue(ctx, bootstrapKey{}, b), b
}

// Record stores value under key if ctx carries a recorder. Loaders call it
// unconditionally:
//
//	article, err := api.Article(ctx, id)
//	if err != nil {
//	    return nil, err
//	}
//	hxnav.Record(ctx, "article:"+id, article)
func Record(ctx context.Context, key string, value any) {
	b, ok := ctx.Value(bootstrapKey{}).(*Bootstrap)
	if !ok {
		return
	}
	b.mu.Lock()
	b.data[key] = value
	b.mu.Unlock()
}

// All returns a copy of the recorded values.
func (b *Bootstrap) All() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]any, len(b.data))
	for k, v := range b.data {
		out[k] = v
	}
	return out
}

// WithBootstrap attaches data decoded from the server page to ctx.
func WithBootstrap(ctx context.Context, data map[string]any) context.Context {
	return context.WithValue(ctx, bootstrapDataKey{}, data)
}

// Bootstrapped decodes the value recorded under key into out. It reports
// false when ctx carries no such value.
//
// Values cross the wire as generic maps, so out is filled with weakly typed
// decoding by field name.
func Bootstrapped(ctx context.Context, key string, out any) (bool, error) {
	data, _ := ctx.Value(bootstrapDataKey{}).(map[string]any)
	v, ok := data[key]
	if !ok {
		return false, nil
	}
	if err := decodeLoose(v, out); err != nil {
		return false, err
	}
	return true, nil
}
