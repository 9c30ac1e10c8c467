// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries emit events through the registered hooks; the default hooks are
// no-ops. The CLI registers log-backed hooks when --verbose is set.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetSceneHooks(&myHooks{})
//	    observability.SetPlaybackHooks(&myHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Scene().OnLoadStart(ctx, sources)
//	// ... load datasets ...
//	observability.Scene().OnLoadComplete(ctx, features, rows, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Scene Hooks
// =============================================================================

// SceneHooks receives events from dataset loading and scene rendering.
type SceneHooks interface {
	// Load events
	OnLoadStart(ctx context.Context, sources []string)
	OnLoadComplete(ctx context.Context, features, rows int, duration time.Duration, err error)

	// Render events (view is "flat", "globe", "treemap" or "detail")
	OnRenderStart(ctx context.Context, view, metric string, year int)
	OnRenderComplete(ctx context.Context, view string, shapes int, duration time.Duration, err error)

	// Drill-down events
	OnDetailRequest(ctx context.Context, country, token string)
	OnDetailComplete(ctx context.Context, country, token string, stale bool, err error)
}

// =============================================================================
// Playback Hooks
// =============================================================================

// PlaybackHooks receives events from the year playback timer.
type PlaybackHooks interface {
	OnPlaybackStart(ctx context.Context, metric string, year int)
	OnPlaybackTick(ctx context.Context, metric string, year int)
	OnPlaybackStop(ctx context.Context, metric string, year int, auto bool)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the remote dataset client.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopSceneHooks is a no-op implementation of SceneHooks.
type NoopSceneHooks struct{}

func (NoopSceneHooks) OnLoadStart(context.Context, []string)                               {}
func (NoopSceneHooks) OnLoadComplete(context.Context, int, int, time.Duration, error)      {}
func (NoopSceneHooks) OnRenderStart(context.Context, string, string, int)                  {}
func (NoopSceneHooks) OnRenderComplete(context.Context, string, int, time.Duration, error) {}
func (NoopSceneHooks) OnDetailRequest(context.Context, string, string)                     {}
func (NoopSceneHooks) OnDetailComplete(context.Context, string, string, bool, error)       {}

// NoopPlaybackHooks is a no-op implementation of PlaybackHooks.
type NoopPlaybackHooks struct{}

func (NoopPlaybackHooks) OnPlaybackStart(context.Context, string, int)      {}
func (NoopPlaybackHooks) OnPlaybackTick(context.Context, string, int)       {}
func (NoopPlaybackHooks) OnPlaybackStop(context.Context, string, int, bool) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	sceneHooks    SceneHooks    = NoopSceneHooks{}
	playbackHooks PlaybackHooks = NoopPlaybackHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetSceneHooks registers custom scene hooks. Nil is ignored.
func SetSceneHooks(h SceneHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		sceneHooks = h
	}
}

// SetPlaybackHooks registers custom playback hooks. Nil is ignored.
func SetPlaybackHooks(h PlaybackHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		playbackHooks = h
	}
}

// SetCacheHooks registers custom cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks. Nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Scene returns the registered scene hooks.
func Scene() SceneHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return sceneHooks
}

// Playback returns the registered playback hooks.
func Playback() PlaybackHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return playbackHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	sceneHooks = NoopSceneHooks{}
	playbackHooks = NoopPlaybackHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
