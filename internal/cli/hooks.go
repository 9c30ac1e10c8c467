package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// logHooks reports observability events at debug level.
type logHooks struct {
	logger *log.Logger
}

func (h *logHooks) OnLoadStart(_ context.Context, sources []string) {
	h.logger.Debug("loading datasets", "sources", len(sources))
}

func (h *logHooks) OnLoadComplete(_ context.Context, features, rows int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("dataset load failed", "err", err, "elapsed", d)
		return
	}
	h.logger.Debug("datasets loaded", "features", features, "rows", rows, "elapsed", d)
}

func (h *logHooks) OnRenderStart(_ context.Context, view, metric string, year int) {
	h.logger.Debug("render", "view", view, "metric", metric, "year", year)
}

func (h *logHooks) OnRenderComplete(_ context.Context, view string, shapes int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("render failed", "view", view, "err", err)
		return
	}
	h.logger.Debug("rendered", "view", view, "shapes", shapes, "elapsed", d)
}

func (h *logHooks) OnDetailRequest(_ context.Context, country, token string) {
	h.logger.Debug("detail requested", "country", country, "token", token)
}

func (h *logHooks) OnDetailComplete(_ context.Context, country, token string, stale bool, err error) {
	h.logger.Debug("detail complete", "country", country, "token", token, "stale", stale, "err", err)
}

func (h *logHooks) OnPlaybackStart(_ context.Context, metric string, year int) {
	h.logger.Debug("playback started", "metric", metric, "year", year)
}

func (h *logHooks) OnPlaybackTick(_ context.Context, metric string, year int) {
	h.logger.Debug("tick", "metric", metric, "year", year)
}

func (h *logHooks) OnPlaybackStop(_ context.Context, metric string, year int, auto bool) {
	h.logger.Debug("playback stopped", "metric", metric, "year", year, "auto", auto)
}

func (h *logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *logHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("request", "method", method, "host", host, "path", path)
}

func (h *logHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "host", host, "path", path, "status", status, "elapsed", d)
}

func (h *logHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("request failed", "method", method, "host", host, "path", path, "err", err)
}
