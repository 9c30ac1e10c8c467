package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/energyatlas/pkg/app"
	"github.com/matzehuels/energyatlas/pkg/cache"
	"github.com/matzehuels/energyatlas/pkg/config"
	"github.com/matzehuels/energyatlas/pkg/dataset"
	apperrors "github.com/matzehuels/energyatlas/pkg/errors"
)

// Runner encapsulates pipeline execution with caching.
// Both the CLI and the server use it to avoid duplicating caching logic.
//
// The Runner keeps the loaded dataset bundle but no per-run state, so
// multiple goroutines can use the same Runner with different options.
type Runner struct {
	Config     *config.Config
	Source     dataset.Source
	Boundaries dataset.BoundarySource
	Cache      cache.Cache
	Keyer      cache.Keyer
	Logger     *log.Logger

	mu     sync.Mutex
	bundle *dataset.Bundle
}

// NewRunner creates a runner reading datasets from src.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (caching disabled).
// Boundaries are read from cfg.Data.Boundaries below src.
func NewRunner(cfg *config.Config, src dataset.Source, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Config:     cfg,
		Source:     src,
		Boundaries: dataset.NewBoundaries(src, cfg.Data.Boundaries, cfg.Detail),
		Cache:      c,
		Keyer:      keyer,
		Logger:     logger,
	}
}

// Execute runs the complete load → scene → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(r.Config); err != nil {
		return nil, err
	}

	result := &Result{
		Year:      opts.Year,
		Metric:    opts.Metric,
		View:      opts.View,
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	bundle, loadHit, err := r.LoadWithCacheInfo(ctx)
	if err != nil {
		return nil, err
	}
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.Countries = len(bundle.Features)
	result.CacheInfo.LoadHit = loadHit
	result.SceneHash = r.Keyer.SceneKey(bundle.Fingerprint, opts.SceneKeyOpts(r.Config))

	if !loadHit {
		r.Logger.Info("loaded datasets",
			"countries", len(bundle.Features),
			"rows", len(bundle.Metrics),
			"duration", result.Stats.LoadTime)
	}

	if !opts.Refresh {
		if artifacts, ok := r.cachedArtifacts(ctx, result.SceneHash, opts); ok {
			result.Artifacts = artifacts
			result.CacheInfo.RenderHit = true
			r.Logger.Info("rendered outputs", "formats", opts.Formats, "cached", true)
			return result, nil
		}
	}

	// Stage 2: Scene
	sceneStart := time.Now()
	a, err := r.BuildScene(ctx, bundle, opts)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	result.Stats.SceneTime = time.Since(sceneStart)
	st := a.State()
	result.Year, result.Metric = st.Year, st.Metric

	r.Logger.Info("built scene",
		"view", opts.View,
		"metric", st.Metric,
		"year", st.Year,
		"country", opts.Country,
		"duration", result.Stats.SceneTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, err := Render(ctx, a, opts)
	if err != nil {
		return nil, err
	}
	frame := a.Frame()
	result.Frame = &frame
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)

	for format, data := range artifacts {
		key := r.Keyer.ArtifactKey(result.SceneHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, key, data, ttlFor(format))
	}

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LoadWithCacheInfo returns the dataset bundle, loading it on first use.
// The bool reports whether the bundle was already loaded.
func (r *Runner) LoadWithCacheInfo(ctx context.Context) (*dataset.Bundle, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bundle != nil {
		return r.bundle, true, nil
	}
	b, err := dataset.LoadAll(ctx, r.Source, r.Config.Data, r.Config.Keys())
	if err != nil {
		return nil, false, err
	}
	r.bundle = b
	return b, false, nil
}

// Load is a convenience wrapper that calls LoadWithCacheInfo and discards
// the cache hit info.
func (r *Runner) Load(ctx context.Context) (*dataset.Bundle, error) {
	b, _, err := r.LoadWithCacheInfo(ctx)
	return b, err
}

// Reload drops the loaded bundle so the next run reads the datasets again.
func (r *Runner) Reload() {
	r.mu.Lock()
	r.bundle = nil
	r.mu.Unlock()
}

// NewApp starts an interactive session on the runner's bundle.
func (r *Runner) NewApp(ctx context.Context, opts app.Options) (*app.App, error) {
	b, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	opts.Config, opts.Bundle = r.Config, b
	if opts.Boundaries == nil {
		opts.Boundaries = r.Boundaries
	}
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	return app.New(ctx, opts)
}

// BuildScene creates a session at the frame opts selects. When opts.Country
// is set it waits for the drill-down panel; a country without a boundary
// fails with BOUNDARY_NOT_FOUND. The caller must Close the returned App.
func (r *Runner) BuildScene(ctx context.Context, bundle *dataset.Bundle, opts Options) (*app.App, error) {
	if err := opts.ValidateAndSetDefaults(r.Config); err != nil {
		return nil, err
	}
	a, err := app.New(ctx, app.Options{
		Config:     r.Config,
		Bundle:     bundle,
		Boundaries: r.Boundaries,
		Logger:     opts.Logger,
		Year:       opts.Year,
		Metric:     opts.Metric,
		Mode:       opts.Mode(),
	})
	if err != nil {
		return nil, err
	}
	if opts.TopN != r.Config.Treemap.TopN {
		if _, err := a.SetTopN(opts.TopN); err != nil {
			a.Close()
			return nil, err
		}
	}
	if opts.Country != "" {
		if err := openDetail(ctx, a, opts.Country); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

// openDetail selects country and blocks until its panel is built.
func openDetail(ctx context.Context, a *app.App, country string) error {
	done := make(chan app.Event, 1)
	unsubscribe := a.Subscribe(func(ev app.Event) {
		if ev.Kind != app.EventDetail || ev.Country != country {
			return
		}
		select {
		case done <- ev:
		default:
		}
	})
	defer unsubscribe()

	if _, err := a.SelectCountry(country); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultDetailTimeout)
	defer cancel()
	status, _, _ := a.Detail()
	if status == app.DetailLoading {
		select {
		case ev := <-done:
			status = ev.Detail
		case <-ctx.Done():
			return apperrors.Wrap(apperrors.ErrCodeTimeout, ctx.Err(), "waiting for %s boundary", country)
		}
	}
	if status != app.DetailReady {
		return apperrors.New(apperrors.ErrCodeBoundaryNotFound, "no boundary for %s", country)
	}
	return nil
}

// cachedArtifacts returns every requested format from cache, or false if
// any is missing.
func (r *Runner) cachedArtifacts(ctx context.Context, sceneHash string, opts Options) (map[string][]byte, bool) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(sceneHash, opts.ArtifactKeyOpts(format))
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			return nil, false
		}
		artifacts[format] = data
	}
	return artifacts, true
}

func ttlFor(format string) time.Duration {
	if format == FormatJSON {
		return cache.SceneTTL
	}
	return cache.ArtifactTTL
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
