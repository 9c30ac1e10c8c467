// Package cli implements the energyatlas command-line interface.
//
// # Commands
//
//   - render: write one frame (map, globe, treemap or drill-down panel) as
//     SVG, PNG, PDF, JSON or DOT
//   - series: plot a country's features or formulas over time
//   - serve: run the interactive session behind an HTTP and websocket API
//   - explore: drive the session from the terminal
//   - cache: manage the artifact and dataset cache
//
// # Configuration
//
// Settings come from a TOML file (--config, default energyatlas.toml), a
// .env file (--env) and ENERGYATLAS_* environment variables.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// logs scene, playback, cache and remote-request events.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/energyatlas/pkg/buildinfo"
	"github.com/matzehuels/energyatlas/pkg/cache"
	"github.com/matzehuels/energyatlas/pkg/config"
	"github.com/matzehuels/energyatlas/pkg/dataset"
	"github.com/matzehuels/energyatlas/pkg/httputil"
	"github.com/matzehuels/energyatlas/pkg/observability"
	"github.com/matzehuels/energyatlas/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "energyatlas"

	defaultConfigFile = "energyatlas.toml"
	defaultEnvFile    = ".env"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	envFile    string
	noCache    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level. At debug level the observability
// hooks are routed to the logger.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		registerLogHooks(c.Logger)
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Energyatlas maps country energy and economic indicators",
		Long:          `Energyatlas renders per-country energy and economic indicators as a choropleth map, a rotatable globe and a continent treemap, with per-country drill-downs of cities and temperatures.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", defaultConfigFile, "config file (TOML)")
	flags.StringVar(&c.envFile, "env", defaultEnvFile, "env file with ENERGYATLAS_* overrides")
	flags.BoolVar(&c.noCache, "no-cache", false, "disable the artifact and dataset cache")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.seriesCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.cacheCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// loadConfig reads the config named by --config and --env.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath, c.envFile)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded config", "path", c.configPath, "data", cfg.Data.Dir, "base_url", cfg.Data.BaseURL)
	return cfg, nil
}

// newRunner creates a pipeline runner for CLI use. The same cache backs
// rendered artifacts and remote dataset responses.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config) (*pipeline.Runner, error) {
	store, err := newCache(ctx, cfg.Cache, c.noCache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if cfg.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), cfg.Cache.Prefix)
	}

	var client *httputil.Client
	if cfg.Data.BaseURL != "" {
		client = httputil.NewClient(store, keyer, cache.HTTPTTL, map[string]string{
			"User-Agent": buildinfo.UserAgent(),
		})
	}
	return pipeline.NewRunner(cfg, dataset.NewSource(cfg.Data, client), store, keyer, c.Logger), nil
}

// newCache selects Redis when an address is configured and the file cache
// otherwise.
func newCache(ctx context.Context, cfg config.Cache, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if cfg.RedisAddr != "" {
		return cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	}
	dir, err := resolveCacheDir(cfg)
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/energyatlas/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// resolveCacheDir prefers the configured directory over the XDG default.
func resolveCacheDir(cfg config.Cache) (string, error) {
	if cfg.Dir != "" {
		return cfg.Dir, nil
	}
	return cacheDir()
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// parseList splits a comma-separated flag value, dropping blanks.
func parseList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// hooksRegistered guards against registering log hooks twice.
var hooksRegistered bool

func registerLogHooks(l *log.Logger) {
	if hooksRegistered {
		return
	}
	hooksRegistered = true
	h := &logHooks{logger: l}
	observability.SetSceneHooks(h)
	observability.SetPlaybackHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}
