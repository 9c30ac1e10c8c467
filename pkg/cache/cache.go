// Package cache provides the byte caches shared by the energyatlas pipeline,
// the HTTP dataset source, and the server.
//
// Three backends implement [Cache]:
//   - [FileCache] stores entries as JSON files (CLI default)
//   - [RedisCache] stores entries in Redis (shared by server replicas)
//   - [NullCache] never stores anything (--no-cache, tests)
//
// Keys are produced by a [Keyer] so that every component derives the same
// key for the same input.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Default TTLs for cached entries.
const (
	// HTTPTTL is how long remote dataset and boundary responses stay cached.
	HTTPTTL = 24 * time.Hour

	// SceneTTL is how long built scenes (JSON frames) stay cached.
	SceneTTL = 7 * 24 * time.Hour

	// ArtifactTTL is how long rendered artifacts (SVG, PNG, PDF) stay cached.
	ArtifactTTL = 7 * 24 * time.Hour
)

// Cache is a byte store with per-entry expiration.
type Cache interface {
	// Get returns the cached data and whether it was found.
	// Expired entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// SceneKeyOpts are the inputs that change a built scene.
type SceneKeyOpts struct {
	View    string `json:"view"`
	Metric  string `json:"metric"`
	Year    int    `json:"year"`
	TopN    int    `json:"top_n,omitempty"`
	Country string `json:"country,omitempty"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// ArtifactKeyOpts are the inputs that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format      string  `json:"format"`
	Interactive bool    `json:"interactive,omitempty"`
	Detailed    bool    `json:"detailed,omitempty"`
	Scale       float64 `json:"scale,omitempty"`
}

// Keyer generates cache keys.
type Keyer interface {
	// HTTPKey generates a key for a cached HTTP response.
	HTTPKey(namespace, key string) string

	// SceneKey generates a key for a scene built from a dataset bundle.
	SceneKey(datasetHash string, opts SceneKeyOpts) string

	// ArtifactKey generates a key for an artifact rendered from a scene.
	ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the Keyer used by the CLI and the server.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return fmt.Sprintf("http:%s:%s", namespace, key)
}

// SceneKey hashes the dataset fingerprint together with the scene options.
func (DefaultKeyer) SceneKey(datasetHash string, opts SceneKeyOpts) string {
	return hashKey("scene", datasetHash, opts)
}

// ArtifactKey hashes the scene hash together with the artifact options.
func (DefaultKeyer) ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", sceneHash, opts)
}
