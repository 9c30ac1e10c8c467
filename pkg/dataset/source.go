package dataset

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/energyatlas/pkg/cache"
	"github.com/matzehuels/energyatlas/pkg/config"
	apperrors "github.com/matzehuels/energyatlas/pkg/errors"
	"github.com/matzehuels/energyatlas/pkg/httputil"
)

// ErrNotFound is returned by a Source when a resource does not exist.
var ErrNotFound = errors.New("dataset: not found")

// Source reads raw dataset files by relative path.
type Source interface {
	Open(ctx context.Context, path string) ([]byte, error)
}

// DirSource reads files below a local directory.
type DirSource struct {
	Root string
}

// Open reads Root/path. Paths are validated so they cannot escape Root.
func (s DirSource) Open(ctx context.Context, path string) ([]byte, error) {
	if err := apperrors.ValidatePath(path); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.Root, filepath.FromSlash(path)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// HTTPSource reads files relative to a base URL through the cached client.
type HTTPSource struct {
	Base   string
	Client *httputil.Client
}

// Open fetches Base/path.
func (s HTTPSource) Open(ctx context.Context, path string) ([]byte, error) {
	if err := apperrors.ValidatePath(path); err != nil {
		return nil, err
	}
	data, err := s.Client.Fetch(ctx, "dataset", strings.TrimRight(s.Base, "/")+"/"+path)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, ErrNotFound
	}
	return data, err
}

// NewSource returns an HTTPSource when cfg.BaseURL is set and a DirSource
// otherwise. client may be nil for a directory source.
func NewSource(cfg config.Data, client *httputil.Client) Source {
	if cfg.BaseURL != "" {
		if client == nil {
			client = httputil.NewClient(nil, nil, cache.HTTPTTL, nil)
		}
		return HTTPSource{Base: cfg.BaseURL, Client: client}
	}
	return DirSource{Root: cfg.Dir}
}
