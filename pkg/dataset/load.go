package dataset

import (
	"bytes"
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/energyatlas/pkg/cache"
	"github.com/matzehuels/energyatlas/pkg/config"
	apperrors "github.com/matzehuels/energyatlas/pkg/errors"
	"github.com/matzehuels/energyatlas/pkg/observability"
)

// LoadAll loads the five startup datasets concurrently and waits for all of
// them. Any failure aborts the whole load: the map is never shown with
// partial data. An empty data.Meta path, or a missing metadata file, falls
// back to [BuiltinMeta].
func LoadAll(ctx context.Context, src Source, data config.Data, metrics []string) (*Bundle, error) {
	sources := []string{data.World, data.Metrics, data.Cities, data.Weather, data.Meta}
	observability.Scene().OnLoadStart(ctx, sources)
	start := time.Now()

	b, err := loadAll(ctx, src, data, metrics)
	if err != nil {
		observability.Scene().OnLoadComplete(ctx, 0, 0, time.Since(start), err)
		return nil, err
	}
	observability.Scene().OnLoadComplete(ctx, len(b.Features), len(b.Metrics), time.Since(start), nil)
	return b, nil
}

func loadAll(ctx context.Context, src Source, data config.Data, metrics []string) (*Bundle, error) {
	var (
		b                                   Bundle
		world, rows, cities, weather, metaB []byte
	)

	g, gctx := errgroup.WithContext(ctx)
	read := func(path string, dst *[]byte, optional bool) {
		g.Go(func() error {
			if path == "" && optional {
				return nil
			}
			raw, err := src.Open(gctx, path)
			if optional && errors.Is(err, ErrNotFound) {
				return nil
			}
			if err != nil {
				return apperrors.Wrap(apperrors.ErrCodeDatasetLoad, err, "load %s", path)
			}
			*dst = raw
			return nil
		})
	}
	read(data.World, &world, false)
	read(data.Metrics, &rows, false)
	read(data.Cities, &cities, false)
	read(data.Weather, &weather, false)
	read(data.Meta, &metaB, true)
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var err error
	if b.Features, err = ReadFeatures(world); err != nil {
		return nil, err
	}
	if b.Metrics, err = ReadMetrics(bytes.NewReader(rows), metrics); err != nil {
		return nil, err
	}
	if b.Cities, err = ReadCities(bytes.NewReader(cities)); err != nil {
		return nil, err
	}
	if b.Weather, err = ReadWeather(bytes.NewReader(weather)); err != nil {
		return nil, err
	}
	if metaB != nil {
		if b.Meta, err = ReadMeta(bytes.NewReader(metaB)); err != nil {
			return nil, err
		}
	} else {
		b.Meta = BuiltinMeta(b.Features)
	}

	b.Fingerprint = cache.HashParts(world, rows, cities, weather, metaB)
	return &b, nil
}
