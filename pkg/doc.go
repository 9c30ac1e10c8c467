// Package pkg provides the core libraries for Energyatlas.
//
// # Overview
//
// Energyatlas maps per-country energy and economic indicators over time. A
// choropleth map (flat or globe) and a continent treemap show one metric for
// one year; clicking a country opens a drill-down panel with its cities, a
// temperature overlay and charts of its indicators. The pkg directory is
// organised into four areas:
//
//  1. Data - loading and joining the datasets ([dataset], [join])
//  2. Scenes - retained, renderer-agnostic state for every view ([scene],
//     [projection], [hierarchy], [detail], [view], [playback], [formula])
//  3. Sessions - one interactive session tying the scenes together ([app])
//  4. Output - serialisation and transport ([render], [chart], [pipeline],
//     [server])
//
// # Architecture
//
// The typical data flow:
//
//	GeoJSON + CSV files (local or remote)
//	         ↓
//	    [dataset] package (load, validate, cache)
//	         ↓
//	    [join] package (country name → boundary, metrics, metadata)
//	         ↓
//	    [app] package (controls drive scene, hierarchy, detail, playback)
//	         ↓
//	    [render/sink], [chart] (SVG, JSON, DOT; PDF and PNG via [render])
//
// # Quick Start
//
// Render one frame in batch:
//
//	cfg := config.Default()
//	runner := pipeline.NewRunner(cfg, dataset.NewSource(cfg.Data, nil), cache.NewNullCache(), nil, nil)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    View:    "globe",
//	    Metric:  "gdp",
//	    Year:    2015,
//	    Formats: []string{"svg"},
//	})
//
// Drive a session interactively:
//
//	a, err := runner.NewApp(ctx, app.Options{})
//	a.SetYear(2010)
//	a.SwitchView(view.Treemap)
//	a.SelectCountry("Brazil")
//
// # Infrastructure
//
// [config] loads TOML and environment settings, [cache] stores rendered
// artifacts and remote responses on disk or in Redis, [httputil] fetches
// remote datasets with retries, [observability] exposes hooks for logging
// and metrics, [errors] carries error codes mapped to HTTP statuses and
// [buildinfo] carries version information.
package pkg
