// Package httputil fetches remote datasets and per-country boundary files.
//
// # Overview
//
//   - [Client]: GET with response caching and retry
//   - [Retry]: exponential backoff for transient failures
//
// # Caching
//
// [Client] stores response bodies in a [cache.Cache] (file or Redis) under
// keys produced by [cache.Keyer.HTTPKey]. A 404 is never cached so that a
// boundary file published later is picked up on the next click.
//
// # Retry
//
// Network errors and 5xx responses are wrapped in [RetryableError] and
// retried three times, starting at one second and doubling.
//
// # Configuration
//
//   - Default TTL: 24 hours ([cache.HTTPTTL])
//   - Max retries: 3
//   - Base backoff: 1 second
//
// The cache can be cleared via `energyatlas cache clear`.
package httputil
