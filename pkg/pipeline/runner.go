package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/okrtree/pkg/cache"
	"github.com/matzehuels/okrtree/pkg/graph"
	"github.com/matzehuels/okrtree/pkg/observability"
	"github.com/matzehuels/okrtree/pkg/okr"
	"github.com/matzehuels/okrtree/pkg/source"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
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
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, src source.Source, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger

	result := &Result{}

	// Stage 1: Load
	start := time.Now()
	records, hit, err := r.LoadWithCacheInfo(ctx, src, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Records = records
	result.Stats.RecordCount = len(records)
	result.Stats.LoadTime = time.Since(start)
	result.CacheInfo.LoadHit = hit

	if len(opts.Users) == 0 {
		users, err := source.Users(ctx, src)
		if err != nil {
			logger.Warn("roster unavailable", "source", src.Name(), "error", err)
		}
		opts.Users = users
	}

	logger.Info("loaded records",
		"source", src.Name(),
		"records", len(records),
		"cached", hit,
		"duration", result.Stats.LoadTime)

	// Stage 2: Layout
	start = time.Now()
	l, hit, err := r.ComputeLayoutWithCacheInfo(ctx, records, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Stats.NodeCount = len(l.Nodes)
	result.Stats.EdgeCount = len(l.Edges)
	result.Stats.LayoutTime = time.Since(start)
	result.CacheInfo.LayoutHit = hit

	logger.Info("computed layout",
		"nodes", len(l.Nodes),
		"width", l.Width,
		"height", l.Height,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	start = time.Now()
	artifacts, hit, err := r.RenderWithCacheInfo(ctx, l, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(start)
	result.CacheInfo.RenderHit = hit

	logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LoadWithCacheInfo reads records from src and reports whether they came
// from the cache. opts.Refresh bypasses the cached copy.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, src source.Source, opts Options) (records []okr.Record, hit bool, err error) {
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, src.Name())
	start := time.Now()
	defer func() { hooks.OnLoadComplete(ctx, src.Name(), len(records), time.Since(start), err) }()

	q, _ := json.Marshal(opts.Query)
	cacheKey := r.Keyer.RecordsKey(src.Name(), string(q))

	if !opts.Refresh {
		if data, ok, err := r.Cache.Get(ctx, cacheKey); err == nil && ok {
			var cached []okr.Record
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "records")
				return cached, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "records")
	}

	records, err = source.Fetch(ctx, src, opts.Query)
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(records); err == nil {
		if r.Cache.Set(ctx, cacheKey, data, cache.TTLRecords) == nil {
			observability.Cache().OnCacheSet(ctx, "records", len(data))
		}
	}
	return records, false, nil
}

// Load is a convenience wrapper that discards the cache hit info.
func (r *Runner) Load(ctx context.Context, src source.Source, opts Options) ([]okr.Record, error) {
	records, _, err := r.LoadWithCacheInfo(ctx, src, opts)
	return records, err
}

// ComputeLayoutWithCacheInfo lays out records with caching and returns
// cache hit info. Layouts are keyed by the content of records, so edits
// invalidate them without explicit expiry. Decorators run after the cache.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, records []okr.Record, opts Options) (l graph.Layout, hit bool, err error) {
	if err := opts.ValidateForLayout(); err != nil {
		return graph.Layout{}, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, len(records))
	start := time.Now()
	defer func() { hooks.OnLayoutComplete(ctx, len(l.Nodes), time.Since(start), err) }()

	recordsHash, err := cache.HashJSON(records)
	if err != nil {
		return graph.Layout{}, false, fmt.Errorf("hash records: %w", err)
	}
	cacheKey := r.Keyer.LayoutKey(recordsHash, opts.LayoutKeyOpts())

	if data, ok, err := r.Cache.Get(ctx, cacheKey); err == nil && ok {
		if cached, err := graph.UnmarshalLayout(data); err == nil {
			observability.Cache().OnCacheHit(ctx, "layout")
			Decorate(&cached, opts.Decorators...)
			return cached, true, nil
		}
		// undecodable entries fall through to a recompute
	}
	observability.Cache().OnCacheMiss(ctx, "layout")

	l, err = GenerateLayout(records, opts)
	if err != nil {
		return graph.Layout{}, false, err
	}

	if data, err := graph.MarshalLayout(l); err == nil {
		if r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout) == nil {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}

	Decorate(&l, opts.Decorators...)
	return l, false, nil
}

// ComputeLayout is a convenience wrapper that discards the cache hit info.
func (r *Runner) ComputeLayout(ctx context.Context, records []okr.Record, opts Options) (graph.Layout, error) {
	l, _, err := r.ComputeLayoutWithCacheInfo(ctx, records, opts)
	return l, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l graph.Layout, opts Options) (artifacts map[string][]byte, hit bool, err error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	defer func() { hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err) }()

	layoutData, err := graph.MarshalLayout(l)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)

	artifacts = make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		data, ok, err := r.Cache.Get(ctx, key)
		if err != nil || !ok {
			break
		}
		artifacts[format] = data
	}
	if len(artifacts) == len(opts.Formats) {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return artifacts, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	rendered, err := RenderFromLayout(ctx, l, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if r.Cache.Set(ctx, key, data, cache.TTLArtifact) == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return rendered, false, nil
}

// Render is a convenience wrapper that discards the cache hit info.
func (r *Runner) Render(ctx context.Context, l graph.Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, opts)
	return artifacts, err
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
