package pipeline

import (
	"context"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"github.com/zeebo/xxh3"

	"github.com/matzehuels/chartflow/pkg/cache"
	"github.com/matzehuels/chartflow/pkg/errors"
	"github.com/matzehuels/chartflow/pkg/observability"
	"github.com/matzehuels/chartflow/pkg/partition"
	"github.com/matzehuels/chartflow/pkg/spec"
)

// Runner executes pipeline runs with caching, logging and hooks.
//
// The Runner keeps no results between runs. Multiple goroutines can
// safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	Hooks  observability.Hooks
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// uses the default keyer and a nil logger uses the default logger.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger, hooks observability.Hooks) *Runner {
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
		Hooks:  hooks.WithDefaults(),
	}
}

// Run computes the snapshot of chart.
func (r *Runner) Run(ctx context.Context, chart spec.Chart, opts Options) (*Snapshot, error) {
	reg, err := spec.FromChart(chart)
	if err != nil {
		return nil, err
	}
	return r.RunRegistry(ctx, reg, opts)
}

// RunRegistry computes the snapshot of the chart held by reg.
func (r *Runner) RunRegistry(ctx context.Context, reg *spec.Registry, opts Options) (*Snapshot, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	start := time.Now()

	hash := opts.ChartHash
	if hash == "" && !reg.HasFuncs() {
		if data, err := json.Marshal(reg.Chart()); err == nil {
			hash = cache.Hash(data)
		}
	}
	revision := revisionOf(hash, reg.Revision()+opts.Revision)

	var key string
	if hash != "" {
		key = r.Keyer.SnapshotKey(hash, opts.snapshotKeyOpts())
		var snap Snapshot
		if r.lookup(ctx, "xy", key, opts.Refresh, &snap) {
			snap.Cached = true
			snap.attachRaw(reg)
			logger.Debug("snapshot from cache", "revision", snap.Revision)
			return &snap, nil
		}
	}

	snap, err := r.computeXY(ctx, reg, &opts)
	if err != nil {
		return nil, err
	}
	snap.Revision = revision
	r.report(ctx, logger, snap.Diagnostics)
	logger.Info("computed snapshot",
		"series", len(snap.Legend),
		"axes", len(snap.Axes),
		"diagnostics", len(snap.Diagnostics),
		"duration", time.Since(start))

	if key != "" {
		r.store(ctx, "xy", key, snap, cache.TTLSnapshot)
	}
	return snap, nil
}

// RunPartition lays out data with cfg. Zero frame sizes in cfg take the
// option defaults. A nil tree with a NO_MATCHING_PARTITION_RULE
// diagnostic means there is nothing to draw.
func (r *Runner) RunPartition(ctx context.Context, data []any, cfg partition.Config, opts Options) (*PartitionSnapshot, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if cfg.Width == 0 {
		cfg.Width = opts.Width
	}
	if cfg.Height == 0 {
		cfg.Height = opts.Height
	}

	var key string
	if opts.ChartHash != "" {
		key = r.Keyer.PartitionKey(opts.ChartHash, cache.PartitionKeyOpts{
			Width:  cfg.Width,
			Height: cfg.Height,
			Legend: string(opts.LegendRule),
		})
		var snap PartitionSnapshot
		if r.lookup(ctx, "partition", key, opts.Refresh, &snap) {
			snap.Cached = true
			return &snap, nil
		}
	}

	snap := &PartitionSnapshot{Revision: revisionOf(opts.ChartHash, opts.Revision)}
	err := r.stage(ctx, observability.StagePartition, func() error {
		tree, err := partition.Layout(data, cfg, &snap.Diagnostics)
		if err != nil || tree == nil {
			return err
		}
		snap.Tree = tree
		snap.Legend, err = tree.Legend(opts.LegendRule)
		return err
	})
	if err != nil {
		return nil, err
	}
	r.report(ctx, logger, snap.Diagnostics)
	if snap.Tree != nil {
		logger.Info("computed partition",
			"kind", cfg.Kind,
			"nodes", len(snap.Tree.Nodes),
			"depth", snap.Tree.Depth)
	}

	if key != "" {
		r.store(ctx, "partition", key, snap, cache.TTLPartition)
	}
	return snap, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// stage runs fn between stage hooks. A cancelled context stops the run
// before the stage starts.
func (r *Runner) stage(ctx context.Context, s observability.Stage, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.Hooks.Pipeline.OnStageStart(ctx, s)
	start := time.Now()
	err := fn()
	d := time.Since(start)
	r.Hooks.Pipeline.OnStageComplete(ctx, s, d, err)
	r.Logger.Debug("stage complete", "stage", s, "duration", d, "err", err)
	return err
}

// lookup decodes a cached entry into v. Undecodable entries are misses.
func (r *Runner) lookup(ctx context.Context, kind, key string, refresh bool, v any) bool {
	if refresh {
		return false
	}
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "kind", kind, "err", err)
	}
	if err != nil || !hit || json.Unmarshal(data, v) != nil {
		r.Hooks.Cache.OnCacheMiss(ctx, kind)
		return false
	}
	r.Hooks.Cache.OnCacheHit(ctx, kind)
	return true
}

func (r *Runner) store(ctx context.Context, kind, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		r.Logger.Warn("cannot encode for cache", "kind", kind, "err", err)
		return
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "kind", kind, "err", err)
		return
	}
	r.Hooks.Cache.OnCacheSet(ctx, kind, len(data))
}

func (r *Runner) report(ctx context.Context, logger *log.Logger, diags errors.Diagnostics) {
	for _, d := range diags {
		logger.Warn(d.Message, "code", d.Code, "subject", d.Subject)
		r.Hooks.Pipeline.OnDiagnostic(ctx, d)
	}
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// revisionOf stamps a run: the xxh3 hash of the chart hash and the
// caller revision.
func revisionOf(hash string, rev uint64) string {
	h := xxh3.HashString(hash + "#" + strconv.FormatUint(rev, 10))
	return strconv.FormatUint(h, 16)
}
