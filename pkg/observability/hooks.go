// Package observability defines the hooks a pipeline runner, cache and
// HTTP adapter call to report what they do.
//
// Hooks are injected: a [Hooks] value travels with the runner or server
// that uses it, and there is no package-level registry. Each hook kind has
// a no-op implementation, and [Hooks.WithDefaults] fills unset kinds with
// it, so callers never check for nil.
//
//	hooks := observability.Hooks{Pipeline: myTracer}.WithDefaults()
//	runner := pipeline.NewRunner(c, nil, logger, hooks)
//
// A [Recorder] counts events in Prometheus collectors on its own registry.
// The HTTP adapter serves them on /metrics and summarizes them on /healthz.
package observability

import (
	"context"
	"time"

	"github.com/matzehuels/chartflow/pkg/errors"
)

// Stage names one step of a pipeline run.
type Stage string

const (
	StageSeries    Stage = "series"
	StageStack     Stage = "stack"
	StageDomains   Stage = "domains"
	StageScales    Stage = "scales"
	StageTicks     Stage = "ticks"
	StageGeometry  Stage = "geometry"
	StageLegend    Stage = "legend"
	StagePartition Stage = "partition"
)

// PipelineHooks receives events from pipeline runs.
type PipelineHooks interface {
	OnStageStart(ctx context.Context, stage Stage)
	OnStageComplete(ctx context.Context, stage Stage, duration time.Duration, err error)
	// OnDiagnostic is called once per recoverable condition of a run.
	OnDiagnostic(ctx context.Context, d errors.Diagnostic)
}

// CacheHooks receives events from snapshot cache lookups.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, kind string)
	OnCacheMiss(ctx context.Context, kind string)
	OnCacheSet(ctx context.Context, kind string, size int)
}

// HTTPHooks receives events from the HTTP adapter.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, path string)
	OnResponse(ctx context.Context, method, path string, status int, duration time.Duration)
}

// NoopPipelineHooks ignores every event.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnStageStart(context.Context, Stage)                          {}
func (NoopPipelineHooks) OnStageComplete(context.Context, Stage, time.Duration, error) {}
func (NoopPipelineHooks) OnDiagnostic(context.Context, errors.Diagnostic)              {}

// NoopCacheHooks ignores every event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks ignores every event.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// Hooks bundles the hook kinds. The zero value is usable after
// WithDefaults.
type Hooks struct {
	Pipeline PipelineHooks
	Cache    CacheHooks
	HTTP     HTTPHooks
}

// WithDefaults returns h with every unset kind replaced by its no-op.
func (h Hooks) WithDefaults() Hooks {
	if h.Pipeline == nil {
		h.Pipeline = NoopPipelineHooks{}
	}
	if h.Cache == nil {
		h.Cache = NoopCacheHooks{}
	}
	if h.HTTP == nil {
		h.HTTP = NoopHTTPHooks{}
	}
	return h
}
