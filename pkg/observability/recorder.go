package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/chartflow/pkg/errors"
)

// Namespace prefixes every metric a Recorder registers.
const Namespace = "chartflow"

// Metric names, without the namespace.
const (
	metricStages      = "pipeline_stages_total"
	metricStageTime   = "pipeline_stage_duration_seconds"
	metricDiagnostics = "pipeline_diagnostics_total"
	metricCache       = "cache_events_total"
	metricResponses   = "http_responses_total"
	metricRequestTime = "http_request_duration_seconds"
)

// Recorder implements every hook kind with Prometheus collectors. Each
// recorder owns its registry, so two recorders never share counts.
type Recorder struct {
	registry *prometheus.Registry

	stages      *prometheus.CounterVec
	stageTime   *prometheus.HistogramVec
	diagnostics *prometheus.CounterVec
	cache       *prometheus.CounterVec
	responses   *prometheus.CounterVec
	requestTime *prometheus.HistogramVec
}

// NewRecorder returns a recorder with its collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(Namespace, "", metricStages),
			Help: "Pipeline stages run, by stage and result",
		}, []string{"stage", "result"}),
		stageTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prometheus.BuildFQName(Namespace, "", metricStageTime),
			Help:    "Duration of pipeline stages in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"stage"}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(Namespace, "", metricDiagnostics),
			Help: "Recoverable conditions raised by pipeline runs, by code",
		}, []string{"code"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(Namespace, "", metricCache),
			Help: "Snapshot cache lookups and stores, by snapshot kind and event",
		}, []string{"kind", "event"}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(Namespace, "", metricResponses),
			Help: "HTTP responses, by method and status",
		}, []string{"method", "status"}),
		requestTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prometheus.BuildFQName(Namespace, "", metricRequestTime),
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"method"}),
	}
	r.registry.MustRegister(r.stages, r.stageTime, r.diagnostics, r.cache, r.responses, r.requestTime)
	return r
}

// Hooks returns r installed as every hook kind.
func (r *Recorder) Hooks() Hooks {
	return Hooks{Pipeline: r, Cache: r, HTTP: r}
}

// Registry returns the registry r's collectors live in.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves r's metrics in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) OnStageStart(context.Context, Stage) {}

func (r *Recorder) OnStageComplete(_ context.Context, s Stage, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.stages.WithLabelValues(string(s), result).Inc()
	r.stageTime.WithLabelValues(string(s)).Observe(d.Seconds())
}

func (r *Recorder) OnDiagnostic(_ context.Context, d errors.Diagnostic) {
	r.diagnostics.WithLabelValues(string(d.Code)).Inc()
}

func (r *Recorder) OnCacheHit(_ context.Context, kind string) {
	r.cache.WithLabelValues(kind, "hit").Inc()
}

func (r *Recorder) OnCacheMiss(_ context.Context, kind string) {
	r.cache.WithLabelValues(kind, "miss").Inc()
}

func (r *Recorder) OnCacheSet(_ context.Context, kind string, _ int) {
	r.cache.WithLabelValues(kind, "set").Inc()
}

func (r *Recorder) OnRequest(context.Context, string, string) {}

// OnResponse counts by method and status only; paths are caller input.
func (r *Recorder) OnResponse(_ context.Context, method, _ string, status int, d time.Duration) {
	r.responses.WithLabelValues(method, strconv.Itoa(status)).Inc()
	r.requestTime.WithLabelValues(method).Observe(d.Seconds())
}

// Snapshot is a summary of a recorder's counters.
type Snapshot struct {
	Stages      map[Stage]int       `json:"stages"`
	Failures    map[Stage]int       `json:"failures,omitempty"`
	Diagnostics map[errors.Code]int `json:"diagnostics,omitempty"`
	Cache       map[string]int      `json:"cache,omitempty"`
	Responses   map[int]int         `json:"responses,omitempty"`
}

// Snapshot gathers the current counters. Stages counts every completed
// stage, Failures those that returned an error; Cache is keyed
// "kind:event".
func (r *Recorder) Snapshot() Snapshot {
	s := Snapshot{
		Stages:      make(map[Stage]int),
		Failures:    make(map[Stage]int),
		Diagnostics: make(map[errors.Code]int),
		Cache:       make(map[string]int),
		Responses:   make(map[int]int),
	}
	families, err := r.registry.Gather()
	if err != nil {
		return s
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if m.GetCounter() == nil {
				continue
			}
			labels := make(map[string]string, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			n := int(m.GetCounter().GetValue())

			switch mf.GetName() {
			case prometheus.BuildFQName(Namespace, "", metricStages):
				stage := Stage(labels["stage"])
				s.Stages[stage] += n
				if labels["result"] == "error" {
					s.Failures[stage] += n
				}
			case prometheus.BuildFQName(Namespace, "", metricDiagnostics):
				s.Diagnostics[errors.Code(labels["code"])] += n
			case prometheus.BuildFQName(Namespace, "", metricCache):
				s.Cache[labels["kind"]+":"+labels["event"]] += n
			case prometheus.BuildFQName(Namespace, "", metricResponses):
				if status, err := strconv.Atoi(labels["status"]); err == nil {
					s.Responses[status] += n
				}
			}
		}
	}
	return s
}
