package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/chartflow/pkg/errors"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()
	h := Hooks{}.WithDefaults()

	h.Pipeline.OnStageStart(ctx, StageTicks)
	h.Pipeline.OnStageComplete(ctx, StageTicks, time.Second, nil)
	h.Pipeline.OnDiagnostic(ctx, errors.Diagnostic{Code: errors.ErrCodeInvalidDomain})
	h.Cache.OnCacheHit(ctx, "xy")
	h.Cache.OnCacheMiss(ctx, "xy")
	h.Cache.OnCacheSet(ctx, "xy", 1024)
	h.HTTP.OnRequest(ctx, "POST", "/v1/xy")
	h.HTTP.OnResponse(ctx, "POST", "/v1/xy", 200, time.Millisecond)
}

func TestWithDefaultsKeepsCustomHooks(t *testing.T) {
	custom := &testPipelineHooks{}
	h := Hooks{Pipeline: custom}.WithDefaults()
	if h.Pipeline != custom {
		t.Error("WithDefaults should keep a set pipeline hook")
	}
	if _, ok := h.Cache.(NoopCacheHooks); !ok {
		t.Errorf("Cache = %T, want NoopCacheHooks", h.Cache)
	}
}

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder()
	h := r.Hooks()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Pipeline.OnStageComplete(ctx, StageGeometry, time.Millisecond, nil)
			h.Cache.OnCacheMiss(ctx, "xy")
		}()
	}
	wg.Wait()
	h.Pipeline.OnStageComplete(ctx, StageLegend, 0, errors.New(errors.ErrCodeInternal, "x"))
	h.Pipeline.OnDiagnostic(ctx, errors.Diagnostic{Code: errors.ErrCodeInvalidDomain})
	h.HTTP.OnResponse(ctx, "GET", "/healthz", 200, 0)

	s := r.Snapshot()
	if s.Stages[StageGeometry] != 10 {
		t.Errorf("Stages[geometry] = %d, want 10", s.Stages[StageGeometry])
	}
	if s.Failures[StageLegend] != 1 {
		t.Errorf("Failures[legend] = %d, want 1", s.Failures[StageLegend])
	}
	if s.Cache["xy:miss"] != 10 {
		t.Errorf("Cache[xy:miss] = %d, want 10", s.Cache["xy:miss"])
	}
	if s.Diagnostics[errors.ErrCodeInvalidDomain] != 1 || s.Responses[200] != 1 {
		t.Errorf("Snapshot() = %+v", s)
	}
}

type testPipelineHooks struct{ NoopPipelineHooks }

func TestRecordersDoNotShareCounts(t *testing.T) {
	ctx := context.Background()
	a, b := NewRecorder(), NewRecorder()
	a.OnCacheHit(ctx, "xy")
	a.OnCacheHit(ctx, "xy")

	if got := a.Snapshot().Cache["xy:hit"]; got != 2 {
		t.Errorf("a Cache[xy:hit] = %d, want 2", got)
	}
	if got := b.Snapshot().Cache["xy:hit"]; got != 0 {
		t.Errorf("b Cache[xy:hit] = %d, want 0", got)
	}
}

func TestRecorderHandler(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder()
	r.OnStageComplete(ctx, StageTicks, 2*time.Millisecond, nil)
	r.OnResponse(ctx, http.MethodPost, "/v1/xy", 422, time.Millisecond)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		`chartflow_pipeline_stages_total{result="ok",stage="ticks"} 1`,
		`chartflow_pipeline_stage_duration_seconds_count{stage="ticks"} 1`,
		`chartflow_http_responses_total{method="POST",status="422"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output is missing %q:\n%s", want, body)
		}
	}
}
