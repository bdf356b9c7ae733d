package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/chartflow/pkg/buildinfo"
	"github.com/matzehuels/chartflow/pkg/cache"
	"github.com/matzehuels/chartflow/pkg/observability"
	"github.com/matzehuels/chartflow/pkg/pipeline"
)

const lineDoc = `{
  "series": [{"id": "line", "kind": "line", "x": "x", "y": "y",
              "data": [{"x": 0, "y": 2}, {"x": 1, "y": 7}, {"x": 2, "y": 3}]}],
  "axes": [{"id": "bottom", "position": "bottom"}, {"id": "left", "position": "left"}]
}`

const partitionDoc = `
[partition]
id = "pie"
value = "[3]"
layers = [{ group_by = "[0]" }, { group_by = "[2]" }]
data = [["CN", 301, "IN", 44], ["CN", 301, "US", 24]]
`

func newTestServer(t *testing.T) (*Server, *observability.Recorder) {
	t.Helper()
	logger := log.New(io.Discard)
	rec := observability.NewRecorder()
	mem, err := cache.NewMemoryCache(0)
	require.NoError(t, err)
	runner := pipeline.NewRunner(mem, nil, logger, rec.Hooks())
	return New(Config{Runner: runner, Logger: logger, Hooks: rec, Recorder: rec}), rec
}

func do(s *Server, method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func TestXY(t *testing.T) {
	s, rec := newTestServer(t)

	w := do(s, http.MethodPost, "/v1/xy?width=300&height=200", "application/json", lineDoc)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	_, err := uuid.Parse(w.Header().Get(HeaderRequestID))
	assert.NoError(t, err)

	var snap pipeline.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, 300.0, snap.Width)
	assert.Equal(t, 200.0, snap.Height)
	require.Len(t, snap.Geometries, 1)
	require.Len(t, snap.Legend, 1)

	w = do(s, http.MethodPost, "/v1/xy?width=300&height=200", "application/json", lineDoc)
	require.Equal(t, http.StatusOK, w.Code)
	counts := rec.Snapshot()
	assert.Equal(t, 1, counts.Cache["xy:hit"])
	assert.Equal(t, 2, counts.Responses[http.StatusOK])
}

func TestPartition(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(s, http.MethodPost, "/v1/partition?x=400&y=50", "application/toml", partitionDoc)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Tree struct {
			Nodes []struct {
				Value float64 `json:"value"`
			} `json:"nodes"`
		} `json:"tree"`
		Picked *struct {
			Series struct {
				SpecID string `json:"spec_id"`
				Key    string `json:"key"`
			} `json:"series"`
		} `json:"picked"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Tree.Nodes)
	assert.Equal(t, 68.0, resp.Tree.Nodes[0].Value)
	require.NotNil(t, resp.Picked)
	assert.Equal(t, "pie", resp.Picked.Series.SpecID)
	assert.Equal(t, "CN / IN", resp.Picked.Series.Key)
}

func TestErrors(t *testing.T) {
	s, _ := newTestServer(t)
	tests := []struct {
		name   string
		target string
		ctype  string
		body   string
		status int
		code   string
	}{
		{"malformed json", "/v1/xy", "", "{", http.StatusBadRequest, "INVALID_FORMAT"},
		{"no series", "/v1/xy", "application/toml", partitionDoc, http.StatusBadRequest, "INVALID_INPUT"},
		{"no partition", "/v1/partition", "", lineDoc, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad width", "/v1/xy?width=wide", "", lineDoc, http.StatusBadRequest, "INVALID_INPUT"},
		{"negative width", "/v1/xy?width=-5", "", lineDoc, http.StatusBadRequest, "INVALID_CONFIG"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(s, http.MethodPost, tt.target, tt.ctype, tt.body)
			assert.Equal(t, tt.status, w.Code)
			var resp errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.Message)
		})
	}

	w := do(s, http.MethodGet, "/v1/xy", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	do(s, http.MethodPost, "/v1/xy", "", lineDoc)

	w := do(s, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp healthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, buildinfo.Get(), resp.Build)
	require.NotNil(t, resp.Counts)
	assert.Equal(t, 1, resp.Counts.Stages[observability.StageGeometry])
}

func TestMetrics(t *testing.T) {
	s, _ := newTestServer(t)
	do(s, http.MethodPost, "/v1/xy", "", lineDoc)

	w := do(s, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `chartflow_pipeline_stages_total{result="ok",stage="geometry"} 1`)
	assert.Contains(t, body, `chartflow_http_responses_total{method="POST",status="200"} 1`)
}

func TestMetricsNeedRecorder(t *testing.T) {
	s := New(Config{Logger: log.New(io.Discard)})
	w := do(s, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestIDKept(t *testing.T) {
	s, _ := newTestServer(t)
	id := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, id)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	assert.Equal(t, id, w.Header().Get(HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, "not-a-uuid")
	w = httptest.NewRecorder()
	s.ServeHTTP(w, req)
	assert.NotEqual(t, "not-a-uuid", w.Header().Get(HeaderRequestID))
}
