// Package server exposes the chart pipeline over HTTP.
//
// Routes:
//
//	POST /v1/xy         chart document in, XY snapshot out
//	POST /v1/partition  chart document with a partition section in, partition snapshot out
//	GET  /healthz       build info and hook counts
//	GET  /metrics       Prometheus metrics, when a recorder is configured
//
// Documents are read in the format named by the Content-Type header
// (application/toml, application/yaml, anything else is JSON). Query
// parameters width, height, ticks and refresh override run options. Every
// response carries an X-Request-Id header.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/matzehuels/chartflow/pkg/buildinfo"
	"github.com/matzehuels/chartflow/pkg/errors"
	chartio "github.com/matzehuels/chartflow/pkg/io"
	"github.com/matzehuels/chartflow/pkg/observability"
	"github.com/matzehuels/chartflow/pkg/partition"
	"github.com/matzehuels/chartflow/pkg/pipeline"
)

// DefaultMaxBodyBytes caps request documents.
const DefaultMaxBodyBytes = 8 << 20

// HeaderRequestID carries the request id on requests and responses.
const HeaderRequestID = "X-Request-Id"

// Config configures a Server.
type Config struct {
	Runner *pipeline.Runner
	Logger *log.Logger
	Hooks  observability.HTTPHooks
	// Recorder, when set, is reported on /healthz and served on /metrics.
	Recorder     *observability.Recorder
	MaxBodyBytes int64
	// Timeout bounds one pipeline run.
	Timeout time.Duration
}

// Server handles chart requests.
type Server struct {
	cfg    Config
	router chi.Router
}

// New builds a server and its routes.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Hooks == nil {
		cfg.Hooks = observability.NoopHTTPHooks{}
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger, observability.Hooks{})
	}
	s := &Server{cfg: cfg}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)
	if cfg.Timeout > 0 {
		r.Use(middleware.Timeout(cfg.Timeout))
	}
	r.Get("/healthz", s.health)
	if cfg.Recorder != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Recorder.Handler())
	}
	r.Route("/v1", func(r chi.Router) {
		r.Post("/xy", s.xy)
		r.Post("/partition", s.partition)
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down,
// giving in-flight requests five seconds to finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.cfg.Logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type ctxKey int

const requestIDKey ctxKey = 0

// RequestID returns the id assigned to the request carrying ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestID keeps a well-formed incoming id and mints one otherwise.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.cfg.Hooks.OnRequest(r.Context(), r.Method, r.URL.Path)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		s.cfg.Hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, elapsed)
		s.cfg.Logger.Debug("request",
			"id", RequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"elapsed", elapsed.Round(time.Microsecond))
	})
}

type healthResponse struct {
	Status string                  `json:"status"`
	Build  buildinfo.Info          `json:"build"`
	Counts *observability.Snapshot `json:"counts,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Build: buildinfo.Get()}
	if s.cfg.Recorder != nil {
		counts := s.cfg.Recorder.Snapshot()
		resp.Counts = &counts
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) xy(w http.ResponseWriter, r *http.Request) {
	doc, opts, ok := s.read(w, r)
	if !ok {
		return
	}
	if !doc.HasXY() {
		s.fail(w, r, errors.New(errors.ErrCodeInvalidInput, "document declares no series"))
		return
	}
	snap, err := s.cfg.Runner.Run(r.Context(), doc.Chart, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// PartitionResponse is the body of a /v1/partition reply. Picked is set
// when the request asks for the node under ?x=&y=.
type PartitionResponse struct {
	*pipeline.PartitionSnapshot
	Picked *partition.Picked `json:"picked,omitempty"`
}

func (s *Server) partition(w http.ResponseWriter, r *http.Request) {
	doc, opts, ok := s.read(w, r)
	if !ok {
		return
	}
	p := doc.Partition
	if p == nil {
		s.fail(w, r, errors.New(errors.ErrCodeInvalidInput, "document has no partition section"))
		return
	}
	opts.LegendRule = p.Legend
	snap, err := s.cfg.Runner.RunPartition(r.Context(), p.Data, p.Config, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := PartitionResponse{PartitionSnapshot: snap}
	q := r.URL.Query()
	if q.Has("x") && q.Has("y") {
		x, errX := strconv.ParseFloat(q.Get("x"), 64)
		y, errY := strconv.ParseFloat(q.Get("y"), 64)
		if errX != nil || errY != nil {
			s.fail(w, r, errors.New(errors.ErrCodeInvalidInput, "x and y must be numbers"))
			return
		}
		if picked, ok := snap.Pick(x, y, p.ID); ok {
			resp.Picked = &picked
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// read decodes the request document and the run options.
func (s *Server) read(w http.ResponseWriter, r *http.Request) (*chartio.Document, pipeline.Options, bool) {
	var opts pipeline.Options
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	doc, err := chartio.Read(body, formatOf(r.Header.Get("Content-Type")))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "TOO_LARGE", "document exceeds the size limit")
			return nil, opts, false
		}
		s.fail(w, r, err)
		return nil, opts, false
	}

	q := r.URL.Query()
	for _, f := range []struct {
		name string
		dst  *float64
	}{{"width", &opts.Width}, {"height", &opts.Height}} {
		if v := q.Get(f.name); v != "" {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				s.fail(w, r, errors.New(errors.ErrCodeInvalidInput, "%s must be a number", f.name))
				return nil, opts, false
			}
			*f.dst = n
		}
	}
	if v := q.Get("ticks"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.fail(w, r, errors.New(errors.ErrCodeInvalidInput, "ticks must be an integer"))
			return nil, opts, false
		}
		opts.TickCount = n
	}
	opts.Refresh = q.Get("refresh") == "true"
	opts.ChartHash = doc.Hash
	opts.Logger = s.cfg.Logger.With("request", RequestID(r.Context()))
	return doc, opts, true
}

func formatOf(contentType string) chartio.Format {
	switch {
	case strings.Contains(contentType, "toml"):
		return chartio.FormatTOML
	case strings.Contains(contentType, "yaml"):
		return chartio.FormatYAML
	}
	return chartio.FormatJSON
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.cfg.Logger.Error("request failed", "id", RequestID(r.Context()), "err", err)
	}
	code := string(errors.GetCode(err))
	if code == "" {
		code = string(errors.ErrCodeInternal)
	}
	writeError(w, status, code, errors.UserMessage(err))
}

func statusOf(err error) int {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
