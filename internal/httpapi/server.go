package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/alexandrughinea/llm-api/internal/llm"
	"github.com/alexandrughinea/llm-api/internal/manager"
	"github.com/alexandrughinea/llm-api/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Generate(ctx context.Context, prompt string) (manager.Result, error)
	Info() llm.ModelInfo
	Ready() bool
	Status() types.StatusResponse
}

type server struct {
	svc  Service
	opts Options
	log  zerolog.Logger
}

func NewMux(svc Service, opts Options) http.Handler {
	opts = opts.withDefaults()
	s := &server{svc: svc, opts: opts, log: *opts.Logger}

	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, access log, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	for _, mw := range accessLog(s.log) {
		r.Use(mw)
	}
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	// Compression for text and JSON responses
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if opts.AllowedOrigin != "" {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{opts.AllowedOrigin},
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Authorization", "Accept", "Content-Type"},
			MaxAge:         int(opts.MaxAge / time.Second),
		}))
	}

	r.Group(func(r chi.Router) {
		r.Use(inflightMiddleware)
		r.Get("/health", s.health)
		r.Get("/readyz", s.readyz)
		r.Get("/", s.root)
		r.Get("/status", s.status)
		r.Post("/prompt", s.prompt)
		r.Post("/api/generate", s.generateJSON)
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)

	return r
}

// health godoc
// @Summary      Liveness probe
// @Description  Constant-time response that never touches the model.
// @Tags         health
// @Produce      plain
// @Success      200  {string}  string  "OK!"
// @Router       /health [get]
func (s *server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "OK!")
}

// readyz godoc
// @Summary      Readiness probe
// @Tags         health
// @Produce      plain
// @Success      200  {string}  string  "ready"
// @Failure      503  {string}  string  "loading"
// @Router       /readyz [get]
func (s *server) readyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if s.svc.Ready() {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ready")
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = io.WriteString(w, "loading")
}

// root godoc
// @Summary      Loaded model summary
// @Tags         model
// @Produce      plain
// @Success      200  {string}  string
// @Router       / [get]
func (s *server) root(w http.ResponseWriter, r *http.Request) {
	info := s.svc.Info()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "model: %s\narchitecture: %s\nruntime: %s\n", info.Name, info.Architecture, info.Runtime)
}

// status godoc
// @Summary      Service status
// @Tags         model
// @Produce      json
// @Success      200  {object}  types.StatusResponse
// @Router       /status [get]
func (s *server) status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.svc.Status()); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}

// prompt godoc
// @Summary      Generate a continuation as plain text
// @Tags         inference
// @Accept       json
// @Produce      plain
// @Param        request  body      types.PromptRequest  true  "Prompt"
// @Success      200      {string}  string
// @Failure      400      {object}  types.ErrorResponse
// @Failure      415      {object}  types.ErrorResponse
// @Failure      429      {object}  types.ErrorResponse
// @Failure      500      {object}  types.ErrorResponse
// @Failure      504      {string}  string  "request timed out"
// @Router       /prompt [post]
func (s *server) prompt(w http.ResponseWriter, r *http.Request) {
	var req types.PromptRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, ok := s.generate(w, r, req.Message)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, res.Output())
}

// generateJSON godoc
// @Summary      Generate a continuation as JSON
// @Tags         inference
// @Accept       json
// @Produce      json
// @Param        request  body      types.GenerateRequest  true  "Prompt"
// @Success      200      {object}  types.GenerateResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      415      {object}  types.ErrorResponse
// @Failure      429      {object}  types.ErrorResponse
// @Failure      500      {object}  types.ErrorResponse
// @Failure      504      {string}  string  "request timed out"
// @Router       /api/generate [post]
func (s *server) generateJSON(w http.ResponseWriter, r *http.Request) {
	var req types.GenerateRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, ok := s.generate(w, r, req.Prompt)
	if !ok {
		return
	}
	info := s.svc.Info()
	out := types.GenerateResponse{
		Model:            info.Name,
		Architecture:     info.Architecture.String(),
		Response:         res.Output(),
		CompletionTokens: res.CompletionTokens,
		FinishReason:     res.FinishReason(),
		DurationMS:       res.Duration.Milliseconds(),
	}
	if res.PromptCounted {
		out.PromptTokens = &res.PromptTokens
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}

// decode validates the content type and decodes a bounded JSON body into v.
func (s *server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	// Content-Type check
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// If exceeded size, MaxBytesReader may cause an error; still return 400 to avoid size leak details
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// generate runs one session for prompt under the request timeout, joined with
// the server base context so shutdown cancels work too. On failure the error
// response has been written and ok is false.
func (s *server) generate(w http.ResponseWriter, r *http.Request, prompt string) (res manager.Result, ok bool) {
	if strings.TrimSpace(prompt) == "" {
		writeJSONError(w, http.StatusBadRequest, "prompt is required")
		return res, false
	}
	lvl := requestLogLevel(r, s.opts.LogLevel)
	log := hlog.FromRequest(r)
	if lvl >= LevelDebug {
		log.Debug().Str("path", r.URL.Path).Int("prompt_bytes", len(prompt)).Msg("generate start")
	}

	ctx, cancel := joinContexts(s.opts.BaseContext, r.Context())
	defer cancel()
	if s.opts.RequestTimeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, s.opts.RequestTimeout)
		defer cancelTimeout()
	}
	start := time.Now()
	res, err := s.svc.Generate(ctx, prompt)
	if err != nil {
		status := writeGenerateError(w, r, s.opts.BaseContext, err)
		if lvl >= LevelError {
			log.Error().Int("status", status).Dur("dur", time.Since(start)).Err(err).Msg("generate end")
		}
		return res, false
	}
	if lvl >= LevelInfo {
		ev := log.Info().
			Int("status", http.StatusOK).
			Dur("dur", time.Since(start)).
			Str("session", res.SessionID).
			Int("tokens", res.CompletionTokens).
			Str("finish_reason", res.FinishReason())
		if lvl >= LevelDebug {
			ev = ev.Str("output", res.Output())
		}
		ev.Msg("generate end")
	}
	return res, true
}
