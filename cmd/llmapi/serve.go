package main

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/alexandrughinea/llm-api/internal/config"
	"github.com/alexandrughinea/llm-api/internal/httpapi"
	"github.com/alexandrughinea/llm-api/internal/llm"
	"github.com/alexandrughinea/llm-api/internal/manager"
)

const shutdownGrace = 10 * time.Second

type serveOptions struct {
	envFile    string
	configFile string
	logLevel   string
	logFormat  string
}

// deps are the collaborators serve needs; tests substitute them.
type deps struct {
	loadConfig func() (*config.Config, error)
	runtime    llm.Runtime
	out        io.Writer
	// listen defaults to httpapi.Listen.
	listen func(addr string, maxConns int, cfg *tls.Config) (net.Listener, error)
	// ready, when set, receives the bound address once serving.
	ready func(addr net.Addr)
	// grace bounds shutdown and session drain; defaults to shutdownGrace.
	grace time.Duration
}

// serve runs the startup sequence and blocks until ctx ends:
// configuration, TLS material, model load under the command timeout, then
// the listener. Any startup failure is returned before a port is bound.
func serve(ctx context.Context, o serveOptions, d deps) error {
	cfg, err := d.loadConfig()
	if err != nil {
		return err
	}
	level, format := cfg.LogLevel, cfg.LogFormat
	if o.logLevel != "" {
		level = o.logLevel
	}
	if o.logFormat != "" {
		format = o.logFormat
	}
	logger, err := newLogger(d.out, level, format)
	if err != nil {
		return err
	}
	logger.Info().
		Str("addr", cfg.Addr()).
		Str("architecture", cfg.Architecture.String()).
		Int("max_tokens", cfg.MaxTokenCount).
		Dur("request_timeout", cfg.RequestTimeout).
		Int("max_connections", cfg.MaxConnections).
		Msg("configuration loaded")
	ev := logger.Debug().Str("ipv4_main", cfg.IPv4Services.Main).Str("ipv4_fallback", cfg.IPv4Services.Fallback)
	if cfg.IPv6Services != nil {
		ev = ev.Str("ipv6_main", cfg.IPv6Services.Main).Str("ipv6_fallback", cfg.IPv6Services.Fallback)
	}
	ev.Msg("public ip services")

	tlsCfg, err := httpapi.LoadTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
	if err != nil {
		return err
	}

	loadCtx, cancelLoad := context.WithTimeout(ctx, cfg.CommandTimeout)
	handle, err := llm.Load(loadCtx, d.runtime, cfg.LoadSpec(), logger)
	cancelLoad()
	if err != nil {
		return err
	}

	mgr, err := manager.NewWithConfig(manager.ManagerConfig{
		Handle:        handle,
		MaxTokens:     cfg.MaxTokenCount,
		PlayBack:      cfg.PlayBack,
		Threads:       cfg.Threads,
		MaxConcurrent: cfg.MaxConcurrentSessions,
		MaxQueueDepth: cfg.MaxQueueDepth,
		MaxWait:       cfg.QueueWait,
		Logger:        &logger,
	})
	if err != nil {
		_ = handle.Close()
		return err
	}
	grace := d.grace
	if grace <= 0 {
		grace = shutdownGrace
	}

	listen := d.listen
	if listen == nil {
		listen = httpapi.Listen
	}
	ln, err := listen(cfg.Addr(), cfg.MaxConnections, tlsCfg)
	if err != nil {
		releaseModel(context.Background(), mgr, logger)
		return err
	}

	// base is canceled on shutdown so in-flight generations stop.
	base, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	mux := httpapi.NewMux(mgr, httpapi.Options{
		BaseContext:    base,
		Logger:         &logger,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		RequestTimeout: cfg.RequestTimeout,
		AllowedOrigin:  cfg.AllowedOrigin,
		MaxAge:         cfg.MaxAge,
		LogLevel:       httpapi.ParseLevel(level),
	})
	srv := httpapi.NewServer(mux)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", ln.Addr().String()).Str("model", handle.Info().Name).Msg("llmapi listening")
		errCh <- srv.Serve(ln)
	}()
	if d.ready != nil {
		d.ready(ln.Addr())
	}

	select {
	case err := <-errCh:
		cancelBase()
		drainCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		releaseModel(drainCtx, mgr, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	cancelBase()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
	releaseModel(shutdownCtx, mgr, logger)
	return err
}

// releaseModel frees the model once no session can reach it. When sessions
// are still running as ctx ends the model stays loaded until the process exits.
func releaseModel(ctx context.Context, mgr *manager.Manager, logger zerolog.Logger) {
	if err := mgr.Drain(ctx); err != nil {
		logger.Error().Err(err).Int("inflight", mgr.Status().Inflight).Msg("sessions still running, model left loaded")
		return
	}
	if err := mgr.Close(); err != nil {
		logger.Warn().Err(err).Msg("close model")
	}
}

// newLogger builds the process logger from LOG_LEVEL / LOG_FORMAT values.
func newLogger(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "llmapi").Logger(), nil
}
