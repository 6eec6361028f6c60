// Package app implements the application layer for cheetah.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"go.trai.ch/cheetah/internal/adapters/detector"
	"go.trai.ch/cheetah/internal/adapters/telemetry"
	"go.trai.ch/cheetah/internal/adapters/transport"
	"go.trai.ch/cheetah/internal/core/domain"
	"go.trai.ch/cheetah/internal/core/ports"
	"go.trai.ch/cheetah/internal/engine/registrar"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

const readHeaderTimeout = 10 * time.Second

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	resolver     ports.PathResolver
	watchers     ports.WatcherFactory
	tracer       ports.Tracer

	stdin  io.Reader
	stdout io.Writer
	stderr *os.File
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	log ports.Logger,
	resolver ports.PathResolver,
	watchers ports.WatcherFactory,
	tracer ports.Tracer,
) *App {
	return &App{
		configLoader: loader,
		logger:       log,
		resolver:     resolver,
		watchers:     watchers,
		tracer:       tracer,
		stdin:        os.Stdin,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
	}
}

// WithIO replaces the streams used by the stdio transport.
func (a *App) WithIO(stdin io.Reader, stdout io.Writer) *App {
	a.stdin = stdin
	a.stdout = stdout
	return a
}

// ServeOptions configures Serve. Nil overrides keep the configured value.
type ServeOptions struct {
	ConfigPath string

	Listen      *string
	LogLevel    *string
	LogFormat   *string
	Trace       *bool
	MaxSessions *int
}

// Serve loads the configuration and serves commands until the caller finishes
// or ctx is canceled.
func (a *App) Serve(ctx context.Context, opts ServeOptions) error {
	cfg, err := a.configLoader.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if err := applyOverrides(&cfg, opts); err != nil {
		return err
	}

	a.configureLogger(cfg.Log)

	if cfg.Tracing.Enabled {
		shutdown := telemetry.Setup(a.logger)
		defer func() {
			_ = shutdown(context.Background())
		}()
	}

	if cfg.Transport.Listen == "" {
		a.logger.Debug("serving commands on stdio")
		return a.ServeConn(ctx, transport.NewStdio(a.stdin, a.stdout), cfg.Sessions.Max)
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", cfg.Transport.Listen)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to listen"), "addr", cfg.Transport.Listen)
	}
	return a.ServeListener(ctx, ln, cfg)
}

//nolint:cyclop // one branch per override
func applyOverrides(cfg *domain.Config, opts ServeOptions) error {
	if opts.Listen != nil {
		cfg.Transport.Listen = *opts.Listen
	}
	if opts.LogLevel != nil {
		level, ok := domain.ParseLogLevel(*opts.LogLevel)
		if !ok {
			return zerr.With(domain.Tag(domain.ErrInvalidConfig, "flag", "log-level"), "value", *opts.LogLevel)
		}
		cfg.Log.Level = level
	}
	if opts.LogFormat != nil {
		format, ok := domain.ParseLogFormat(*opts.LogFormat)
		if !ok {
			return zerr.With(domain.Tag(domain.ErrInvalidConfig, "flag", "log-format"), "value", *opts.LogFormat)
		}
		cfg.Log.Format = format
	}
	if opts.Trace != nil {
		cfg.Tracing.Enabled = *opts.Trace
	}
	if opts.MaxSessions != nil {
		if *opts.MaxSessions < 0 {
			return zerr.With(domain.Tag(domain.ErrInvalidConfig, "flag", "max-sessions"), "value", *opts.MaxSessions)
		}
		cfg.Sessions.Max = *opts.MaxSessions
	}
	return nil
}

func (a *App) configureLogger(cfg domain.LogConfig) {
	a.logger.SetLevel(cfg.Level)
	format := detector.ResolveLogFormat(detector.DetectLogFormat(a.stderr), cfg.Format)
	a.logger.SetJSON(format == domain.LogFormatJSON)
}

// ServeConn serves one caller over conn with its own registrar. Every session
// the caller registered is torn down before ServeConn returns.
// Only transport failures are returned.
func (a *App) ServeConn(ctx context.Context, conn ports.Conn, maxSessions int) error {
	reg := registrar.New(a.watchers, a.logger, a.tracer, registrar.WithMaxSessions(maxSessions))
	return newDispatcher(conn, reg, a.resolver, a.logger).run(ctx)
}

// ServeListener serves websocket callers on ln until ctx is canceled.
// Each connection gets its own registrar; a disconnect tears its sessions down.
func (a *App) ServeListener(ctx context.Context, ln net.Listener, cfg domain.Config) error {
	var conns sync.WaitGroup
	handler := transport.NewWebSocketHandler(func(ctx context.Context, conn ports.Conn) {
		if err := a.ServeConn(ctx, conn, cfg.Sessions.Max); err != nil {
			a.logger.Error(err)
		}
	}, a.logger)

	mux := http.NewServeMux()
	// Shutdown does not track hijacked connections, so they are counted here.
	mux.HandleFunc(cfg.Transport.Path, func(w http.ResponseWriter, r *http.Request) {
		conns.Add(1)
		defer conns.Done()
		handler.ServeHTTP(w, r)
	})

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	a.logger.Info(fmt.Sprintf("listening on ws://%s%s", ln.Addr(), cfg.Transport.Path))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return zerr.Wrap(err, "websocket server failed")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), domain.DefaultShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	conns.Wait()
	return err
}
