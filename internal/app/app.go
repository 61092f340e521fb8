// Package app wires the guard into a running daemon: telemetry, logging,
// the NATS adapter and the HTTP API.
package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/thoughtguard/internal/audit"
	"github.com/fyrsmithlabs/thoughtguard/internal/bus"
	"github.com/fyrsmithlabs/thoughtguard/internal/guard"
	"github.com/fyrsmithlabs/thoughtguard/internal/http"
	"github.com/fyrsmithlabs/thoughtguard/internal/logging"
	"github.com/fyrsmithlabs/thoughtguard/internal/telemetry"
)

const instrumentationName = "github.com/fyrsmithlabs/thoughtguard"

// App holds the initialized daemon components.
type App struct {
	cfg        *Config
	logger     *logging.Logger
	ownLogger  bool
	telemetry  *telemetry.Telemetry
	guard      *guard.Guard
	nc         *nats.Conn
	subscriber *bus.Subscriber
	server     *http.Server
}

// Option configures an App.
type Option func(*options)

type options struct {
	logger       *logging.Logger
	telemetryOps []telemetry.Option
}

// WithLogger uses logger instead of building one from the logging section.
func WithLogger(logger *logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithTelemetryOptions passes options to telemetry.New.
func WithTelemetryOptions(opts ...telemetry.Option) Option {
	return func(o *options) { o.telemetryOps = append(o.telemetryOps, opts...) }
}

// New initializes every component. On error, anything already started is
// released.
func New(ctx context.Context, cfg *Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	a := &App{cfg: cfg}

	tel, err := telemetry.New(ctx, &cfg.Telemetry, o.telemetryOps...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	a.telemetry = tel

	if o.logger != nil {
		a.logger = o.logger
	} else {
		logger, err := logging.NewLogger(&cfg.Logging, tel.LoggerProvider())
		if err != nil {
			_ = tel.Shutdown(ctx)
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		a.logger = logger
		a.ownLogger = true
	}

	if health := tel.Health(); health.Degraded {
		a.logger.Warn(ctx, "telemetry degraded", zap.Strings("reasons", health.Reasons))
	}

	if err := a.init(ctx); err != nil {
		a.release(ctx)
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.cfg

	sinks := audit.MultiSink{audit.NewLogSink(a.logger)}
	if cfg.NATS.Enabled {
		nc, err := bus.Connect(ctx, &cfg.NATS, a.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize nats: %w", err)
		}
		a.nc = nc
		sinks = append(sinks, audit.NewNATSSink(nc, cfg.NATS.AuditSubject))
	}

	g, err := guard.New(&cfg.Guard, a.logger,
		guard.WithSink(sinks),
		guard.WithTracer(a.telemetry.Tracer(instrumentationName)),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize guard: %w", err)
	}
	a.guard = g

	if a.nc != nil {
		sub, err := bus.NewSubscriber(a.nc, g, &cfg.NATS, a.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize nats subscriber: %w", err)
		}
		a.subscriber = sub
	}

	serverOpts := []http.Option{
		http.WithTelemetry(a.telemetry),
		http.WithHTTPMetrics(http.NewHTTPMetrics(a.logger, a.telemetry.Meter(instrumentationName))),
	}
	if cfg.Metrics.Enabled {
		serverOpts = append(serverOpts, http.WithPrometheus())
	}
	srv, err := http.NewServer(g, a.logger, &cfg.Server, serverOpts...)
	if err != nil {
		return fmt.Errorf("failed to initialize http server: %w", err)
	}
	a.server = srv

	return nil
}

// Guard returns the guard.
func (a *App) Guard() *guard.Guard {
	return a.guard
}

// Handler returns the HTTP API handler.
func (a *App) Handler() stdhttp.Handler {
	return a.server.Handler()
}

// Logger returns the application logger.
func (a *App) Logger() *logging.Logger {
	return a.logger
}

// startRulesWatcher returns a running watcher. On error no watcher is left open.
func (a *App) startRulesWatcher(ctx context.Context) (*guard.RulesWatcher, error) {
	w, err := guard.NewRulesWatcher(a.guard)
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		w.Stop()
		return nil, err
	}
	return w, nil
}

// Run serves HTTP and NATS requests until ctx is cancelled or the HTTP
// server fails, then shuts everything down. A clean shutdown returns nil.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info(ctx, "starting thoughtguard",
		zap.String("addr", a.cfg.Server.Addr()),
		zap.String("strategy", a.guard.Strategy()),
		zap.Bool("nats", a.nc != nil),
		zap.Bool("metrics", a.cfg.Metrics.Enabled),
		zap.Bool("telemetry", a.telemetry.IsEnabled()),
	)

	if a.cfg.Guard.WatchRules {
		w, err := a.startRulesWatcher(ctx)
		if err != nil {
			a.release(ctx)
			return fmt.Errorf("failed to watch rules: %w", err)
		}
		defer w.Stop()
	}

	if a.subscriber != nil {
		if err := a.subscriber.Start(ctx); err != nil {
			a.release(ctx)
			return err
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info(ctx, "shutdown requested")
	case err := <-errCh:
		if err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout.Duration())
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("http shutdown: %w", err)
	}
	a.release(shutdownCtx)

	return runErr
}

// release stops the subscriber and closes connections and providers.
func (a *App) release(ctx context.Context) {
	if a.subscriber != nil {
		if err := a.subscriber.Stop(); err != nil {
			a.logger.Warn(ctx, "stop nats subscriber", zap.Error(err))
		}
	}
	if a.nc != nil {
		a.drain(ctx)
		a.nc = nil
	}
	if a.telemetry != nil {
		if err := a.telemetry.Shutdown(ctx); err != nil {
			a.logger.Warn(ctx, "telemetry shutdown", zap.Error(err))
		}
	}
	if a.logger != nil && a.ownLogger {
		_ = a.logger.Sync()
	}
}

// drain flushes pending audit publishes before closing the connection.
func (a *App) drain(ctx context.Context) {
	closed := make(chan struct{})
	a.nc.SetClosedHandler(func(*nats.Conn) { close(closed) })

	if err := a.nc.Drain(); err != nil {
		a.nc.Close()
		return
	}

	timeout := 5 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	select {
	case <-closed:
	case <-time.After(timeout):
		a.logger.Warn(ctx, "nats drain timed out")
		a.nc.Close()
	}
}
