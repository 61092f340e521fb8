package bus

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/thoughtguard/internal/logging"
)

// Connect dials NATS, retrying with Fibonacci backoff up to
// cfg.ConnectRetries times. Once connected the client reconnects on its own.
func Connect(ctx context.Context, cfg *Config, logger *logging.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	opts := []nats.Option{
		nats.Name("thoughtguard"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn(ctx, "nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info(ctx, "nats reconnected", zap.String("url", nc.ConnectedUrlRedacted()))
		}),
	}
	if cfg.Token.IsSet() {
		opts = append(opts, nats.Token(cfg.Token.Value()))
	}

	backoff := retry.WithMaxRetries(cfg.ConnectRetries, retry.NewFibonacci(cfg.ConnectBackoff.Duration()))

	var nc *nats.Conn
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		conn, err := nats.Connect(cfg.URL, opts...)
		if err != nil {
			logger.Warn(ctx, "nats connect failed",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return retry.RetryableError(err)
		}
		nc = conn
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect to nats after %d attempts: %w", attempt, err)
	}

	logger.Info(ctx, "connected to nats", zap.String("url", nc.ConnectedUrlRedacted()))
	return nc, nil
}
