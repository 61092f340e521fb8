package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/thoughtguard/internal/logging"
)

// DefaultSubject is the NATS subject prefix for audit records.
const DefaultSubject = "thoughtguard.audit"

// Sink receives audit records. Implementations must be safe for concurrent use.
type Sink interface {
	Write(ctx context.Context, rec Record) error
}

// LogSink writes records as structured log entries.
type LogSink struct {
	logger *logging.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *logging.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Write implements Sink. Removed lines go through the logger's excerpt
// policy so message text can be kept out of logs.
func (s *LogSink) Write(ctx context.Context, rec Record) error {
	fields := []zap.Field{
		zap.String("audit.id", rec.ID),
		zap.String("strategy", rec.Strategy),
		zap.String("decision", string(rec.Decision.Action)),
		zap.Strings("labels", rec.Labels),
	}
	if rec.Score != nil {
		fields = append(fields, zap.Int("score", *rec.Score))
	}
	if len(rec.RemovedLines) > 0 {
		fields = append(fields,
			zap.Int("removed_lines", len(rec.RemovedLines)),
			zap.Bool("whole_message", rec.WholeMessage),
			s.logger.Excerpt("removed", strings.Join(rec.RemovedLines, "\n")),
		)
	}

	s.logger.Info(ctx, "thought filter decision", fields...)
	return nil
}

// NATSSink publishes records as JSON to <prefix>.<channel>.
type NATSSink struct {
	nc     *nats.Conn
	prefix string
}

// NewNATSSink creates a NATSSink. An empty prefix uses DefaultSubject.
func NewNATSSink(nc *nats.Conn, prefix string) *NATSSink {
	if prefix == "" {
		prefix = DefaultSubject
	}
	return &NATSSink{nc: nc, prefix: prefix}
}

// Subject returns the subject a record for channel is published on.
func (s *NATSSink) Subject(channel string) string {
	return s.prefix + "." + subjectToken(channel)
}

// Write implements Sink.
func (s *NATSSink) Write(_ context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	if err := s.nc.Publish(s.Subject(rec.Channel), data); err != nil {
		return fmt.Errorf("publish audit record: %w", err)
	}
	return nil
}

// subjectToken maps a channel name to a single NATS subject token.
func subjectToken(channel string) string {
	if channel == "" {
		return "none"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, channel)
}

// MultiSink fans a record out to every sink.
type MultiSink []Sink

// Write implements Sink. Every sink is attempted; errors are joined.
func (m MultiSink) Write(ctx context.Context, rec Record) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Write(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
