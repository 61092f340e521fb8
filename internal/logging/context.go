// internal/logging/context.go
package logging

import (
	"context"
	"fmt"
	"regexp"
	"unicode/utf8"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 6)

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
		if sc.IsSampled() {
			fields = append(fields, zap.Bool("trace_sampled", true))
		}
	}

	if requestID := RequestIDFromContext(ctx); requestID != "" {
		fields = append(fields, zap.String("request.id", requestID))
	}

	if route := RouteFromContext(ctx); route != nil {
		if route.Destination != "" {
			fields = append(fields, zap.String("message.destination", route.Destination))
		}
		if route.Channel != "" {
			fields = append(fields, zap.String("message.channel", route.Channel))
		}
	}

	return fields
}

type requestCtxKey struct{}
type routeCtxKey struct{}

// Route identifies where an outgoing message is headed.
// Destination is an opaque recipient identifier supplied by the host pipeline.
type Route struct {
	Destination string
	Channel     string
}

const (
	maxIDLen         = 128
	maxRouteFieldLen = 256
)

var (
	// idPattern allows alphanumeric, hyphen, underscore
	idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// channelPattern also allows dots and colons ("whatsapp:ventas")
	channelPattern = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)
)

// validateID validates a request ID.
func validateID(id, name string) error {
	if id == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	if !utf8.ValidString(id) {
		return fmt.Errorf("%s contains invalid UTF-8", name)
	}
	if len(id) > maxIDLen {
		return fmt.Errorf("%s exceeds max length %d", name, maxIDLen)
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (must be alphanumeric, hyphen, underscore)", name)
	}
	return nil
}

// validateRoute checks route fields. Both are optional; the destination is
// opaque so only its length and encoding are checked.
func validateRoute(r *Route) error {
	if !utf8.ValidString(r.Destination) {
		return fmt.Errorf("destination contains invalid UTF-8")
	}
	if len(r.Destination) > maxRouteFieldLen {
		return fmt.Errorf("destination exceeds max length %d", maxRouteFieldLen)
	}
	if r.Channel == "" {
		return nil
	}
	if len(r.Channel) > maxRouteFieldLen {
		return fmt.Errorf("channel exceeds max length %d", maxRouteFieldLen)
	}
	if !channelPattern.MatchString(r.Channel) {
		return fmt.Errorf("channel contains invalid characters")
	}
	return nil
}

// RequestIDFromContext extracts request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if r, ok := ctx.Value(requestCtxKey{}).(string); ok {
		return r
	}
	return ""
}

// ValidateRequestID returns an error if WithRequestID would reject id.
// Adapters use it on caller-supplied ids before attaching them.
func ValidateRequestID(id string) error {
	return validateID(id, "requestID")
}

// WithRequestID adds request ID to context.
// Panics if requestID is empty or contains invalid characters.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if err := validateID(requestID, "requestID"); err != nil {
		panic(fmt.Sprintf("logging: %v", err))
	}
	return context.WithValue(ctx, requestCtxKey{}, requestID)
}

// RouteFromContext extracts the message route from context.
func RouteFromContext(ctx context.Context) *Route {
	if r, ok := ctx.Value(routeCtxKey{}).(*Route); ok {
		return r
	}
	return nil
}

// WithRoute adds the message route to context.
// Invalid values return an error and the unchanged context.
func WithRoute(ctx context.Context, destination, channel string) (context.Context, error) {
	r := &Route{Destination: destination, Channel: channel}
	if err := validateRoute(r); err != nil {
		return ctx, fmt.Errorf("logging: %w", err)
	}
	return context.WithValue(ctx, routeCtxKey{}, r), nil
}

// loggerCtxKey is the context key for Logger.
type loggerCtxKey struct{}

// WithLogger stores logger in context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext retrieves logger from context.
// Returns a nop logger if not found.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok {
		return l
	}
	return NewNop()
}
