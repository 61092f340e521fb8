// Package guard is the entry point adapters call before sending a message.
//
// A Guard wraps the configured decision strategy with the operational
// concerns around it: declining blank bodies, tracing, Prometheus metrics,
// per-line trace logging and auditing of noteworthy outcomes.
package guard

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/thoughtguard/internal/audit"
	"github.com/fyrsmithlabs/thoughtguard/internal/classifier"
	"github.com/fyrsmithlabs/thoughtguard/internal/logging"
	"github.com/fyrsmithlabs/thoughtguard/internal/policy"
	"github.com/fyrsmithlabs/thoughtguard/internal/rules"
)

const instrumentationName = "github.com/fyrsmithlabs/thoughtguard/internal/guard"

// Message is an outgoing message about to be sent.
type Message struct {
	Text        string `json:"text"`
	Destination string `json:"destination,omitempty"`
	Channel     string `json:"channel,omitempty"`
}

// Verdict is the guard's answer for one message.
type Verdict struct {
	ID       string          `json:"id"`
	Strategy string          `json:"strategy"`
	Decision policy.Decision `json:"decision"`

	// Declined is set when the body was blank and nothing was classified
	Declined bool `json:"declined,omitempty"`

	Score        *int     `json:"score,omitempty"`
	Labels       []string `json:"labels,omitempty"`
	RemovedLines int      `json:"removed_lines,omitempty"`
	WholeMessage bool     `json:"whole_message,omitempty"`
}

// Guard evaluates outgoing messages. Safe for concurrent use.
type Guard struct {
	policy    policy.Config
	rulesFile string
	regs      *rules.Registries
	current   atomic.Pointer[snapshot]

	sink   audit.Sink
	logger *logging.Logger
	tracer trace.Tracer
}

// snapshot pairs an engine with the strategy built over it. Rule reloads
// swap the whole snapshot so an evaluation never mixes two rule sets.
type snapshot struct {
	engine   *classifier.Engine
	strategy policy.Strategy
}

func newSnapshot(regs *rules.Registries, cfg policy.Config) (*snapshot, error) {
	engine := classifier.New(regs)
	strategy, err := policy.New(cfg, engine)
	if err != nil {
		return nil, err
	}
	return &snapshot{engine: engine, strategy: strategy}, nil
}

// Option configures a Guard.
type Option func(*Guard)

// WithSink replaces the default log sink for audit records.
func WithSink(sink audit.Sink) Option {
	return func(g *Guard) {
		g.sink = sink
	}
}

// WithTracer replaces the global tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(g *Guard) {
		g.tracer = tracer
	}
}

// WithRegistries uses already compiled rule registries instead of loading
// cfg.RulesFile.
func WithRegistries(regs *rules.Registries) Option {
	return func(g *Guard) {
		g.regs = regs
	}
}

// New builds a guard from cfg. Rule registries come from cfg.RulesFile when
// set, otherwise from the built-in tables.
func New(cfg *Config, logger *logging.Logger, opts ...Option) (*Guard, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid guard config: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	g := &Guard{
		policy:    cfg.Policy(),
		rulesFile: cfg.RulesFile,
		logger:    logger,
		tracer:    otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(g)
	}

	regs := g.regs
	if regs == nil {
		var err error
		if regs, err = loadRegistries(cfg.RulesFile); err != nil {
			return nil, err
		}
	}
	if g.sink == nil {
		g.sink = audit.NewLogSink(logger)
	}

	snap, err := newSnapshot(regs, g.policy)
	if err != nil {
		return nil, err
	}
	g.current.Store(snap)

	g.logDuplicates(regs)
	logger.Info(context.Background(), "guard ready",
		zap.String("strategy", snap.strategy.Name()),
		zap.Int("block_threshold", cfg.BlockThreshold),
		zap.String("rules", regs.String()),
	)

	return g, nil
}

func loadRegistries(path string) (*rules.Registries, error) {
	if path == "" {
		return rules.DefaultRegistries(), nil
	}
	_, regs, err := rules.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	return regs, nil
}

// logDuplicates warns about labels that appear more than once in a table.
// Duplicates are legal and each one contributes on its own.
func (g *Guard) logDuplicates(regs *rules.Registries) {
	for table, labels := range regs.Duplicates() {
		g.logger.Warn(context.Background(), "duplicate rule labels",
			zap.String("table", table),
			zap.Strings("labels", labels),
		)
	}
}

// Engine returns the current classifier engine.
func (g *Guard) Engine() *classifier.Engine {
	return g.current.Load().engine
}

// Strategy returns the configured strategy name.
func (g *Guard) Strategy() string {
	return g.current.Load().strategy.Name()
}

// Evaluate decides what to do with msg. It never fails: a blank body is
// declined and passes through, and audit failures are logged only.
func (g *Guard) Evaluate(ctx context.Context, msg Message) Verdict {
	ctx, span := g.tracer.Start(ctx, "thoughtguard.evaluate")
	defer span.End()

	if rctx, err := logging.WithRoute(ctx, msg.Destination, msg.Channel); err == nil {
		ctx = rctx
	} else {
		g.logger.Debug(ctx, "route not attached to log context", zap.Error(err))
	}

	snap := g.current.Load()
	v := Verdict{
		ID:       uuid.New().String(),
		Strategy: snap.strategy.Name(),
	}
	span.SetAttributes(
		attribute.String("verdict.id", v.ID),
		attribute.String("strategy", v.Strategy),
		attribute.String("channel", msg.Channel),
	)

	if strings.TrimSpace(msg.Text) == "" {
		v.Decision = policy.PassThrough()
		v.Declined = true
		DeclinedTotal.Inc()
		DecisionsTotal.WithLabelValues(v.Strategy, string(v.Decision.Action)).Inc()
		span.SetAttributes(
			attribute.Bool("declined", true),
			attribute.String("decision", string(v.Decision.Action)),
		)
		g.logger.Debug(ctx, "message declined", zap.String("verdict.id", v.ID))
		return v
	}

	out := snap.strategy.Decide(msg.Text)
	g.traceLines(ctx, snap.engine, msg.Text)

	v.Decision = out.Decision
	v.Labels = out.Labels()
	span.SetAttributes(attribute.String("decision", string(v.Decision.Action)))

	if out.Score != nil {
		score := out.Score.Score
		v.Score = &score
		ScoreHistogram.Observe(float64(score))
		for _, m := range out.Score.Matches {
			SignalMatchesTotal.WithLabelValues(m.Label).Inc()
		}
		span.SetAttributes(attribute.Int("score", score))
	}
	if out.Redaction != nil {
		v.RemovedLines = len(out.Redaction.RemovedLines)
		v.WholeMessage = out.Redaction.WholeMessage
		RemovedLinesTotal.Add(float64(v.RemovedLines))
		for _, label := range out.Redaction.Labels {
			SignalMatchesTotal.WithLabelValues(label).Inc()
		}
		span.SetAttributes(
			attribute.Int("removed_lines", v.RemovedLines),
			attribute.Bool("whole_message", v.WholeMessage),
		)
	}
	DecisionsTotal.WithLabelValues(v.Strategy, string(v.Decision.Action)).Inc()

	if out.Noteworthy() {
		g.audit(ctx, span, v, msg, out)
	}

	g.logger.Debug(ctx, "message evaluated",
		zap.String("verdict.id", v.ID),
		zap.Stringer("decision", v.Decision),
		zap.Strings("labels", v.Labels),
	)
	return v
}

func (g *Guard) audit(ctx context.Context, span trace.Span, v Verdict, msg Message, out policy.Outcome) {
	rec := audit.NewRecord(v.Strategy, audit.Route{
		RequestID:   logging.RequestIDFromContext(ctx),
		Destination: msg.Destination,
		Channel:     msg.Channel,
	}, out)
	rec.ID = v.ID

	if err := g.sink.Write(ctx, rec); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "audit failed")
		g.logger.Warn(ctx, "audit sink failed", zap.String("verdict.id", v.ID), zap.Error(err))
	}
}

// traceLines logs the per-line classification at trace level.
func (g *Guard) traceLines(ctx context.Context, engine *classifier.Engine, text string) {
	if !g.logger.Enabled(logging.TraceLevel) {
		return
	}
	for i, lv := range engine.ExplainLines(text) {
		g.logger.Trace(ctx, "line verdict",
			zap.Int("line", i),
			zap.Bool("thought", lv.IsThought),
			zap.String("reason", string(lv.Reason)),
			zap.String("label", lv.Label),
			g.logger.Excerpt("text", lv.Line),
		)
	}
}
