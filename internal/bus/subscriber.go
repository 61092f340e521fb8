// Package bus adapts the guard to NATS request/reply.
//
// Senders publish a guard.Message as JSON to the classify subject and wait
// for a Reply. Channel gating happens here, before any classification.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/thoughtguard/internal/guard"
	"github.com/fyrsmithlabs/thoughtguard/internal/logging"
	"github.com/fyrsmithlabs/thoughtguard/internal/policy"
)

// Reply is the response to a classify request.
type Reply struct {
	*guard.Verdict

	// Gated is false when the channel is exempt and nothing was evaluated
	Gated bool `json:"gated"`

	Error string `json:"error,omitempty"`
}

// Subscriber serves classify requests from a NATS queue group.
type Subscriber struct {
	nc      *nats.Conn
	guard   *guard.Guard
	gate    *Gate
	logger  *logging.Logger
	subject string
	queue   string

	mu  sync.Mutex
	ctx context.Context
	sub *nats.Subscription
}

// NewSubscriber creates a Subscriber. Call Start to begin serving.
func NewSubscriber(nc *nats.Conn, g *guard.Guard, cfg *Config, logger *logging.Logger) (*Subscriber, error) {
	if nc == nil {
		return nil, fmt.Errorf("nats connection cannot be nil")
	}
	if g == nil {
		return nil, fmt.Errorf("guard cannot be nil")
	}
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	subject := cfg.ClassifySubject
	if subject == "" {
		subject = DefaultClassifySubject
	}
	if err := validateSubject(subject); err != nil {
		return nil, fmt.Errorf("classify subject: %w", err)
	}

	return &Subscriber{
		nc:      nc,
		guard:   g,
		gate:    NewGate(cfg.ClientChannels, cfg.InternalChannels),
		logger:  logger,
		subject: subject,
		queue:   cfg.QueueGroup,
	}, nil
}

// Start queue-subscribes to the classify subject. ctx is the parent of every
// request context.
func (s *Subscriber) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sub != nil {
		return fmt.Errorf("subscriber already started")
	}

	s.ctx = ctx
	sub, err := s.nc.QueueSubscribe(s.subject, s.queue, s.handle)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", s.subject, err)
	}
	if err := s.nc.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return fmt.Errorf("flush subscription: %w", err)
	}
	s.sub = sub

	s.logger.Info(ctx, "nats subscriber started",
		zap.String("subject", s.subject),
		zap.String("queue", s.queue),
	)
	return nil
}

// Stop unsubscribes. In-flight requests finish on the client's dispatch
// goroutine.
func (s *Subscriber) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sub == nil {
		return nil
	}
	err := s.sub.Unsubscribe()
	s.sub = nil
	if err != nil && err != nats.ErrConnectionClosed {
		return fmt.Errorf("unsubscribe %s: %w", s.subject, err)
	}
	return nil
}

// Subject returns the classify subject.
func (s *Subscriber) Subject() string {
	return s.subject
}

func (s *Subscriber) handle(msg *nats.Msg) {
	ctx := logging.WithLogger(s.baseContext(), s.logger)

	reply := s.process(ctx, msg.Data)
	if msg.Reply == "" {
		s.logger.Debug(ctx, "classify request without reply subject")
		return
	}

	data, err := json.Marshal(reply)
	if err != nil {
		s.logger.Error(ctx, "marshal reply", zap.Error(err))
		return
	}
	if err := msg.Respond(data); err != nil {
		s.logger.Warn(ctx, "respond to classify request", zap.Error(err))
	}
}

func (s *Subscriber) baseContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

func (s *Subscriber) process(ctx context.Context, data []byte) Reply {
	var msg guard.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		s.logger.Warn(ctx, "invalid classify request", zap.Error(err))
		return Reply{Error: fmt.Sprintf("invalid request: %v", err)}
	}

	if !s.gate.Applies(msg.Channel) {
		s.logger.Debug(ctx, "channel not gated", zap.String("channel", msg.Channel))
		return Reply{
			Verdict: &guard.Verdict{
				ID:       uuid.New().String(),
				Strategy: s.guard.Strategy(),
				Decision: policy.PassThrough(),
			},
			Gated: false,
		}
	}

	v := s.guard.Evaluate(ctx, msg)
	return Reply{Verdict: &v, Gated: true}
}
