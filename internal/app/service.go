// Package service runs the per-submission pipeline: parse the raw input,
// decide a verdict and, on escalation, dispatch one alert.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/okian/wellcheck/internal/domain/alert"
	"github.com/okian/wellcheck/internal/domain/classifier"
	"github.com/okian/wellcheck/internal/domain/decision"
	"github.com/okian/wellcheck/internal/domain/model"
	"github.com/okian/wellcheck/pkg/logger"
	"github.com/okian/wellcheck/pkg/metrics"
)

// ErrNoEngine is returned by New when no decision engine was supplied.
var ErrNoEngine = errors.New("service requires a decision engine")

// User-facing notification messages.
const (
	MsgAlertDelivered     = "A support team member has been notified and will reach out."
	MsgAlertNotConfigured = "The alert channel is not configured, so nobody was notified. Please contact student support directly."
	MsgAlertFailed        = "We could not reach the support team. Please contact student support directly."
	MsgAlertDisabled      = "Alerts are disabled for this run."
)

// Notification reports what happened to the alert side effect.
type Notification struct {
	Attempted bool
	Delivered bool
	Message   string
}

// Outcome is everything a surface needs to render one assessment.
// Exactly one of Rejected, Fault or Verdict is meaningful.
type Outcome struct {
	Ref          string
	Submission   model.Submission
	Row          model.FeatureRow
	Verdict      decision.Verdict
	Rejected     error
	Fault        *decision.Fault
	Notification Notification
	Duration     time.Duration
}

// OK reports whether a verdict was produced.
func (o Outcome) OK() bool { return o.Rejected == nil && o.Fault == nil }

// Service holds only immutable collaborators and is safe for concurrent use.
type Service struct {
	engine   *decision.Engine
	notifier alert.Notifier
	encoding model.Encoding
	model    classifier.Info
	logger   logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithEngine sets the decision engine.
func WithEngine(e *decision.Engine) Option {
	return func(s *Service) {
		s.engine = e
	}
}

// WithNotifier sets the escalation notifier. Without one, alerts are skipped.
func WithNotifier(n alert.Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithEncoding sets the questionnaire encoding used to parse submissions.
func WithEncoding(enc model.Encoding) Option {
	return func(s *Service) {
		if enc != "" {
			s.encoding = enc
		}
	}
}

// WithModelInfo records what classifier was loaded, for stats.
func WithModelInfo(info classifier.Info) Option {
	return func(s *Service) {
		s.model = info
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		encoding: model.EncodingOrdinal,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.engine == nil {
		return nil, ErrNoEngine
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	return s, nil
}

// Encoding returns the questionnaire encoding submissions are parsed with.
func (s *Service) Encoding() model.Encoding { return s.encoding }

// Assess runs the full pipeline for one raw submission.
func (s *Service) Assess(ctx context.Context, raw model.RawSubmission) (out Outcome) {
	start := time.Now()
	out.Ref = uuid.NewString()
	ctx = alert.WithRef(ctx, out.Ref)
	log := s.logger.With(logger.String("ref", out.Ref))

	defer func() { out.Duration = time.Since(start) }()

	sub, err := model.ParseSubmission(raw, s.encoding)
	if err != nil {
		for _, fe := range model.FieldErrors(err) {
			metrics.RecordRejectedInput(fe.Field)
		}
		log.Warn(ctx, "submission rejected", logger.Error(err))
		out.Rejected = err
		return out
	}
	out.Submission = sub
	out.Row = sub.FeatureRow()

	v, err := s.engine.Decide(ctx, sub)
	if err != nil {
		if f, ok := decision.AsFault(err); ok {
			out.Fault = f
		} else {
			out.Fault = &decision.Fault{Kind: decision.FaultInternal, Class: -1, Err: err}
		}
		return out
	}
	out.Verdict = v
	metrics.RecordVerdict(v.Severity.Slug())

	log.Info(ctx, "assessment complete",
		logger.String("severity", v.Severity.Slug()),
		logger.Bool("escalated", v.Escalated),
		logger.Int("free_text_len", len(sub.FreeText)),
		logger.String("keyword", v.Keyword),
	)

	if v.Escalated {
		reason := "model"
		if v.KeywordOverride() {
			reason = "keyword"
		}
		metrics.RecordEscalation(reason)
		out.Notification = s.notify(ctx, log, v, sub)
	}
	return out
}

func (s *Service) notify(ctx context.Context, log logger.Logger, v decision.Verdict, sub model.Submission) Notification {
	if s.notifier == nil {
		return Notification{Message: MsgAlertDisabled}
	}

	n := Notification{Attempted: true}
	delivered, err := s.notifier.Notify(ctx, v, sub)
	switch {
	case err == nil && delivered:
		n.Delivered = true
		n.Message = MsgAlertDelivered
	case errors.Is(err, alert.ErrNotConfigured):
		n.Message = MsgAlertNotConfigured
	default:
		n.Message = MsgAlertFailed
	}
	log.Info(ctx, "alert dispatch", logger.Bool("delivered", n.Delivered))
	return n
}

// GetStats returns static service facts for the status endpoint.
func (s *Service) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"encoding":      string(s.encoding),
		"modelBackend":  s.model.Backend,
		"modelSource":   s.model.Source,
		"classes":       s.model.Classes,
		"alertsEnabled": s.notifier != nil,
	}
}
