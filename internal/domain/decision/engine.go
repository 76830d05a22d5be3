// Package decision turns a submission into a severity verdict.
//
// Crisis language in the free text always wins: the classifier is never
// consulted when a keyword matches. Otherwise the classifier's class index is
// mapped to Low, Medium or High, and High escalates.
package decision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/wellcheck/internal/domain/classifier"
	"github.com/okian/wellcheck/internal/domain/model"
	"github.com/okian/wellcheck/pkg/logger"
	"github.com/okian/wellcheck/pkg/metrics"
)

// ErrNoClassifier is returned by New when no classifier was supplied.
var ErrNoClassifier = errors.New("decision engine requires a classifier")

// Engine is stateless after construction and safe for concurrent use.
type Engine struct {
	classifier classifier.Classifier
	logger     logger.Logger
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithClassifier injects the loaded model.
func WithClassifier(c classifier.Classifier) Option {
	return func(e *Engine) {
		e.classifier = c
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New constructs an Engine.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.classifier == nil {
		return nil, ErrNoClassifier
	}
	if e.logger == nil {
		e.logger = logger.Nop()
	}
	return e, nil
}

// Decide applies the decision policy. A non-nil error is always a *Fault.
func (e *Engine) Decide(ctx context.Context, sub model.Submission) (Verdict, error) {
	if kw, ok := MatchCrisis(sub.FreeText); ok {
		metrics.RecordKeywordOverride()
		e.logger.Warn(ctx, "crisis keyword override", logger.String("keyword", kw))
		return Verdict{Severity: SeverityCriticalOverride, Escalated: true, Class: -1, Keyword: kw}, nil
	}

	class, err := e.predict(ctx, sub.FeatureRow())
	if err != nil {
		f := classify(err)
		metrics.RecordPredictionFault(f.Kind.String())
		e.logger.Error(ctx, "prediction failed", logger.String("kind", f.Kind.String()), logger.Error(err))
		return Verdict{}, f
	}

	sev, ok := severityByClass(class)
	if !ok {
		metrics.RecordPredictionFault(FaultUnexpectedClass.String())
		e.logger.Error(ctx, "classifier returned an unrecognized class; check the artifact's classes",
			logger.Int("class", class))
		return Verdict{}, &Fault{Kind: FaultUnexpectedClass, Class: class}
	}

	return Verdict{Severity: sev, Escalated: sev == SeverityHigh, Class: class}, nil
}

// predict calls the classifier once, turning a panic into an error.
func (e *Engine) predict(ctx context.Context, row model.FeatureRow) (class int, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panic: %v", r)
		}
		metrics.RecordClassifierLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()
	return e.classifier.Predict(ctx, row)
}
