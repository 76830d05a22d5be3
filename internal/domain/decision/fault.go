package decision

import (
	"errors"
	"fmt"

	"github.com/okian/wellcheck/internal/domain/classifier"
)

// FaultKind tags why a prediction could not produce a verdict.
type FaultKind int

const (
	FaultInternal FaultKind = iota
	FaultShapeMismatch
	FaultArtifactUnavailable
	FaultUnexpectedClass
)

func (k FaultKind) String() string {
	switch k {
	case FaultShapeMismatch:
		return "shape_mismatch"
	case FaultArtifactUnavailable:
		return "artifact_unavailable"
	case FaultUnexpectedClass:
		return "unexpected_class"
	}
	return "internal"
}

// Describe is the user-facing wording for the fault kind.
func (k FaultKind) Describe() string {
	switch k {
	case FaultShapeMismatch:
		return "The model rejected the input layout. Please contact the service operator."
	case FaultArtifactUnavailable:
		return "The prediction model is currently unavailable. Please try again later."
	case FaultUnexpectedClass:
		return "The model returned an unrecognized stress level."
	}
	return "Prediction failed due to an internal error."
}

// Fault is the error arm of Decide.
type Fault struct {
	Kind  FaultKind
	Class int // set for FaultUnexpectedClass; -1 when the backend broke its class contract
	Err   error
}

func (f *Fault) Error() string {
	if f.Kind == FaultUnexpectedClass && f.Err == nil {
		return fmt.Sprintf("prediction fault (%s): class %d", f.Kind, f.Class)
	}
	if f.Err == nil {
		return fmt.Sprintf("prediction fault (%s)", f.Kind)
	}
	return fmt.Sprintf("prediction fault (%s): %v", f.Kind, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

// AsFault extracts a *Fault from err.
func AsFault(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// classify maps a classifier error onto a fault kind.
func classify(err error) *Fault {
	switch {
	case errors.Is(err, classifier.ErrUnexpectedClass):
		return &Fault{Kind: FaultUnexpectedClass, Class: -1, Err: err}
	case errors.Is(err, classifier.ErrShapeMismatch):
		return &Fault{Kind: FaultShapeMismatch, Err: err}
	case errors.Is(err, classifier.ErrUnavailable), errors.Is(err, classifier.ErrInvalidArtifact):
		return &Fault{Kind: FaultArtifactUnavailable, Err: err}
	}
	return &Fault{Kind: FaultInternal, Err: err}
}
