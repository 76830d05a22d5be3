// Package classifier defines the contract for the pre-trained stress classifier.
//
// The model is trained elsewhere. Implementations load it once at startup and
// must be safe for concurrent read-only use afterwards.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/okian/wellcheck/internal/domain/model"
)

// Sentinel kinds for classifier errors. Implementations wrap these so the
// decision engine can tell fault kinds apart with errors.Is.
var (
	// ErrShapeMismatch means the row's columns do not match the trained feature order.
	ErrShapeMismatch = errors.New("feature row does not match trained schema")
	// ErrUnavailable means the artifact or the serving backend cannot be reached.
	ErrUnavailable = errors.New("classifier unavailable")
	// ErrInvalidArtifact means the artifact failed validation at load time.
	ErrInvalidArtifact = errors.New("invalid classifier artifact")
	// ErrUnexpectedClass means a live backend answered with classes outside SeverityClasses.
	ErrUnexpectedClass = errors.New("classifier answered outside the severity classes")
)

// Classifier predicts a class index for a single feature row.
type Classifier interface {
	// Predict returns the class label for row, honoring ctx where the
	// implementation blocks.
	Predict(ctx context.Context, row model.FeatureRow) (int, error)
}

// Info describes a loaded model for logs and the probe CLI.
type Info struct {
	Backend      string
	Source       string
	FeatureNames []string
	Classes      []int
	Encoding     model.Encoding
}

// Describer is implemented by classifiers that can report what they loaded.
type Describer interface {
	Describe() Info
}

// SeverityClasses are the labels the system trusts, in severity order.
var SeverityClasses = []int{0, 1, 2} //nolint:gochecknoglobals

// CheckSchema verifies that names equal the Feature Row columns, in order.
func CheckSchema(names []string) error {
	want := model.FeatureNames()
	if len(names) != len(want) {
		return fmt.Errorf("%w: got %d columns, want %d", ErrShapeMismatch, len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrShapeMismatch, i, names[i], want[i])
		}
	}
	return nil
}

// CheckClasses verifies that classes are exactly SeverityClasses.
func CheckClasses(classes []int) error {
	if !slices.Equal(classes, SeverityClasses) {
		return fmt.Errorf("%w: classes %v, want %v", ErrInvalidArtifact, classes, SeverityClasses)
	}
	return nil
}
