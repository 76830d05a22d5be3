// Package tree evaluates an exported decision-tree classifier artifact.
//
// The artifact is the fitted tree's node arrays written as YAML (or JSON,
// which YAML also reads):
//
//	model_type: DecisionTreeClassifier
//	questionnaire_encoding: ordinal
//	feature_names: [Age, Gender, ...]
//	classes: [0, 1, 2]
//	nodes:
//	  - {left: 1, right: 2, feature: 6, threshold: 1.5}
//	  - {left: -1, right: -1, value: [12, 3, 0]}
//
// A node with left == right == -1 is a leaf. Samples go left when
// x[feature] <= threshold. A leaf predicts classes[argmax(value)].
package tree

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/okian/wellcheck/internal/domain/classifier"
	"github.com/okian/wellcheck/internal/domain/model"
)

const leaf = -1

// Node is one entry of the flattened tree.
type Node struct {
	Left      int       `yaml:"left"`
	Right     int       `yaml:"right"`
	Feature   int       `yaml:"feature"`
	Threshold float64   `yaml:"threshold"`
	Value     []float64 `yaml:"value"`
}

func (n Node) isLeaf() bool { return n.Left == leaf && n.Right == leaf }

// Artifact is the on-disk document.
type Artifact struct {
	ModelType    string         `yaml:"model_type"`
	Version      string         `yaml:"version"`
	Encoding     model.Encoding `yaml:"questionnaire_encoding"`
	FeatureNames []string       `yaml:"feature_names"`
	Classes      []int          `yaml:"classes"`
	Nodes        []Node         `yaml:"nodes"`
}

// Tree is a validated, immutable classifier.
type Tree struct {
	source   string
	artifact Artifact
}

// Option applies a configuration option to Load and Parse.
type Option func(*options)

type options struct {
	encoding model.Encoding
}

// WithExpectedEncoding rejects artifacts trained for another questionnaire encoding.
func WithExpectedEncoding(enc model.Encoding) Option {
	return func(o *options) {
		o.encoding = enc
	}
}

// Load reads and validates the artifact at path.
func Load(path string, opts ...Option) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", classifier.ErrUnavailable, path, err)
	}
	t, err := Parse(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.source = path
	return t, nil
}

// Parse decodes and validates an artifact document.
func Parse(data []byte, opts ...Option) (*Tree, error) {
	o := options{encoding: model.EncodingOrdinal}
	for _, opt := range opts {
		opt(&o)
	}

	var a Artifact
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", classifier.ErrInvalidArtifact, err)
	}
	if err := a.validate(o.encoding); err != nil {
		return nil, err
	}
	return &Tree{source: "inline", artifact: a}, nil
}

func (a Artifact) validate(enc model.Encoding) error {
	if err := classifier.CheckSchema(a.FeatureNames); err != nil {
		return err
	}
	if err := classifier.CheckClasses(a.Classes); err != nil {
		return err
	}
	if a.Encoding != enc {
		return fmt.Errorf("%w: artifact encoding %q, service configured for %q", classifier.ErrInvalidArtifact, a.Encoding, enc)
	}
	if len(a.Nodes) == 0 {
		return fmt.Errorf("%w: no nodes", classifier.ErrInvalidArtifact)
	}
	for i, n := range a.Nodes {
		if n.isLeaf() {
			if len(n.Value) != len(a.Classes) {
				return fmt.Errorf("%w: leaf %d has %d values, want %d", classifier.ErrInvalidArtifact, i, len(n.Value), len(a.Classes))
			}
			continue
		}
		// Children always follow their parent in the exported arrays, which
		// also rules out cycles.
		if n.Left <= i || n.Right <= i || n.Left >= len(a.Nodes) || n.Right >= len(a.Nodes) {
			return fmt.Errorf("%w: node %d has children %d/%d", classifier.ErrInvalidArtifact, i, n.Left, n.Right)
		}
		if n.Feature < 0 || n.Feature >= model.FeatureCount {
			return fmt.Errorf("%w: node %d splits on feature %d", classifier.ErrInvalidArtifact, i, n.Feature)
		}
		if math.IsNaN(n.Threshold) {
			return fmt.Errorf("%w: node %d has NaN threshold", classifier.ErrInvalidArtifact, i)
		}
	}
	return nil
}

// Predict walks the tree for a single row.
func (t *Tree) Predict(_ context.Context, row model.FeatureRow) (int, error) {
	if !slices.Equal(row.Names(), t.artifact.FeatureNames) {
		return 0, fmt.Errorf("tree: %w", classifier.ErrShapeMismatch)
	}
	for i, v := range row.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("tree: %w: feature %q is not finite", classifier.ErrShapeMismatch, t.artifact.FeatureNames[i])
		}
	}

	i := 0
	for {
		n := t.artifact.Nodes[i]
		if n.isLeaf() {
			return t.artifact.Classes[argmax(n.Value)], nil
		}
		if row.Values[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Describe reports what was loaded.
func (t *Tree) Describe() classifier.Info {
	return classifier.Info{
		Backend:      "tree",
		Source:       t.source,
		FeatureNames: slices.Clone(t.artifact.FeatureNames),
		Classes:      slices.Clone(t.artifact.Classes),
		Encoding:     t.artifact.Encoding,
	}
}

// argmax returns the first index of the maximum.
func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
