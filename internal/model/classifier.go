package model

import (
	"fmt"
	"math"
)

// ClassifierSpec is the on-disk form of a fitted classifier.
//
// A linear model scores class k as coef[k]·x + intercept[k]. When coef has a
// single row the model is binary and a positive score selects classes[1].
// A multinomial naive Bayes model scores class k as
// feature_log_prob[k]·x + class_log_prior[k].
type ClassifierSpec struct {
	Kind           string      `json:"kind"`
	Classes        []string    `json:"classes"`
	NFeatures      int         `json:"n_features"`
	Coef           [][]float64 `json:"coef,omitempty"`
	Intercept      []float64   `json:"intercept,omitempty"`
	ClassLogPrior  []float64   `json:"class_log_prior,omitempty"`
	FeatureLogProb [][]float64 `json:"feature_log_prob,omitempty"`
}

// Classifier maps feature vectors to category labels. It is immutable after
// construction and safe for concurrent use.
type Classifier struct {
	classes []string
	weights [][]float64
	bias    []float64
	binary  bool
	dim     int
}

// NewClassifier validates a spec and prepares it for scoring.
func NewClassifier(spec ClassifierSpec) (*Classifier, error) {
	if len(spec.Classes) == 0 {
		return nil, fmt.Errorf("%w: classifier has no classes", ErrInvalidArtifact)
	}
	if spec.NFeatures <= 0 {
		return nil, fmt.Errorf("%w: n_features must be positive, got %d", ErrInvalidArtifact, spec.NFeatures)
	}
	c := &Classifier{classes: spec.Classes, dim: spec.NFeatures}

	switch spec.Kind {
	case KindLinear:
		c.weights, c.bias = spec.Coef, spec.Intercept
		if len(spec.Coef) == 1 && len(spec.Classes) == 2 {
			c.binary = true
		} else if len(spec.Coef) != len(spec.Classes) {
			return nil, fmt.Errorf("%w: %d coefficient rows for %d classes", ErrInvalidArtifact, len(spec.Coef), len(spec.Classes))
		}
	case KindMultinomialNB:
		c.weights, c.bias = spec.FeatureLogProb, spec.ClassLogPrior
		if len(c.weights) != len(spec.Classes) {
			return nil, fmt.Errorf("%w: %d log-probability rows for %d classes", ErrInvalidArtifact, len(c.weights), len(spec.Classes))
		}
	default:
		return nil, fmt.Errorf("%w: unknown classifier kind %q", ErrInvalidArtifact, spec.Kind)
	}

	if len(c.bias) != len(c.weights) {
		return nil, fmt.Errorf("%w: %d bias terms for %d weight rows", ErrInvalidArtifact, len(c.bias), len(c.weights))
	}
	for k, row := range c.weights {
		if len(row) != c.dim {
			return nil, fmt.Errorf("%w: weight row %d has %d features, want %d", ErrInvalidArtifact, k, len(row), c.dim)
		}
	}
	return c, nil
}

// Classes returns the label set in model order.
func (c *Classifier) Classes() []string {
	return append([]string(nil), c.classes...)
}

// NumFeatures is the input dimension the classifier expects.
func (c *Classifier) NumFeatures() int {
	return c.dim
}

// Predict returns one label per vector. Ties go to the earliest class.
func (c *Classifier) Predict(vectors []SparseVector) ([]string, error) {
	out := make([]string, len(vectors))
	for i, v := range vectors {
		if v.Dim != c.dim {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, classifier expects %d", ErrModelMismatch, i, v.Dim, c.dim)
		}
		out[i] = c.classes[c.argmax(v)]
	}
	return out, nil
}

func (c *Classifier) argmax(v SparseVector) int {
	if c.binary {
		if v.Dot(c.weights[0])+c.bias[0] > 0 {
			return 1
		}
		return 0
	}
	best, bestScore := 0, math.Inf(-1)
	for k, row := range c.weights {
		score := v.Dot(row) + c.bias[k]
		if score > bestScore {
			best, bestScore = k, score
		}
	}
	return best
}
