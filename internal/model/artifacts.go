// Package model loads the fitted text vectorizer and classifier exported by
// the training pipeline and runs inference with them.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	KindCount         = "count"
	KindTFIDF         = "tfidf"
	KindLinear        = "linear"
	KindMultinomialNB = "multinomial_nb"
)

var (
	// ErrArtifactMissing is returned when an artifact file does not exist.
	ErrArtifactMissing = errors.New("model artifact not found")
	// ErrInvalidArtifact covers unreadable or inconsistent artifact contents.
	ErrInvalidArtifact = errors.New("invalid model artifact")
	// ErrModelMismatch means the vectorizer output does not fit the classifier input.
	ErrModelMismatch = errors.New("vectorizer and classifier dimensions differ")
)

// Artifacts pairs a vectorizer with the classifier fitted on its output.
type Artifacts struct {
	Vectorizer *Vectorizer
	Classifier *Classifier
}

// LoadArtifacts reads both artifact files and checks that they fit together.
func LoadArtifacts(classifierPath, vectorizerPath string) (*Artifacts, error) {
	var cspec ClassifierSpec
	if err := readJSON(classifierPath, &cspec); err != nil {
		return nil, fmt.Errorf("load classifier: %w", err)
	}
	var vspec VectorizerSpec
	if err := readJSON(vectorizerPath, &vspec); err != nil {
		return nil, fmt.Errorf("load vectorizer: %w", err)
	}
	clf, err := NewClassifier(cspec)
	if err != nil {
		return nil, fmt.Errorf("load classifier %s: %w", classifierPath, err)
	}
	vec, err := NewVectorizer(vspec)
	if err != nil {
		return nil, fmt.Errorf("load vectorizer %s: %w", vectorizerPath, err)
	}
	return NewArtifacts(clf, vec)
}

// NewArtifacts pairs already-built components.
func NewArtifacts(clf *Classifier, vec *Vectorizer) (*Artifacts, error) {
	if vec.Dim() != clf.NumFeatures() {
		return nil, fmt.Errorf("%w: vectorizer produces %d features, classifier expects %d", ErrModelMismatch, vec.Dim(), clf.NumFeatures())
	}
	return &Artifacts{Vectorizer: vec, Classifier: clf}, nil
}

// Predict vectorizes texts and classifies them, one label per input in order.
func (a *Artifacts) Predict(texts []string) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}
	return a.Classifier.Predict(a.Vectorizer.Transform(texts))
}

func readJSON(path string, dst any) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrArtifactMissing, path)
		}
		return err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidArtifact, path, err)
	}
	return nil
}
