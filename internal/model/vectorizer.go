package model

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// defaultTokenPattern matches runs of two or more word characters, the
// Unicode-aware equivalent of the usual \b\w\w+\b token rule.
const defaultTokenPattern = `[\p{L}\p{N}_]{2,}`

// VectorizerSpec is the on-disk form of a fitted text vectorizer.
type VectorizerSpec struct {
	Kind         string         `json:"kind"`
	Vocabulary   map[string]int `json:"vocabulary"`
	IDF          []float64      `json:"idf,omitempty"`
	Lowercase    *bool          `json:"lowercase,omitempty"`
	StripAccents string         `json:"strip_accents,omitempty"`
	TokenPattern string         `json:"token_pattern,omitempty"`
	NgramRange   [2]int         `json:"ngram_range,omitempty"`
	Binary       bool           `json:"binary,omitempty"`
	Norm         *string        `json:"norm,omitempty"`
	SublinearTF  bool           `json:"sublinear_tf,omitempty"`
	StopWords    []string       `json:"stop_words,omitempty"`
}

// Vectorizer maps raw strings to sparse feature vectors of fixed dimension.
// It is immutable after construction and safe for concurrent use.
type Vectorizer struct {
	kind        string
	vocab       map[string]int
	idf         []float64
	lowercase   bool
	accents     string
	pattern     *regexp.Regexp
	minN, maxN  int
	binary      bool
	norm        string
	sublinearTF bool
	stopWords   map[string]struct{}
	dim         int
}

// NewVectorizer validates a spec and compiles it.
func NewVectorizer(spec VectorizerSpec) (*Vectorizer, error) {
	v := &Vectorizer{
		kind:        spec.Kind,
		vocab:       spec.Vocabulary,
		idf:         spec.IDF,
		lowercase:   true,
		accents:     spec.StripAccents,
		binary:      spec.Binary,
		sublinearTF: spec.SublinearTF,
	}
	switch v.kind {
	case KindCount:
		v.norm = ""
	case KindTFIDF:
		v.norm = "l2"
	default:
		return nil, fmt.Errorf("%w: unknown vectorizer kind %q", ErrInvalidArtifact, spec.Kind)
	}
	if spec.Lowercase != nil {
		v.lowercase = *spec.Lowercase
	}
	if spec.Norm != nil {
		v.norm = *spec.Norm
	}
	switch v.norm {
	case "", "l1", "l2":
	default:
		return nil, fmt.Errorf("%w: unknown norm %q", ErrInvalidArtifact, v.norm)
	}
	switch v.accents {
	case "", "ascii", "unicode":
	default:
		return nil, fmt.Errorf("%w: unknown strip_accents %q", ErrInvalidArtifact, v.accents)
	}
	if len(v.vocab) == 0 {
		return nil, fmt.Errorf("%w: empty vocabulary", ErrInvalidArtifact)
	}

	seen := make([]bool, len(v.vocab))
	for term, idx := range v.vocab {
		if idx < 0 || idx >= len(v.vocab) || seen[idx] {
			return nil, fmt.Errorf("%w: vocabulary index %d for %q out of range or duplicated", ErrInvalidArtifact, idx, term)
		}
		seen[idx] = true
	}
	v.dim = len(v.vocab)
	if v.kind == KindTFIDF && len(v.idf) != v.dim {
		return nil, fmt.Errorf("%w: idf has %d weights for %d terms", ErrInvalidArtifact, len(v.idf), v.dim)
	}

	pattern := spec.TokenPattern
	if pattern == "" || pattern == `(?u)\b\w\w+\b` {
		pattern = defaultTokenPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: token pattern: %v", ErrInvalidArtifact, err)
	}
	if re.NumSubexp() > 1 {
		return nil, fmt.Errorf("%w: token pattern has more than one capture group", ErrInvalidArtifact)
	}
	v.pattern = re

	v.minN, v.maxN = spec.NgramRange[0], spec.NgramRange[1]
	if v.minN == 0 && v.maxN == 0 {
		v.minN, v.maxN = 1, 1
	}
	if v.minN < 1 || v.maxN < v.minN {
		return nil, fmt.Errorf("%w: ngram range [%d,%d]", ErrInvalidArtifact, v.minN, v.maxN)
	}
	if len(spec.StopWords) > 0 {
		v.stopWords = make(map[string]struct{}, len(spec.StopWords))
		for _, w := range spec.StopWords {
			v.stopWords[w] = struct{}{}
		}
	}
	return v, nil
}

// Dim is the length of every vector the vectorizer produces.
func (v *Vectorizer) Dim() int {
	return v.dim
}

// Transform vectorizes every document, keeping input order.
func (v *Vectorizer) Transform(docs []string) []SparseVector {
	out := make([]SparseVector, len(docs))
	for i, d := range docs {
		out[i] = v.transformOne(d)
	}
	return out
}

func (v *Vectorizer) transformOne(doc string) SparseVector {
	counts := make(map[int]float64)
	for _, term := range v.analyze(doc) {
		if idx, ok := v.vocab[term]; ok {
			counts[idx]++
		}
	}
	vec := SparseVector{Dim: v.dim}
	if len(counts) == 0 {
		return vec
	}
	vec.Indices = make([]int, 0, len(counts))
	for idx := range counts {
		vec.Indices = append(vec.Indices, idx)
	}
	sort.Ints(vec.Indices)
	vec.Values = make([]float64, len(vec.Indices))
	for i, idx := range vec.Indices {
		tf := counts[idx]
		switch {
		case v.binary:
			tf = 1
		case v.sublinearTF:
			tf = 1 + math.Log(tf)
		}
		if v.kind == KindTFIDF {
			tf *= v.idf[idx]
		}
		vec.Values[i] = tf
	}
	vec.normalize(v.norm)
	return vec
}

// analyze turns a document into the terms looked up in the vocabulary.
func (v *Vectorizer) analyze(doc string) []string {
	if v.lowercase {
		doc = strings.ToLower(doc)
	}
	doc = stripAccents(doc, v.accents)

	var tokens []string
	for _, m := range v.pattern.FindAllStringSubmatch(doc, -1) {
		tok := m[0]
		if len(m) == 2 {
			tok = m[1]
		}
		if _, stop := v.stopWords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	if v.minN == 1 && v.maxN == 1 {
		return tokens
	}

	var terms []string
	for n := v.minN; n <= v.maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

func stripAccents(s, mode string) string {
	switch mode {
	case "unicode":
		t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
		out, _, err := transform.String(t, s)
		if err != nil {
			return s
		}
		return out
	case "ascii":
		t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
			return r > unicode.MaxASCII
		})))
		out, _, err := transform.String(t, s)
		if err != nil {
			return s
		}
		return out
	default:
		return s
	}
}
