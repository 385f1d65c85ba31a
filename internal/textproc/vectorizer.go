package textproc

import (
	"math"
	"sort"
)

// Term is one non-zero entry of a sparse feature vector.
type Term struct {
	Index  int
	Weight float64
}

// Vector is a sparse feature vector sorted by term index.
type Vector []Term

// Dot computes the inner product of a sparse vector with a dense weight
// slice. Terms beyond the weight slice are ignored, which makes dotting a
// vector from a wider vocabulary safe.
func (v Vector) Dot(weights []float64) float64 {
	var sum float64
	for _, t := range v {
		if t.Index < len(weights) {
			sum += t.Weight * weights[t.Index]
		}
	}
	return sum
}

// Vectorizer converts message text into TF-IDF weighted sparse vectors.
// The vocabulary and document-frequency statistics are fit once on training
// data; Transform applies the fitted state unchanged. Fields are exported
// so the fitted state survives gob encoding.
type Vectorizer struct {
	Vocabulary map[string]int
	IDF        []float64
	Documents  int
	MinDocFreq int
}

// NewVectorizer creates an unfitted vectorizer. Tokens must appear in at
// least minDocFreq documents to enter the vocabulary.
func NewVectorizer(minDocFreq int) *Vectorizer {
	if minDocFreq < 1 {
		minDocFreq = 1
	}
	return &Vectorizer{MinDocFreq: minDocFreq}
}

// Fitted reports whether the vectorizer carries a usable vocabulary.
func (v *Vectorizer) Fitted() bool {
	return len(v.Vocabulary) > 0 && len(v.IDF) == len(v.Vocabulary)
}

// Size returns the vocabulary size.
func (v *Vectorizer) Size() int {
	return len(v.Vocabulary)
}

// Fit builds the vocabulary and inverse-document-frequency weights from the
// training documents. Terms are assigned indices in sorted order so fitting
// the same corpus always yields the same vocabulary.
func (v *Vectorizer) Fit(docs []string) {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, tok := range Tokenize(doc) {
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}

	terms := make([]string, 0, len(df))
	for tok, n := range df {
		if n >= v.MinDocFreq {
			terms = append(terms, tok)
		}
	}
	sort.Strings(terms)

	v.Documents = len(docs)
	v.Vocabulary = make(map[string]int, len(terms))
	v.IDF = make([]float64, len(terms))
	for i, tok := range terms {
		v.Vocabulary[tok] = i
		// Smoothed idf: ln((1+n)/(1+df)) + 1, never zero or negative.
		v.IDF[i] = math.Log(float64(1+v.Documents)/float64(1+df[tok])) + 1
	}
}

// Transform converts one document into a TF-IDF vector using the fitted
// state. Tokens outside the vocabulary are ignored. The result is
// L2-normalized.
func (v *Vectorizer) Transform(doc string) Vector {
	counts := make(map[int]int)
	for _, tok := range Tokenize(doc) {
		if idx, ok := v.Vocabulary[tok]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	vec := make(Vector, 0, len(counts))
	var norm float64
	for idx, n := range counts {
		w := float64(n) * v.IDF[idx]
		vec = append(vec, Term{Index: idx, Weight: w})
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i].Weight /= norm
	}

	sort.Slice(vec, func(i, j int) bool { return vec[i].Index < vec[j].Index })
	return vec
}

// TransformAll converts a batch of documents.
func (v *Vectorizer) TransformAll(docs []string) []Vector {
	vecs := make([]Vector, len(docs))
	for i, doc := range docs {
		vecs[i] = v.Transform(doc)
	}
	return vecs
}
