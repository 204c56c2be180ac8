package service

import (
	"fmt"
	"math"
	"regexp"
	"sort"

	"carbon-index-service/internal/footprint/dataset"
)

// matchThreshold: cosine scores at or below this are no credible match.
const matchThreshold = 0.2

// Match is one similarity hit: the canonical row name and its emission
// factor in kg CO2e per kg.
type Match struct {
	Name   string
	Factor float64
	Score  float64
	Row    int
}

// word tokens of two or more letters/digits
var reToken = regexp.MustCompile(`[\p{L}\p{N}_][\p{L}\p{N}_]+`)

// analyze: normalized text -> stopword-filtered word unigrams + bigrams.
func analyze(s string) []string {
	words := reToken.FindAllString(Normalize(s), -1)
	kept := words[:0]
	for _, w := range words {
		if _, stop := englishStopwords[w]; stop {
			continue
		}
		kept = append(kept, w)
	}
	terms := make([]string, 0, 2*len(kept))
	terms = append(terms, kept...)
	for i := 0; i+1 < len(kept); i++ {
		terms = append(terms, kept[i]+" "+kept[i+1])
	}
	return terms
}

// vectorizer holds a fixed vocabulary with idf weights. Fitting and
// transforming are separate phases: the vocabulary comes from exactly one
// dataset, later datasets only re-weight within it.
type vectorizer struct {
	vocab map[string]int
	idf   []float64
}

// fitVocabulary learns both the vocabulary and idf weights from docs.
func fitVocabulary(docs []string) *vectorizer {
	seen := map[string]struct{}{}
	analyzed := make([][]string, len(docs))
	for i, d := range docs {
		analyzed[i] = analyze(d)
		for _, t := range analyzed[i] {
			seen[t] = struct{}{}
		}
	}
	terms := make([]string, 0, len(seen))
	for t := range seen {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	v := &vectorizer{vocab: make(map[string]int, len(terms))}
	for i, t := range terms {
		v.vocab[t] = i
	}
	v.idf = idfWeights(analyzed, v.vocab)
	return v
}

// refit keeps the vocabulary but recomputes idf over new docs. Terms absent
// from docs fall back to the smoothed maximum; out-of-vocabulary terms in
// docs are dropped, not learned.
func (v *vectorizer) refit(docs []string) *vectorizer {
	analyzed := make([][]string, len(docs))
	for i, d := range docs {
		analyzed[i] = analyze(d)
	}
	return &vectorizer{vocab: v.vocab, idf: idfWeights(analyzed, v.vocab)}
}

// smoothed idf: ln((1+n)/(1+df)) + 1
func idfWeights(analyzed [][]string, vocab map[string]int) []float64 {
	df := make([]int, len(vocab))
	for _, terms := range analyzed {
		inDoc := map[int]struct{}{}
		for _, t := range terms {
			if idx, ok := vocab[t]; ok {
				inDoc[idx] = struct{}{}
			}
		}
		for idx := range inDoc {
			df[idx]++
		}
	}
	n := float64(len(analyzed))
	idf := make([]float64, len(vocab))
	for i, d := range df {
		idf[i] = math.Log((1+n)/(1+float64(d))) + 1
	}
	return idf
}

// vector builds the l2-normalized tf-idf vector for one text.
func (v *vectorizer) vector(s string) map[int]float64 {
	vec := map[int]float64{}
	for _, t := range analyze(s) {
		if idx, ok := v.vocab[t]; ok {
			vec[idx] += v.idf[idx]
		}
	}
	var sumSq float64
	for _, w := range vec {
		sumSq += w * w
	}
	if sumSq == 0 {
		return vec
	}
	norm := math.Sqrt(sumSq)
	for idx := range vec {
		vec[idx] /= norm
	}
	return vec
}

type indexedSet struct {
	names   []string
	factors []float64
	rows    []map[int]float64
}

// Index is the prebuilt similarity index over every reference dataset.
// All per-dataset matrices share one vocabulary, so scores are comparable
// across datasets. Immutable after build, safe for concurrent reads.
type Index struct {
	query *vectorizer
	sets  map[string]*indexedSet
	keys  []string
}

// BuildIndex fits the vocabulary on the first dataset and re-vectorizes the
// rest against it. The dataset order is therefore a configuration choice,
// not an accident.
func BuildIndex(sets []dataset.Dataset) (*Index, error) {
	if len(sets) == 0 {
		return nil, fmt.Errorf("no datasets")
	}
	ix := &Index{sets: make(map[string]*indexedSet, len(sets))}

	for i, ds := range sets {
		names := make([]string, len(ds.Names))
		for j, n := range ds.Names {
			names[j] = Normalize(n)
		}

		var vz *vectorizer
		if i == 0 {
			vz = fitVocabulary(names)
			ix.query = vz
		} else {
			vz = ix.query.refit(names)
		}

		set := &indexedSet{
			names:   names,
			factors: ds.Factors,
			rows:    make([]map[int]float64, len(names)),
		}
		for j, n := range names {
			set.rows[j] = vz.vector(n)
		}
		ix.sets[ds.Key] = set
		ix.keys = append(ix.keys, ds.Key)
	}
	return ix, nil
}

// Keys returns the dataset keys in build order.
func (ix *Index) Keys() []string { return ix.keys }

// Search finds the best cosine match for query in one dataset. Ties go to
// the lowest row index; scores <= 0.2 return nil.
func (ix *Index) Search(datasetKey, query string) *Match {
	set, ok := ix.sets[datasetKey]
	if !ok {
		return nil
	}
	qv := ix.query.vector(query)
	if len(qv) == 0 {
		return nil
	}

	bestRow, bestScore := -1, 0.0
	for row, rv := range set.rows {
		s := dot(qv, rv)
		if s > bestScore {
			bestScore = s
			bestRow = row
		}
	}
	if bestRow < 0 || bestScore <= matchThreshold {
		return nil
	}
	return &Match{
		Name:   set.names[bestRow],
		Factor: set.factors[bestRow],
		Score:  bestScore,
		Row:    bestRow,
	}
}

func dot(a, b map[int]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for idx, w := range a {
		sum += w * b[idx]
	}
	return sum
}
