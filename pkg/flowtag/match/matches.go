// Package match turns a processed token stream into scored tags.
//
// Matchers write MatchInstances into a TokenMatches accumulator that lives
// for one request; the accumulator reduces to a ranked tag list.
package match

import (
	"sort"

	"github.com/cognicore/flowtag/pkg/flowtag/ontology"
)

// Provenance types.
const (
	TypeExact        = "exact"
	TypeLongDistance = "long-distance"
)

// Provenance records which matcher produced a match and how.
type Provenance struct {
	Type    string `json:"type"`
	SubType string `json:"sub_type"`
}

// MatchInstance is one piece of evidence for a label.
type MatchInstance struct {
	MatchedText string     `json:"matched_text"`
	Confidence  float64    `json:"confidence"`
	Provenance  Provenance `json:"provenance"`
}

// Tag is a label with its best confidence.
type Tag struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// TokenMatches accumulates matches per canonical label. It is built fresh
// for each request and is not safe for concurrent use.
type TokenMatches struct {
	order   []string
	byLabel map[string][]MatchInstance
}

// NewTokenMatches creates an empty accumulator.
func NewTokenMatches() *TokenMatches {
	return &TokenMatches{byLabel: make(map[string][]MatchInstance)}
}

// Add records m under label. Labels are canonicalized so "Big_Data" and
// "big data" share one entry. Confidence is clamped to [0, 100].
func (tm *TokenMatches) Add(label string, m MatchInstance) {
	key := ontology.Canonical(label)
	if key == "" {
		return
	}
	if m.Confidence < 0 {
		m.Confidence = 0
	}
	if m.Confidence > 100 {
		m.Confidence = 100
	}
	if _, ok := tm.byLabel[key]; !ok {
		tm.order = append(tm.order, key)
	}
	tm.byLabel[key] = append(tm.byLabel[key], m)
}

// Labels returns labels in first-match order.
func (tm *TokenMatches) Labels() []string {
	return append([]string(nil), tm.order...)
}

// Matches returns the instances recorded for label.
func (tm *TokenMatches) Matches(label string) []MatchInstance {
	return tm.byLabel[ontology.Canonical(label)]
}

// Len returns the number of distinct labels.
func (tm *TokenMatches) Len() int { return len(tm.order) }

// Tags reduces the accumulator: each label's confidence is the maximum of
// its instances, sorted by descending confidence. Equal confidences keep
// first-match order.
func (tm *TokenMatches) Tags() []Tag {
	tags := make([]Tag, 0, len(tm.order))
	for _, label := range tm.order {
		best := 0.0
		for _, m := range tm.byLabel[label] {
			if m.Confidence > best {
				best = m.Confidence
			}
		}
		tags = append(tags, Tag{Label: label, Confidence: best})
	}
	sort.SliceStable(tags, func(i, j int) bool {
		return tags[i].Confidence > tags[j].Confidence
	})
	return tags
}

// Labels returns the labels of tags in order.
func Labels(tags []Tag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.Label
	}
	return out
}
