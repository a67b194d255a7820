package match

import (
	"github.com/cognicore/flowtag/pkg/flowtag/ingest"
	"github.com/cognicore/flowtag/pkg/flowtag/ontology"
)

// ExactMatcher looks every gram up in the dictionary's literal patterns.
type ExactMatcher struct {
	dict *ontology.Dictionary
}

// NewExactMatcher creates a matcher over dict.
func NewExactMatcher(dict *ontology.Dictionary) *ExactMatcher {
	return &ExactMatcher{dict: dict}
}

// Match records a MatchInstance for every label whose literal equals a
// gram. Contiguous grams score the exact confidence, skip-grams the
// skip-gram confidence.
func (m *ExactMatcher) Match(grams []ingest.Gram, into *TokenMatches) {
	for _, g := range grams {
		for _, label := range m.dict.Literal(g.Text) {
			conf := m.dict.ExactConfidence(label)
			if g.Skip {
				conf = m.dict.SkipGramConfidence(label)
			}
			into.Add(label, MatchInstance{
				MatchedText: g.Text,
				Confidence:  conf,
				Provenance:  Provenance{Type: TypeExact, SubType: g.Kind},
			})
		}
	}
}
