package match

import (
	"fmt"
	"strings"

	"github.com/cognicore/flowtag/pkg/flowtag/ingest"
	"github.com/cognicore/flowtag/pkg/flowtag/ontology"
)

// LongDistanceMatcher matches term-set patterns: every term must occur in
// the token stream, in any order and at any distance.
type LongDistanceMatcher struct {
	dict   *ontology.Dictionary
	window int
}

// NewLongDistanceMatcher creates a matcher over dict. window <= 0 scans
// the whole input; a positive window requires all terms to fall inside
// some run of that many consecutive tokens.
func NewLongDistanceMatcher(dict *ontology.Dictionary, window int) *LongDistanceMatcher {
	return &LongDistanceMatcher{dict: dict, window: window}
}

// Match records a MatchInstance for every label of every satisfied term set.
func (m *LongDistanceMatcher) Match(tokens []ingest.Token, into *TokenMatches) {
	sets := m.dict.TermSets()
	if len(sets) == 0 || len(tokens) == 0 {
		return
	}
	terms := tokenTerms(tokens)
	whole := m.window <= 0 || m.window >= len(terms)
	var all map[string]struct{}
	if whole {
		all = termSet(terms)
	}
	conf := m.dict.LongDistanceConfidence()

	for _, set := range sets {
		keyTerms := set.Key.Terms()
		var ok bool
		if whole {
			ok = hasAll(all, keyTerms)
		} else {
			ok = m.withinWindow(keyTerms, terms)
		}
		if !ok {
			continue
		}
		matched := strings.Join(keyTerms, " ")
		for _, label := range set.Labels {
			into.Add(label, MatchInstance{
				MatchedText: matched,
				Confidence:  conf,
				Provenance:  Provenance{Type: TypeLongDistance, SubType: fmt.Sprintf("term-set-%d", len(keyTerms))},
			})
		}
	}
}

func (m *LongDistanceMatcher) withinWindow(keyTerms []string, terms [][]string) bool {
	for start := 0; start+m.window <= len(terms); start++ {
		if hasAll(termSet(terms[start:start+m.window]), keyTerms) {
			return true
		}
	}
	return false
}

// tokenTerms returns, per token position, the terms that position
// provides: the canonical token and, for merged compounds, each word.
func tokenTerms(tokens []ingest.Token) [][]string {
	out := make([][]string, len(tokens))
	for i, tok := range tokens {
		c := ontology.Canonical(tok.Normalized)
		out[i] = []string{c}
		if words := strings.Fields(c); len(words) > 1 {
			out[i] = append(out[i], words...)
		}
	}
	return out
}

func termSet(terms [][]string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, at := range terms {
		for _, t := range at {
			set[t] = struct{}{}
		}
	}
	return set
}

func hasAll(set map[string]struct{}, keyTerms []string) bool {
	for _, t := range keyTerms {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}
