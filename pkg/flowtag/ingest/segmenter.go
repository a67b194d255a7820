package ingest

import (
	"strings"

	"github.com/cognicore/flowtag/pkg/flowtag/ontology"
)

// DefaultMaxGram is the longest known term the segmenter tries to merge.
const DefaultMaxGram = 4

// Segmenter merges known multi-word terms into single underscore-joined
// tokens, so "big data platform" becomes "big_data_platform".
type Segmenter struct {
	table   *ontology.NGramTable
	maxGram int
}

// NewSegmenter creates a segmenter over table. maxGram <= 0 selects
// DefaultMaxGram.
func NewSegmenter(table *ontology.NGramTable, maxGram int) *Segmenter {
	if maxGram <= 0 {
		maxGram = DefaultMaxGram
	}
	if maxGram > ontology.MaxNGramLevel {
		maxGram = ontology.MaxNGramLevel
	}
	return &Segmenter{table: table, maxGram: maxGram}
}

// Segment merges known terms greedily from the longest level down. Each
// term is merged at its first occurrence only, and a span merged at a
// higher level is never re-merged at a lower one. text must already be
// normalized.
func (s *Segmenter) Segment(text string) string {
	words := strings.Fields(text)
	if len(words) < 2 || s.table == nil {
		return strings.Join(words, " ")
	}

	consumed := make([]bool, len(words))
	spans := make([]int, len(words))
	merged := make(map[string]struct{})

	for n := s.maxGram; n >= 2; n-- {
		for i := 0; i+n <= len(words); i++ {
			if anyConsumed(consumed[i : i+n]) {
				continue
			}
			phrase := strings.Join(words[i:i+n], " ")
			if _, done := merged[phrase]; done {
				continue
			}
			if !s.table.Has(n, phrase) {
				continue
			}
			merged[phrase] = struct{}{}
			for j := i; j < i+n; j++ {
				consumed[j] = true
			}
			spans[i] = n
		}
	}

	out := make([]string, 0, len(words))
	for i := 0; i < len(words); {
		if n := spans[i]; n > 0 {
			out = append(out, strings.Join(words[i:i+n], "_"))
			i += n
			continue
		}
		out = append(out, words[i])
		i++
	}
	return strings.Join(out, " ")
}

func anyConsumed(flags []bool) bool {
	for _, f := range flags {
		if f {
			return true
		}
	}
	return false
}
