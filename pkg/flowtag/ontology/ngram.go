package ontology

import (
	"sort"
	"strings"

	"github.com/cognicore/flowtag/pkg/flowtag/internalerr"
)

// MaxNGramLevel is the highest gram level a table may hold.
const MaxNGramLevel = 5

// NGramTable holds known terms keyed by word count (1-5).
type NGramTable struct {
	levels map[int]map[string]struct{}
}

// NewNGramTable builds a table from level → terms. A term whose word count
// differs from its declared level is filed under its real word count.
func NewNGramTable(levels map[int][]string) (*NGramTable, error) {
	t := &NGramTable{levels: make(map[int]map[string]struct{})}
	for level, terms := range levels {
		if level < 1 || level > MaxNGramLevel {
			return nil, internalerr.Malformed("n-gram level %d outside 1-%d", level, MaxNGramLevel)
		}
		for _, term := range terms {
			if err := t.Add(term); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

// Add files term under its word count.
func (t *NGramTable) Add(term string) error {
	c := Canonical(term)
	if c == "" {
		return internalerr.Malformed("empty n-gram term")
	}
	n := len(strings.Fields(c))
	if n > MaxNGramLevel {
		return internalerr.Malformed("n-gram %q has %d words, max %d", c, n, MaxNGramLevel)
	}
	if t.levels[n] == nil {
		t.levels[n] = make(map[string]struct{})
	}
	t.levels[n][c] = struct{}{}
	return nil
}

// Has reports whether phrase is a known term of level n.
func (t *NGramTable) Has(n int, phrase string) bool {
	_, ok := t.levels[n][phrase]
	return ok
}

// Terms returns the sorted terms of level n.
func (t *NGramTable) Terms(n int) []string {
	out := make([]string, 0, len(t.levels[n]))
	for term := range t.levels[n] {
		out = append(out, term)
	}
	sort.Strings(out)
	return out
}

// Levels returns level → sorted terms, the inverse of NewNGramTable.
func (t *NGramTable) Levels() map[int][]string {
	out := make(map[int][]string, len(t.levels))
	for n := range t.levels {
		out[n] = t.Terms(n)
	}
	return out
}

// MaxLevel returns the highest populated level, or 0 for an empty table.
func (t *NGramTable) MaxLevel() int {
	top := 0
	for n, terms := range t.levels {
		if len(terms) > 0 && n > top {
			top = n
		}
	}
	return top
}
