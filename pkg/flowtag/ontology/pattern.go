package ontology

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/flowtag/pkg/flowtag/internalerr"
)

// MaxTerms is the largest term set a long-distance pattern may hold.
const MaxTerms = 4

// PatternKind selects how a pattern is matched.
type PatternKind int

const (
	// Literal patterns match a contiguous phrase exactly.
	Literal PatternKind = iota
	// TermSet patterns match when every term occurs, in any order.
	TermSet
)

func (k PatternKind) String() string {
	switch k {
	case Literal:
		return "literal"
	case TermSet:
		return "term-set"
	default:
		return "unknown"
	}
}

// Pattern is either a Literal phrase or an unordered TermSet.
//
// In YAML a scalar decodes to a Literal and a sequence to a TermSet:
//
//	patterns:
//	  - reset password
//	  - [password, forgot]
type Pattern struct {
	Kind  PatternKind
	Text  string   // Literal only, canonical form
	Terms []string // TermSet only, canonical, sorted and unique
}

// NewLiteral builds a literal pattern from text.
func NewLiteral(text string) (Pattern, error) {
	c := Canonical(text)
	if c == "" {
		return Pattern{}, internalerr.Malformed("empty literal pattern")
	}
	return Pattern{Kind: Literal, Text: c}, nil
}

// NewTermSet builds a term-set pattern. Duplicate terms collapse; the
// resulting set must hold between 2 and MaxTerms terms.
func NewTermSet(terms ...string) (Pattern, error) {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		c := Canonical(t)
		if c == "" {
			return Pattern{}, internalerr.Malformed("term set %v contains an empty term", terms)
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	if len(out) < 2 || len(out) > MaxTerms {
		return Pattern{}, internalerr.Malformed("term set %v has %d distinct terms, want 2-%d", terms, len(out), MaxTerms)
	}
	sort.Strings(out)
	return Pattern{Kind: TermSet, Terms: out}, nil
}

func (p Pattern) normalize(fn func(string) string) (Pattern, error) {
	if p.Kind == TermSet {
		terms := make([]string, len(p.Terms))
		for i, t := range p.Terms {
			terms[i] = fn(t)
		}
		return NewTermSet(terms...)
	}
	return NewLiteral(fn(p.Text))
}

// Key returns the multimap key of a term-set pattern.
func (p Pattern) Key() TermKey {
	var k TermKey
	k.n = len(p.Terms)
	copy(k.terms[:], p.Terms)
	return k
}

func (p Pattern) String() string {
	if p.Kind == TermSet {
		return "{" + strings.Join(p.Terms, ", ") + "}"
	}
	return p.Text
}

// UnmarshalYAML decodes a scalar as a Literal and a sequence as a TermSet.
func (p *Pattern) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		lit, err := NewLiteral(value.Value)
		if err != nil {
			return errors.Wrapf(err, "line %d", value.Line)
		}
		*p = lit
	case yaml.SequenceNode:
		var terms []string
		if err := value.Decode(&terms); err != nil {
			return errors.Wrapf(internalerr.ErrMalformedEntry, "line %d: %v", value.Line, err)
		}
		set, err := NewTermSet(terms...)
		if err != nil {
			return errors.Wrapf(err, "line %d", value.Line)
		}
		*p = set
	default:
		return internalerr.Malformed("line %d: pattern must be a string or a list of strings", value.Line)
	}
	return nil
}

// MarshalYAML is the inverse of UnmarshalYAML.
func (p Pattern) MarshalYAML() (interface{}, error) {
	if p.Kind == TermSet {
		return p.Terms, nil
	}
	return p.Text, nil
}

// TermKey is the canonical, comparable identity of a term set.
type TermKey struct {
	n     int
	terms [MaxTerms]string
}

// Terms returns the sorted terms of the key.
func (k TermKey) Terms() []string {
	out := make([]string, k.n)
	copy(out, k.terms[:k.n])
	return out
}

// Len returns the number of terms in the key.
func (k TermKey) Len() int { return k.n }

func (k TermKey) less(o TermKey) bool {
	for i := 0; i < MaxTerms; i++ {
		if k.terms[i] != o.terms[i] {
			return k.terms[i] < o.terms[i]
		}
	}
	return k.n < o.n
}

// Canonical lowercases s, turns underscores into spaces and collapses
// whitespace. Labels, tags, literal patterns and terms are all compared in
// this form.
func Canonical(s string) string {
	s = strings.ToLower(strings.ReplaceAll(s, "_", " "))
	return strings.Join(strings.Fields(s), " ")
}
