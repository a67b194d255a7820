package ontology

import (
	"sort"
	"strings"

	"github.com/cognicore/flowtag/pkg/flowtag/internalerr"
)

// Confidence holds the per-provenance confidence of an ontology's matches.
type Confidence struct {
	Exact        float64 `yaml:"exact"`
	SkipGram     float64 `yaml:"skipgram"`
	LongDistance float64 `yaml:"long_distance"`
}

// DefaultConfidence returns the confidences used when an ontology sets none.
// Long-distance hits score lowest because scattered terms are the most
// likely to be coincidental.
func DefaultConfidence() Confidence {
	return Confidence{Exact: 100, SkipGram: 90, LongDistance: 75}
}

func (c Confidence) withDefaults() Confidence {
	d := DefaultConfidence()
	if c.Exact == 0 {
		c.Exact = d.Exact
	}
	if c.SkipGram == 0 {
		c.SkipGram = d.SkipGram
	}
	if c.LongDistance == 0 {
		c.LongDistance = d.LongDistance
	}
	return c
}

func (c Confidence) validate() error {
	fields := []struct {
		name  string
		value float64
	}{{"exact", c.Exact}, {"skipgram", c.SkipGram}, {"long_distance", c.LongDistance}}
	for _, f := range fields {
		if f.value <= 0 || f.value > 100 {
			return internalerr.Malformed("%s confidence %v outside (0, 100]", f.name, f.value)
		}
	}
	return nil
}

// Entry maps a canonical label to its patterns. An entry without patterns
// matches its own label literally. Confidence, when set, overrides the
// ontology's exact and skip-gram confidence for this label.
type Entry struct {
	Label      string    `yaml:"label"`
	Patterns   []Pattern `yaml:"patterns"`
	Confidence float64   `yaml:"confidence,omitempty"`
}

// TermSetEntry is one key of the long-distance multimap.
type TermSetEntry struct {
	Key    TermKey
	Labels []string
}

// Dictionary is the immutable pattern dictionary of one ontology.
type Dictionary struct {
	confidence Confidence
	entries    map[string]Entry
	order      []string
	literals   map[string][]string // canonical phrase → labels
	termSets   map[TermKey][]string
	keys       []TermKey
}

// NewDictionary validates entries and builds the lookup indexes.
func NewDictionary(conf Confidence, entries []Entry) (*Dictionary, error) {
	conf = conf.withDefaults()
	if err := conf.validate(); err != nil {
		return nil, err
	}

	d := &Dictionary{
		confidence: conf,
		entries:    make(map[string]Entry, len(entries)),
		literals:   make(map[string][]string),
		termSets:   make(map[TermKey][]string),
	}

	for _, e := range entries {
		label := Canonical(e.Label)
		if label == "" {
			return nil, internalerr.Malformed("entry with empty label")
		}
		if _, dup := d.entries[label]; dup {
			return nil, internalerr.Malformed("duplicate label %q", label)
		}
		if e.Confidence < 0 || e.Confidence > 100 {
			return nil, internalerr.Malformed("label %q: confidence %v outside [0, 100]", label, e.Confidence)
		}

		patterns := e.Patterns
		if len(patterns) == 0 {
			patterns = []Pattern{{Kind: Literal, Text: label}}
		}
		for _, p := range patterns {
			switch p.Kind {
			case Literal:
				if p.Text == "" {
					return nil, internalerr.Malformed("label %q: empty literal pattern", label)
				}
				d.literals[p.Text] = appendUnique(d.literals[p.Text], label)
			case TermSet:
				if len(p.Terms) < 2 || len(p.Terms) > MaxTerms {
					return nil, internalerr.Malformed("label %q: term set %v has %d terms, want 2-%d", label, p.Terms, len(p.Terms), MaxTerms)
				}
				k := p.Key()
				if _, ok := d.termSets[k]; !ok {
					d.keys = append(d.keys, k)
				}
				d.termSets[k] = appendUnique(d.termSets[k], label)
			default:
				return nil, internalerr.Malformed("label %q: unknown pattern kind %d", label, p.Kind)
			}
		}

		e.Label = label
		e.Patterns = patterns
		d.entries[label] = e
		d.order = append(d.order, label)
	}

	sort.Slice(d.keys, func(i, j int) bool { return d.keys[i].less(d.keys[j]) })
	return d, nil
}

// Literal returns the labels whose literal patterns equal text.
func (d *Dictionary) Literal(text string) []string {
	return d.literals[Canonical(text)]
}

// TermSets returns every long-distance key with its labels, in a stable order.
func (d *Dictionary) TermSets() []TermSetEntry {
	out := make([]TermSetEntry, len(d.keys))
	for i, k := range d.keys {
		out[i] = TermSetEntry{Key: k, Labels: d.termSets[k]}
	}
	return out
}

// ExactConfidence is the confidence of a contiguous literal hit for label.
func (d *Dictionary) ExactConfidence(label string) float64 {
	if e, ok := d.entries[label]; ok && e.Confidence > 0 {
		return e.Confidence
	}
	return d.confidence.Exact
}

// SkipGramConfidence is the confidence of a gapped literal hit for label.
// An entry override caps it rather than replacing it.
func (d *Dictionary) SkipGramConfidence(label string) float64 {
	c := d.confidence.SkipGram
	if e, ok := d.entries[label]; ok && e.Confidence > 0 && e.Confidence < c {
		c = e.Confidence
	}
	return c
}

// LongDistanceConfidence is the confidence of a term-set hit.
func (d *Dictionary) LongDistanceConfidence() float64 {
	return d.confidence.LongDistance
}

// Confidence returns the dictionary's effective confidence table.
func (d *Dictionary) Confidence() Confidence { return d.confidence }

// Entries returns the entries in load order.
func (d *Dictionary) Entries() []Entry {
	out := make([]Entry, len(d.order))
	for i, label := range d.order {
		out[i] = d.entries[label]
	}
	return out
}

// Len returns the number of labels.
func (d *Dictionary) Len() int { return len(d.order) }

// Phrases returns every multi-word literal and term, sorted. These seed the
// segmenter's n-gram table.
func (d *Dictionary) Phrases() []string {
	set := make(map[string]struct{})
	for lit := range d.literals {
		if strings.Contains(lit, " ") {
			set[lit] = struct{}{}
		}
	}
	for _, k := range d.keys {
		for _, t := range k.Terms() {
			if strings.Contains(t, " ") {
				set[t] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
