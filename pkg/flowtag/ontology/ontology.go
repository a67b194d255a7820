// Package ontology holds the read-only dictionaries the tagging and flow
// resolution stages consume: the n-gram table, the pattern dictionary and
// the flow mapping table.
//
// An Ontology is built once per name and shared by every request; nothing
// in it is mutated after construction, so concurrent readers need no locks.
package ontology

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/flowtag/pkg/flowtag/internalerr"
)

// Ontology bundles everything loaded for one ontology name.
type Ontology struct {
	Name       string
	NGrams     *NGramTable
	Dictionary *Dictionary
	Mapping    *MappingTable
}

// Provider loads an ontology by name.
type Provider interface {
	Load(ctx context.Context, name string) (*Ontology, error)
}

// Document is the serialized form of an ontology.
//
// Expected format:
//
//	name: support
//	confidence: {exact: 100, skipgram: 90, long_distance: 75}
//	ngrams:
//	  2: [big data]
//	labels:
//	  - label: password reset
//	    patterns:
//	      - reset password
//	      - [password, forgot]
//	flows:
//	  - name: ACCOUNT_RECOVERY
//	    include_all_of: [password reset]
type Document struct {
	Name       string           `yaml:"name"`
	Confidence Confidence       `yaml:"confidence,omitempty"`
	NGrams     map[int][]string `yaml:"ngrams,omitempty"`
	Labels     []Entry          `yaml:"labels"`
	Flows      []FlowRule       `yaml:"flows"`
}

// Build validates the document and constructs the ontology. Multi-word
// literals and terms are added to the n-gram table so the segmenter merges
// them.
func (d Document) Build() (*Ontology, error) {
	dict, err := NewDictionary(d.Confidence, d.Labels)
	if err != nil {
		return nil, errors.Wrapf(err, "ontology %q: dictionary", d.Name)
	}
	ngrams, err := NewNGramTable(d.NGrams)
	if err != nil {
		return nil, errors.Wrapf(err, "ontology %q: ngrams", d.Name)
	}
	for _, phrase := range dict.Phrases() {
		if err := ngrams.Add(phrase); err != nil {
			return nil, errors.Wrapf(err, "ontology %q: ngrams", d.Name)
		}
	}
	mapping, err := NewMappingTable(d.Flows)
	if err != nil {
		return nil, errors.Wrapf(err, "ontology %q: mapping", d.Name)
	}
	return &Ontology{
		Name:       d.Name,
		NGrams:     ngrams,
		Dictionary: dict,
		Mapping:    mapping,
	}, nil
}

// Document returns the serialized form of the ontology.
func (o *Ontology) Document() Document {
	return Document{
		Name:       o.Name,
		Confidence: o.Dictionary.Confidence(),
		NGrams:     o.NGrams.Levels(),
		Labels:     o.Dictionary.Entries(),
		Flows:      o.Mapping.Rules(),
	}
}

// Normalized returns a copy of o whose literal patterns, term-set terms and
// n-gram terms have been rewritten by fn, the normalization applied to input
// text. Labels and flows are unchanged. A pattern that normalizes to nothing
// or a term set that collapses below two terms is a malformed entry.
func (o *Ontology) Normalized(fn func(string) string) (*Ontology, error) {
	doc := o.Document()

	for i, e := range doc.Labels {
		patterns := make([]Pattern, 0, len(e.Patterns))
		for _, p := range e.Patterns {
			np, err := p.normalize(fn)
			if err != nil {
				return nil, errors.Wrapf(err, "ontology %q: label %q: pattern %s", o.Name, e.Label, p)
			}
			patterns = append(patterns, np)
		}
		doc.Labels[i].Patterns = patterns
	}

	for n, terms := range doc.NGrams {
		out := make([]string, len(terms))
		for i, term := range terms {
			out[i] = fn(term)
			if Canonical(out[i]) == "" {
				return nil, errors.Wrapf(internalerr.Malformed("n-gram %q normalizes to nothing", term), "ontology %q", o.Name)
			}
		}
		doc.NGrams[n] = out
	}

	return doc.Build()
}

// Parse decodes and builds an ontology from YAML. name is used when the
// document does not set one.
func Parse(data []byte, name string) (*Ontology, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parse ontology")
	}
	if doc.Name == "" {
		doc.Name = name
	}
	return doc.Build()
}

// LoadFile reads and builds an ontology from a YAML file. The file's base
// name, without extension, is the default ontology name.
func LoadFile(path string) (*Ontology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Parse(data, name)
}

// DirProvider loads <Dir>/<name>.yaml (or .yml).
type DirProvider struct {
	Dir string
}

// Load implements Provider.
func (p DirProvider) Load(ctx context.Context, name string) (*Ontology, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, errors.Wrapf(internalerr.ErrInvalidInput, "ontology name %q", name)
	}
	for _, ext := range []string{".yaml", ".yml"} {
		path := filepath.Join(p.Dir, name+ext)
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		return LoadFile(path)
	}
	return nil, errors.Wrapf(internalerr.ErrUnknownOntology, "%q in %s", name, p.Dir)
}
