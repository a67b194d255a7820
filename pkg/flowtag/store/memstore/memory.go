package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/cognicore/flowtag/pkg/flowtag/internalerr"
	"github.com/cognicore/flowtag/pkg/flowtag/ontology"
)

// Store is an in-memory implementation of store.Store for tests and
// embedded use.
type Store struct {
	mu       sync.RWMutex
	docs     map[string]ontology.Document
	stoplist map[string]struct{}
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		docs:     make(map[string]ontology.Document),
		stoplist: make(map[string]struct{}),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveOntology validates doc and stores a copy under its name.
func (s *Store) SaveOntology(ctx context.Context, doc ontology.Document) error {
	if strings.TrimSpace(doc.Name) == "" {
		return errors.Wrap(internalerr.ErrInvalidInput, "ontology without a name")
	}
	if _, err := doc.Build(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.Name] = copyDoc(doc)
	return nil
}

// Document returns a copy of the stored document.
func (s *Store) Document(ctx context.Context, name string) (ontology.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[name]
	if !ok {
		return ontology.Document{}, errors.Wrapf(internalerr.ErrUnknownOntology, "%q", name)
	}
	return copyDoc(doc), nil
}

// Load implements ontology.Provider.
func (s *Store) Load(ctx context.Context, name string) (*ontology.Ontology, error) {
	doc, err := s.Document(ctx, name)
	if err != nil {
		return nil, err
	}
	return doc.Build()
}

// DeleteOntology removes an ontology.
func (s *Store) DeleteOntology(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, name)
	return nil
}

// Names lists the stored ontologies, sorted.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.docs))
	for name := range s.docs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// UpsertStoplist replaces the stopword set.
func (s *Store) UpsertStoplist(ctx context.Context, tokens []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stoplist = make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		if tok = strings.ToLower(strings.TrimSpace(tok)); tok != "" {
			s.stoplist[tok] = struct{}{}
		}
	}
	return nil
}

// Stoplist returns the stopwords, sorted.
func (s *Store) Stoplist(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.stoplist))
	for tok := range s.stoplist {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out, nil
}

func copyDoc(d ontology.Document) ontology.Document {
	out := d
	if d.NGrams != nil {
		out.NGrams = make(map[int][]string, len(d.NGrams))
		for level, terms := range d.NGrams {
			out.NGrams[level] = append([]string(nil), terms...)
		}
	}
	out.Labels = make([]ontology.Entry, len(d.Labels))
	for i, e := range d.Labels {
		e.Patterns = append([]ontology.Pattern(nil), e.Patterns...)
		for j := range e.Patterns {
			e.Patterns[j].Terms = append([]string(nil), e.Patterns[j].Terms...)
		}
		out.Labels[i] = e
	}
	out.Flows = make([]ontology.FlowRule, len(d.Flows))
	for i, r := range d.Flows {
		r.IncludeAllOf = append([]string(nil), r.IncludeAllOf...)
		r.IncludeOneOf = append([]string(nil), r.IncludeOneOf...)
		r.ExcludeAllOf = append([]string(nil), r.ExcludeAllOf...)
		r.ExcludeOneOf = append([]string(nil), r.ExcludeOneOf...)
		r.Discriminatory = append([]string(nil), r.Discriminatory...)
		out.Flows[i] = r
	}
	return out
}
