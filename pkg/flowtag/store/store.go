package store

import (
	"context"

	"github.com/cognicore/flowtag/pkg/flowtag/ontology"
)

// Store persists ontology documents and the stopword list. Every Store is
// also an ontology.Provider.
type Store interface {
	ontology.Provider
	Close() error

	// Ontologies
	SaveOntology(ctx context.Context, doc ontology.Document) error
	Document(ctx context.Context, name string) (ontology.Document, error)
	DeleteOntology(ctx context.Context, name string) error
	Names(ctx context.Context) ([]string, error)

	// Stoplist
	UpsertStoplist(ctx context.Context, tokens []string) error
	Stoplist(ctx context.Context) ([]string, error)
}
