package ontology

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/cognicore/flowtag/internal/logger"
)

// Registry loads each ontology once and serves the shared instance to every
// later request. Invalidate forces the next Get to reload.
type Registry struct {
	provider Provider
	log      *zap.SugaredLogger

	mu     sync.Mutex
	loaded map[string]*Ontology
}

// NewRegistry wraps provider with a load-once cache.
func NewRegistry(provider Provider) *Registry {
	return &Registry{
		provider: provider,
		log:      logger.ComponentLogger("ontology.registry"),
		loaded:   make(map[string]*Ontology),
	}
}

// Get returns the ontology for name, loading it on first use. Load errors
// are not cached.
func (r *Registry) Get(ctx context.Context, name string) (*Ontology, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if o, ok := r.loaded[name]; ok {
		return o, nil
	}
	o, err := r.provider.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	r.loaded[name] = o
	r.log.Infow("ontology loaded",
		logger.FieldOntology, name,
		"labels", o.Dictionary.Len(),
		"flows", o.Mapping.Len())
	return o, nil
}

// Invalidate drops the cached ontology for name.
func (r *Registry) Invalidate(name string) {
	r.mu.Lock()
	delete(r.loaded, name)
	r.mu.Unlock()
}
