package config

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/cognicore/flowtag/pkg/flowtag/cache"
	"github.com/cognicore/flowtag/pkg/flowtag/ontology"
	"github.com/cognicore/flowtag/pkg/flowtag/stoplist"
	"github.com/cognicore/flowtag/pkg/flowtag/store"
	"github.com/cognicore/flowtag/pkg/flowtag/store/sqlite"
)

// Loader opens every external collaborator named by a Config.
type Loader struct {
	Config *Config
}

// Components holds the collaborators an engine is assembled from.
type Components struct {
	Provider ontology.Provider
	Store    store.Store // nil when ontologies come from a directory
	Stoplist *stoplist.Manager
	Cache    cache.Cache
}

// Load opens the ontology provider, stoplist and cache. On error anything
// already opened is closed.
func (l *Loader) Load(ctx context.Context) (_ *Components, err error) {
	cfg := l.Config
	comp := &Components{}
	defer func() {
		if err != nil {
			comp.Close()
		}
	}()

	// Ontology provider
	if cfg.Ontology.SQLite != "" {
		st, err := sqlite.OpenSQLite(ctx, cfg.Ontology.SQLite)
		if err != nil {
			return nil, errors.Wrap(err, "open ontology store")
		}
		comp.Store = st
		comp.Provider = st
	} else {
		comp.Provider = ontology.DirProvider{Dir: cfg.Ontology.Dir}
	}

	// Stoplist
	switch {
	case cfg.Stoplist != "":
		sl, err := LoadStoplist(cfg.Stoplist)
		if err != nil {
			return nil, errors.Wrap(err, "load stoplist")
		}
		comp.Stoplist = stoplist.NewManager(sl.Terms, stoplist.SourceFile)
	case comp.Store != nil:
		terms, err := comp.Store.Stoplist(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "load stoplist from store")
		}
		comp.Stoplist = stoplist.NewManager(terms, stoplist.SourceStore)
	default:
		comp.Stoplist = stoplist.NewManager(nil, stoplist.SourceFile)
	}

	// Cache
	c, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		return nil, errors.Wrap(err, "open cache")
	}
	comp.Cache = c

	return comp, nil
}

// Close releases the cache and store.
func (c *Components) Close() error {
	var errs []error
	if c.Cache != nil {
		errs = append(errs, c.Cache.Close())
	}
	if c.Store != nil {
		errs = append(errs, c.Store.Close())
	}
	return errors.Join(errs...)
}
