// Package flowtag is the engine facade: it tags free text against an
// ontology and resolves tags into a normalized flow summary.
package flowtag

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/cognicore/flowtag/internal/logger"
	"github.com/cognicore/flowtag/pkg/flowtag/cache"
	"github.com/cognicore/flowtag/pkg/flowtag/config"
	"github.com/cognicore/flowtag/pkg/flowtag/flow"
	"github.com/cognicore/flowtag/pkg/flowtag/ingest"
	"github.com/cognicore/flowtag/pkg/flowtag/internalerr"
	"github.com/cognicore/flowtag/pkg/flowtag/match"
	"github.com/cognicore/flowtag/pkg/flowtag/metrics"
	"github.com/cognicore/flowtag/pkg/flowtag/ontology"
	"github.com/cognicore/flowtag/pkg/flowtag/stoplist"
)

// Options configures an Engine. Provider and Ontology are required.
type Options struct {
	Provider ontology.Provider
	Ontology string

	Cache    cache.Cache       // nil disables caching
	Stoplist *stoplist.Manager // nil means no stopwords
	Metrics  *metrics.Metrics  // nil disables metrics
	Workers  int               // TagBatch pool size; 0 uses NumCPU

	Matching       match.Options
	Summary        flow.SummaryConfig
	BaseConfidence float64
	Guard          flow.Guard
}

// Engine is the main tagging facade. It is safe for concurrent use.
type Engine struct {
	registry *ontology.Registry
	name     string
	cache    cache.Cache
	stops    *stoplist.Manager
	metrics  *metrics.Metrics
	pool     *ants.Pool
	matching match.Options
	mapper   []flow.MapperOption
	log      *zap.SugaredLogger
	closers  []func() error

	mu      sync.Mutex
	current *bundle
}

// bundle is the per-ontology state derived from one loaded Ontology.
type bundle struct {
	ontology  *ontology.Ontology
	annotator *match.Annotator
	mapper    *flow.Mapper
}

// New creates an Engine from explicit collaborators.
func New(opts Options) (*Engine, error) {
	if opts.Provider == nil {
		return nil, internalerr.InvalidConfig("ontology provider is required")
	}
	if strings.TrimSpace(opts.Ontology) == "" {
		return nil, internalerr.InvalidConfig("ontology name is required")
	}

	size := opts.Workers
	if size <= 0 {
		size = runtime.NumCPU()
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, errors.Wrap(err, "create worker pool")
	}

	c := opts.Cache
	if c == nil {
		c = cache.Nop{}
	}
	stops := opts.Stoplist
	if stops == nil {
		stops = stoplist.NewManager(nil, stoplist.SourceAdded)
	}
	guard := opts.Guard
	if guard == "" {
		guard = flow.GuardExcludeOneOf
	}

	return &Engine{
		registry: ontology.NewRegistry(opts.Provider),
		name:     opts.Ontology,
		cache:    c,
		stops:    stops,
		metrics:  opts.Metrics,
		pool:     pool,
		matching: opts.Matching,
		mapper: []flow.MapperOption{
			flow.WithSummaryConfig(opts.Summary),
			flow.WithBaseConfidence(opts.BaseConfidence),
			flow.WithRules(flow.DefaultRules(guard)...),
		},
		log: logger.ComponentLogger("flowtag.engine"),
	}, nil
}

// Open assembles an Engine from process configuration and loads the
// configured ontology, so a missing or malformed ontology fails here rather
// than on the first request. The returned engine owns the store and cache it
// opened; Close releases them.
func Open(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*Engine, error) {
	comp, err := (&config.Loader{Config: cfg}).Load(ctx)
	if err != nil {
		return nil, err
	}
	e, err := New(Options{
		Provider: comp.Provider,
		Ontology: cfg.Ontology.Name,
		Cache:    comp.Cache,
		Stoplist: comp.Stoplist,
		Metrics:  m,
		Workers:  cfg.Workers,
		Matching: match.Options{
			Normalizer:         ingest.NewNormalizer(ingest.WithHTMLStripping(cfg.Matching.StripHTML)),
			MaxGram:            cfg.Matching.MaxGram,
			LongDistanceWindow: cfg.Matching.LongDistanceWindow,
		},
		Summary:        cfg.SummaryConfig(),
		BaseConfidence: cfg.Resolution.BaseConfidence,
		Guard:          cfg.Guard(),
	})
	if err != nil {
		comp.Close()
		return nil, err
	}
	e.closers = append(e.closers, comp.Close)
	if _, err := e.bundle(ctx); err != nil {
		_ = e.Close()
		return nil, err
	}
	return e, nil
}

// Close stops the worker pool and releases owned collaborators.
func (e *Engine) Close() error {
	e.pool.Release()
	var errs []error
	for _, c := range e.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// Ontology returns the configured ontology name.
func (e *Engine) Ontology() string { return e.name }

// Stoplist returns the stopword manager used by Keywords.
func (e *Engine) Stoplist() *stoplist.Manager { return e.stops }

// Invalidate drops the loaded ontology so the next call reloads it.
func (e *Engine) Invalidate() {
	e.registry.Invalidate(e.name)
	e.mu.Lock()
	e.current = nil
	e.mu.Unlock()
	e.log.Infow("ontology invalidated", logger.FieldOntology, e.name)
}

func (e *Engine) bundle(ctx context.Context) (*bundle, error) {
	o, err := e.registry.Get(ctx, e.name)
	if err != nil {
		return nil, errors.Wrapf(err, "load ontology %q", e.name)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != nil && e.current.ontology == o {
		return e.current, nil
	}
	annotator, err := match.NewAnnotator(o, e.matching)
	if err != nil {
		return nil, errors.Wrapf(err, "ontology %q", e.name)
	}
	e.current = &bundle{
		ontology:  o,
		annotator: annotator,
		mapper:    flow.NewMapper(o.Mapping, e.mapper...),
	}
	return e.current, nil
}

// Tag returns the ranked tags of text. Empty text yields no tags.
func (e *Engine) Tag(ctx context.Context, text string) (tags []match.Tag, err error) {
	start := time.Now()
	defer func() { e.metrics.ObserveRequest(metrics.OpTag, start, err) }()
	return e.tag(ctx, text)
}

func (e *Engine) tag(ctx context.Context, text string) ([]match.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := e.bundle(ctx)
	if err != nil {
		return nil, err
	}

	normalized := b.annotator.Normalize(text)
	if normalized == "" {
		return nil, nil
	}

	key := cache.Key(e.name, normalized)
	cached, ok, err := e.cache.Get(ctx, key)
	switch {
	case err != nil:
		e.metrics.CacheLookup(metrics.CacheError)
		e.log.Warnw("cache lookup failed", logger.FieldError, err)
	case ok:
		e.metrics.CacheLookup(metrics.CacheHit)
		e.metrics.ObserveTags(len(cached))
		return cached, nil
	default:
		e.metrics.CacheLookup(metrics.CacheMiss)
	}

	tags := b.annotator.AnnotateNormalized(normalized).Tags()
	if err := e.cache.Set(ctx, key, tags); err != nil {
		e.log.Warnw("cache store failed", logger.FieldError, err)
	}
	e.metrics.ObserveTags(len(tags))
	return tags, nil
}

// TagBatch tags every text on the worker pool. Results are in input order.
// The first error cancels the remaining work.
func (e *Engine) TagBatch(ctx context.Context, texts []string) (results [][]match.Tag, err error) {
	start := time.Now()
	defer func() { e.metrics.ObserveRequest(metrics.OpBatch, start, err) }()

	if len(texts) == 0 {
		return nil, nil
	}
	// Load once up front so workers never race on the first load error.
	if _, err := e.bundle(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results = make([][]match.Tag, len(texts))
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for i, text := range texts {
		i, text := i, text
		wg.Add(1)
		task := func() {
			defer wg.Done()
			tags, err := e.tag(ctx, text)
			if err != nil {
				errOnce.Do(func() {
					firstErr = err
					cancel()
				})
				return
			}
			results[i] = tags
		}
		if err := e.pool.Submit(task); err != nil {
			wg.Done()
			errOnce.Do(func() {
				firstErr = errors.Wrap(err, "submit tag task")
				cancel()
			})
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	e.log.Debugw("batch tagged", logger.FieldBatchSize, len(texts),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return results, nil
}

// ResolveFlows returns the normalized confidence → flows summary for tags.
func (e *Engine) ResolveFlows(ctx context.Context, tags []string) (*flow.Summary, error) {
	res, err := e.Resolve(ctx, tags)
	if err != nil {
		return nil, err
	}
	return res.Summary, nil
}

// Resolve returns the explainable resolution for tags: every scored
// candidate with its rule breakdown plus the summary.
func (e *Engine) Resolve(ctx context.Context, tags []string) (res *flow.Resolution, err error) {
	start := time.Now()
	defer func() { e.metrics.ObserveRequest(metrics.OpResolve, start, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := e.bundle(ctx)
	if err != nil {
		return nil, err
	}
	res, err = b.mapper.Resolve(tags)
	if err != nil {
		return nil, errors.Wrap(err, "resolve flows")
	}
	e.metrics.ObserveCandidates(len(res.Candidates))
	return res, nil
}

// Keywords returns the distinct content tokens of text in order of first
// appearance: stopwords, pure numbers and single characters are dropped.
func (e *Engine) Keywords(ctx context.Context, text string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := e.bundle(ctx)
	if err != nil {
		return nil, err
	}

	processed := b.annotator.Pipeline().Process(text)
	seen := make(map[string]struct{}, len(processed.Tokens))
	var out []string
	for _, tok := range processed.Tokens {
		w := tok.Normalized
		if len([]rune(w)) < 2 || isNumeric(w) || e.stops.IsStop(w) {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out, nil
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
