package flow

import (
	"crypto/rand"
	"sort"
	"sync"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/cognicore/flowtag/internal/logger"
	"github.com/cognicore/flowtag/pkg/flowtag/ontology"
)

// Resolution is an explainable flow resolution.
type Resolution struct {
	ID         string      `json:"id"`
	Tags       []string    `json:"tags"`
	Candidates []Candidate `json:"candidates"`
	Summary    *Summary    `json:"summary"`
}

// Mapper runs the full tag → flow resolution for one mapping table.
// It is safe for concurrent use.
type Mapper struct {
	resolver   *Resolver
	scorer     *Scorer
	summarizer *Summarizer
	log        *zap.SugaredLogger

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// MapperOption configures a Mapper.
type MapperOption func(*mapperOptions)

type mapperOptions struct {
	summary SummaryConfig
	base    float64
	rules   []Rule
}

// WithSummaryConfig sets the summary pass settings.
func WithSummaryConfig(cfg SummaryConfig) MapperOption {
	return func(o *mapperOptions) { o.summary = cfg }
}

// WithBaseConfidence sets the score every candidate starts from.
func WithBaseConfidence(base float64) MapperOption {
	return func(o *mapperOptions) { o.base = base }
}

// WithRules replaces the default rule set.
func WithRules(rules ...Rule) MapperOption {
	return func(o *mapperOptions) { o.rules = rules }
}

// NewMapper creates a mapper over mapping.
func NewMapper(mapping *ontology.MappingTable, opts ...MapperOption) *Mapper {
	var o mapperOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Mapper{
		resolver:   NewResolver(mapping),
		scorer:     NewScorer(o.base, o.rules...),
		summarizer: NewSummarizer(o.summary),
		log:        logger.ComponentLogger("flow.mapper"),
		entropy:    ulid.Monotonic(rand.Reader, 0),
	}
}

// Candidates nominates, scores, tie-breaks and clamps the flows for tags,
// ranked by confidence then name.
func (m *Mapper) Candidates(tags []string) []Candidate {
	cands := m.resolver.Candidates(tags)
	if len(cands) == 0 {
		return nil
	}
	m.scorer.ScoreAll(cands)
	TieBreak(cands)
	FitCurve(cands)
	Rank(cands)
	return cands
}

// Summarize returns the normalized confidence → flows summary for tags.
func (m *Mapper) Summarize(tags []string) (*Summary, error) {
	return m.summarizer.Summarize(m.Candidates(tags))
}

// Resolve returns the candidates and summary for tags under a fresh ID.
func (m *Mapper) Resolve(tags []string) (*Resolution, error) {
	cands := m.Candidates(tags)
	sum, err := m.summarizer.Summarize(cands)
	if err != nil {
		return nil, err
	}
	res := &Resolution{
		ID:         m.newID(),
		Tags:       sortedCanonical(tags),
		Candidates: cands,
		Summary:    sum,
	}
	m.log.Debugw("flows resolved",
		logger.FieldRequestID, res.ID,
		logger.FieldCount, len(cands),
	)
	return res, nil
}

func (m *Mapper) newID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ulid.MustNew(ulid.Now(), m.entropy).String()
}

func sortedCanonical(tags []string) []string {
	set := canonicalSet(tags)
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
