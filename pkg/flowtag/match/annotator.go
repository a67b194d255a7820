package match

import (
	"github.com/cognicore/flowtag/pkg/flowtag/ingest"
	"github.com/cognicore/flowtag/pkg/flowtag/ontology"
)

// Options tune an Annotator. The zero value uses the defaults of each stage.
type Options struct {
	Normalizer         *ingest.Normalizer
	MaxGram            int
	SkipGrams          []ingest.SkipConfig
	LongDistanceWindow int
}

// Annotator runs the ingest pipeline and both matchers for one ontology.
// It holds no per-request state and is safe for concurrent use.
type Annotator struct {
	pipeline *ingest.Pipeline
	exact    *ExactMatcher
	long     *LongDistanceMatcher
}

// NewAnnotator wires the pipeline and matchers for o. Every literal, term
// and n-gram of o is passed through the same normalizer as input text
// before it is indexed; one that normalizes to nothing is rejected with
// internalerr.ErrMalformedEntry.
func NewAnnotator(o *ontology.Ontology, opts Options) (*Annotator, error) {
	normalizer := opts.Normalizer
	if normalizer == nil {
		normalizer = ingest.NewNormalizer()
	}
	norm, err := o.Normalized(normalizer.NormalizeTerm)
	if err != nil {
		return nil, err
	}
	seg := ingest.NewSegmenter(norm.NGrams, opts.MaxGram)
	return &Annotator{
		pipeline: ingest.NewPipeline(normalizer, seg, ingest.NewTokenizer(), ingest.NewGramGenerator(seg, opts.SkipGrams)),
		exact:    NewExactMatcher(norm.Dictionary),
		long:     NewLongDistanceMatcher(norm.Dictionary, opts.LongDistanceWindow),
	}, nil
}

// Pipeline exposes the underlying ingest pipeline.
func (a *Annotator) Pipeline() *ingest.Pipeline { return a.pipeline }

// Normalize returns the normalized form of text.
func (a *Annotator) Normalize(text string) string {
	return a.pipeline.Normalize(text)
}

// Annotate collects every match in text.
func (a *Annotator) Annotate(text string) *TokenMatches {
	return a.AnnotateNormalized(a.pipeline.Normalize(text))
}

// AnnotateNormalized collects every match in already normalized text.
func (a *Annotator) AnnotateNormalized(normalized string) *TokenMatches {
	processed := a.pipeline.ProcessNormalized(normalized)
	tm := NewTokenMatches()
	a.exact.Match(processed.Grams, tm)
	a.long.Match(processed.Tokens, tm)
	return tm
}

// Tag returns the ranked tags of text.
func (a *Annotator) Tag(text string) []Tag {
	return a.Annotate(text).Tags()
}
