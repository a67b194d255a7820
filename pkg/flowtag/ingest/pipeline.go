package ingest

// Pipeline orchestrates the text side of tagging:
// text → normalization → segmentation → tokenization → gram generation
type Pipeline struct {
	normalizer *Normalizer
	segmenter  *Segmenter
	tokenizer  *Tokenizer
	grams      *GramGenerator
}

// NewPipeline creates a pipeline with the given components
func NewPipeline(normalizer *Normalizer, segmenter *Segmenter, tokenizer *Tokenizer, grams *GramGenerator) *Pipeline {
	return &Pipeline{
		normalizer: normalizer,
		segmenter:  segmenter,
		tokenizer:  tokenizer,
		grams:      grams,
	}
}

// Processed is a text after ingestion processing
type Processed struct {
	Input      string // as received; empty from ProcessNormalized
	Normalized string
	Segmented  string
	Tokens     []Token
	Grams      []Gram
}

// Normalize runs only the normalization stage. Its output keys caches.
func (p *Pipeline) Normalize(text string) string {
	return p.normalizer.Normalize(text)
}

// Process runs a text through the full pipeline
func (p *Pipeline) Process(text string) Processed {
	out := p.ProcessNormalized(p.normalizer.Normalize(text))
	out.Input = text
	return out
}

// ProcessNormalized runs the stages after normalization on text that has
// already been normalized.
func (p *Pipeline) ProcessNormalized(normalized string) Processed {
	segmented := p.segmenter.Segment(normalized)
	tokens := p.tokenizer.Tokenize(segmented)
	return Processed{
		Normalized: normalized,
		Segmented:  segmented,
		Tokens:     tokens,
		Grams:      p.grams.Generate(tokens),
	}
}
