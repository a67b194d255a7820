package ingest

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/cognicore/flowtag/internal/logger"
	"github.com/cognicore/flowtag/pkg/flowtag/internalerr"
)

// MaxNGram is the longest contiguous gram the generator emits.
const MaxNGram = 3

// SkipConfig is one skip-gram configuration: N tokens per gram with at
// most K tokens skipped in total.
type SkipConfig struct {
	N int
	K int
}

func (c SkipConfig) String() string { return fmt.Sprintf("skip-%d-%d", c.N, c.K) }

// DefaultSkipConfigs are the skip-gram configurations generated per text.
var DefaultSkipConfigs = []SkipConfig{{N: 2, K: 2}, {N: 3, K: 2}, {N: 3, K: 3}, {N: 4, K: 3}}

// Gram is one candidate string for exact matching.
type Gram struct {
	Text string
	Kind string // "1-gram", "2-gram", "3-gram" or a SkipConfig name
	Skip bool
}

// NGrams returns the contiguous n-grams of tokens, joined by spaces.
func NGrams(tokens []Token, n int) ([]string, error) {
	if n < 1 {
		return nil, errors.Wrapf(internalerr.ErrInvalidInput, "n-gram arity %d", n)
	}
	if len(tokens) < n {
		return nil, errors.Wrapf(internalerr.ErrWindowTooShort, "%d tokens for %d-gram", len(tokens), n)
	}
	out := make([]string, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		out = append(out, join(tokens[i:i+n]))
	}
	return out, nil
}

// SkipGrams returns every in-order selection of n tokens that skips at
// most k tokens in total. For each head token the next n+k-1 tokens form
// the history window, and every (n-1)-combination of that window is
// emitted in index order.
func SkipGrams(tokens []Token, n, k int) ([]string, error) {
	if n < 2 || k < 0 {
		return nil, errors.Wrapf(internalerr.ErrInvalidInput, "skip-gram n=%d k=%d", n, k)
	}
	if len(tokens) < n {
		return nil, errors.Wrapf(internalerr.ErrWindowTooShort, "%d tokens for skip-%d-%d", len(tokens), n, k)
	}

	var out []string
	picked := make([]Token, n)
	for head := 0; head < len(tokens); head++ {
		end := head + n + k
		if end > len(tokens) {
			end = len(tokens)
		}
		window := tokens[head+1 : end]
		if len(window) < n-1 {
			continue
		}
		picked[0] = tokens[head]
		combinations(len(window), n-1, func(idx []int) {
			for j, w := range idx {
				picked[j+1] = window[w]
			}
			out = append(out, join(picked))
		})
	}
	return out, nil
}

// combinations calls fn with every r-combination of [0, n) in
// lexicographic order. idx is reused between calls.
func combinations(n, r int, fn func(idx []int)) {
	if r > n || r <= 0 {
		return
	}
	idx := make([]int, r)
	for i := range idx {
		idx[i] = i
	}
	for {
		fn(idx)
		i := r - 1
		for i >= 0 && idx[i] == n-r+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < r; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

func join(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.Normalized
	}
	return strings.Join(parts, " ")
}

// GramGenerator builds the n-grams and skip-grams of a token stream and
// re-segments each one.
type GramGenerator struct {
	segmenter *Segmenter
	skips     []SkipConfig
	log       *zap.SugaredLogger
}

// NewGramGenerator creates a generator. A nil skips selects
// DefaultSkipConfigs; an empty non-nil slice disables skip-grams.
func NewGramGenerator(segmenter *Segmenter, skips []SkipConfig) *GramGenerator {
	if skips == nil {
		skips = DefaultSkipConfigs
	}
	return &GramGenerator{
		segmenter: segmenter,
		skips:     skips,
		log:       logger.ComponentLogger("ingest.grams"),
	}
}

// Generate returns 1..MaxNGram grams followed by every skip-gram
// configuration. A configuration that fails yields nothing and the rest
// still run.
func (g *GramGenerator) Generate(tokens []Token) []Gram {
	var grams []Gram
	for n := 1; n <= MaxNGram; n++ {
		texts, err := NGrams(tokens, n)
		if err != nil {
			g.log.Debugw("n-gram generation skipped", logger.FieldGram, n, logger.FieldError, err)
			continue
		}
		kind := fmt.Sprintf("%d-gram", n)
		for _, text := range texts {
			grams = append(grams, Gram{Text: g.resegment(text), Kind: kind})
		}
	}
	for _, cfg := range g.skips {
		texts, err := SkipGrams(tokens, cfg.N, cfg.K)
		if err != nil {
			g.log.Debugw("skip-gram generation skipped", logger.FieldGram, cfg.String(), logger.FieldError, err)
			continue
		}
		kind := cfg.String()
		for _, text := range texts {
			grams = append(grams, Gram{Text: g.resegment(text), Kind: kind, Skip: true})
		}
	}
	return grams
}

func (g *GramGenerator) resegment(text string) string {
	if g.segmenter == nil {
		return text
	}
	return g.segmenter.Segment(text)
}
