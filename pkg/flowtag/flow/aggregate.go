package flow

import (
	"sort"
)

// Scorer sums rule deltas onto a base confidence.
type Scorer struct {
	base  float64
	rules []Rule
}

// NewScorer creates a scorer. With no rules it uses
// DefaultRules(GuardExcludeOneOf).
func NewScorer(base float64, rules ...Rule) *Scorer {
	if len(rules) == 0 {
		rules = DefaultRules(GuardExcludeOneOf)
	}
	return &Scorer{base: base, rules: rules}
}

// Score sets c's raw confidence and records every rule's delta in its
// breakdown.
func (s *Scorer) Score(c *Candidate) {
	c.Breakdown = make(map[string]float64, len(s.rules)+1)
	c.Confidence = s.base
	if s.base != 0 {
		c.record(StepBase, s.base)
	}
	for _, r := range s.rules {
		d := r.Delta(c.Analysis)
		c.Breakdown[r.Name()] = d
		c.Confidence += d
	}
}

// ScoreAll scores every candidate in place.
func (s *Scorer) ScoreAll(cands []Candidate) {
	for i := range cands {
		s.Score(&cands[i])
	}
}

// TieBreak adds 5 per present include_all_of tag to every candidate tied at
// the maximum confidence.
func TieBreak(cands []Candidate) {
	top, ok := maxConfidence(cands)
	if !ok {
		return
	}
	for i := range cands {
		c := &cands[i]
		if c.Confidence != top {
			continue
		}
		bonus := float64(c.Analysis.IncludeAllOf.ContainsCount()) * 5
		if bonus == 0 {
			continue
		}
		c.Confidence += bonus
		c.record(StepTieBreak, bonus)
	}
}

// FitCurve shifts every candidate down so the maximum is at most 100, then
// floors negatives at 0.
func FitCurve(cands []Candidate) {
	top, ok := maxConfidence(cands)
	if !ok {
		return
	}
	shift := 0.0
	if top > 100 {
		shift = top - 100
	}
	for i := range cands {
		c := &cands[i]
		next := c.Confidence - shift
		if next < 0 {
			next = 0
		}
		if next != c.Confidence {
			c.record(StepClamp, next-c.Confidence)
			c.Confidence = next
		}
	}
}

// Rank sorts candidates by descending confidence, then flow name.
func Rank(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Confidence != cands[j].Confidence {
			return cands[i].Confidence > cands[j].Confidence
		}
		return cands[i].Flow < cands[j].Flow
	})
}

func maxConfidence(cands []Candidate) (float64, bool) {
	if len(cands) == 0 {
		return 0, false
	}
	top := cands[0].Confidence
	for _, c := range cands[1:] {
		if c.Confidence > top {
			top = c.Confidence
		}
	}
	return top, true
}
