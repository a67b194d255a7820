// Package flow maps a tag set onto ranked intent flows.
//
// A Resolver nominates candidate flows from the mapping table's reverse
// index and builds an Analysis per candidate. A Scorer applies the
// confidence rules, TieBreak and FitCurve settle the final values, and a
// Summarizer folds the ranked candidates into a confidence → flows Summary.
package flow

// Segment compares one rule list with the input tags. A nil *Segment means
// the rule lists nothing of that kind.
type Segment struct {
	Contains []string `json:"contains"`
	Missing  []string `json:"missing"`
	Total    []string `json:"total"`
}

func newSegment(list []string, present map[string]struct{}) *Segment {
	if len(list) == 0 {
		return nil
	}
	s := &Segment{Total: append([]string(nil), list...)}
	for _, tag := range list {
		if _, ok := present[tag]; ok {
			s.Contains = append(s.Contains, tag)
		} else {
			s.Missing = append(s.Missing, tag)
		}
	}
	return s
}

// ContainsCount is nil-safe.
func (s *Segment) ContainsCount() int {
	if s == nil {
		return 0
	}
	return len(s.Contains)
}

// MissingCount is nil-safe.
func (s *Segment) MissingCount() int {
	if s == nil {
		return 0
	}
	return len(s.Missing)
}

// TotalCount is nil-safe.
func (s *Segment) TotalCount() int {
	if s == nil {
		return 0
	}
	return len(s.Total)
}

// Exclusive reports whether a flow demands that every input tag belong to
// it, and whether the input does.
type Exclusive struct {
	Required bool `json:"required"`
	Matched  bool `json:"matched"`
}

// Flags carries the flat adjustments of a flow.
type Flags struct {
	Deduction      float64 `json:"deduction"`
	Discriminatory int     `json:"discriminatory"`
}

// Analysis is the evidence record the confidence rules read.
type Analysis struct {
	IncludeAllOf *Segment  `json:"include_all_of,omitempty"`
	IncludeOneOf *Segment  `json:"include_one_of,omitempty"`
	ExcludeAllOf *Segment  `json:"exclude_all_of,omitempty"`
	ExcludeOneOf *Segment  `json:"exclude_one_of,omitempty"`
	Exclusive    Exclusive `json:"exclusive"`
	Flags        Flags     `json:"flags"`
}

// Candidate is a nominated flow with its analysis and running confidence.
type Candidate struct {
	Flow        string             `json:"flow"`
	Analysis    Analysis           `json:"analysis"`
	Confidence  float64            `json:"confidence"`
	DirectMatch bool               `json:"direct_match"`
	Breakdown   map[string]float64 `json:"breakdown,omitempty"`
}

func (c *Candidate) record(step string, delta float64) {
	if c.Breakdown == nil {
		c.Breakdown = make(map[string]float64)
	}
	c.Breakdown[step] += delta
}
