package flow

import (
	"encoding/json"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/cognicore/flowtag/pkg/flowtag/internalerr"
)

// Summary maps confidence levels to sets of flow names.
type Summary struct {
	levels map[float64]map[string]struct{}
}

// Level is one row of a Summary.
type Level struct {
	Confidence float64  `json:"confidence"`
	Flows      []string `json:"flows"`
}

// NewSummary creates an empty summary.
func NewSummary() *Summary {
	return &Summary{levels: make(map[float64]map[string]struct{})}
}

// Group builds a summary from candidates, one level per distinct confidence.
func Group(cands []Candidate) *Summary {
	s := NewSummary()
	for _, c := range cands {
		s.Add(c.Confidence, c.Flow)
	}
	return s
}

// Add puts flow at level.
func (s *Summary) Add(level float64, flow string) {
	set, ok := s.levels[level]
	if !ok {
		set = make(map[string]struct{})
		s.levels[level] = set
	}
	set[flow] = struct{}{}
}

// Remove deletes flow from level, dropping the level once empty.
func (s *Summary) Remove(level float64, flow string) {
	set, ok := s.levels[level]
	if !ok {
		return
	}
	delete(set, flow)
	if len(set) == 0 {
		delete(s.levels, level)
	}
}

// Move relocates flow from one level to another. Targets below 0 floor at
// 0. Moving from a level that does not hold flow is an ErrUndefinedLevel.
func (s *Summary) Move(flow string, from, to float64) error {
	set, ok := s.levels[from]
	if !ok {
		return errors.Wrapf(internalerr.ErrUndefinedLevel, "level %g", from)
	}
	if _, ok := set[flow]; !ok {
		return errors.Wrapf(internalerr.ErrUndefinedLevel, "flow %q at level %g", flow, from)
	}
	if to < 0 {
		to = 0
	}
	s.Remove(from, flow)
	s.Add(to, flow)
	return nil
}

// Has reports whether level holds flow.
func (s *Summary) Has(level float64, flow string) bool {
	_, ok := s.levels[level][flow]
	return ok
}

// Levels returns the confidence levels, highest first.
func (s *Summary) Levels() []float64 {
	out := make([]float64, 0, len(s.levels))
	for l := range s.levels {
		out = append(out, l)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(out)))
	return out
}

// Flows returns the flows at level, sorted.
func (s *Summary) Flows(level float64) []string {
	set := s.levels[level]
	out := make([]string, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// LevelOf returns the highest level holding flow.
func (s *Summary) LevelOf(flow string) (float64, bool) {
	for _, l := range s.Levels() {
		if _, ok := s.levels[l][flow]; ok {
			return l, true
		}
	}
	return 0, false
}

// Max returns the highest level.
func (s *Summary) Max() (float64, bool) {
	levels := s.Levels()
	if len(levels) == 0 {
		return 0, false
	}
	return levels[0], true
}

// Empty reports whether the summary holds no flows.
func (s *Summary) Empty() bool { return len(s.levels) == 0 }

// Len returns the number of (level, flow) entries.
func (s *Summary) Len() int {
	n := 0
	for _, set := range s.levels {
		n += len(set)
	}
	return n
}

// Rows returns the summary as ordered rows, highest level first.
func (s *Summary) Rows() []Level {
	levels := s.Levels()
	out := make([]Level, len(levels))
	for i, l := range levels {
		out[i] = Level{Confidence: l, Flows: s.Flows(l)}
	}
	return out
}

// Top returns the flows at the highest level.
func (s *Summary) Top() []string {
	top, ok := s.Max()
	if !ok {
		return nil
	}
	return s.Flows(top)
}

// MarshalJSON encodes the summary as its ordered rows.
func (s *Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Rows())
}

// UnmarshalJSON decodes rows written by MarshalJSON.
func (s *Summary) UnmarshalJSON(data []byte) error {
	var rows []Level
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	s.levels = make(map[float64]map[string]struct{}, len(rows))
	for _, r := range rows {
		for _, f := range r.Flows {
			s.Add(r.Confidence, f)
		}
	}
	return nil
}
