package flow

import (
	"sort"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/cognicore/flowtag/internal/logger"
)

// DemotionStep is how far the override and demotion passes move a flow.
const DemotionStep = 10

// Pass rewrites a summary in place.
type Pass func(*Summary) error

// SummaryConfig holds the process-wide settings of the summary passes.
type SummaryConfig struct {
	MinimumConfidence  float64             `yaml:"minimum_confidence" mapstructure:"minimum_confidence"`
	CatchAllFlow       string              `yaml:"catch_all_flow" mapstructure:"catch_all_flow"`
	HierarchyOverrides map[string][]string `yaml:"hierarchy_overrides" mapstructure:"hierarchy_overrides"`
}

type namedPass struct {
	name string
	run  Pass
}

// Summarizer runs the ordered normalization passes over grouped candidates.
type Summarizer struct {
	passes []namedPass
	log    *zap.SugaredLogger
}

// NewSummarizer creates a summarizer for cfg.
func NewSummarizer(cfg SummaryConfig) *Summarizer {
	return &Summarizer{
		passes: []namedPass{
			{"split", SplitMulti},
			{"strip_suffix", StripNumericSuffix},
			{"dedupe", DedupeByValue},
			{"override", Override(cfg.HierarchyOverrides)},
			{"hierarchy", DemoteParents(cfg.HierarchyOverrides)},
			{"catch_all", DemoteCatchAll(cfg.CatchAllFlow)},
			{"cutoff", Cutoff(cfg.MinimumConfidence)},
		},
		log: logger.ComponentLogger("flow.summary"),
	}
}

// Summarize groups cands by confidence and runs every pass, stopping early
// once the summary is empty.
func (s *Summarizer) Summarize(cands []Candidate) (*Summary, error) {
	sum := Group(cands)
	for _, p := range s.passes {
		if sum.Empty() {
			break
		}
		if err := p.run(sum); err != nil {
			return nil, errors.Wrapf(err, "summary pass %s", p.name)
		}
	}
	s.log.Debugw("summary built", logger.FieldCount, sum.Len())
	return sum, nil
}

// SplitMulti expands comma-delimited flow names into separate entries at
// the same level.
func SplitMulti(s *Summary) error {
	for _, level := range s.Levels() {
		for _, f := range s.Flows(level) {
			if !strings.Contains(f, ",") {
				continue
			}
			s.Remove(level, f)
			for _, part := range strings.Split(f, ",") {
				if part = strings.TrimSpace(part); part != "" {
					s.Add(level, part)
				}
			}
		}
	}
	return nil
}

// StripNumericSuffix collapses numbered variants such as BILLING_2 onto
// their base name.
func StripNumericSuffix(s *Summary) error {
	for _, level := range s.Levels() {
		for _, f := range s.Flows(level) {
			if base, ok := stripSuffix(f); ok {
				s.Remove(level, f)
				s.Add(level, base)
			}
		}
	}
	return nil
}

// stripSuffix removes "_<digits>" when the underscore sits within the last
// four characters.
func stripSuffix(name string) (string, bool) {
	i := strings.LastIndexByte(name, '_')
	if i <= 0 || len(name)-i > 4 || i == len(name)-1 {
		return name, false
	}
	for _, r := range name[i+1:] {
		if !unicode.IsDigit(r) {
			return name, false
		}
	}
	return name[:i], true
}

// DedupeByValue keeps each flow only at its highest level.
func DedupeByValue(s *Summary) error {
	seen := make(map[string]struct{})
	for _, level := range s.Levels() {
		for _, f := range s.Flows(level) {
			if _, ok := seen[f]; ok {
				s.Remove(level, f)
				continue
			}
			seen[f] = struct{}{}
		}
	}
	return nil
}

// Override collapses a top level that holds exactly a parent and all of its
// children to the parent alone, moving the children one step down.
func Override(overrides map[string][]string) Pass {
	parents := sortedParents(overrides)
	return func(s *Summary) error {
		top, ok := s.Max()
		if !ok {
			return nil
		}
		flows := s.Flows(top)
		for _, parent := range parents {
			if !sameSet(flows, family(parent, overrides[parent])) {
				continue
			}
			for _, child := range overrides[parent] {
				if child == parent {
					continue
				}
				if err := s.Move(child, top, top-DemotionStep); err != nil {
					return err
				}
			}
			return nil
		}
		return nil
	}
}

// DemoteParents moves a parent one step down when it shares a level with
// any of its children.
func DemoteParents(overrides map[string][]string) Pass {
	parents := sortedParents(overrides)
	return func(s *Summary) error {
		for _, parent := range parents {
			level, ok := s.LevelOf(parent)
			if !ok {
				continue
			}
			for _, child := range overrides[parent] {
				if child != parent && s.Has(level, child) {
					if err := s.Move(parent, level, level-DemotionStep); err != nil {
						return err
					}
					break
				}
			}
		}
		return nil
	}
}

// DemoteCatchAll moves the catch-all flow one step down when its level
// holds at least one other flow.
func DemoteCatchAll(catchAll string) Pass {
	return func(s *Summary) error {
		if catchAll == "" {
			return nil
		}
		level, ok := s.LevelOf(catchAll)
		if !ok || len(s.Flows(level)) < 2 {
			return nil
		}
		return s.Move(catchAll, level, level-DemotionStep)
	}
}

// Cutoff drops every level below minimum. A level equal to it stays.
func Cutoff(minimum float64) Pass {
	return func(s *Summary) error {
		for _, level := range s.Levels() {
			if level < minimum {
				delete(s.levels, level)
			}
		}
		return nil
	}
}

func sortedParents(overrides map[string][]string) []string {
	out := make([]string, 0, len(overrides))
	for p := range overrides {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func family(parent string, children []string) map[string]struct{} {
	set := map[string]struct{}{parent: {}}
	for _, c := range children {
		set[c] = struct{}{}
	}
	return set
}

func sameSet(flows []string, want map[string]struct{}) bool {
	if len(flows) != len(want) {
		return false
	}
	for _, f := range flows {
		if _, ok := want[f]; !ok {
			return false
		}
	}
	return true
}
