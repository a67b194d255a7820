package flow

import (
	"github.com/cognicore/flowtag/pkg/flowtag/internalerr"
)

// Rule computes one signed confidence adjustment from an analysis.
// Rules are pure.
type Rule interface {
	Name() string
	Delta(a Analysis) float64
}

// Rule names, used as Breakdown keys.
const (
	RuleIncludeAllOf = "include_all_of"
	RuleIncludeOneOf = "include_one_of"
	RuleExcludeOneOf = "exclude_one_of"
	RuleExcludeAllOf = "exclude_all_of"
	RuleExclusive    = "exclusive"
	RuleFlag         = "flag"
	RuleHighMatch    = "high_match"
)

// Breakdown keys for the aggregation steps.
const (
	StepBase     = "base"
	StepTieBreak = "tie_break"
	StepClamp    = "clamp"
)

// IncludeAllOf costs 100 per required tag that is missing.
type IncludeAllOf struct{}

func (IncludeAllOf) Name() string { return RuleIncludeAllOf }

func (IncludeAllOf) Delta(a Analysis) float64 {
	m := a.IncludeAllOf.MissingCount()
	if m == 0 {
		return 0
	}
	return float64(m) * -100
}

// IncludeOneOf rewards each optional tag present and penalizes a list with
// none of its tags present.
type IncludeOneOf struct{}

func (IncludeOneOf) Name() string { return RuleIncludeOneOf }

func (IncludeOneOf) Delta(a Analysis) float64 {
	s := a.IncludeOneOf
	if s == nil {
		return 0
	}
	if c := s.ContainsCount(); c > 0 {
		return float64(c) * 5
	}
	if s.TotalCount() > 0 {
		return -75
	}
	return 0
}

// ExcludeOneOf costs 75 per excluded tag present.
type ExcludeOneOf struct{}

func (ExcludeOneOf) Name() string { return RuleExcludeOneOf }

func (ExcludeOneOf) Delta(a Analysis) float64 {
	c := a.ExcludeOneOf.ContainsCount()
	if c == 0 {
		return 0
	}
	return float64(c) * -75
}

// Guard selects which segment decides whether ExcludeAllOf runs at all.
type Guard string

const (
	// GuardExcludeOneOf skips the rule when the flow has no exclude_one_of
	// list, even if it has an exclude_all_of list.
	GuardExcludeOneOf Guard = "exclude_one_of"
	// GuardExcludeAllOf skips the rule only when exclude_all_of is absent.
	GuardExcludeAllOf Guard = "exclude_all_of"
)

// ParseGuard validates a configured guard name. Empty selects
// GuardExcludeOneOf.
func ParseGuard(s string) (Guard, error) {
	switch Guard(s) {
	case "", GuardExcludeOneOf:
		return GuardExcludeOneOf, nil
	case GuardExcludeAllOf:
		return GuardExcludeAllOf, nil
	default:
		return "", internalerr.InvalidConfig("unknown exclude_all_of guard %q", s)
	}
}

// ExcludeAllOf costs 75 when every tag of the exclusion list is present.
type ExcludeAllOf struct {
	Guard Guard
}

func (ExcludeAllOf) Name() string { return RuleExcludeAllOf }

func (r ExcludeAllOf) Delta(a Analysis) float64 {
	if r.Guard != GuardExcludeAllOf && a.ExcludeOneOf == nil {
		return 0
	}
	s := a.ExcludeAllOf
	if s == nil || s.TotalCount() == 0 {
		return 0
	}
	if s.ContainsCount() == s.TotalCount() {
		return -75
	}
	return 0
}

// ExclusiveRule rewards exclusive flows whose vocabulary covers the whole
// input and penalizes those that do not.
type ExclusiveRule struct{}

func (ExclusiveRule) Name() string { return RuleExclusive }

func (ExclusiveRule) Delta(a Analysis) float64 {
	switch {
	case a.Exclusive.Required && !a.Exclusive.Matched:
		return -75
	case a.Exclusive.Required:
		return 5
	default:
		return 0
	}
}

// Flag applies the flow's flat deduction and +10 per discriminatory tag.
type Flag struct{}

func (Flag) Name() string { return RuleFlag }

func (Flag) Delta(a Analysis) float64 {
	return float64(a.Flags.Discriminatory)*10 - a.Flags.Deduction
}

// HighMatch rewards required tags that are present.
type HighMatch struct{}

func (HighMatch) Name() string { return RuleHighMatch }

func (HighMatch) Delta(a Analysis) float64 {
	s := a.IncludeAllOf
	if s == nil {
		return 0
	}
	if c := s.ContainsCount(); c > 0 {
		return float64(c) * 5
	}
	return -25
}

// DefaultRules returns the full rule set in evaluation order.
func DefaultRules(guard Guard) []Rule {
	return []Rule{
		IncludeAllOf{},
		IncludeOneOf{},
		ExcludeOneOf{},
		ExcludeAllOf{Guard: guard},
		ExclusiveRule{},
		Flag{},
		HighMatch{},
	}
}
