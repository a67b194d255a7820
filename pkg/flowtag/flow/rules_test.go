package flow

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/flowtag/pkg/flowtag/internalerr"
)

func seg(contains, missing []string) *Segment {
	return &Segment{
		Contains: contains,
		Missing:  missing,
		Total:    append(append([]string{}, contains...), missing...),
	}
}

func TestRuleArithmetic(t *testing.T) {
	a := Analysis{
		IncludeAllOf: seg([]string{"a", "b"}, []string{"c"}),
		IncludeOneOf: seg([]string{"x", "y"}, []string{"z"}),
	}

	assert.Equal(t, -100.0, IncludeAllOf{}.Delta(a))
	assert.Equal(t, 10.0, IncludeOneOf{}.Delta(a))
	assert.Equal(t, -90.0, IncludeAllOf{}.Delta(a)+IncludeOneOf{}.Delta(a))

	c := Candidate{Flow: "F", Analysis: a}
	NewScorer(0).Score(&c)
	assert.Equal(t, -80.0, c.Confidence, "high_match adds 5 per present required tag")
	assert.Equal(t, 10.0, c.Breakdown[RuleHighMatch])
	assert.Equal(t, 0.0, c.Breakdown[RuleExcludeAllOf])
}

func TestRuleTable(t *testing.T) {
	cases := []struct {
		name string
		rule Rule
		a    Analysis
		want float64
	}{
		{"include all none", IncludeAllOf{}, Analysis{}, 0},
		{"include all complete", IncludeAllOf{}, Analysis{IncludeAllOf: seg([]string{"a"}, nil)}, 0},
		{"include all two missing", IncludeAllOf{}, Analysis{IncludeAllOf: seg(nil, []string{"a", "b"})}, -200},
		{"include one none", IncludeOneOf{}, Analysis{}, 0},
		{"include one absent", IncludeOneOf{}, Analysis{IncludeOneOf: seg(nil, []string{"a", "b"})}, -75},
		{"include one hit", IncludeOneOf{}, Analysis{IncludeOneOf: seg([]string{"a"}, []string{"b"})}, 5},
		{"exclude one none", ExcludeOneOf{}, Analysis{}, 0},
		{"exclude one clean", ExcludeOneOf{}, Analysis{ExcludeOneOf: seg(nil, []string{"a"})}, 0},
		{"exclude one two hits", ExcludeOneOf{}, Analysis{ExcludeOneOf: seg([]string{"a", "b"}, nil)}, -150},
		{"exclusive off", ExclusiveRule{}, Analysis{}, 0},
		{"exclusive unmatched", ExclusiveRule{}, Analysis{Exclusive: Exclusive{Required: true}}, -75},
		{"exclusive matched", ExclusiveRule{}, Analysis{Exclusive: Exclusive{Required: true, Matched: true}}, 5},
		{"flag", Flag{}, Analysis{Flags: Flags{Deduction: 12, Discriminatory: 2}}, 8},
		{"flag zero", Flag{}, Analysis{}, 0},
		{"high match none", HighMatch{}, Analysis{}, 0},
		{"high match absent", HighMatch{}, Analysis{IncludeAllOf: seg(nil, []string{"a"})}, -25},
		{"high match hits", HighMatch{}, Analysis{IncludeAllOf: seg([]string{"a", "b", "c"}, nil)}, 15},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.rule.Delta(tc.a))
		})
	}
}

func TestExcludeAllOfGuard(t *testing.T) {
	full := seg([]string{"a", "b"}, nil)
	partial := seg([]string{"a"}, []string{"b"})

	onlyAll := Analysis{ExcludeAllOf: full}
	both := Analysis{ExcludeAllOf: full, ExcludeOneOf: seg(nil, []string{"z"})}
	bothPartial := Analysis{ExcludeAllOf: partial, ExcludeOneOf: seg(nil, []string{"z"})}
	onlyOne := Analysis{ExcludeOneOf: seg(nil, []string{"z"})}

	observed := ExcludeAllOf{Guard: GuardExcludeOneOf}
	assert.Equal(t, 0.0, observed.Delta(onlyAll), "no exclude_one_of list short-circuits")
	assert.Equal(t, -75.0, observed.Delta(both))
	assert.Equal(t, 0.0, observed.Delta(bothPartial))
	assert.Equal(t, 0.0, observed.Delta(onlyOne))

	own := ExcludeAllOf{Guard: GuardExcludeAllOf}
	assert.Equal(t, -75.0, own.Delta(onlyAll))
	assert.Equal(t, -75.0, own.Delta(both))
	assert.Equal(t, 0.0, own.Delta(bothPartial))
	assert.Equal(t, 0.0, own.Delta(onlyOne))
}

func TestParseGuard(t *testing.T) {
	g, err := ParseGuard("")
	require.NoError(t, err)
	assert.Equal(t, GuardExcludeOneOf, g)

	g, err = ParseGuard("exclude_all_of")
	require.NoError(t, err)
	assert.Equal(t, GuardExcludeAllOf, g)

	_, err = ParseGuard("both")
	require.Error(t, err)
	assert.True(t, errors.Is(err, internalerr.ErrInvalidConfig))
}

func TestDefaultRulesNames(t *testing.T) {
	var names []string
	for _, r := range DefaultRules(GuardExcludeOneOf) {
		names = append(names, r.Name())
	}
	assert.Equal(t, []string{
		RuleIncludeAllOf, RuleIncludeOneOf, RuleExcludeOneOf, RuleExcludeAllOf,
		RuleExclusive, RuleFlag, RuleHighMatch,
	}, names)
}
