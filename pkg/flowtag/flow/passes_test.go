package flow

import (
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/flowtag/pkg/flowtag/internalerr"
)

func summaryOf(rows map[float64][]string) *Summary {
	s := NewSummary()
	for level, flows := range rows {
		for _, f := range flows {
			s.Add(level, f)
		}
	}
	return s
}

func TestCutoff(t *testing.T) {
	s := summaryOf(map[float64][]string{45: {"LOW"}, 50: {"EDGE"}, 80: {"HIGH"}})
	require.NoError(t, Cutoff(50)(s))
	assert.Equal(t, []float64{80, 50}, s.Levels())
	assert.Equal(t, []string{"EDGE"}, s.Flows(50))
}

func TestOverrideDeterminism(t *testing.T) {
	cfg := SummaryConfig{HierarchyOverrides: map[string][]string{
		"PARENT": {"CHILD_A", "CHILD_B"},
		"OTHER":  {"CHILD_C"},
	}}
	for i := 0; i < 20; i++ {
		s, err := NewSummarizer(cfg).Summarize([]Candidate{
			{Flow: "CHILD_B", Confidence: 90},
			{Flow: "PARENT", Confidence: 90},
			{Flow: "CHILD_A", Confidence: 90},
		})
		require.NoError(t, err)
		assert.Equal(t, []Level{
			{Confidence: 90, Flows: []string{"PARENT"}},
			{Confidence: 80, Flows: []string{"CHILD_A", "CHILD_B"}},
		}, s.Rows())
	}
}

func TestOverrideRequiresExactSet(t *testing.T) {
	overrides := map[string][]string{"PARENT": {"CHILD_A", "CHILD_B"}}
	s := summaryOf(map[float64][]string{90: {"PARENT", "CHILD_A", "CHILD_B", "EXTRA"}})
	require.NoError(t, Override(overrides)(s))
	assert.Equal(t, []string{"CHILD_A", "CHILD_B", "EXTRA", "PARENT"}, s.Flows(90))

	s = summaryOf(map[float64][]string{90: {"PARENT", "CHILD_A"}})
	require.NoError(t, Override(overrides)(s))
	assert.Equal(t, []string{"CHILD_A", "PARENT"}, s.Flows(90))
}

func TestDemoteParents(t *testing.T) {
	overrides := map[string][]string{"PARENT": {"CHILD_A", "CHILD_B"}}
	s := summaryOf(map[float64][]string{90: {"X"}, 70: {"PARENT", "CHILD_A", "OTHER"}})
	require.NoError(t, DemoteParents(overrides)(s))

	assert.Equal(t, []string{"CHILD_A", "OTHER"}, s.Flows(70))
	assert.Equal(t, []string{"PARENT"}, s.Flows(60))

	s = summaryOf(map[float64][]string{70: {"PARENT"}, 60: {"CHILD_A"}})
	require.NoError(t, DemoteParents(overrides)(s))
	assert.Equal(t, []string{"PARENT"}, s.Flows(70), "a parent above its children stays")
}

func TestDemoteCatchAll(t *testing.T) {
	s := summaryOf(map[float64][]string{80: {"UNSPECIFIED", "BILLING"}})
	require.NoError(t, DemoteCatchAll("UNSPECIFIED")(s))
	assert.Equal(t, []string{"BILLING"}, s.Flows(80))
	assert.Equal(t, []string{"UNSPECIFIED"}, s.Flows(70))

	s = summaryOf(map[float64][]string{80: {"UNSPECIFIED"}})
	require.NoError(t, DemoteCatchAll("UNSPECIFIED")(s))
	assert.Equal(t, []string{"UNSPECIFIED"}, s.Flows(80), "alone at its level")

	s = summaryOf(map[float64][]string{5: {"UNSPECIFIED", "A"}})
	require.NoError(t, DemoteCatchAll("UNSPECIFIED")(s))
	assert.Equal(t, []string{"UNSPECIFIED"}, s.Flows(0), "demotion floors at zero")
}

func TestSplitAndStrip(t *testing.T) {
	s := summaryOf(map[float64][]string{60: {"LOGIN, BILLING_2", "ACCOUNT_1234", "X_", "_12"}})
	require.NoError(t, SplitMulti(s))
	assert.Equal(t, []string{"ACCOUNT_1234", "BILLING_2", "LOGIN", "X_", "_12"}, s.Flows(60))

	require.NoError(t, StripNumericSuffix(s))
	assert.Equal(t, []string{"ACCOUNT_1234", "BILLING", "LOGIN", "X_", "_12"}, s.Flows(60))
}

func TestStripSuffix(t *testing.T) {
	cases := map[string]string{
		"BILLING_2":    "BILLING",
		"BILLING_123":  "BILLING",
		"BILLING_1234": "BILLING_1234",
		"FLOW_V2":      "FLOW_V2",
		"PLAIN":        "PLAIN",
	}
	for in, want := range cases {
		got, _ := stripSuffix(in)
		assert.Equal(t, want, got, in)
	}
}

func TestDedupeKeepsHighest(t *testing.T) {
	s, err := NewSummarizer(SummaryConfig{}).Summarize([]Candidate{
		{Flow: "BILLING", Confidence: 80},
		{Flow: "BILLING_2", Confidence: 60},
		{Flow: "LOGIN", Confidence: 60},
	})
	require.NoError(t, err)
	assert.Equal(t, []Level{
		{Confidence: 80, Flows: []string{"BILLING"}},
		{Confidence: 60, Flows: []string{"LOGIN"}},
	}, s.Rows())
}

func TestSummarizeEmpty(t *testing.T) {
	s, err := NewSummarizer(SummaryConfig{MinimumConfidence: 50}).Summarize(nil)
	require.NoError(t, err)
	assert.True(t, s.Empty())
	assert.Empty(t, s.Top())
}

func TestSummaryPreservesFlowsBeforeCutoff(t *testing.T) {
	cfg := SummaryConfig{
		CatchAllFlow:       "UNSPECIFIED",
		HierarchyOverrides: map[string][]string{"PARENT": {"CHILD"}},
	}
	s, err := NewSummarizer(cfg).Summarize([]Candidate{
		{Flow: "PARENT", Confidence: 40},
		{Flow: "CHILD", Confidence: 40},
		{Flow: "UNSPECIFIED", Confidence: 95},
		{Flow: "LOGIN", Confidence: 95},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, []string{"LOGIN"}, s.Top())
	level, ok := s.LevelOf("PARENT")
	require.True(t, ok)
	assert.Equal(t, 30.0, level)
}

func TestMoveUndefinedLevel(t *testing.T) {
	s := summaryOf(map[float64][]string{90: {"A"}})
	err := s.Move("A", 80, 70)
	require.Error(t, err)
	assert.True(t, errors.Is(err, internalerr.ErrUndefinedLevel))

	err = s.Move("B", 90, 80)
	assert.True(t, errors.Is(err, internalerr.ErrUndefinedLevel))

	require.NoError(t, s.Move("A", 90, -5))
	assert.Equal(t, []float64{0}, s.Levels())
}

func TestSummaryJSON(t *testing.T) {
	s := summaryOf(map[float64][]string{90: {"B", "A"}, 50: {"C"}})
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"confidence":90,"flows":["A","B"]},{"confidence":50,"flows":["C"]}]`, string(data))

	var back Summary
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s.Rows(), back.Rows())
}
