package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenMatchesCanonicalKeys(t *testing.T) {
	tm := NewTokenMatches()
	tm.Add("Big_Data", MatchInstance{Confidence: 70})
	tm.Add("big  data", MatchInstance{Confidence: 90})
	tm.Add("  ", MatchInstance{Confidence: 90})

	assert.Equal(t, []string{"big data"}, tm.Labels())
	assert.Len(t, tm.Matches("BIG_DATA"), 2)
	assert.Equal(t, 1, tm.Len())
}

func TestTagsMaxReduceAndOrder(t *testing.T) {
	tm := NewTokenMatches()
	tm.Add("login", MatchInstance{Confidence: 75})
	tm.Add("refund", MatchInstance{Confidence: 90})
	tm.Add("login", MatchInstance{Confidence: 100})
	tm.Add("invoice", MatchInstance{Confidence: 90})
	tm.Add("outage", MatchInstance{Confidence: 140})
	tm.Add("spam", MatchInstance{Confidence: -3})

	tags := tm.Tags()
	require.Len(t, tags, 5)
	assert.Equal(t, []Tag{
		{Label: "login", Confidence: 100},
		{Label: "outage", Confidence: 100},
		{Label: "refund", Confidence: 90},
		{Label: "invoice", Confidence: 90},
		{Label: "spam", Confidence: 0},
	}, tags)
}

func TestTagsUnique(t *testing.T) {
	tm := NewTokenMatches()
	for i := 0; i < 10; i++ {
		tm.Add("a", MatchInstance{Confidence: float64(i)})
		tm.Add("A", MatchInstance{Confidence: float64(i * 2)})
	}
	tags := tm.Tags()
	require.Len(t, tags, 1)
	assert.Equal(t, 18.0, tags[0].Confidence)
}

func TestTagsEmpty(t *testing.T) {
	assert.Empty(t, NewTokenMatches().Tags())
	assert.Empty(t, Labels(nil))
}
