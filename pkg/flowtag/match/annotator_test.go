package match

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/flowtag/pkg/flowtag/ingest"
	"github.com/cognicore/flowtag/pkg/flowtag/internalerr"
	"github.com/cognicore/flowtag/pkg/flowtag/ontology"
)

func loadSupport(t *testing.T) *ontology.Ontology {
	t.Helper()
	o, err := ontology.LoadFile(filepath.Join("..", "ontology", "testdata", "support.yaml"))
	require.NoError(t, err)
	return o
}

func newAnnotator(t *testing.T, o *ontology.Ontology, opts Options) *Annotator {
	t.Helper()
	a, err := NewAnnotator(o, opts)
	require.NoError(t, err)
	return a
}

func TestAnnotatorExactBeatsLongDistance(t *testing.T) {
	a := newAnnotator(t, loadSupport(t), Options{})

	tm := a.Annotate("I forgot my password, please Reset Password!")
	tags := tm.Tags()
	require.Len(t, tags, 1)
	assert.Equal(t, Tag{Label: "password reset", Confidence: 100}, tags[0])

	var types []string
	for _, m := range tm.Matches("password reset") {
		types = append(types, m.Provenance.Type)
	}
	assert.Contains(t, types, TypeExact)
	assert.Contains(t, types, TypeLongDistance)
}

func TestAnnotatorSkipGram(t *testing.T) {
	a := newAnnotator(t, loadSupport(t), Options{})

	tags := a.Tag("reset my password")
	require.Len(t, tags, 1)
	assert.Equal(t, Tag{Label: "password reset", Confidence: 90}, tags[0])

	m := a.Annotate("reset my password").Matches("password reset")
	require.NotEmpty(t, m)
	assert.Equal(t, "reset password", ontology.Canonical(m[0].MatchedText))
	assert.Equal(t, "skip-2-2", m[0].Provenance.SubType)
}

func TestAnnotatorSkipGramsDisabled(t *testing.T) {
	a := newAnnotator(t, loadSupport(t), Options{SkipGrams: []ingest.SkipConfig{}})
	assert.Empty(t, a.Tag("reset my password"))
}

func TestAnnotatorLongDistanceWindow(t *testing.T) {
	o := loadSupport(t)
	text := "forgot the thing about the new password"

	whole := newAnnotator(t, o, Options{})
	assert.Equal(t, []Tag{{Label: "password reset", Confidence: 70}}, whole.Tag(text))

	windowed := newAnnotator(t, o, Options{LongDistanceWindow: 3})
	assert.Empty(t, windowed.Tag(text))
	assert.Equal(t, []Tag{{Label: "password reset", Confidence: 70}}, windowed.Tag("forgot my password"))
}

func TestAnnotatorSegmentedMatch(t *testing.T) {
	a := newAnnotator(t, loadSupport(t), Options{})

	tags := a.Tag("Please sign in to the Big Data Platform and ask for a refund")
	assert.ElementsMatch(t, []string{"login", "big data platform", "refund"}, Labels(tags))
	for _, tag := range tags {
		if tag.Label == "big data platform" {
			assert.Equal(t, 95.0, tag.Confidence)
		}
	}
}

func TestAnnotatorNoMatches(t *testing.T) {
	a := newAnnotator(t, loadSupport(t), Options{})
	assert.Empty(t, a.Tag(""))
	assert.Empty(t, a.Tag("nothing relevant here"))
}

func TestAnnotatorNormalizesDictionary(t *testing.T) {
	o, err := ontology.Parse([]byte(`
labels:
  - label: connectivity
    patterns:
      - wi-fi down
      - can't connect
      - café wifi
      - [modem, won't]
`), "net")
	require.NoError(t, err)
	a := newAnnotator(t, o, Options{})

	cases := map[string]float64{
		"the wi-fi down again":           100,
		"I can't connect":                100,
		"I cannot connect":               100,
		"café wifi slow":                 100,
		"the modem just won't come back": 75,
	}
	for text, want := range cases {
		assert.Equal(t, []Tag{{Label: "connectivity", Confidence: want}}, a.Tag(text), "text %q", text)
	}
}

func TestAnnotatorRejectsPatternThatNormalizesAway(t *testing.T) {
	o, err := ontology.Parse([]byte(`
labels:
  - label: emphasis
    patterns: ["?!"]
`), "x")
	require.NoError(t, err)

	_, err = NewAnnotator(o, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, internalerr.ErrMalformedEntry)
}
