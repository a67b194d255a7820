package ontology

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/flowtag/pkg/flowtag/internalerr"
)

func TestLoadFile(t *testing.T) {
	o, err := LoadFile(filepath.Join("testdata", "support.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "support", o.Name)
	assert.Equal(t, 4, o.Dictionary.Len())
	assert.Equal(t, 2, o.Mapping.Len())

	assert.Equal(t, []string{"password reset"}, o.Dictionary.Literal("Reset_Password"))
	assert.Equal(t, []string{"refund"}, o.Dictionary.Literal("refund"), "entry without patterns matches its label")
	assert.Empty(t, o.Dictionary.Literal("password"))

	sets := o.Dictionary.TermSets()
	require.Len(t, sets, 1)
	assert.Equal(t, []string{"forgot", "password"}, sets[0].Key.Terms())
	assert.Equal(t, []string{"password reset"}, sets[0].Labels)

	assert.Equal(t, 100.0, o.Dictionary.ExactConfidence("password reset"))
	assert.Equal(t, 95.0, o.Dictionary.ExactConfidence("big data platform"))
	assert.Equal(t, 90.0, o.Dictionary.SkipGramConfidence("password reset"))
	assert.Equal(t, 90.0, o.Dictionary.SkipGramConfidence("big data platform"))
	assert.Equal(t, 70.0, o.Dictionary.LongDistanceConfidence())

	assert.True(t, o.NGrams.Has(3, "big data platform"))
	assert.True(t, o.NGrams.Has(2, "big data"))
	assert.True(t, o.NGrams.Has(2, "reset password"), "multi-word literals seed the n-gram table")
	assert.True(t, o.NGrams.Has(2, "sign in"))
	assert.Equal(t, 3, o.NGrams.MaxLevel())
}

func TestMappingReverseIndex(t *testing.T) {
	o, err := LoadFile(filepath.Join("testdata", "support.yaml"))
	require.NoError(t, err)

	assert.Equal(t, []string{"ACCOUNT_RECOVERY"}, o.Mapping.FlowsFor("password reset"))
	assert.Equal(t, []string{"ACCOUNT_RECOVERY"}, o.Mapping.FlowsFor("login"))
	assert.Equal(t, []string{"BILLING_2"}, o.Mapping.FlowsFor("refund"))
	assert.Equal(t, []string{"ACCOUNT_RECOVERY"}, o.Mapping.FlowsFor("account recovery"), "flow name nominates itself")
	assert.Empty(t, o.Mapping.FlowsFor("unknown"))

	rule, ok := o.Mapping.Rule("BILLING_2")
	require.True(t, ok)
	assert.Equal(t, []string{"password reset"}, rule.ExcludeOneOf)
	assert.Equal(t, []string{"refund"}, rule.Vocabulary())
}

func TestBuildRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"empty label":       "labels: [{label: ''}]",
		"duplicate label":   "labels: [{label: a}, {label: A}]",
		"bad term set":      "labels: [{label: a, patterns: [[x]]}]",
		"bad level":         "ngrams: {7: [a b c d e f g]}",
		"too many words":    "ngrams: {5: [a b c d e f]}",
		"flow without name": "flows: [{include_all_of: [a]}]",
		"duplicate flow":    "flows: [{name: F}, {name: F}]",
		"bad confidence":    "confidence: {exact: 120}",
		"bad entry conf":    "labels: [{label: a, confidence: 101}]",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc), "x")
			require.Error(t, err)
			assert.True(t, errors.Is(err, internalerr.ErrMalformedEntry), err.Error())
		})
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	o, err := LoadFile(filepath.Join("testdata", "support.yaml"))
	require.NoError(t, err)

	again, err := o.Document().Build()
	require.NoError(t, err)
	assert.Equal(t, o.Dictionary.Entries(), again.Dictionary.Entries())
	assert.Equal(t, o.Mapping.Rules(), again.Mapping.Rules())
	assert.Equal(t, o.NGrams.Levels(), again.NGrams.Levels())
}

func TestDirProvider(t *testing.T) {
	dir := t.TempDir()
	data, err := os.ReadFile(filepath.Join("testdata", "support.yaml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "helpdesk.yml"), data, 0o644))

	p := DirProvider{Dir: dir}
	o, err := p.Load(context.Background(), "helpdesk")
	require.NoError(t, err)
	assert.Equal(t, "support", o.Name, "document name wins over file name")

	_, err = p.Load(context.Background(), "missing")
	assert.True(t, errors.Is(err, internalerr.ErrUnknownOntology))

	_, err = p.Load(context.Background(), "../etc")
	assert.True(t, errors.Is(err, internalerr.ErrInvalidInput))
}

type countingProvider struct {
	calls int
	err   error
}

func (p *countingProvider) Load(ctx context.Context, name string) (*Ontology, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return Document{Name: name}.Build()
}

func TestRegistryLoadsOnce(t *testing.T) {
	p := &countingProvider{}
	r := NewRegistry(p)
	ctx := context.Background()

	a, err := r.Get(ctx, "x")
	require.NoError(t, err)
	b, err := r.Get(ctx, "x")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, p.calls)

	r.Invalidate("x")
	c, err := r.Get(ctx, "x")
	require.NoError(t, err)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, p.calls)
}

func TestRegistryDoesNotCacheErrors(t *testing.T) {
	p := &countingProvider{err: internalerr.ErrUnknownOntology}
	r := NewRegistry(p)
	_, err := r.Get(context.Background(), "x")
	require.Error(t, err)

	p.err = nil
	_, err = r.Get(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, 2, p.calls)
}

func TestNormalizedRewritesPatterns(t *testing.T) {
	o, err := Parse([]byte(`
ngrams:
  2: [wi-fi router]
labels:
  - label: connectivity
    patterns:
      - wi-fi down
      - [wi-fi, slow]
  - label: wi-fi
flows:
  - name: NETWORK
    include_one_of: [connectivity, wi-fi]
`), "net")
	require.NoError(t, err)

	strip := func(s string) string { return strings.ReplaceAll(s, "-", "") }
	norm, err := o.Normalized(strip)
	require.NoError(t, err)

	assert.Equal(t, []string{"connectivity"}, norm.Dictionary.Literal("wifi down"))
	assert.Empty(t, norm.Dictionary.Literal("wi-fi down"))
	assert.Equal(t, []string{"wi-fi"}, norm.Dictionary.Literal("wifi"), "labels keep their spelling")
	assert.True(t, norm.NGrams.Has(2, "wifi router"))
	require.Len(t, norm.Dictionary.TermSets(), 1)
	assert.Equal(t, []string{"slow", "wifi"}, norm.Dictionary.TermSets()[0].Key.Terms())
	assert.Equal(t, o.Mapping.Rules(), norm.Mapping.Rules())

	assert.Equal(t, []string{"connectivity"}, o.Dictionary.Literal("wi-fi down"), "source ontology is untouched")
}

func TestNormalizedRejectsCollapsedPatterns(t *testing.T) {
	o, err := Parse([]byte(`
labels:
  - label: punct
    patterns: ["?!", [a, b]]
`), "x")
	require.NoError(t, err)

	drop := func(s string) string { return strings.Trim(s, "?!") }
	_, err = o.Normalized(drop)
	require.Error(t, err)
	assert.True(t, errors.Is(err, internalerr.ErrMalformedEntry))

	same := func(string) string { return "same" }
	_, err = o.Normalized(same)
	require.Error(t, err, "term set collapsing to one term")
	assert.True(t, errors.Is(err, internalerr.ErrMalformedEntry))
}
