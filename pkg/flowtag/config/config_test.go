package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/flowtag/pkg/flowtag/flow"
	"github.com/cognicore/flowtag/pkg/flowtag/internalerr"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.Ontology.Name)
	assert.Equal(t, "ontologies", cfg.Ontology.Dir)
	assert.Equal(t, 4, cfg.Matching.MaxGram)
	assert.Equal(t, 0, cfg.Matching.LongDistanceWindow)
	assert.Equal(t, "none", cfg.Cache.Backend)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, flow.GuardExcludeOneOf, cfg.Guard())
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "flowtag.yaml", `
ontology:
  name: support
  dir: /srv/ontologies
resolution:
  minimum_confidence: 50
  catch_all_flow: UNSPECIFIED
  base_confidence: 10
  hierarchy_overrides:
    - parent: PARENT
      children: [CHILD_A, CHILD_B]
rules:
  exclude_all_of_guard: exclude_all_of
matching:
  long_distance_window: 8
  strip_html: true
cache:
  backend: lru
  size: 128
  ttl: 5m
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "support", cfg.Ontology.Name)
	assert.Equal(t, 10.0, cfg.Resolution.BaseConfidence)
	assert.Equal(t, 8, cfg.Matching.LongDistanceWindow)
	assert.True(t, cfg.Matching.StripHTML)
	assert.Equal(t, 128, cfg.Cache.Size)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, flow.GuardExcludeAllOf, cfg.Guard())

	sc := cfg.SummaryConfig()
	assert.Equal(t, 50.0, sc.MinimumConfidence)
	assert.Equal(t, "UNSPECIFIED", sc.CatchAllFlow)
	assert.Equal(t, map[string][]string{"PARENT": {"CHILD_A", "CHILD_B"}}, sc.HierarchyOverrides,
		"flow names keep their case")
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("FLOWTAG_RESOLUTION_MINIMUM_CONFIDENCE", "35")
	t.Setenv("FLOWTAG_ONTOLOGY_NAME", "billing")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 35.0, cfg.Resolution.MinimumConfidence)
	assert.Equal(t, "billing", cfg.Ontology.Name)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"cutoff range":     "resolution: {minimum_confidence: 120}",
		"guard":            "rules: {exclude_all_of_guard: sometimes}",
		"max gram":         "matching: {max_gram: 9}",
		"window":           "matching: {long_distance_window: -1}",
		"cache backend":    "cache: {backend: memcached}",
		"workers":          "workers: -2",
		"override parent":  "resolution: {hierarchy_overrides: [{children: [A]}]}",
		"duplicate parent": "resolution: {hierarchy_overrides: [{parent: P}, {parent: P}]}",
		"no source":        "ontology: {dir: '', sqlite: ''}",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, "flowtag.yaml", doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, internalerr.ErrInvalidConfig), err.Error())
		})
	}
}

func TestLoadStoplist(t *testing.T) {
	path := writeFile(t, "stoplist.yaml", "terms:\n  - the\n  - a\n  - and\n")

	sl, err := LoadStoplist(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"the", "a", "and"}, sl.Terms)

	_, err = LoadStoplist(writeFile(t, "bad.yaml", "terms: {a: b"))
	require.Error(t, err)

	_, err = LoadStoplist("/nonexistent/stoplist.yaml")
	require.Error(t, err)
}
