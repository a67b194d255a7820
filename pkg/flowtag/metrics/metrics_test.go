package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	m := New("test")

	m.ObserveRequest(OpTag, time.Now(), nil)
	m.ObserveRequest(OpTag, time.Now(), nil)
	m.ObserveRequest(OpResolve, time.Now(), errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues(OpTag, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(OpResolve, "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestCacheLookup(t *testing.T) {
	m := New("")
	m.CacheLookup(CacheMiss)
	m.CacheLookup(CacheHit)
	m.CacheLookup(CacheHit)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cache.WithLabelValues(CacheHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cache.WithLabelValues(CacheMiss)))
}

func TestRegistryGathers(t *testing.T) {
	m := New("flowtag")
	m.ObserveTags(3)
	m.ObserveCandidates(1)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "flowtag_tags_per_text")
	assert.Contains(t, names, "flowtag_candidates_per_resolution")
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveRequest(OpTag, time.Now(), nil)
	m.CacheLookup(CacheHit)
	m.ObserveTags(1)
	m.ObserveCandidates(1)
	assert.Nil(t, m.Registry())
}
