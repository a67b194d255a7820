package internalerr

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestMalformedWrapsSentinel(t *testing.T) {
	err := Malformed("label %q: term set has %d terms", "x", 5)
	assert.True(t, errors.Is(err, ErrMalformedEntry))
	assert.Contains(t, err.Error(), `label "x": term set has 5 terms`)
	assert.False(t, errors.Is(err, ErrInvalidConfig))
}

func TestInvalidConfigWrapsSentinel(t *testing.T) {
	err := errors.Wrap(InvalidConfig("cache backend %q", "memcached"), "load")
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}
