// Package cache stores tag results keyed by ontology and normalized text.
//
// Backends are interchangeable behind Cache: an in-process LRU, a badger
// store on disk (or in memory), and redis. Values are JSON-encoded tag lists.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/cognicore/flowtag/pkg/flowtag/internalerr"
	"github.com/cognicore/flowtag/pkg/flowtag/match"
)

// Backend names accepted by Open.
const (
	BackendNone   = "none"
	BackendLRU    = "lru"
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

// DefaultSize is the LRU capacity used when none is configured.
const DefaultSize = 4096

// Cache is safe for concurrent use. Get reports a miss with ok == false and
// a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (tags []match.Tag, ok bool, err error)
	Set(ctx context.Context, key string, tags []match.Tag) error
	Close() error
}

// Key builds the cache key for a normalized input under an ontology.
func Key(ontology, normalized string) string {
	return ontology + "\x1f" + normalized
}

// Options select and tune a backend.
type Options struct {
	Backend   string        `mapstructure:"backend"`
	Size      int           `mapstructure:"size"`
	Path      string        `mapstructure:"path"`
	RedisAddr string        `mapstructure:"redis_addr"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// Open creates the backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch strings.ToLower(opts.Backend) {
	case "", BackendNone:
		return Nop{}, nil
	case BackendLRU:
		return NewLRU(opts.Size, opts.TTL)
	case BackendBadger:
		return OpenBadger(opts.Path, opts.TTL)
	case BackendRedis:
		return DialRedis(ctx, opts.RedisAddr, opts.TTL)
	default:
		return nil, internalerr.InvalidConfig("unknown cache backend %q", opts.Backend)
	}
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]match.Tag, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, string, []match.Tag) error        { return nil }
func (Nop) Close() error                                          { return nil }

func encode(tags []match.Tag) ([]byte, error) {
	if tags == nil {
		tags = []match.Tag{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return nil, errors.Wrap(err, "encode tags")
	}
	return data, nil
}

func decode(data []byte) ([]match.Tag, error) {
	var tags []match.Tag
	if err := json.Unmarshal(data, &tags); err != nil {
		return nil, errors.Wrap(err, "decode tags")
	}
	return tags, nil
}
