package cache

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"

	"github.com/cognicore/flowtag/internal/logger"
	"github.com/cognicore/flowtag/pkg/flowtag/match"
)

const badgerPrefix = "tags/"

// Badger persists results in a badger store. An empty path opens an
// in-memory store.
type Badger struct {
	db  *badger.DB
	ttl time.Duration
}

// badgerLogger adapts zap to badger.Logger.
type badgerLogger struct {
	log *zap.SugaredLogger
}

var _ badger.Logger = (*badgerLogger)(nil)

func (l *badgerLogger) Errorf(msg string, items ...any)   { l.log.Error(fmt.Sprintf(msg, items...)) }
func (l *badgerLogger) Warningf(msg string, items ...any) { l.log.Warn(fmt.Sprintf(msg, items...)) }
func (l *badgerLogger) Infof(msg string, items ...any)    { l.log.Debug(fmt.Sprintf(msg, items...)) }
func (l *badgerLogger) Debugf(msg string, items ...any)   { l.log.Debug(fmt.Sprintf(msg, items...)) }

// OpenBadger opens (creating if needed) a badger store at path.
func OpenBadger(path string, ttl time.Duration) (*Badger, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create cache dir %s", path)
		}
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = &badgerLogger{log: logger.ComponentLogger("cache.badger")}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "open badger cache")
	}
	return &Badger{db: db, ttl: ttl}, nil
}

func (c *Badger) Get(_ context.Context, key string) ([]match.Tag, bool, error) {
	var data []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerPrefix + key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "badger get")
	}
	tags, err := decode(data)
	if err != nil {
		return nil, false, err
	}
	return tags, true, nil
}

func (c *Badger) Set(_ context.Context, key string, tags []match.Tag) error {
	data, err := encode(tags)
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(badgerPrefix+key), data)
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}
		return txn.SetEntry(e)
	})
}

func (c *Badger) Close() error {
	return c.db.Close()
}
