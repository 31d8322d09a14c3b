// Package modelstore keeps encoded model snapshots in a BadgerDB
// key-value store, keyed by model name.
package modelstore

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/pkg/errors"
)

const modelPrefix = "model/"

var (
	ErrModelNotFound = errors.New("model not found")
	ErrEmptyName     = errors.New("model name must not be empty")
)

// Store persists model snapshots in BadgerDB.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter routes badger's internal logging through slog.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

type config struct {
	inMemory bool
	logger   *slog.Logger
}

// Option configures a store.
type Option func(*config)

// WithInMemory keeps the store entirely in memory, for tests and
// short-lived runs.
func WithInMemory() Option {
	return func(c *config) { c.inMemory = true }
}

// WithLogger overrides the store's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// Open opens the store at path, creating the directory if needed.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := &config{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}

	var badgerOpts badger.Options
	if cfg.inMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			if err := os.MkdirAll(path, 0o755); err != nil {
				return nil, errors.Wrap(err, "create store directory")
			}
		} else if err != nil {
			return nil, errors.Wrap(err, "stat store directory")
		} else if !info.IsDir() {
			return nil, errors.Errorf("%s is not a directory", path)
		}
		badgerOpts = badger.DefaultOptions(path)
	}

	badgerOpts.Logger = &badgerLoggerAdapter{logger: cfg.logger}
	badgerOpts.Compression = options.None

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, errors.Wrap(err, "open badger")
	}

	return &Store{db: db, logger: cfg.logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func modelKey(name string) []byte {
	return []byte(modelPrefix + name)
}

// Save writes a model snapshot under the given name, replacing any
// previous snapshot.
func (s *Store) Save(name string, snapshot []byte) error {
	if name == "" {
		return ErrEmptyName
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(modelKey(name), snapshot)
	})
	if err != nil {
		return errors.Wrapf(err, "save model %q", name)
	}

	s.logger.Debug("model saved", "name", name, "bytes", len(snapshot))

	return nil
}

// Load reads the snapshot stored under the given name.
func (s *Store) Load(name string) ([]byte, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	var snapshot []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(modelKey(name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errors.Wrapf(ErrModelNotFound, "%q", name)
		}
		if err != nil {
			return err
		}

		snapshot, err = item.ValueCopy(nil)

		return err
	})
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}

// List returns the stored model names, sorted.
func (s *Store) List() ([]string, error) {
	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(modelPrefix)
		opts.PrefetchValues = false

		iter := txn.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := string(iter.Item().Key())
			names = append(names, strings.TrimPrefix(key, modelPrefix))
		}

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "list models")
	}

	sort.Strings(names)

	return names, nil
}

// Delete removes the snapshot stored under the given name.
func (s *Store) Delete(name string) error {
	if name == "" {
		return ErrEmptyName
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(modelKey(name)); errors.Is(err, badger.ErrKeyNotFound) {
			return errors.Wrapf(ErrModelNotFound, "%q", name)
		} else if err != nil {
			return err
		}

		return txn.Delete(modelKey(name))
	})
	if err != nil {
		return err
	}

	s.logger.Debug("model deleted", "name", name)

	return nil
}
