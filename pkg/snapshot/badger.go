package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/zstd"

	dashboard "github.com/goliatone/go-trendcharts/components/dashboard"
	"github.com/goliatone/go-trendcharts/pkg/timeseries"
)

const keyPrefix = "trendcharts/snapshot/"

// BadgerOptions configures a BadgerStore.
type BadgerOptions struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path     string
	InMemory bool
	// TTL expires snapshots after the given duration. Zero keeps them forever.
	TTL time.Duration
}

// BadgerStore persists snapshots in BadgerDB as zstd-compressed JSON.
type BadgerStore struct {
	db      *badger.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	ttl     time.Duration
}

var _ dashboard.SnapshotStore = (*BadgerStore)(nil)

// OpenBadgerStore opens (or creates) the snapshot database.
func OpenBadgerStore(opts BadgerOptions) (*BadgerStore, error) {
	var badgerOpts badger.Options
	switch {
	case opts.InMemory:
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	case opts.Path != "":
		badgerOpts = badger.DefaultOptions(opts.Path)
	default:
		return nil, fmt.Errorf("snapshot: path is required unless in-memory")
	}
	badgerOpts.Logger = nil

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open badger: %w", err)
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("snapshot: create encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		db.Close()
		return nil, fmt.Errorf("snapshot: create decoder: %w", err)
	}
	return &BadgerStore{db: db, encoder: encoder, decoder: decoder, ttl: opts.TTL}, nil
}

// Save writes result under key, replacing any earlier snapshot.
func (s *BadgerStore) Save(_ context.Context, key string, result timeseries.Result) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("snapshot: encode %s: %w", key, err)
	}
	value := s.encoder.EncodeAll(raw, make([]byte, 0, len(raw)/2))
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(keyPrefix+key), value)
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Load reads the snapshot stored under key.
func (s *BadgerStore) Load(_ context.Context, key string) (timeseries.Result, bool, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return timeseries.Result{}, false, nil
	}
	if err != nil {
		return timeseries.Result{}, false, fmt.Errorf("snapshot: load %s: %w", key, err)
	}

	raw, err := s.decoder.DecodeAll(value, nil)
	if err != nil {
		return timeseries.Result{}, false, fmt.Errorf("snapshot: decompress %s: %w", key, err)
	}
	var result timeseries.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return timeseries.Result{}, false, fmt.Errorf("snapshot: decode %s: %w", key, err)
	}
	return result, true, nil
}

// Delete drops the snapshot stored under key.
func (s *BadgerStore) Delete(_ context.Context, key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + key))
	})
}

// Keys lists the stored snapshot keys.
func (s *BadgerStore) Keys() ([]string, error) {
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().Key()[len(keyPrefix):]))
		}
		return nil
	})
	return keys, err
}

// Close releases the codec and the database.
func (s *BadgerStore) Close() error {
	s.decoder.Close()
	if err := s.encoder.Close(); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}
