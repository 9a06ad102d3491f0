// internal/journal/store.go
package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"namenizer/shared/types"

	"github.com/dgraph-io/badger/v4"
)

const keyPrefix = "batch"

var (
	ErrNotFound  = errors.New("batch not found")
	ErrAmbiguous = errors.New("batch ID prefix is ambiguous")
)

// Rename is the journal view of one rename outcome.
type Rename struct {
	Path    string `json:"path"`
	From    string `json:"from"`
	To      string `json:"to"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Entry records one executed rename batch.
type Entry struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Strategy   string    `json:"strategy"`
	OK         bool      `json:"ok"`
	Error      string    `json:"error,omitempty"`
	Renames    []Rename  `json:"renames"`
	Output     []byte    `json:"output,omitempty"`
	Compressed bool      `json:"compressed,omitempty"`
}

// Store keeps the history of rename batches in badger. It is an audit log:
// scans never read it.
type Store struct {
	db    *badger.DB
	codec *codec
}

type Options struct {
	Path     string
	InMemory bool
}

// Open opens (or creates) the journal.
func Open(opts Options) (*Store, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Path == "" {
			return nil, fmt.Errorf("journal path is required")
		}
		if err := os.MkdirAll(opts.Path, 0755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
		bopts = badger.DefaultOptions(opts.Path).
			WithNumVersionsToKeep(1)
	}
	bopts.Logger = nil // Disable logging noise

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	c, err := newCodec()
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, codec: c}, nil
}

func makeKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", keyPrefix, id))
}

// Record stores the result of a batch.
func (s *Store) Record(batch shared.RenameBatch, result shared.BatchResult) (*Entry, error) {
	if batch.ID == "" {
		return nil, fmt.Errorf("batch ID cannot be empty")
	}

	e := &Entry{
		ID:        batch.ID,
		CreatedAt: batch.CreatedAt,
		Strategy:  result.Strategy,
		OK:        result.OK(),
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if result.Err != nil {
		e.Error = result.Err.Error()
	}
	for _, o := range result.Outcomes {
		r := Rename{Path: o.Path, From: o.From, To: o.To, Skipped: o.Skipped}
		if o.Err != nil {
			r.Error = o.Err.Error()
		}
		e.Renames = append(e.Renames, r)
	}
	e.Output, e.Compressed = s.codec.compress([]byte(result.Output))

	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshaling entry: %w", err)
	}

	key := makeKey(e.ID)
	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return fmt.Errorf("batch already recorded: %s", e.ID)
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Get returns the entry for a batch with its output decompressed. id may be
// any unique prefix of a batch ID, such as the short form shown by listings.
func (s *Store) Get(id string) (*Entry, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty ID", ErrNotFound)
	}

	var e Entry
	err := s.db.View(func(txn *badger.Txn) error {
		key, err := resolveKey(txn, id)
		if err != nil {
			return err
		}
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if err := s.inflate(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// resolveKey returns the key of the batch whose ID is id or, failing that,
// the only batch whose ID starts with id.
func resolveKey(txn *badger.Txn, id string) ([]byte, error) {
	key := makeKey(id)
	if _, err := txn.Get(key); err != badger.ErrKeyNotFound {
		return key, err
	}

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	var found []byte
	for it.Seek(key); it.ValidForPrefix(key); it.Next() {
		if found != nil {
			return nil, fmt.Errorf("%w: %s", ErrAmbiguous, id)
		}
		found = it.Item().KeyCopy(nil)
	}
	if found == nil {
		return nil, badger.ErrKeyNotFound
	}
	return found, nil
}

// List returns up to limit entries, newest first. A limit <= 0 returns all.
func (s *Store) List(limit int) ([]*Entry, error) {
	var entries []*Entry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var e Entry
				if err := json.Unmarshal(val, &e); err != nil {
					return err
				}
				entries = append(entries, &e)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing batches: %w", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	for _, e := range entries {
		if err := s.inflate(e); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (s *Store) inflate(e *Entry) error {
	out, err := s.codec.decompress(e.Output, e.Compressed)
	if err != nil {
		return err
	}
	e.Output = out
	e.Compressed = false
	return nil
}

func (s *Store) Close() error {
	s.codec.close()
	return s.db.Close()
}
