// Package store implements the artifact Store (spec.md section 4.H): the
// per-kind filesystem tree of generated artifacts, a relational counters
// cache, an optional S3 mirror, and an in-process read cache, all under a
// per-kind single-writer discipline.
package store

import (
	"database/sql"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/minio/minio-go/v7"

	"github.com/schemaforge/schemaforge/internal/schema"
)

// Bundle is everything a single save writes for one kind.
type Bundle struct {
	Record          *schema.SchemaRecord
	ValidatorSource string
	InterfaceSource string
	ExamplesJSON    []byte
	RawSample       []byte // nil if this payload produced no raw sample write
}

// Store coordinates filesystem persistence, the relational counters cache,
// an optional S3 mirror, and a bounded in-process read cache. The
// filesystem is authoritative; the relational side is a denormalized cache
// (spec.md section 6).
type Store struct {
	root          string
	maxRawSamples int

	db *sql.DB
	s3 *minio.Client
	s3Bucket string

	schemasTableOnce sync.Once
	schemasTableErr  error

	cache *lru.Cache[string, *schema.SchemaRecord]

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// Option configures optional Store collaborators.
type Option func(*Store)

// WithDB wires the relational counters cache / event log connection.
func WithDB(db *sql.DB) Option {
	return func(s *Store) { s.db = db }
}

// WithS3Mirror wires the best-effort off-box artifact mirror. The
// filesystem remains authoritative; mirror failures are logged, never
// propagated (spec.md 4.H expansion).
func WithS3Mirror(client *minio.Client, bucket string) Option {
	return func(s *Store) {
		s.s3 = client
		s.s3Bucket = bucket
	}
}

// New builds a Store rooted at root, with a read cache of cacheEntries
// SchemaRecords and a raw-sample archive capped at maxRawSamples per kind.
func New(root string, cacheEntries, maxRawSamples int, opts ...Option) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("store: empty root")
	}
	if cacheEntries <= 0 {
		cacheEntries = 256
	}
	if maxRawSamples <= 0 {
		maxRawSamples = 10
	}
	cache, err := lru.New[string, *schema.SchemaRecord](cacheEntries)
	if err != nil {
		return nil, fmt.Errorf("store: init read cache: %w", err)
	}
	s := &Store{
		root:          root,
		maxRawSamples: maxRawSamples,
		cache:         cache,
		locks:         map[string]*sync.Mutex{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// lockFor returns the per-kind mutex, creating it on first use. Writers
// must hold this for the duration of a save; readers never need it (spec.md
// 4.H: "readers lock-free").
func (s *Store) lockFor(kind string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	m, ok := s.locks[kind]
	if !ok {
		m = &sync.Mutex{}
		s.locks[kind] = m
	}
	return m
}

// WithKindLock runs fn while holding kind's per-kind lock, used by the
// Worker to bracket load-merge-save as one logical critical section (spec.md
// section 4.J step 5's "under the per-kind lock").
func (s *Store) WithKindLock(kind string, fn func() error) error {
	m := s.lockFor(kind)
	m.Lock()
	defer m.Unlock()
	return fn()
}
