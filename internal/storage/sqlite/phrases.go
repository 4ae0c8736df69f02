// ABOUTME: Phrase record persistence and similarity search for SQLite
// ABOUTME: Stores vectors as float32 BLOBs and ranks one user's rows in Go
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/harper/echomind/internal/models"
	"github.com/harper/echomind/internal/storage"
)

// PhraseStore implements storage.PhraseStore on a SQLite database.
type PhraseStore struct {
	db         *DB
	collection string

	mu sync.RWMutex // writers exclusive, searches shared

	cfgMu     sync.RWMutex
	dimension int
	metric    storage.Metric
	loaded    bool
}

var _ storage.PhraseStore = (*PhraseStore)(nil)

// NewPhraseStore creates a PhraseStore for the named collection
func NewPhraseStore(db *DB, collection string) *PhraseStore {
	if collection == "" {
		collection = storage.DefaultCollection
	}
	return &PhraseStore{db: db, collection: collection}
}

// OpenPhraseStore opens the database at path and returns a store for collection.
// The store owns the database and closes it on Close.
func OpenPhraseStore(path, collection string) (*PhraseStore, error) {
	db, err := Open(path)
	if err != nil {
		return nil, storage.Unavailable("open", err)
	}
	return NewPhraseStore(db, collection), nil
}

// OpenPhraseStoreInMemory returns a store backed by an in-memory database (for testing)
func OpenPhraseStoreInMemory(collection string) (*PhraseStore, error) {
	db, err := OpenInMemory()
	if err != nil {
		return nil, storage.Unavailable("open", err)
	}
	return NewPhraseStore(db, collection), nil
}

// EnsureCollection creates the collection or verifies its configuration
func (s *PhraseStore) EnsureCollection(ctx context.Context, dimension int, metric storage.Metric) error {
	if dimension <= 0 {
		return fmt.Errorf("dimension must be positive, got %d", dimension)
	}
	if !metric.Valid() {
		return fmt.Errorf("invalid metric %q", metric)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return storage.Unavailable("ensure collection", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		gotDim    int
		gotMetric string
	)
	err = tx.QueryRowContext(ctx,
		`SELECT dimension, metric FROM collections WHERE name = ?`, s.collection,
	).Scan(&gotDim, &gotMetric)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO collections (name, dimension, metric) VALUES (?, ?, ?)`,
			s.collection, dimension, string(metric),
		); err != nil {
			return storage.Unavailable("create collection", err)
		}
		if err := tx.Commit(); err != nil {
			return storage.Unavailable("create collection", err)
		}
	case err != nil:
		return storage.Unavailable("ensure collection", err)
	case gotDim != dimension || storage.Metric(gotMetric) != metric:
		return &storage.SchemaMismatchError{
			Collection:    s.collection,
			WantDimension: dimension,
			WantMetric:    metric,
			GotDimension:  gotDim,
			GotMetric:     storage.Metric(gotMetric),
		}
	}

	s.setConfig(dimension, metric)
	return nil
}

// Insert stores a record, assigning seq, id and timestamp when unset.
// A record carrying an explicit Seq overwrites the row at that sequence.
func (s *PhraseStore) Insert(ctx context.Context, rec *models.PhraseRecord) (*models.PhraseRecord, error) {
	if err := storage.ValidateRecord(rec); err != nil {
		return nil, err
	}

	dim, _, err := s.config(ctx)
	if err != nil {
		return nil, err
	}
	if err := storage.CheckDimension(rec.Embedding, dim); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return nil, storage.Unavailable("insert", err)
	}
	defer func() { _ = tx.Rollback() }()

	stored := *rec
	stored.Embedding = append([]float32(nil), rec.Embedding...)
	stored.Degraded = storage.IsZeroVector(stored.Embedding)
	if stored.Timestamp.IsZero() {
		stored.Timestamp = time.Now().UTC()
	}

	if stored.Seq <= 0 {
		next, err := nextSeq(ctx, tx, s.collection, stored.UserID)
		if err != nil {
			return nil, storage.Unavailable("insert", err)
		}
		stored.Seq = next
	}
	stored.ID = storage.PointID(stored.UserID, stored.Seq)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO phrases (
			collection, user_id, seq, id, category, phrase, time_of_day, day_of_week,
			location, context_summary, embedding, degraded, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, user_id, seq) DO UPDATE SET
			category = excluded.category,
			phrase = excluded.phrase,
			time_of_day = excluded.time_of_day,
			day_of_week = excluded.day_of_week,
			location = excluded.location,
			context_summary = excluded.context_summary,
			embedding = excluded.embedding,
			degraded = excluded.degraded,
			created_at = excluded.created_at
	`, s.collection, stored.UserID, stored.Seq, int64(stored.ID), stored.Category, stored.Phrase,
		stored.TimeOfDay, stored.DayOfWeek, stored.Location, stored.ContextSummary,
		vectorToBlob(stored.Embedding), boolToInt(stored.Degraded),
		stored.Timestamp.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, storage.Unavailable("insert", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_sequences (collection, user_id, next_seq) VALUES (?, ?, ?)
		ON CONFLICT(collection, user_id) DO UPDATE SET
			next_seq = MAX(user_sequences.next_seq, excluded.next_seq)
	`, s.collection, stored.UserID, stored.Seq+1)
	if err != nil {
		return nil, storage.Unavailable("insert", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storage.Unavailable("insert", err)
	}

	return &stored, nil
}

// SearchByVector scores every non-degraded record of userID against query
func (s *PhraseStore) SearchByVector(ctx context.Context, query []float32, userID string, limit int) ([]models.ScoredRecord, error) {
	dim, metric, err := s.config(ctx)
	if err != nil {
		return nil, err
	}
	if err := storage.CheckDimension(query, dim); err != nil {
		return nil, err
	}

	results := []models.ScoredRecord{}
	if limit <= 0 || storage.IsZeroVector(query) {
		return results, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT `+phraseColumns+`
		FROM phrases
		WHERE collection = ? AND user_id = ? AND degraded = 0
		ORDER BY seq ASC
	`, s.collection, userID)
	if err != nil {
		return nil, storage.Unavailable("search", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		rec, err := scanPhrase(rows)
		if err != nil {
			return nil, storage.Unavailable("search", err)
		}
		results = append(results, models.ScoredRecord{
			Record: *rec,
			Score:  storage.Score(metric, query, rec.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Unavailable("search", err)
	}

	// Stable so equal scores keep seq order
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// ScanByFilter returns matching records in ascending seq order
func (s *PhraseStore) ScanByFilter(ctx context.Context, filter storage.Filter, limit int) ([]models.PhraseRecord, error) {
	if _, _, err := s.config(ctx); err != nil {
		return nil, err
	}

	records := []models.PhraseRecord{}
	if limit <= 0 {
		return records, nil
	}

	where, args := s.whereClause(filter)
	args = append(args, limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT `+phraseColumns+`
		FROM phrases
		WHERE `+where+`
		ORDER BY seq ASC, user_id ASC
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, storage.Unavailable("scan", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		rec, err := scanPhrase(rows)
		if err != nil {
			return nil, storage.Unavailable("scan", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Unavailable("scan", err)
	}

	return records, nil
}

// Count returns the number of records matching filter
func (s *PhraseStore) Count(ctx context.Context, filter storage.Filter) (int, error) {
	if _, _, err := s.config(ctx); err != nil {
		return 0, err
	}

	where, args := s.whereClause(filter)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.Conn().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM phrases WHERE `+where, args...,
	).Scan(&n); err != nil {
		return 0, storage.Unavailable("count", err)
	}
	return n, nil
}

// Close closes the underlying database
func (s *PhraseStore) Close() error {
	return s.db.Close()
}

// config returns the collection configuration, loading it from the
// database when this process did not create it.
func (s *PhraseStore) config(ctx context.Context) (int, storage.Metric, error) {
	s.cfgMu.RLock()
	if s.loaded {
		dim, metric := s.dimension, s.metric
		s.cfgMu.RUnlock()
		return dim, metric, nil
	}
	s.cfgMu.RUnlock()

	var (
		dim    int
		metric string
	)
	err := s.db.Conn().QueryRowContext(ctx,
		`SELECT dimension, metric FROM collections WHERE name = ?`, s.collection,
	).Scan(&dim, &metric)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", fmt.Errorf("%w: %s", storage.ErrCollectionNotFound, s.collection)
	}
	if err != nil {
		return 0, "", storage.Unavailable("load collection", err)
	}

	s.setConfig(dim, storage.Metric(metric))
	return dim, storage.Metric(metric), nil
}

func (s *PhraseStore) setConfig(dim int, metric storage.Metric) {
	s.cfgMu.Lock()
	s.dimension, s.metric, s.loaded = dim, metric, true
	s.cfgMu.Unlock()
}

func (s *PhraseStore) whereClause(filter storage.Filter) (string, []interface{}) {
	clauses := []string{"collection = ?"}
	args := []interface{}{s.collection}
	if filter.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, filter.Category)
	}
	return strings.Join(clauses, " AND "), args
}

func nextSeq(ctx context.Context, tx *sql.Tx, collection, userID string) (int64, error) {
	var next int64
	err := tx.QueryRowContext(ctx,
		`SELECT next_seq FROM user_sequences WHERE collection = ? AND user_id = ?`,
		collection, userID,
	).Scan(&next)
	if errors.Is(err, sql.ErrNoRows) {
		return 1, nil
	}
	return next, err
}

const phraseColumns = `user_id, seq, id, category, phrase, time_of_day, day_of_week,
		location, context_summary, embedding, degraded, created_at`

func scanPhrase(rows *sql.Rows) (*models.PhraseRecord, error) {
	var (
		rec       models.PhraseRecord
		id        int64
		blob      []byte
		degraded  int
		createdAt string
	)
	if err := rows.Scan(&rec.UserID, &rec.Seq, &id, &rec.Category, &rec.Phrase,
		&rec.TimeOfDay, &rec.DayOfWeek, &rec.Location, &rec.ContextSummary,
		&blob, &degraded, &createdAt); err != nil {
		return nil, err
	}

	rec.ID = uint64(id)
	rec.Embedding = blobToVector(blob)
	rec.Degraded = degraded != 0
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	rec.Timestamp = ts

	return &rec, nil
}

// vectorToBlob converts a float32 slice to a little-endian binary blob
func vectorToBlob(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// blobToVector converts a binary blob to a float32 slice
func blobToVector(blob []byte) []float32 {
	count := len(blob) / 4
	vector := make([]float32, count)
	for i := 0; i < count; i++ {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
