// ABOUTME: Phrase memory store contract shared by the SQLite and Qdrant backends
// ABOUTME: Defines the collection schema, filters, and the typed error taxonomy
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harper/echomind/internal/models"
)

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "echomind_phrases"

// Metric is the distance function a collection is configured with.
type Metric string

const (
	MetricCosine Metric = "cosine"
	MetricDot    Metric = "dot"
	MetricEuclid Metric = "euclid"
)

// Valid reports whether m is a supported metric.
func (m Metric) Valid() bool {
	return m == MetricCosine || m == MetricDot || m == MetricEuclid
}

// ParseMetric converts a configuration string to a Metric.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(strings.ToLower(strings.TrimSpace(s))); m {
	case MetricCosine, MetricDot, MetricEuclid:
		return m, nil
	case "":
		return MetricCosine, nil
	}
	return "", fmt.Errorf("unknown distance metric %q", s)
}

// Filter selects records by exact metadata equality. Empty fields match anything.
type Filter struct {
	UserID   string
	Category string
}

// PhraseStore is durable append-only storage of phrase records with
// per-user similarity search. Every I/O failure is reported as
// ErrStoreUnavailable; implementations never swallow errors.
type PhraseStore interface {
	// EnsureCollection creates the collection, or verifies that an existing
	// one has the same dimension and metric.
	EnsureCollection(ctx context.Context, dimension int, metric Metric) error

	// Insert stores rec, assigning its per-user sequence, id and timestamp
	// when unset, and returns the stored copy.
	Insert(ctx context.Context, rec *models.PhraseRecord) (*models.PhraseRecord, error)

	// SearchByVector returns up to limit records of userID ordered by
	// descending similarity to query. Degraded records are never ranked.
	SearchByVector(ctx context.Context, query []float32, userID string, limit int) ([]models.ScoredRecord, error)

	// ScanByFilter returns up to limit records matching filter.
	ScanByFilter(ctx context.Context, filter Filter, limit int) ([]models.PhraseRecord, error)

	// Count returns the number of records matching filter.
	Count(ctx context.Context, filter Filter) (int, error)

	Close() error
}

var (
	ErrSchemaMismatch     = errors.New("schema mismatch")
	ErrDimensionMismatch  = errors.New("dimension mismatch")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrInvalidRecord      = errors.New("invalid record")
)

// SchemaMismatchError reports an existing collection whose configuration
// differs from the one requested.
type SchemaMismatchError struct {
	Collection    string
	WantDimension int
	WantMetric    Metric
	GotDimension  int
	GotMetric     Metric
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("collection %q exists with dimension %d/%s, requested %d/%s",
		e.Collection, e.GotDimension, e.GotMetric, e.WantDimension, e.WantMetric)
}

func (e *SchemaMismatchError) Unwrap() error { return ErrSchemaMismatch }

// DimensionMismatchError reports a vector whose length differs from the
// collection dimension.
type DimensionMismatchError struct {
	Expected int
	Got      int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector has dimension %d, collection expects %d", e.Got, e.Expected)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }

// Unavailable wraps an underlying I/O error so that it matches ErrStoreUnavailable.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// CheckDimension returns a DimensionMismatchError when len(vec) != dim.
func CheckDimension(vec []float32, dim int) error {
	if len(vec) != dim {
		return &DimensionMismatchError{Expected: dim, Got: len(vec)}
	}
	return nil
}

// ValidateRecord checks the fields every backend requires before insert.
func ValidateRecord(rec *models.PhraseRecord) error {
	switch {
	case rec == nil:
		return fmt.Errorf("%w: nil record", ErrInvalidRecord)
	case rec.UserID == "":
		return fmt.Errorf("%w: user id is required", ErrInvalidRecord)
	case strings.TrimSpace(rec.Phrase) == "":
		return fmt.Errorf("%w: phrase is required", ErrInvalidRecord)
	}
	return nil
}
