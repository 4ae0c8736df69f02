// ABOUTME: Vector helpers shared by store backends
// ABOUTME: Similarity scoring per metric, zero-vector detection, and deterministic point ids
package storage

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/google/uuid"
)

// pointNamespace scopes the UUIDv5 ids derived for phrase records.
var pointNamespace = uuid.MustParse("6f1c3a52-8d0e-4f6b-9a57-2b1e7c0d4e91")

// PointID derives a record id from the owning user and that user's sequence
// number. The user id is part of the hashed key, so equal sequence numbers of
// different users do not share an id. The top bit is cleared so the id fits
// a signed 64-bit column.
func PointID(userID string, seq int64) uint64 {
	key := userID + "\x00" + strconv.FormatInt(seq, 10)
	u := uuid.NewSHA1(pointNamespace, []byte(key))
	return binary.BigEndian.Uint64(u[:8]) &^ (1 << 63)
}

// ZeroVector returns the all-zero vector stored when embedding degraded.
func ZeroVector(dim int) []float32 {
	return make([]float32, dim)
}

// IsZeroVector reports whether every component of v is zero.
func IsZeroVector(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Score computes "higher is more alike" similarity of a and b under metric.
// Euclidean distance is negated to keep that ordering.
func Score(metric Metric, a, b []float32) float64 {
	switch metric {
	case MetricDot:
		return dot(a, b)
	case MetricEuclid:
		return -euclidean(a, b)
	default:
		return CosineSimilarity(a, b)
	}
}

// CosineSimilarity returns 0 for mismatched lengths or zero-norm inputs.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dotProduct += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := 0; i < min(len(a), len(b)); i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func euclidean(a, b []float32) float64 {
	var sum float64
	for i := 0; i < min(len(a), len(b)); i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
