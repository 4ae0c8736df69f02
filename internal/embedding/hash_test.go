// ABOUTME: Tests for the hash and degraded embedding providers
// ABOUTME: Checks determinism, normalization, and the degradation contract
package embedding

import (
	"context"
	"math"
	"testing"
)

func TestHashProvider_Deterministic(t *testing.T) {
	p := NewHash(32)
	ctx := context.Background()

	a, ok := p.Embed(ctx, "Category: Body & Needs. Time of day: morning")
	if !ok {
		t.Fatal("hash provider should never degrade")
	}
	b, _ := p.Embed(ctx, "Category: Body & Needs. Time of day: morning")
	c, _ := p.Embed(ctx, "Category: Help & Safety. Time of day: evening")

	if len(a) != 32 {
		t.Fatalf("len = %d, want 32", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("equal texts produced different vectors")
		}
	}

	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different texts produced identical vectors")
	}
}

func TestHashProvider_UnitLength(t *testing.T) {
	vec, _ := NewHash(64).Embed(context.Background(), "hello")

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(sum)-1) > 1e-4 {
		t.Errorf("norm = %v, want 1", math.Sqrt(sum))
	}
}

func TestHashProvider_DefaultDimensions(t *testing.T) {
	if got := NewHash(0).Dimensions(); got != DefaultHashDimensions {
		t.Errorf("Dimensions() = %d, want %d", got, DefaultHashDimensions)
	}
}

func TestDegradedProvider(t *testing.T) {
	p := NewDegraded(8)
	vec, ok := p.Embed(context.Background(), "anything")
	if ok || vec != nil {
		t.Errorf("Embed() = %v, %v; want nil, false", vec, ok)
	}
	if p.Dimensions() != 8 {
		t.Errorf("Dimensions() = %d, want 8", p.Dimensions())
	}
}
