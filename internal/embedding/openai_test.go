// ABOUTME: Tests for the OpenAI embedding provider against an httptest server
// ABOUTME: Covers success, HTTP failure, empty data, wrong dimension, and single-attempt behavior
package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

type embeddingServer struct {
	calls   atomic.Int32
	status  int
	vectors [][]float32
	lastReq map[string]interface{}
}

func (s *embeddingServer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&s.lastReq)

		if s.status != 0 {
			w.WriteHeader(s.status)
			_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`))
			return
		}

		data := make([]map[string]interface{}, 0, len(s.vectors))
		for i, v := range s.vectors {
			data = append(data, map[string]interface{}{"object": "embedding", "index": i, "embedding": v})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"object": "list",
			"data":   data,
			"model":  "text-embedding-3-small",
			"usage":  map[string]int{"prompt_tokens": 3, "total_tokens": 3},
		})
	}
}

func newTestProvider(t *testing.T, srv *embeddingServer, dims int, requestDims bool) *OpenAIProvider {
	t.Helper()
	ts := httptest.NewServer(srv.handler(t))
	t.Cleanup(ts.Close)

	p, err := NewOpenAI(OpenAIConfig{
		APIKey:            "test-key",
		BaseURL:           ts.URL + "/v1",
		Dimensions:        dims,
		RequestDimensions: requestDims,
	}, nil)
	if err != nil {
		t.Fatalf("NewOpenAI() error = %v", err)
	}
	return p
}

func TestOpenAIProvider_Success(t *testing.T) {
	srv := &embeddingServer{vectors: [][]float32{{0.1, 0.2, 0.3}}}
	p := newTestProvider(t, srv, 3, true)

	vec, ok := p.Embed(context.Background(), "Category: Feelings & Sensory")
	if !ok {
		t.Fatal("Embed() degraded")
	}
	if len(vec) != 3 || vec[1] != 0.2 {
		t.Errorf("vec = %v", vec)
	}
	if got := srv.lastReq["model"]; got != DefaultModel {
		t.Errorf("model = %v, want %s", got, DefaultModel)
	}
	if got := srv.lastReq["dimensions"]; got != float64(3) {
		t.Errorf("dimensions = %v, want 3", got)
	}
}

func TestOpenAIProvider_OmitsDimensionsByDefault(t *testing.T) {
	srv := &embeddingServer{vectors: [][]float32{{1, 0}}}
	p := newTestProvider(t, srv, 2, false)

	if _, ok := p.Embed(context.Background(), "x"); !ok {
		t.Fatal("Embed() degraded")
	}
	if _, present := srv.lastReq["dimensions"]; present {
		t.Error("dimensions sent without RequestDimensions")
	}
}

func TestOpenAIProvider_Degrades(t *testing.T) {
	tests := []struct {
		name string
		srv  *embeddingServer
	}{
		{"quota error", &embeddingServer{status: http.StatusTooManyRequests}},
		{"server error", &embeddingServer{status: http.StatusInternalServerError}},
		{"empty data", &embeddingServer{vectors: [][]float32{}}},
		{"wrong dimension", &embeddingServer{vectors: [][]float32{{1, 2}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, tt.srv, 3, false)
			vec, ok := p.Embed(context.Background(), "x")
			if ok || vec != nil {
				t.Errorf("Embed() = %v, %v; want degraded", vec, ok)
			}
			if n := tt.srv.calls.Load(); n != 1 {
				t.Errorf("server called %d times, want exactly 1", n)
			}
		})
	}
}

func TestNewOpenAI_Defaults(t *testing.T) {
	if _, err := NewOpenAI(OpenAIConfig{}, nil); err == nil {
		t.Error("expected error without API key")
	}

	p, err := NewOpenAI(OpenAIConfig{APIKey: "k"}, nil)
	if err != nil {
		t.Fatalf("NewOpenAI() error = %v", err)
	}
	if p.Dimensions() != DefaultDimensions {
		t.Errorf("Dimensions() = %d, want %d", p.Dimensions(), DefaultDimensions)
	}
	if p.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", p.timeout, DefaultTimeout)
	}
}
