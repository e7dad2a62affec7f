package embedder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

const testDim = 4

func embedServer(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Model == "" || req.Prompt == "" {
			t.Error("request missing model or prompt")
		}
		vec := make([]float32, testDim)
		for i := range vec {
			vec[i] = float32(len(req.Prompt)) + float32(i)
		}
		json.NewEncoder(w).Encode(map[string]any{"embedding": vec})
	}))
}

type memCache struct {
	data map[string][]float32
}

func (m *memCache) GetCachedEmbedding(model, text string) ([]float32, error) {
	return m.data[model+":"+text], nil
}

func (m *memCache) PutCachedEmbedding(model, text string, vector []float32) error {
	m.data[model+":"+text] = vector
	return nil
}

func TestEmbedReturnsVector(t *testing.T) {
	var calls atomic.Int64
	srv := embedServer(t, &calls)
	defer srv.Close()

	o := NewOllamaClient(srv.URL, "test-model", testDim)
	vec, err := o.Embed(context.Background(), "def f(): pass")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != testDim {
		t.Errorf("vector length = %d", len(vec))
	}
}

func TestBlankTextSkipsNetwork(t *testing.T) {
	var calls atomic.Int64
	srv := embedServer(t, &calls)
	defer srv.Close()

	o := NewOllamaClient(srv.URL, "test-model", testDim)
	vec, err := o.Embed(context.Background(), "   \n\t ")
	if err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 0 {
		t.Error("blank text hit the endpoint")
	}
	for _, f := range vec {
		if f != 0 {
			t.Errorf("blank text vector not zero: %v", vec)
			break
		}
	}
}

func TestCacheAvoidsRepeatCalls(t *testing.T) {
	var calls atomic.Int64
	srv := embedServer(t, &calls)
	defer srv.Close()

	cache := &memCache{data: map[string][]float32{}}
	o := NewOllamaClient(srv.URL, "test-model", testDim, WithCache(cache))

	if _, err := o.Embed(context.Background(), "same text"); err != nil {
		t.Fatal(err)
	}
	if _, err := o.Embed(context.Background(), "same text"); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 1 {
		t.Errorf("endpoint called %d times, want 1", calls.Load())
	}
}

func TestRetriesThenFails(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	o := NewOllamaClient(srv.URL, "test-model", testDim)
	if _, err := o.Embed(context.Background(), "text"); err == nil {
		t.Fatal("expected error from failing endpoint")
	}
	if calls.Load() != maxRetries {
		t.Errorf("endpoint called %d times, want %d", calls.Load(), maxRetries)
	}
}

func TestEmbedBatchKeepsOrder(t *testing.T) {
	var calls atomic.Int64
	srv := embedServer(t, &calls)
	defer srv.Close()

	o := NewOllamaClient(srv.URL, "test-model", testDim, WithConcurrency(2))
	texts := []string{"a", "bb", "ccc", "dddd"}
	vectors, err := o.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatal(err)
	}
	if len(vectors) != len(texts) {
		t.Fatalf("got %d vectors", len(vectors))
	}
	for i, text := range texts {
		// The stub encodes prompt length into the vector's first element.
		if vectors[i][0] != float32(len(text)) {
			t.Errorf("vector %d out of order: %v", i, vectors[i])
		}
	}
}
