package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func embedServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func okResponse(texts []string) embedResponse {
	var resp embedResponse
	for i := range texts {
		resp.Data = append(resp.Data, struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}{Embedding: []float32{float32(i), 1}, Index: i})
	}
	return resp
}

func TestClient_SendsAuthAndModel(t *testing.T) {
	var gotAuth, gotPath string
	var gotReq embedRequest
	srv := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(okResponse(gotReq.Input))
	})

	c := NewClient(ClientConfig{BaseURL: srv.URL, APIKey: "sk-test", Model: "embed-small", Dimensions: 2})
	if _, err := c.Embed(context.Background(), "hello world"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotPath != "/embeddings" {
		t.Errorf("path = %q", gotPath)
	}
	if gotReq.Model != "embed-small" || len(gotReq.Input) != 1 {
		t.Errorf("request = %+v", gotReq)
	}
}

func TestClient_ReordersByIndex(t *testing.T) {
	srv := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		json.NewDecoder(r.Body).Decode(&req)
		// Reply in reverse order; index is authoritative.
		resp := okResponse(req.Input)
		for i, j := 0, len(resp.Data)-1; i < j; i, j = i+1, j-1 {
			resp.Data[i], resp.Data[j] = resp.Data[j], resp.Data[i]
		}
		json.NewEncoder(w).Encode(resp)
	})

	c := NewClient(ClientConfig{BaseURL: srv.URL, APIKey: "k", Model: "m", Dimensions: 2})
	vectors, err := c.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range vectors {
		if v[0] != float32(i) {
			t.Errorf("vector %d = %v, out of order", i, v)
		}
	}
}

func TestClient_ChunksLargeBatches(t *testing.T) {
	var sizes []int
	srv := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		json.NewDecoder(r.Body).Decode(&req)
		sizes = append(sizes, len(req.Input))
		json.NewEncoder(w).Encode(okResponse(req.Input))
	})

	c := NewClient(ClientConfig{BaseURL: srv.URL, APIKey: "k", Model: "m", Dimensions: 2})
	texts := make([]string, 250)
	for i := range texts {
		texts[i] = fmt.Sprintf("text %d", i)
	}
	vectors, err := c.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vectors) != 250 {
		t.Fatalf("got %d vectors", len(vectors))
	}
	want := []int{100, 100, 50}
	if len(sizes) != 3 {
		t.Fatalf("request sizes = %v, want %v", sizes, want)
	}
	for i, n := range want {
		if sizes[i] != n {
			t.Errorf("request %d carried %d texts, want %d", i, sizes[i], n)
		}
	}
}

func TestClient_SurfacesProviderErrors(t *testing.T) {
	srv := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key"}}`))
	})

	c := NewClient(ClientConfig{BaseURL: srv.URL, APIKey: "bad", Model: "m", Dimensions: 2})
	_, err := c.Embed(context.Background(), "text")
	if err == nil {
		t.Fatal("expected error")
	}
	// Status and body pass through so auth failures are diagnosable.
	if got := err.Error(); !strings.Contains(got, "401") || !strings.Contains(got, "bad key") {
		t.Errorf("error = %q", got)
	}
}

func TestClient_VectorCountMismatch(t *testing.T) {
	srv := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(okResponse([]string{"only one"}))
	})

	c := NewClient(ClientConfig{BaseURL: srv.URL, APIKey: "k", Model: "m", Dimensions: 2})
	if _, err := c.EmbedBatch(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected mismatch error")
	}
}

func TestClient_DisabledWithoutKey(t *testing.T) {
	c := NewClient(ClientConfig{BaseURL: "http://unused", Model: "m", Dimensions: 2})
	_, err := c.Embed(context.Background(), "text")
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("got %v, want ErrDisabled", err)
	}
	_, err = c.EmbedBatch(context.Background(), []string{"a"})
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("got %v, want ErrDisabled", err)
	}
}

func TestClient_EmptyBatch(t *testing.T) {
	c := NewClient(ClientConfig{BaseURL: "http://unused", APIKey: "k", Model: "m", Dimensions: 2})
	vectors, err := c.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vectors != nil {
		t.Fatalf("vectors = %v, want nil", vectors)
	}
}
