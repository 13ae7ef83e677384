package data

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scamdefender/sheriff/internal/biz/repo"
)

func TestOllamaGenerate(t *testing.T) {
	var got ollamaGenerateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]any{"response": "SAFE", "done": true})
	}))
	defer srv.Close()

	backend := NewOllamaRepo(srv.URL, BackendOptions{}, zap.NewNop())
	out, err := backend.Generate(context.Background(), repo.GenerateRequest{
		Model:       "vision",
		Prompt:      "describe",
		Temperature: repo.Temperature(0),
		Images:      [][]byte{[]byte("png-bytes")},
	})
	require.NoError(t, err)
	assert.Equal(t, "SAFE", out)

	assert.Equal(t, "vision", got.Model)
	assert.Equal(t, "describe", got.Prompt)
	assert.False(t, got.Stream)
	require.NotNil(t, got.Options)
	require.NotNil(t, got.Options.Temperature)
	assert.Equal(t, float32(0), *got.Options.Temperature)
	assert.Equal(t, []string{base64.StdEncoding.EncodeToString([]byte("png-bytes"))}, got.Images)
}

func TestOllamaGenerate_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	backend := NewOllamaRepo(srv.URL, BackendOptions{}, zap.NewNop())
	_, err := backend.Generate(context.Background(), repo.GenerateRequest{Model: "m", Prompt: "p"})

	var statusErr *repo.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
}

func TestOllamaGenerate_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	backend := NewOllamaRepo(url, BackendOptions{}, zap.NewNop()).(*ollamaRepo)
	backend.client.RetryMax = 0
	_, err := backend.Generate(context.Background(), repo.GenerateRequest{Model: "m", Prompt: "p"})
	require.Error(t, err)

	var statusErr *repo.StatusError
	assert.False(t, errors.As(err, &statusErr))
}

func TestOpenAIGenerate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": "UNSAFE: spam"}}},
		})
	}))
	defer srv.Close()

	backend := NewOpenAIRepo("key", srv.URL, BackendOptions{}, zap.NewNop())
	out, err := backend.Generate(context.Background(), repo.GenerateRequest{Model: "gpt", Prompt: "classify"})
	require.NoError(t, err)
	assert.Equal(t, "UNSAFE: spam", out)
	assert.Equal(t, "gpt", got["model"])
}

func TestOpenAIGenerate_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	backend := NewOpenAIRepo("key", srv.URL, BackendOptions{}, zap.NewNop())
	_, err := backend.Generate(context.Background(), repo.GenerateRequest{Model: "gpt", Prompt: "classify"})

	var statusErr *repo.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
}

func TestGuard_BreakerOpensOnTransportErrors(t *testing.T) {
	g := newGuard("test", BackendOptions{}, zap.NewNop())
	boom := errors.New("connection refused")

	for i := 0; i < 5; i++ {
		_, err := g.do(context.Background(), func(ctx context.Context) (string, error) { return "", boom })
		assert.ErrorIs(t, err, boom)
	}

	calls := 0
	_, err := g.do(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "SAFE", nil
	})
	require.Error(t, err)
	assert.Equal(t, 0, calls)
}

func TestGuard_StatusErrorsKeepBreakerClosed(t *testing.T) {
	g := newGuard("test", BackendOptions{}, zap.NewNop())
	for i := 0; i < 10; i++ {
		g.do(context.Background(), func(ctx context.Context) (string, error) {
			return "", &repo.StatusError{Code: 500}
		})
	}

	out, err := g.do(context.Background(), func(ctx context.Context) (string, error) { return "SAFE", nil })
	require.NoError(t, err)
	assert.Equal(t, "SAFE", out)
}
