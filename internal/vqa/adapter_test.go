package vqa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seesound/backend/pkg/config"
)

func testConfig(apiKey, baseURL string) config.VQAConfig {
	return config.VQAConfig{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		Model:      "test-vision-model",
		MaxTokens:  64,
		TimeoutSec: 5,
	}
}

// fakeModelServer speaks just enough of the OpenAI-compatible API for the
// adapter: model retrieval for Init, chat completions for Answer.
func fakeModelServer(t *testing.T, answer string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/models/test-vision-model", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "test-vision-model",
			"object": "model",
		})
	})
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": answer},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	})

	return httptest.NewServer(mux)
}

func TestAdapter_NotReadyWhenUnconfigured(t *testing.T) {
	a := NewAdapter(testConfig("", ""))

	require.False(t, a.Ready())
	require.Equal(t, "disabled", a.Device())

	err := a.Init(context.Background())
	require.ErrorIs(t, err, ErrNotReady)

	_, err = a.Answer(context.Background(), []byte{0x01}, "what is this?")
	require.ErrorIs(t, err, ErrNotReady)
}

func TestAdapter_NotReadyBeforeInit(t *testing.T) {
	upstream := fakeModelServer(t, "a red door")
	defer upstream.Close()

	a := NewAdapter(testConfig("test-key", upstream.URL))
	require.False(t, a.Ready())

	_, err := a.Answer(context.Background(), []byte{0x01}, "what is in front of me?")
	require.ErrorIs(t, err, ErrNotReady)
}

func TestAdapter_InitAndAnswer(t *testing.T) {
	upstream := fakeModelServer(t, "a red door")
	defer upstream.Close()

	a := NewAdapter(testConfig("test-key", upstream.URL))

	require.NoError(t, a.Init(context.Background()))
	require.True(t, a.Ready())
	require.Equal(t, "remote:test-vision-model", a.Device())

	answer, err := a.Answer(context.Background(), []byte{0x89, 0x50, 0x4e, 0x47}, "what is in front of me?")
	require.NoError(t, err)
	require.Equal(t, "a red door", answer)
}

func TestAdapter_InitFailureStaysNotReady(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "no such model"}}`, http.StatusNotFound)
	}))
	defer upstream.Close()

	a := NewAdapter(testConfig("test-key", upstream.URL))

	require.Error(t, a.Init(context.Background()))
	require.False(t, a.Ready())
}
