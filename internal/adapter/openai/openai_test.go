package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashboard/internal/adapter/openai"
	"dashboard/internal/app"
)

var defaults = openai.Defaults{Model: "gpt-3.5-turbo", MaxTokens: 1000, Temperature: 0.7, ImageSize: "512x512"}

func TestClient_CompleteTextAppliesDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-3.5-turbo", body["model"])
		assert.Equal(t, float64(1000), body["max_tokens"])
		assert.Equal(t, 0.7, body["temperature"])

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"文案"}}]}`))
	}))
	defer srv.Close()

	c := openai.New(srv.URL, "sk-test", defaults, time.Second)
	got, err := c.CompleteText(context.Background(), app.TextParams{
		Messages: []app.ChatMessage{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "文案", got)
}

func TestClient_CreateImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/generations", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(1), body["n"])
		assert.Equal(t, "512x512", body["size"])
		assert.Equal(t, "url", body["response_format"])

		_, _ = w.Write([]byte(`{"data":[{"url":"https://img.example/1.png"}]}`))
	}))
	defer srv.Close()

	c := openai.New(srv.URL+"/", "sk-test", defaults, time.Second)
	got, err := c.CreateImage(context.Background(), app.ImageParams{Prompt: "shoe"})
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/1.png", got)
}

func TestClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	c := openai.New(srv.URL, "sk-test", defaults, time.Second)
	_, err := c.CompleteText(context.Background(), app.TextParams{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "rate limited"), err.Error())
}

func TestClient_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := openai.New(srv.URL, "sk-test", defaults, time.Second)
	_, err := c.CompleteText(context.Background(), app.TextParams{})
	assert.Error(t, err)
}
