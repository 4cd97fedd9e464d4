package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/symptom-checker/internal/config"
)

func TestOpenAIProviderGenerate(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"reasoning\":\"ok\"}"}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(srv.URL+"/", "secret", "gemini-2.5-flash")
	reply, err := p.Generate(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, `{"reasoning":"ok"}`, reply)
	assert.Equal(t, "gemini-2.5-flash", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "hello", got.Messages[0].Content)
	assert.Zero(t, got.Temperature)
	assert.Equal(t, "openai:gemini-2.5-flash", p.Name())
}

func TestOpenAIProviderErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"provider fault", http.StatusInternalServerError, `{"error":"boom"}`},
		{"quota", http.StatusTooManyRequests, `{"error":"quota"}`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"garbage body", http.StatusOK, `not json`},
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key","type":"invalid_request_error"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewOpenAIProvider(srv.URL, "k", "m").Generate(context.Background(), "p")
			require.Error(t, err)
		})
	}
}

func TestGeminiProviderGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "gemini-2.5-flash:generateContent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"a\":"},{"text":"1}"}]}}]}`))
	}))
	defer srv.Close()

	p, err := NewGeminiProvider(context.Background(), "k", "gemini-2.5-flash", srv.URL)
	require.NoError(t, err)

	reply, err := p.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, reply)
	assert.Equal(t, "gemini:gemini-2.5-flash", p.Name())
}

func TestGeminiProviderEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	p, err := NewGeminiProvider(context.Background(), "k", "gemini-2.5-flash", srv.URL)
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "hello")
	require.ErrorIs(t, err, ErrEmptyReply)
}

type slowGateway struct{}

func (slowGateway) Name() string { return "slow" }

func (slowGateway) Generate(ctx context.Context, prompt string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestWithTimeout(t *testing.T) {
	gw := WithTimeout(slowGateway{}, 20*time.Millisecond)
	_, err := gw.Generate(context.Background(), "p")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "slow", gw.Name())
}

func TestWithZeroTimeoutIsIdentity(t *testing.T) {
	gw := slowGateway{}
	assert.Equal(t, Gateway(gw), WithTimeout(gw, 0))
}

func TestNewSelectsProvider(t *testing.T) {
	gw, err := New(context.Background(), config.LLMConfig{
		Provider: config.ProviderOpenAI,
		Model:    "m",
		BaseURL:  "http://localhost",
		APIKey:   "k",
	})
	require.NoError(t, err)
	assert.Equal(t, "openai:m", gw.Name())

	_, err = New(context.Background(), config.LLMConfig{Provider: "other"})
	require.Error(t, err)
}
