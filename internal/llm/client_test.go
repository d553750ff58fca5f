package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registryWithEndpoint(t *testing.T, id ProviderID, endpoint string) *Registry {
	t.Helper()
	r, err := DefaultRegistry().WithEndpoint(id, endpoint)
	require.NoError(t, err)
	return r
}

func decodeJSONBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestClient_Call_ChatFormat(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sk-test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("x-api-key"))
		gotBody = decodeJSONBody(t, r)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"X"}}]}`))
	}))
	defer server.Close()

	client := NewClient(registryWithEndpoint(t, ProviderOpenAI, server.URL))
	text, err := client.Call(context.Background(), GenerationRequest{
		Provider:    ProviderOpenAI,
		Credential:  "sk-test-key",
		Messages:    []Message{System("be brief"), User("hello")},
		Temperature: 0.5,
	})

	require.NoError(t, err)
	assert.Equal(t, "X", text)
	assert.Equal(t, "gpt-4o-mini", gotBody["model"])
	assert.InDelta(t, 0.5, gotBody["temperature"], 1e-9)
	messages, ok := gotBody["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, map[string]any{"role": "system", "content": "be brief"}, messages[0])
	assert.Equal(t, map[string]any{"role": "user", "content": "hello"}, messages[1])
}

func TestClient_Call_OpenRouterExtraHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-or-key", r.Header.Get("Authorization"))
		assert.Equal(t, "chrome-extension://cover-letter-generator", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "Cover Letter Generator", r.Header.Get("X-Title"))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"routed"}}]}`))
	}))
	defer server.Close()

	client := NewClient(registryWithEndpoint(t, ProviderOpenRouter, server.URL))
	text, err := client.Call(context.Background(), GenerationRequest{
		Provider:   ProviderOpenRouter,
		Credential: "sk-or-key",
		Messages:   []Message{User("hi")},
	})

	require.NoError(t, err)
	assert.Equal(t, "routed", text)
}

func TestClient_Call_TurnFormat(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sk-ant-secret", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.Empty(t, r.Header.Get("Authorization"))
		gotBody = decodeJSONBody(t, r)
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Dear team"}]}`))
	}))
	defer server.Close()

	client := NewClient(registryWithEndpoint(t, ProviderAnthropic, server.URL))
	text, err := client.Call(context.Background(), GenerationRequest{
		Provider:   ProviderAnthropic,
		Credential: "sk-ant-secret",
		Messages: []Message{
			System("you write letters"),
			User("draft"),
			Assistant("ok"),
			System("second system"),
			User("again"),
		},
		Temperature: 0.3,
		Model:       "claude-custom",
	})

	require.NoError(t, err)
	assert.Equal(t, "Dear team", text)
	assert.Equal(t, "claude-custom", gotBody["model"])
	assert.EqualValues(t, 2048, gotBody["max_tokens"])
	assert.Equal(t, "you write letters", gotBody["system"])
	assert.InDelta(t, 0.3, gotBody["temperature"], 1e-9)

	messages, ok := gotBody["messages"].([]any)
	require.True(t, ok)
	assert.Equal(t, []any{
		map[string]any{"role": "user", "content": "draft"},
		map[string]any{"role": "assistant", "content": "ok"},
		map[string]any{"role": "user", "content": "again"},
	}, messages)
}

func TestClient_Call_TurnFormatWithoutSystem(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody = decodeJSONBody(t, r)
		_, _ = w.Write([]byte(`{"content":[{"text":"ok"}]}`))
	}))
	defer server.Close()

	client := NewClient(registryWithEndpoint(t, ProviderAnthropic, server.URL))
	_, err := client.Call(context.Background(), GenerationRequest{
		Provider:   ProviderAnthropic,
		Credential: "sk-ant-secret",
		Messages:   []Message{User("only user")},
	})

	require.NoError(t, err)
	_, hasSystem := gotBody["system"]
	assert.False(t, hasSystem)
}

func TestClient_Call_ContentFormat(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "AIzaSy key+with/odd=chars", r.URL.Query().Get("key"))
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("x-api-key"))
		gotBody = decodeJSONBody(t, r)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"gemini says hi"}]}}]}`))
	}))
	defer server.Close()

	registry := registryWithEndpoint(t, ProviderGemini, server.URL+"/v1beta/models/{model}:generateContent")
	client := NewClient(registry)
	text, err := client.Call(context.Background(), GenerationRequest{
		Provider:    ProviderGemini,
		Credential:  "AIzaSy key+with/odd=chars",
		Messages:    []Message{System("sys"), User("u1"), Assistant("a1")},
		Temperature: 0.1,
	})

	require.NoError(t, err)
	assert.Equal(t, "gemini says hi", text)

	contents, ok := gotBody["contents"].([]any)
	require.True(t, ok)
	require.Len(t, contents, 3)
	wantRoles := []string{"user", "user", "model"}
	wantTexts := []string{"sys", "u1", "a1"}
	for i, entry := range contents {
		m := entry.(map[string]any)
		assert.Equal(t, wantRoles[i], m["role"])
		parts := m["parts"].([]any)
		require.Len(t, parts, 1)
		assert.Equal(t, wantTexts[i], parts[0].(map[string]any)["text"])
	}

	cfg := gotBody["generationConfig"].(map[string]any)
	assert.InDelta(t, 0.1, cfg["temperature"], 1e-9)
	assert.EqualValues(t, 2048, cfg["maxOutputTokens"])
}

func TestClient_Call_MissingPathYieldsEmpty(t *testing.T) {
	tests := []struct {
		name     string
		provider ProviderID
		endpoint string
		body     string
	}{
		{"chat no choices", ProviderOpenAI, "", `{"choices":[]}`},
		{"chat empty object", ProviderGroq, "", `{}`},
		{"turn no content", ProviderAnthropic, "", `{"content":[]}`},
		{"content no candidates", ProviderGemini, "/{model}", `{"candidates":[]}`},
		{"content no parts", ProviderGemini, "/{model}", `{"candidates":[{"content":{"parts":[]}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(registryWithEndpoint(t, tt.provider, server.URL+tt.endpoint))
			text, err := client.Call(context.Background(), GenerationRequest{
				Provider:   tt.provider,
				Credential: "credential-value",
				Messages:   []Message{User("hi")},
			})

			require.NoError(t, err)
			assert.Equal(t, "", text)
		})
	}
}

func TestClient_Call_ProviderHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer server.Close()

	client := NewClient(registryWithEndpoint(t, ProviderGroq, server.URL))
	_, err := client.Call(context.Background(), GenerationRequest{
		Provider:   ProviderGroq,
		Credential: "gsk_bad",
		Messages:   []Message{User("hi")},
	})

	require.Error(t, err)
	var httpErr *ProviderHTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, "Groq", httpErr.Provider)
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.Equal(t, `{"error":"bad key"}`, httpErr.Body)
	assert.Contains(t, err.Error(), "Groq API error (401)")
}

func TestClient_Call_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>gateway</html>`))
	}))
	defer server.Close()

	client := NewClient(registryWithEndpoint(t, ProviderDeepSeek, server.URL))
	_, err := client.Call(context.Background(), GenerationRequest{
		Provider:   ProviderDeepSeek,
		Credential: "sk-deep",
		Messages:   []Message{User("hi")},
	})

	var malformed *MalformedResponseError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "DeepSeek", malformed.Provider)
}

func TestClient_Call_InvalidRequestNeverReachesNetwork(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(registryWithEndpoint(t, ProviderOpenAI, server.URL))

	tests := []struct {
		name  string
		req   GenerationRequest
		field string
	}{
		{
			name:  "missing credential",
			req:   GenerationRequest{Provider: ProviderOpenAI, Messages: []Message{User("hi")}},
			field: "Credential",
		},
		{
			name:  "no messages",
			req:   GenerationRequest{Provider: ProviderOpenAI, Credential: "sk-x"},
			field: "Messages",
		},
		{
			name:  "bad role",
			req:   GenerationRequest{Provider: ProviderOpenAI, Credential: "sk-x", Messages: []Message{{Role: "tool", Content: "x"}}},
			field: "Role",
		},
		{
			name:  "temperature above one",
			req:   GenerationRequest{Provider: ProviderOpenAI, Credential: "sk-x", Messages: []Message{User("hi")}, Temperature: 1.5},
			field: "Temperature",
		},
		{
			name:  "negative temperature",
			req:   GenerationRequest{Provider: ProviderOpenAI, Credential: "sk-x", Messages: []Message{User("hi")}, Temperature: -0.1},
			field: "Temperature",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Call(context.Background(), tt.req)
			var invalid *InvalidRequestError
			require.True(t, errors.As(err, &invalid), "got %v", err)
			assert.Contains(t, invalid.Field, tt.field)
		})
	}
	assert.Equal(t, int32(0), hits.Load())
}

func TestClient_Call_UnknownProvider(t *testing.T) {
	client := NewClient(nil)
	_, err := client.Call(context.Background(), GenerationRequest{
		Provider:   "mystery",
		Credential: "sk-x",
		Messages:   []Message{User("hi")},
	})

	var unknown *UnknownProviderError
	require.True(t, errors.As(err, &unknown))
}

func TestClient_Call_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(registryWithEndpoint(t, ProviderXAI, url))
	_, err := client.Call(context.Background(), GenerationRequest{
		Provider:   ProviderXAI,
		Credential: "xai-key",
		Messages:   []Message{User("hi")},
	})

	var transport *TransportError
	require.True(t, errors.As(err, &transport))
	assert.Equal(t, "xAI (Grok)", transport.Provider)
}

func TestClient_Call_TransportErrorRedactsQueryCredential(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(registryWithEndpoint(t, ProviderGemini, url+"/models/{model}:generateContent"))
	_, err := client.Call(context.Background(), GenerationRequest{
		Provider:   ProviderGemini,
		Credential: "AIzaSySecretValue",
		Messages:   []Message{User("hi")},
	})

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "AIzaSySecretValue")
	assert.Contains(t, err.Error(), "REDACTED")
}

func TestClient_Call_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(registryWithEndpoint(t, ProviderOpenAI, server.URL))
	_, err := client.Call(ctx, GenerationRequest{
		Provider:   ProviderOpenAI,
		Credential: "sk-x",
		Messages:   []Message{User("hi")},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestClient_CallAutoDetected(t *testing.T) {
	var anthropicHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		anthropicHits.Add(1)
		assert.Equal(t, "sk-ant-abc123", r.Header.Get("x-api-key"))
		_, _ = w.Write([]byte(`{"content":[{"text":"auto"}]}`))
	}))
	defer server.Close()

	client := NewClient(registryWithEndpoint(t, ProviderAnthropic, server.URL))
	text, err := client.CallAutoDetected(context.Background(), "sk-ant-abc123", []Message{User("hi")}, 0.5, "")

	require.NoError(t, err)
	assert.Equal(t, "auto", text)
	assert.Equal(t, int32(1), anthropicHits.Load())
}

func TestClient_TargetAndDetection(t *testing.T) {
	client := NewClient(nil)

	target, err := client.Target(ProviderDeepSeek, "sk-deep", "deepseek-reasoner")
	require.NoError(t, err)
	assert.Equal(t, Target{Provider: ProviderDeepSeek, Credential: "sk-deep", Model: "deepseek-reasoner"}, target)

	_, err = client.Target("mystery", "x", "")
	assert.Error(t, err)

	auto := client.AutoTarget("gsk_123456", "")
	assert.Equal(t, ProviderGroq, auto.Provider)

	req := auto.Request([]Message{User("x")}, 0.2)
	assert.Equal(t, ProviderGroq, req.Provider)
	assert.Equal(t, "gsk_123456", req.Credential)
	assert.InDelta(t, 0.2, req.Temperature, 1e-9)

	assert.Equal(t, "Anthropic (Claude)", client.DetectProviderName("sk-ant-zzz"))
	assert.Equal(t, "OpenAI", client.DetectProviderName("abc"))
}

func TestResolveEndpoint(t *testing.T) {
	r := DefaultRegistry()
	gemini, _ := r.Get(ProviderGemini)
	openai, _ := r.Get(ProviderOpenAI)

	assert.Equal(t,
		"https://generativelanguage.googleapis.com/v1beta/models/gemini-pro:generateContent?key=AIza%26x",
		resolveEndpoint(gemini, "gemini-pro", "AIza&x"))
	assert.Equal(t, openai.Endpoint, resolveEndpoint(openai, "gpt-4o", "sk-x"))

	gemini.Endpoint = "http://proxy/{model}?alt=json"
	assert.Equal(t, "http://proxy/m?alt=json&key=k", resolveEndpoint(gemini, "m", "k"))
}
