package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry_Order(t *testing.T) {
	r := DefaultRegistry()

	assert.Equal(t, []ProviderID{
		ProviderOpenAI,
		ProviderOpenRouter,
		ProviderGroq,
		ProviderAnthropic,
		ProviderGemini,
		ProviderDeepSeek,
		ProviderTogether,
		ProviderXAI,
	}, r.IDs())
}

func TestDefaultRegistry_Descriptors(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		id         ProviderID
		name       string
		model      string
		auth       AuthStyle
		wire       WireFormat
		prefix     string
		endpointIn string
	}{
		{ProviderOpenAI, "OpenAI", "gpt-4o-mini", AuthBearer, WireChat, "sk-", "api.openai.com"},
		{ProviderOpenRouter, "OpenRouter", "openai/gpt-4o-mini", AuthBearer, WireChat, "sk-or-", "openrouter.ai"},
		{ProviderGroq, "Groq", "llama-3.1-70b-versatile", AuthBearer, WireChat, "gsk_", "api.groq.com"},
		{ProviderAnthropic, "Anthropic (Claude)", "claude-3-haiku-20240307", AuthAPIKeyHeader, WireTurn, "sk-ant-", "api.anthropic.com"},
		{ProviderGemini, "Google Gemini", "gemini-1.5-flash", AuthQueryParameter, WireContent, "AI", "{model}:generateContent"},
		{ProviderDeepSeek, "DeepSeek", "deepseek-chat", AuthBearer, WireChat, "sk-", "api.deepseek.com"},
		{ProviderTogether, "Together.ai", "meta-llama/Llama-3-70b-chat-hf", AuthBearer, WireChat, "", "api.together.xyz"},
		{ProviderXAI, "xAI (Grok)", "grok-beta", AuthBearer, WireChat, "xai-", "api.x.ai"},
	}

	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			d, ok := r.Get(tt.id)
			require.True(t, ok)
			assert.Equal(t, tt.name, d.DisplayName)
			assert.Equal(t, tt.model, d.DefaultModel)
			assert.Equal(t, tt.auth, d.AuthStyle)
			assert.Equal(t, tt.wire, d.WireFormat)
			assert.Equal(t, tt.prefix, d.CredentialPrefix)
			assert.Contains(t, d.Endpoint, tt.endpointIn)
		})
	}
}

func TestRegistry_OpenRouterExtraHeaders(t *testing.T) {
	d, ok := DefaultRegistry().Get(ProviderOpenRouter)
	require.True(t, ok)

	assert.Equal(t, "chrome-extension://cover-letter-generator", d.ExtraHeaders["HTTP-Referer"])
	assert.Equal(t, "Cover Letter Generator", d.ExtraHeaders["X-Title"])
}

func TestRegistry_GetReturnsCopy(t *testing.T) {
	r := DefaultRegistry()
	d, _ := r.Get(ProviderOpenRouter)
	d.ExtraHeaders["X-Title"] = "mutated"
	d.Endpoint = "http://mutated"

	again, _ := r.Get(ProviderOpenRouter)
	assert.Equal(t, "Cover Letter Generator", again.ExtraHeaders["X-Title"])
	assert.Equal(t, "https://openrouter.ai/api/v1/chat/completions", again.Endpoint)
}

func TestRegistry_GetUnknown(t *testing.T) {
	_, ok := DefaultRegistry().Get("mystery")
	assert.False(t, ok)

	_, err := DefaultRegistry().Resolve("mystery")
	var unknown *UnknownProviderError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "mystery", unknown.Provider)
}

func TestNewRegistry_RejectsDuplicates(t *testing.T) {
	d := ProviderDescriptor{ID: "dup", Endpoint: "http://example.com", WireFormat: WireChat, AuthStyle: AuthBearer}

	_, err := NewRegistry(d, d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestNewRegistry_RejectsIncompleteDescriptors(t *testing.T) {
	_, err := NewRegistry(ProviderDescriptor{Endpoint: "http://example.com"})
	assert.Error(t, err)

	_, err = NewRegistry(ProviderDescriptor{ID: "noendpoint"})
	assert.Error(t, err)
}

func TestRegistry_List(t *testing.T) {
	list := DefaultRegistry().List()

	require.Len(t, list, 8)
	assert.Equal(t, ProviderSummary{ID: ProviderOpenAI, DisplayName: "OpenAI", DefaultModel: "gpt-4o-mini"}, list[0])
	assert.Equal(t, ProviderXAI, list[7].ID)
}

func TestRegistry_WithEndpoint(t *testing.T) {
	original := DefaultRegistry()

	updated, err := original.WithEndpoint(ProviderGroq, "http://localhost:9999/v1/chat")
	require.NoError(t, err)

	d, _ := updated.Get(ProviderGroq)
	assert.Equal(t, "http://localhost:9999/v1/chat", d.Endpoint)
	assert.Equal(t, original.IDs(), updated.IDs())

	unchanged, _ := original.Get(ProviderGroq)
	assert.Equal(t, "https://api.groq.com/openai/v1/chat/completions", unchanged.Endpoint)

	_, err = original.WithEndpoint("mystery", "http://x")
	assert.Error(t, err)

	_, err = original.WithEndpoint(ProviderGroq, "  ")
	assert.Error(t, err)
}

func TestRegistry_ValidateCredentialFormat(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		name       string
		provider   ProviderID
		credential string
		want       bool
	}{
		{"openai prefix", ProviderOpenAI, "sk-abc", true},
		{"openai wrong prefix", ProviderOpenAI, "gsk_abc", false},
		{"anthropic prefix", ProviderAnthropic, "sk-ant-xyz", true},
		{"gemini prefix", ProviderGemini, "AIzaSyabc", true},
		{"together long enough", ProviderTogether, "abcdefghijk", true},
		{"together exactly ten", ProviderTogether, "abcdefghij", false},
		{"unknown provider", "mystery", "sk-abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.ValidateCredentialFormat(tt.provider, tt.credential))
		})
	}
}
