package llm

import (
	"fmt"
	"strings"
)

// ProviderDescriptor describes how to reach one provider. Descriptors are
// values; a Registry hands out copies so callers cannot mutate its table.
type ProviderDescriptor struct {
	ID               ProviderID
	DisplayName      string
	Endpoint         string
	DefaultModel     string
	CredentialPrefix string
	AuthStyle        AuthStyle
	WireFormat       WireFormat
	ExtraHeaders     map[string]string
}

// ProviderSummary is the listing view of a descriptor.
type ProviderSummary struct {
	ID           ProviderID `json:"id"`
	DisplayName  string     `json:"name"`
	DefaultModel string     `json:"model"`
}

// Registry is an immutable, ordered set of provider descriptors.
type Registry struct {
	order []ProviderID
	byID  map[ProviderID]ProviderDescriptor
}

// NewRegistry builds a registry from descriptors in declaration order.
func NewRegistry(descriptors ...ProviderDescriptor) (*Registry, error) {
	r := &Registry{
		order: make([]ProviderID, 0, len(descriptors)),
		byID:  make(map[ProviderID]ProviderDescriptor, len(descriptors)),
	}
	for _, d := range descriptors {
		if d.ID == "" {
			return nil, fmt.Errorf("provider descriptor is missing an id")
		}
		if _, dup := r.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate provider id %q", d.ID)
		}
		if d.Endpoint == "" {
			return nil, fmt.Errorf("provider %q has no endpoint", d.ID)
		}
		r.order = append(r.order, d.ID)
		r.byID[d.ID] = cloneDescriptor(d)
	}
	return r, nil
}

// DefaultRegistry returns a fresh registry holding the built-in providers.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(defaultDescriptors()...)
	if err != nil {
		// the built-in table is static; a failure here is a programming error
		panic(err)
	}
	return r
}

func defaultDescriptors() []ProviderDescriptor {
	return []ProviderDescriptor{
		{
			ID:               ProviderOpenAI,
			DisplayName:      "OpenAI",
			Endpoint:         "https://api.openai.com/v1/chat/completions",
			DefaultModel:     "gpt-4o-mini",
			CredentialPrefix: "sk-",
			AuthStyle:        AuthBearer,
			WireFormat:       WireChat,
		},
		{
			ID:               ProviderOpenRouter,
			DisplayName:      "OpenRouter",
			Endpoint:         "https://openrouter.ai/api/v1/chat/completions",
			DefaultModel:     "openai/gpt-4o-mini",
			CredentialPrefix: "sk-or-",
			AuthStyle:        AuthBearer,
			WireFormat:       WireChat,
			ExtraHeaders: map[string]string{
				"HTTP-Referer": "chrome-extension://cover-letter-generator",
				"X-Title":      "Cover Letter Generator",
			},
		},
		{
			ID:               ProviderGroq,
			DisplayName:      "Groq",
			Endpoint:         "https://api.groq.com/openai/v1/chat/completions",
			DefaultModel:     "llama-3.1-70b-versatile",
			CredentialPrefix: "gsk_",
			AuthStyle:        AuthBearer,
			WireFormat:       WireChat,
		},
		{
			ID:               ProviderAnthropic,
			DisplayName:      "Anthropic (Claude)",
			Endpoint:         "https://api.anthropic.com/v1/messages",
			DefaultModel:     "claude-3-haiku-20240307",
			CredentialPrefix: "sk-ant-",
			AuthStyle:        AuthAPIKeyHeader,
			WireFormat:       WireTurn,
		},
		{
			ID:               ProviderGemini,
			DisplayName:      "Google Gemini",
			Endpoint:         "https://generativelanguage.googleapis.com/v1beta/models/{model}:generateContent",
			DefaultModel:     "gemini-1.5-flash",
			CredentialPrefix: "AI",
			AuthStyle:        AuthQueryParameter,
			WireFormat:       WireContent,
		},
		{
			ID:               ProviderDeepSeek,
			DisplayName:      "DeepSeek",
			Endpoint:         "https://api.deepseek.com/chat/completions",
			DefaultModel:     "deepseek-chat",
			CredentialPrefix: "sk-",
			AuthStyle:        AuthBearer,
			WireFormat:       WireChat,
		},
		{
			ID:           ProviderTogether,
			DisplayName:  "Together.ai",
			Endpoint:     "https://api.together.xyz/v1/chat/completions",
			DefaultModel: "meta-llama/Llama-3-70b-chat-hf",
			AuthStyle:    AuthBearer,
			WireFormat:   WireChat,
		},
		{
			ID:               ProviderXAI,
			DisplayName:      "xAI (Grok)",
			Endpoint:         "https://api.x.ai/v1/chat/completions",
			DefaultModel:     "grok-beta",
			CredentialPrefix: "xai-",
			AuthStyle:        AuthBearer,
			WireFormat:       WireChat,
		},
	}
}

// Get returns the descriptor for id.
func (r *Registry) Get(id ProviderID) (ProviderDescriptor, bool) {
	d, ok := r.byID[id]
	if !ok {
		return ProviderDescriptor{}, false
	}
	return cloneDescriptor(d), true
}

// Resolve returns the descriptor for id or an *UnknownProviderError.
func (r *Registry) Resolve(id ProviderID) (ProviderDescriptor, error) {
	d, ok := r.Get(id)
	if !ok {
		return ProviderDescriptor{}, &UnknownProviderError{Provider: string(id)}
	}
	return d, nil
}

// IDs returns provider ids in declaration order.
func (r *Registry) IDs() []ProviderID {
	ids := make([]ProviderID, len(r.order))
	copy(ids, r.order)
	return ids
}

// List returns a summary of every provider in declaration order.
func (r *Registry) List() []ProviderSummary {
	out := make([]ProviderSummary, 0, len(r.order))
	for _, id := range r.order {
		d := r.byID[id]
		out = append(out, ProviderSummary{ID: d.ID, DisplayName: d.DisplayName, DefaultModel: d.DefaultModel})
	}
	return out
}

// WithEndpoint returns a copy of the registry with one provider's endpoint replaced.
func (r *Registry) WithEndpoint(id ProviderID, endpoint string) (*Registry, error) {
	if _, ok := r.byID[id]; !ok {
		return nil, &UnknownProviderError{Provider: string(id)}
	}
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("endpoint for provider %q must not be empty", id)
	}
	descriptors := make([]ProviderDescriptor, 0, len(r.order))
	for _, existing := range r.order {
		d := r.byID[existing]
		if existing == id {
			d.Endpoint = endpoint
		}
		descriptors = append(descriptors, d)
	}
	return NewRegistry(descriptors...)
}

// ValidateCredentialFormat reports whether credential looks like a key for provider id.
// Providers without a prefix accept any credential longer than 10 characters.
func (r *Registry) ValidateCredentialFormat(id ProviderID, credential string) bool {
	d, ok := r.byID[id]
	if !ok {
		return false
	}
	if d.CredentialPrefix == "" {
		return len(credential) > 10
	}
	return strings.HasPrefix(credential, d.CredentialPrefix)
}

func cloneDescriptor(d ProviderDescriptor) ProviderDescriptor {
	if d.ExtraHeaders != nil {
		headers := make(map[string]string, len(d.ExtraHeaders))
		for k, v := range d.ExtraHeaders {
			headers[k] = v
		}
		d.ExtraHeaders = headers
	}
	return d
}
