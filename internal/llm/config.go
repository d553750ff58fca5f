// Package llm provides the multi-provider language model gateway: a registry of
// provider descriptors, a credential classifier and a client that adapts a single
// request shape to each provider's HTTP wire format.
package llm

// ProviderID identifies a provider in the registry.
type ProviderID string

// Provider constants define supported LLM providers
const (
	ProviderOpenAI     ProviderID = "openai"
	ProviderOpenRouter ProviderID = "openrouter"
	ProviderGroq       ProviderID = "groq"
	ProviderAnthropic  ProviderID = "anthropic"
	ProviderGemini     ProviderID = "gemini"
	ProviderDeepSeek   ProviderID = "deepseek"
	ProviderTogether   ProviderID = "together"
	ProviderXAI        ProviderID = "xai"
)

// FallbackProvider is used when a credential matches no classification rule.
const FallbackProvider = ProviderOpenAI

// AuthStyle describes how a credential is attached to a request.
type AuthStyle string

const (
	// AuthBearer sends "Authorization: Bearer <credential>".
	AuthBearer AuthStyle = "bearer"
	// AuthAPIKeyHeader sends the credential in an "x-api-key" header.
	AuthAPIKeyHeader AuthStyle = "api-key-header"
	// AuthQueryParameter appends "?key=<credential>" to the endpoint.
	AuthQueryParameter AuthStyle = "query-parameter"
)

// WireFormat names one of the request/response shapes spoken by providers.
type WireFormat string

const (
	// WireChat is the OpenAI-compatible chat completions shape.
	WireChat WireFormat = "chat"
	// WireTurn is the Anthropic messages shape with a separate system field.
	WireTurn WireFormat = "turn"
	// WireContent is the Gemini generateContent shape.
	WireContent WireFormat = "content"
)

// Role is the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const (
	// MaxOutputTokens caps turn-style and content-style responses.
	MaxOutputTokens = 2048
	// AnthropicVersion is sent with every api-key-header request.
	AnthropicVersion = "2023-06-01"
	// ModelPlaceholder is substituted with the model name in endpoint templates.
	ModelPlaceholder = "{model}"
)

// Message is one entry of a conversation.
type Message struct {
	Role    Role   `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content"`
}

// GenerationRequest is a single call to a provider.
type GenerationRequest struct {
	Provider    ProviderID `validate:"required"`
	Credential  string     `validate:"required"`
	Messages    []Message  `validate:"required,min=1,dive"`
	Temperature float64    `validate:"gte=0,lte=1"`
	// Model overrides the provider's default model when set.
	Model string
}

// System returns a system message.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User returns a user message.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// Assistant returns an assistant message.
func Assistant(content string) Message { return Message{Role: RoleAssistant, Content: content} }
