package llm

import (
	"regexp"
	"strings"
)

// Rule maps credentials satisfying Match to Provider.
type Rule struct {
	Name     string
	Match    func(credential string) bool
	Provider ProviderID
}

// Classifier picks a provider from the shape of a credential. Rules are
// evaluated top to bottom and the first match wins, so more specific prefixes
// must come before the prefixes they extend.
type Classifier struct {
	rules    []Rule
	fallback ProviderID
}

var geminiBareKey = regexp.MustCompile(`^[A-Za-z0-9]{39}$`)

// DefaultRules returns the built-in classification rules.
//
// "sk-" is shared by OpenAI and DeepSeek; it resolves to OpenAI and DeepSeek
// users must pick the provider explicitly.
func DefaultRules() []Rule {
	// Lengths are in bytes; real keys are ASCII.
	return []Rule{
		{Name: "too-short", Match: func(c string) bool { return len(c) < 5 }, Provider: FallbackProvider},
		hasPrefix("anthropic-prefix", "sk-ant-", ProviderAnthropic),
		hasPrefix("openrouter-prefix", "sk-or-", ProviderOpenRouter),
		hasPrefix("groq-prefix", "gsk_", ProviderGroq),
		hasPrefix("xai-prefix", "xai-", ProviderXAI),
		hasPrefix("gemini-prefix", "AIzaSy", ProviderGemini),
		{Name: "gemini-bare", Match: geminiBareKey.MatchString, Provider: ProviderGemini},
		hasPrefix("openai-prefix", "sk-", ProviderOpenAI),
		{
			Name:     "together-long",
			Match:    func(c string) bool { return len(c) > 40 && !strings.Contains(c, "-") },
			Provider: ProviderTogether,
		},
	}
}

func hasPrefix(name, prefix string, provider ProviderID) Rule {
	return Rule{
		Name:     name,
		Match:    func(c string) bool { return strings.HasPrefix(c, prefix) },
		Provider: provider,
	}
}

// NewClassifier creates a classifier with the given rules and fallback.
func NewClassifier(rules []Rule, fallback ProviderID) *Classifier {
	return &Classifier{rules: rules, fallback: fallback}
}

// DefaultClassifier returns a classifier with the built-in rules.
func DefaultClassifier() *Classifier {
	return NewClassifier(DefaultRules(), FallbackProvider)
}

// Classify returns the provider for credential. It never fails.
func (c *Classifier) Classify(credential string) ProviderID {
	id, _ := c.Explain(credential)
	return id
}

// Explain returns the provider and the name of the rule that chose it.
// The rule name is "fallback" when nothing matched.
func (c *Classifier) Explain(credential string) (ProviderID, string) {
	for _, r := range c.rules {
		if r.Match(credential) {
			return r.Provider, r.Name
		}
	}
	return c.fallback, "fallback"
}
