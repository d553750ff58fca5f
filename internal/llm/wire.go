package llm

import (
	"encoding/json"
	"fmt"
)

// chat (OpenAI-compatible)

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// turn (Anthropic messages)

type turnMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type turnRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	System      string        `json:"system,omitempty"`
	Messages    []turnMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type turnResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// content (Gemini generateContent)

type contentPart struct {
	Text string `json:"text"`
}

type contentEntry struct {
	Role  string        `json:"role"`
	Parts []contentPart `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type contentRequest struct {
	Contents         []contentEntry   `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type contentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []contentPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// encodeBody builds the request body for the given wire format.
func encodeBody(format WireFormat, model string, messages []Message, temperature float64) ([]byte, error) {
	var payload any
	switch format {
	case WireChat:
		payload = chatRequest{Model: model, Messages: messages, Temperature: temperature}
	case WireTurn:
		payload = toTurnRequest(model, messages, temperature)
	case WireContent:
		payload = toContentRequest(messages, temperature)
	default:
		return nil, fmt.Errorf("unsupported wire format %q", format)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", format, err)
	}
	return body, nil
}

// toTurnRequest lifts the first system message into the top-level system field.
// System messages never appear in the turn list; every other non-assistant role is sent as user.
func toTurnRequest(model string, messages []Message, temperature float64) turnRequest {
	req := turnRequest{
		Model:       model,
		MaxTokens:   MaxOutputTokens,
		Messages:    make([]turnMessage, 0, len(messages)),
		Temperature: temperature,
	}
	systemSeen := false
	for _, m := range messages {
		if m.Role == RoleSystem {
			if !systemSeen {
				req.System = m.Content
				systemSeen = true
			}
			continue
		}
		role := string(RoleUser)
		if m.Role == RoleAssistant {
			role = string(RoleAssistant)
		}
		req.Messages = append(req.Messages, turnMessage{Role: role, Content: m.Content})
	}
	return req
}

func toContentRequest(messages []Message, temperature float64) contentRequest {
	contents := make([]contentEntry, 0, len(messages))
	for _, m := range messages {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		contents = append(contents, contentEntry{Role: role, Parts: []contentPart{{Text: m.Content}}})
	}
	return contentRequest{
		Contents: contents,
		GenerationConfig: generationConfig{
			Temperature:     temperature,
			MaxOutputTokens: MaxOutputTokens,
		},
	}
}

// decodeText extracts the generated text. A missing path yields "" without error;
// only a body that is not JSON is reported.
func decodeText(format WireFormat, body []byte) (string, error) {
	switch format {
	case WireChat:
		var resp chatResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", nil
		}
		return resp.Choices[0].Message.Content, nil
	case WireTurn:
		var resp turnResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", err
		}
		if len(resp.Content) == 0 {
			return "", nil
		}
		return resp.Content[0].Text, nil
	case WireContent:
		var resp contentResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", err
		}
		if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
			return "", nil
		}
		return resp.Candidates[0].Content.Parts[0].Text, nil
	default:
		return "", fmt.Errorf("unsupported wire format %q", format)
	}
}
