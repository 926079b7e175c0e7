package llmrouter

import "strings"

// Role identifies who produced a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn. Generation requests in this module
// are text-only; multimodal content is out of scope.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// SystemMessage creates a system Message.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Text: text}
}

// UserMessage creates a user Message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

// ResponseFormat asks the provider for structured output. Providers without
// native JSON-schema support receive the schema as a system instruction
// instead; the adapter decides.
type ResponseFormat struct {
	Type       string         `json:"type"` // "text" or "json_schema"
	JSONSchema map[string]any `json:"json_schema,omitempty"`
	Strict     bool           `json:"strict,omitempty"`
}

// Request is the input to ProviderAdapter.Complete.
type Request struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      *int            `json:"max_tokens,omitempty"`
}

// SystemText returns the concatenation of all system message texts.
func (r Request) SystemText() string {
	var sb strings.Builder
	for _, m := range r.Messages {
		if m.Role == RoleSystem {
			sb.WriteString(m.Text)
			sb.WriteString("\n")
		}
	}
	return strings.TrimSpace(sb.String())
}

// UserText returns the concatenation of all non-system message texts.
func (r Request) UserText() string {
	var parts []string
	for _, m := range r.Messages {
		switch m.Role {
		case RoleUser:
			parts = append(parts, m.Text)
		case RoleAssistant:
			if m.Text != "" {
				parts = append(parts, "[Assistant]: "+m.Text)
			}
		}
	}
	return strings.Join(parts, "\n")
}

// Usage tracks token consumption for a single provider call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Response is the output of ProviderAdapter.Complete.
type Response struct {
	ID       string `json:"id"`
	Model    string `json:"model"`
	Provider string `json:"provider"`
	Text     string `json:"text"`
	Usage    Usage  `json:"usage"`
}
