// internal/domain/chat/message.go
package chat

import "context"

// Response types understood by the chat platform.
const (
	ResponseInChannel = "in_channel"
	ResponseEphemeral = "ephemeral"
)

// Message is an outbound chat message in the interactive-webhook format.
type Message struct {
	Text            string       `json:"text"`
	ResponseType    string       `json:"response_type,omitempty"`
	ReplaceOriginal bool         `json:"replace_original"`
	Attachments     []Attachment `json:"attachments,omitempty"`
}

// Attachment carries interactive buttons.
type Attachment struct {
	Text       string   `json:"text,omitempty"`
	CallbackID string   `json:"callback_id,omitempty"`
	Fallback   string   `json:"fallback,omitempty"`
	Actions    []Button `json:"actions,omitempty"`
}

// Button is a single interactive action. Value is echoed back in the callback.
type Button struct {
	Name  string `json:"name"`
	Text  string `json:"text"`
	Type  string `json:"type"`
	Value string `json:"value"`
	Style string `json:"style,omitempty"`
}

// Responder posts a message to a webhook URL, typically a callback's response_url.
// This decouples the application logic from the HTTP client.
type Responder interface {
	Post(ctx context.Context, url string, msg Message) error
}

// Announcer broadcasts plain text to a secondary channel.
type Announcer interface {
	Announce(ctx context.Context, text string) error
}
