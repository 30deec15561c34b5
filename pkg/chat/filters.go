package chat

import (
	"strings"

	"github.com/tidwall/gjson"
)

// The server injects this greeting into the first assistant turn of a
// fresh conversation. The client hides it when it shows up near the top
// of an initial history load.
// TODO: confirm with the server team whether the literal and the
// 5-message scan window are contractual or incidental.
const injectedGreeting = "How can I help you today?"

// boilerplateScanWindow bounds how far into an initial load the greeting
// filter looks. It is a scan of the first few messages, never the full
// history.
const boilerplateScanWindow = 5

// IsControlContent reports whether a user message body is a
// non-conversational control message (heartbeat or login notice). The
// detection is a speculative structured parse: anything that is not JSON
// is ordinary user text.
func IsControlContent(content string) bool {
	doc := gjson.Parse(strings.TrimSpace(content))
	if doc.Type != gjson.JSON || !doc.IsObject() {
		return false
	}
	switch doc.Get("type").String() {
	case "heartbeat", "login", "automated_message":
		return true
	}
	return false
}

// IsCompactionAlert reports whether a user message body is a compaction
// system alert. These render as a collapsible group instead of a user
// bubble.
func IsCompactionAlert(content string) bool {
	doc := gjson.Parse(strings.TrimSpace(content))
	if doc.Type != gjson.JSON || !doc.IsObject() {
		return false
	}
	if doc.Get("type").String() != "system_alert" {
		return false
	}
	return true
}

// AlertText extracts the human-readable body of a system alert, falling
// back to the raw content.
func AlertText(content string) string {
	doc := gjson.Parse(strings.TrimSpace(content))
	if text := doc.Get("message").String(); text != "" {
		return text
	}
	return content
}

// FilterControlMessages drops heartbeat/login noise from a fetched page
func FilterControlMessages(messages []Message) []Message {
	result := make([]Message, 0, len(messages))
	for _, msg := range messages {
		if msg.IsUser() && IsControlContent(msg.Content) {
			continue
		}
		result = append(result, msg)
	}
	return result
}

// StripInjectedGreeting removes the known injected greeting line when it
// appears within the first few messages of an initial load. Messages left
// empty by the strip are dropped.
func StripInjectedGreeting(messages []Message) []Message {
	result := make([]Message, 0, len(messages))
	for i, msg := range messages {
		if i < boilerplateScanWindow && strings.Contains(msg.Content, injectedGreeting) {
			stripped := strings.TrimSpace(strings.ReplaceAll(msg.Content, injectedGreeting, ""))
			if stripped == "" && msg.ToolCall == nil && msg.ToolReturn == nil {
				continue
			}
			msg.Content = stripped
		}
		result = append(result, msg)
	}
	return result
}
