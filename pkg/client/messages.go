package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/loomcli/loom/pkg/chat"
)

// wireMessage is the persisted-message shape the server returns. Content
// may be a plain string or a multipart array, so it is decoded lazily.
type wireMessage struct {
	ID          string          `json:"id"`
	Role        string          `json:"role"`
	Content     json.RawMessage `json:"content"`
	CreatedAt   time.Time       `json:"created_at"`
	MessageType string          `json:"message_type"`
	Reasoning   string          `json:"reasoning,omitempty"`
	StepID      string          `json:"step_id,omitempty"`
	RunID       string          `json:"run_id,omitempty"`
	ToolCall    *wireToolCall   `json:"tool_call,omitempty"`
	ToolReturn  *wireToolReturn `json:"tool_return,omitempty"`
}

type wireToolCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
	CallID    string          `json:"tool_call_id,omitempty"`
}

type wireToolReturn struct {
	Result json.RawMessage `json:"tool_return"`
	Status string          `json:"status,omitempty"`
}

type wirePart struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	ImageData string `json:"data,omitempty"`
	MediaType string `json:"media_type,omitempty"`
}

// ListMessages fetches one page of persisted history for an agent.
// Passing a before cursor pages backwards; the server returns at most
// limit messages in ascending time order.
func (c *AgentClient) ListMessages(ctx context.Context, agentID, before string, limit int) ([]chat.Message, error) {
	query := url.Values{}
	if before != "" {
		query.Set("before", before)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	path := "/v1/agents/" + url.PathEscape(agentID) + "/messages"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var wire []wireMessage
	if err := c.doJSON(ctx, "GET", path, nil, &wire); err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}

	messages := make([]chat.Message, 0, len(wire))
	for _, wm := range wire {
		messages = append(messages, wm.toMessage())
	}
	return messages, nil
}

func (wm wireMessage) toMessage() chat.Message {
	msg := chat.Message{
		ID:          wm.ID,
		Role:        wm.Role,
		Timestamp:   wm.CreatedAt,
		MessageType: wm.MessageType,
		Reasoning:   wm.Reasoning,
		StepID:      wm.StepID,
		RunID:       wm.RunID,
	}

	msg.Content, msg.Parts = decodeContent(wm.Content)

	if wm.ToolCall != nil {
		msg.Role = chat.RoleTool
		msg.ToolCall = &chat.ToolCall{
			Name:      wm.ToolCall.Name,
			Arguments: rawToString(wm.ToolCall.Arguments),
			CallID:    wm.ToolCall.CallID,
		}
		if msg.Content == "" {
			msg.Content = chat.FormatToolCall(msg.ToolCall.Name, msg.ToolCall.Arguments)
		}
	}
	if wm.ToolReturn != nil {
		msg.Role = chat.RoleTool
		msg.ToolReturn = &chat.ToolReturn{
			Result: rawToString(wm.ToolReturn.Result),
			Status: wm.ToolReturn.Status,
		}
		if msg.Content == "" {
			msg.Content = msg.ToolReturn.Result
		}
	}
	return msg
}

// decodeContent accepts either a plain string or a multipart array
func decodeContent(raw json.RawMessage) (string, []chat.ContentPart) {
	if len(raw) == 0 {
		return "", nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}

	var wireParts []wirePart
	if err := json.Unmarshal(raw, &wireParts); err != nil {
		return string(raw), nil
	}

	parts := make([]chat.ContentPart, 0, len(wireParts))
	for _, wp := range wireParts {
		parts = append(parts, chat.ContentPart{
			Type:      wp.Type,
			Text:      wp.Text,
			ImageData: wp.ImageData,
			MediaType: wp.MediaType,
		})
	}

	var flat string
	for _, p := range parts {
		if p.Type == "text" {
			flat += p.Text
		}
	}
	return flat, parts
}

// rawToString unquotes JSON strings and passes structured payloads through
func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return string(raw)
}
