package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is the unit of transcript. Timestamp is the authoritative
// ordering key; ID is locally unique and may start as a temporary
// client-generated id that is replaced once the server reports one.
type Message struct {
	ID          string        `json:"id"`
	Role        string        `json:"role"`
	Content     string        `json:"content"`
	Parts       []ContentPart `json:"parts,omitempty"`
	Timestamp   time.Time     `json:"created_at"`
	MessageType string        `json:"message_type,omitempty"`
	Reasoning   string        `json:"reasoning,omitempty"`
	StepID      string        `json:"step_id,omitempty"`
	RunID       string        `json:"run_id,omitempty"`
	ToolCall    *ToolCall     `json:"tool_call,omitempty"`
	ToolReturn  *ToolReturn   `json:"tool_return,omitempty"`
}

// ContentPart is one element of multipart content
type ContentPart struct {
	Type      string `json:"type"` // "text" or "image"
	Text      string `json:"text,omitempty"`
	ImageData string `json:"image_data,omitempty"` // base64 payload
	MediaType string `json:"media_type,omitempty"`
}

// ToolCall is the structured invocation payload on a tool-typed message
type ToolCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // raw JSON argument payload
	CallID    string `json:"call_id,omitempty"`
}

// ToolReturn is the structured result payload on a tool-typed message
type ToolReturn struct {
	Result string `json:"result"`
	Status string `json:"status,omitempty"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

// Message type discriminators as reported by the server
const (
	TypeAssistant  = "assistant_message"
	TypeReasoning  = "reasoning_message"
	TypeToolCall   = "tool_call_message"
	TypeToolReturn = "tool_return_message"
	TypeUser       = "user_message"
	TypeSystem     = "system_message"
)

// NewLocalID returns a temporary client-generated message id. It is
// replaced when the server reports the persisted id.
func NewLocalID() string {
	return "local-" + uuid.NewString()
}

func NewUserMessage(content string) Message {
	return Message{
		ID:          NewLocalID(),
		Role:        RoleUser,
		Content:     strings.TrimSpace(content),
		MessageType: TypeUser,
		Timestamp:   time.Now(),
	}
}

// NewUserMessageWithParts builds a multipart user message (text plus
// base64 image attachments).
func NewUserMessageWithParts(content string, parts []ContentPart) Message {
	msg := NewUserMessage(content)
	msg.Parts = parts
	return msg
}

func NewAssistantMessage(content string) Message {
	return Message{
		ID:          NewLocalID(),
		Role:        RoleAssistant,
		Content:     content,
		MessageType: TypeAssistant,
		Timestamp:   time.Now(),
	}
}

func NewSystemMessage(content string) Message {
	return Message{
		ID:          NewLocalID(),
		Role:        RoleSystem,
		Content:     content,
		MessageType: TypeSystem,
		Timestamp:   time.Now(),
	}
}

func NewToolCallMessage(call ToolCall, stepID, runID string) Message {
	return Message{
		ID:          NewLocalID(),
		Role:        RoleTool,
		MessageType: TypeToolCall,
		StepID:      stepID,
		RunID:       runID,
		ToolCall:    &call,
		Timestamp:   time.Now(),
	}
}

func NewToolReturnMessage(ret ToolReturn, stepID, runID string) Message {
	return Message{
		ID:          NewLocalID(),
		Role:        RoleTool,
		MessageType: TypeToolReturn,
		StepID:      stepID,
		RunID:       runID,
		ToolReturn:  &ret,
		Timestamp:   time.Now(),
	}
}

func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

func (m Message) IsAssistant() bool {
	return m.Role == RoleAssistant
}

func (m Message) IsSystem() bool {
	return m.Role == RoleSystem
}

func (m Message) IsTool() bool {
	return m.Role == RoleTool
}

func (m Message) IsToolCall() bool {
	return m.MessageType == TypeToolCall || m.ToolCall != nil
}

func (m Message) IsToolReturn() bool {
	return m.MessageType == TypeToolReturn || (m.ToolReturn != nil && m.ToolCall == nil)
}

// HasLocalID reports whether the message still carries a temporary id
func (m Message) HasLocalID() bool {
	return strings.HasPrefix(m.ID, "local-")
}

// DisplayContent returns the text a renderer should show. Tool messages
// whose structured payload is the only source of meaning get content
// synthesized here, before any suppression check runs.
func (m Message) DisplayContent() string {
	if strings.TrimSpace(m.Content) != "" {
		return m.Content
	}
	if len(m.Parts) > 0 {
		var texts []string
		for _, p := range m.Parts {
			if p.Type == "text" && p.Text != "" {
				texts = append(texts, p.Text)
			}
		}
		if len(texts) > 0 {
			return strings.Join(texts, "\n")
		}
	}
	if m.ToolCall != nil {
		return FormatToolCall(m.ToolCall.Name, m.ToolCall.Arguments)
	}
	if m.ToolReturn != nil {
		return m.ToolReturn.Result
	}
	return ""
}

// IsSuppressed reports whether a message has nothing to display
func (m Message) IsSuppressed() bool {
	return strings.TrimSpace(m.DisplayContent()) == ""
}
