package chat

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ToolStepReconciler pairs tool invocations with their eventual results
// even though both arrive as separate, unordered chunks. It owns the
// turn-scoped correlation maps and the single-slot pending-reasoning
// holder; the session controller resets it at the start of every turn.
type ToolStepReconciler struct {
	callIndex   map[string]string // correlation key -> message id
	returnIndex map[string]string // correlation key -> message id

	pendingReasoning string
}

func NewToolStepReconciler() *ToolStepReconciler {
	r := &ToolStepReconciler{}
	r.Reset()
	return r
}

// Reset clears all turn-scoped state
func (r *ToolStepReconciler) Reset() {
	r.callIndex = make(map[string]string)
	r.returnIndex = make(map[string]string)
	r.pendingReasoning = ""
}

// StashReasoning accumulates reasoning that has not yet found a home. The
// slot is single-use: the next tool call created (or the turn finalizer)
// consumes it whole, so reasoning that preceded the first tool call is
// attached exactly once and never re-attached to later calls.
func (r *ToolStepReconciler) StashReasoning(text string) {
	if text == "" {
		return
	}
	r.pendingReasoning += text
}

// TakePendingReasoning consumes and clears the slot
func (r *ToolStepReconciler) TakePendingReasoning() string {
	out := r.pendingReasoning
	r.pendingReasoning = ""
	return out
}

// UpsertCall applies a tool-call chunk to the live message list. The first
// chunk for a correlation key creates a tool-call message, consuming any
// pending reasoning; later chunks with the same key update that message's
// payload in place rather than appending a duplicate.
func (r *ToolStepReconciler) UpsertCall(live []Message, chunk StreamingChunk) []Message {
	if chunk.ToolCall == nil {
		return live
	}

	if msgID, exists := r.callIndex[chunk.StepID]; exists {
		for i := range live {
			if live[i].ID == msgID {
				live[i].ToolCall = &ToolCall{
					Name:      chunk.ToolCall.Name,
					Arguments: chunk.ToolCall.Arguments,
					CallID:    chunk.ToolCall.CallID,
				}
				live[i].Content = FormatToolCall(chunk.ToolCall.Name, chunk.ToolCall.Arguments)
				break
			}
		}
		return live
	}

	msg := NewToolCallMessage(*chunk.ToolCall, chunk.StepID, chunk.RunID)
	msg.Content = FormatToolCall(chunk.ToolCall.Name, chunk.ToolCall.Arguments)
	msg.Reasoning = r.TakePendingReasoning()
	r.callIndex[chunk.StepID] = msg.ID
	return append(live, msg)
}

// RecordReturn applies a tool-return chunk. Returns are messages of their
// own, paired with their call during grouping; an orphan return with no
// matching call yet is still recorded, never dropped. A second return for
// the same key updates the recorded message in place.
func (r *ToolStepReconciler) RecordReturn(live []Message, chunk StreamingChunk) []Message {
	if chunk.ToolReturn == nil {
		return live
	}

	if msgID, exists := r.returnIndex[chunk.StepID]; exists {
		for i := range live {
			if live[i].ID == msgID {
				live[i].ToolReturn = &ToolReturn{
					Result: chunk.ToolReturn.Result,
					Status: chunk.ToolReturn.Status,
				}
				live[i].Content = chunk.ToolReturn.Result
				break
			}
		}
		return live
	}

	msg := NewToolReturnMessage(*chunk.ToolReturn, chunk.StepID, chunk.RunID)
	msg.Content = chunk.ToolReturn.Result
	r.returnIndex[chunk.StepID] = msg.ID
	return append(live, msg)
}

// HasCall reports whether a tool-call message exists for the key
func (r *ToolStepReconciler) HasCall(stepID string) bool {
	_, exists := r.callIndex[stepID]
	return exists
}

// FormatToolCall renders an argument payload as a canonical
// name(key="value", ...) string. String values are quoted, everything else
// is rendered in its compact JSON form. A payload that does not parse as
// an object falls back to wrapping the raw payload in parentheses.
func FormatToolCall(name, args string) string {
	if name == "" {
		name = "tool"
	}
	trimmed := strings.TrimSpace(args)
	if trimmed == "" || trimmed == "{}" {
		return name + "()"
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return fmt.Sprintf("%s(%s)", name, trimmed)
	}

	keys := make([]string, 0, len(parsed))
	for key := range parsed {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rendered := make([]string, 0, len(keys))
	for _, key := range keys {
		switch value := parsed[key].(type) {
		case string:
			rendered = append(rendered, fmt.Sprintf("%s=%q", key, value))
		default:
			encoded, err := json.Marshal(value)
			if err != nil {
				rendered = append(rendered, fmt.Sprintf("%s=%v", key, value))
				continue
			}
			rendered = append(rendered, fmt.Sprintf("%s=%s", key, encoded))
		}
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(rendered, ", "))
}
