package chat

import "sort"

// GroupKind discriminates the renderable group variants
type GroupKind int

const (
	GroupMessage GroupKind = iota
	GroupToolPair
	GroupSystemAlert
)

// MessageGroup is a derived, stateless view over the transcript. Groups
// are recomputed from scratch on every change to the underlying message
// list and hold no identity across recomputations beyond Key, which is
// re-derivable from the message or call id.
type MessageGroup struct {
	Kind       GroupKind
	Key        string
	Message    *Message // set for GroupMessage and GroupSystemAlert
	ToolCall   *Message // set for GroupToolPair
	ToolResult *Message // nil while the call is still provisional
	Reasoning  string
	Collapsed  bool // system alerts render collapsed by default
}

// Provisional reports whether a tool pair is still awaiting its result
func (g MessageGroup) Provisional() bool {
	return g.Kind == GroupToolPair && g.ToolResult == nil
}

// GroupMessages turns the flat message set into renderable groups. It is
// pure and safe to re-run on every transcript change: input order does not
// matter beyond tie-breaking, output is always ascending by timestamp with
// ties keeping their original relative order.
func GroupMessages(messages []Message) []MessageGroup {
	sorted := make([]Message, len(messages))
	copy(sorted, messages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	// Latest tool-call message per correlation key. A later call with the
	// same key wins, matching the reconciler's upsert semantics.
	callsByStep := make(map[string]int)
	for i, msg := range sorted {
		if msg.IsToolCall() && msg.StepID != "" {
			callsByStep[msg.StepID] = i
		}
	}

	groups := make([]MessageGroup, 0, len(sorted))
	consumed := make([]bool, len(sorted))

	for i := range sorted {
		if consumed[i] {
			continue
		}
		msg := &sorted[i]

		switch {
		case msg.IsToolReturn():
			callIdx, matched := callsByStep[msg.StepID]
			if matched && !consumed[callIdx] {
				call := &sorted[callIdx]
				consumed[callIdx] = true
				consumed[i] = true
				groups = append(groups, MessageGroup{
					Kind:       GroupToolPair,
					Key:        call.ID,
					ToolCall:   call,
					ToolResult: msg,
					Reasoning:  call.Reasoning,
				})
				continue
			}
			// Orphan return: no call arrived (yet). Keep it visible as a
			// resultless pair so it is not silently dropped.
			consumed[i] = true
			groups = append(groups, MessageGroup{
				Kind:       GroupToolPair,
				Key:        msg.ID,
				ToolResult: msg,
			})

		case msg.IsToolCall():
			// Left for the matching return, or the provisional pass below.
			continue

		case msg.IsSystem():
			consumed[i] = true

		case msg.IsUser() && IsCompactionAlert(msg.Content):
			consumed[i] = true
			groups = append(groups, MessageGroup{
				Kind:      GroupSystemAlert,
				Key:       msg.ID,
				Message:   msg,
				Collapsed: true,
			})

		default:
			consumed[i] = true
			if msg.IsSuppressed() {
				continue
			}
			// Only non-tool messages carry their own reasoning into a plain
			// group; a tool call's reasoning travels with its pair above.
			groups = append(groups, MessageGroup{
				Kind:      GroupMessage,
				Key:       msg.ID,
				Message:   msg,
				Reasoning: msg.Reasoning,
			})
		}
	}

	// Calls whose return has not arrived render provisionally.
	for i := range sorted {
		if consumed[i] || !sorted[i].IsToolCall() {
			continue
		}
		call := &sorted[i]
		groups = append(groups, MessageGroup{
			Kind:      GroupToolPair,
			Key:       call.ID,
			ToolCall:  call,
			Reasoning: call.Reasoning,
		})
	}

	return groups
}
