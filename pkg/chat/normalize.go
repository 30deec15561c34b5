package chat

import (
	"strings"

	"github.com/loomcli/loom/pkg/logger"
	"github.com/tidwall/gjson"
)

// NoStepKey is the correlation key assigned to chunks that carry no step
// identifier at all. Everything in a turn without a step then correlates
// together rather than throwing grouping off.
const NoStepKey = "no-step"

// Alias tables for the field-name variants different transport versions
// use for the same concept, in priority order. Keeping these as flat
// tables keeps transport churn out of the rest of the engine.
var (
	kindAliases      = []string{"message_type", "messageType", "type"}
	textAliases      = []string{"content", "assistant_message", "delta.content", "text", "message"}
	reasoningAliases = []string{"reasoning", "thinking", "internal_monologue", "delta.reasoning"}
	toolNameAliases  = []string{"tool_call.name", "tool_call.function.name", "function_call.name", "name"}
	toolArgsAliases  = []string{"tool_call.arguments", "tool_call.function.arguments", "function_call.arguments", "arguments", "args", "input"}
	toolCallIDPaths  = []string{"tool_call.tool_call_id", "tool_call.id", "tool_call_id"}
	returnAliases    = []string{"tool_return", "tool_response", "function_return", "result", "output"}
	statusAliases    = []string{"status", "tool_return_status"}
	stepAliases      = []string{"step_id", "stepId", "step", "otid", "tool_call_id"}
	runAliases       = []string{"run_id", "runId"}
	approvalAliases  = []string{"approval_request_id", "request_id", "id"}
	seqAliases       = []string{"seq_id", "seq", "sequence"}
	stopAliases      = []string{"stop_reason", "done_reason", "finish_reason"}
	errorAliases     = []string{"error.message", "error", "detail"}
)

// Normalize maps one raw protocol chunk of unknown shape into exactly one
// StreamingChunk, or reports ok=false for unrecognized input. Unrecognized
// chunks are logged and dropped, never fatal.
func Normalize(raw []byte) (StreamingChunk, bool) {
	if !gjson.ValidBytes(raw) {
		logger.WithComponent("normalizer").Debugf("discarding non-JSON chunk: %.80s", string(raw))
		return StreamingChunk{}, false
	}

	doc := gjson.ParseBytes(raw)
	chunk := StreamingChunk{
		StepID:    stepKey(doc),
		RunID:     firstString(doc, runAliases),
		MessageID: doc.Get("id").String(),
		Seq:       firstInt(doc, seqAliases),
	}

	switch kind := firstString(doc, kindAliases); kind {
	case "assistant_message":
		chunk.Kind = ChunkAssistant
		chunk.Text = textContent(doc, textAliases)
		return chunk, true

	case "reasoning_message", "hidden_reasoning_message":
		chunk.Kind = ChunkReasoning
		chunk.Reasoning = textContent(doc, reasoningAliases)
		if chunk.Reasoning == "" {
			chunk.Reasoning = textContent(doc, textAliases)
		}
		return chunk, true

	case "tool_call_message", "function_call_message":
		chunk.Kind = ChunkToolCall
		chunk.ToolCall = &ToolCall{
			Name:      firstString(doc, toolNameAliases),
			Arguments: firstRaw(doc, toolArgsAliases),
			CallID:    firstString(doc, toolCallIDPaths),
		}
		return chunk, true

	case "tool_return_message", "function_return_message", "tool_response_message":
		chunk.Kind = ChunkToolReturn
		chunk.ToolReturn = &ToolReturn{
			Result: returnContent(doc),
			Status: firstString(doc, statusAliases),
		}
		return chunk, true

	case "stop_reason":
		chunk.Kind = ChunkStop
		chunk.StopReason = firstString(doc, stopAliases)
		return chunk, true

	case "approval_request_message":
		chunk.Kind = ChunkApproval
		chunk.ApprovalID = firstString(doc, approvalAliases)
		return chunk, true

	case "ping", "heartbeat", "keepalive":
		chunk.Kind = ChunkPing
		return chunk, true

	case "error":
		chunk.Kind = ChunkError
		chunk.ErrText = firstString(doc, errorAliases)
		return chunk, true

	case "usage_statistics", "usage":
		// Token accounting is advisory; treat it as a keep-alive.
		chunk.Kind = ChunkPing
		return chunk, true
	}

	// No discriminator. Infer the variant from which payload fields are
	// present, most specific first.
	switch {
	case doc.Get("error").Exists():
		chunk.Kind = ChunkError
		chunk.ErrText = firstString(doc, errorAliases)
		return chunk, true
	case firstString(doc, stopAliases) != "":
		chunk.Kind = ChunkStop
		chunk.StopReason = firstString(doc, stopAliases)
		return chunk, true
	case firstString(doc, toolNameAliases) != "":
		chunk.Kind = ChunkToolCall
		chunk.ToolCall = &ToolCall{
			Name:      firstString(doc, toolNameAliases),
			Arguments: firstRaw(doc, toolArgsAliases),
			CallID:    firstString(doc, toolCallIDPaths),
		}
		return chunk, true
	case anyExists(doc, []string{"tool_return", "tool_response", "function_return"}):
		chunk.Kind = ChunkToolReturn
		chunk.ToolReturn = &ToolReturn{
			Result: returnContent(doc),
			Status: firstString(doc, statusAliases),
		}
		return chunk, true
	case textContent(doc, reasoningAliases) != "":
		chunk.Kind = ChunkReasoning
		chunk.Reasoning = textContent(doc, reasoningAliases)
		return chunk, true
	case textContent(doc, textAliases) != "":
		chunk.Kind = ChunkAssistant
		chunk.Text = textContent(doc, textAliases)
		return chunk, true
	}

	logger.WithComponent("normalizer").Debugf("discarding unrecognized chunk: %.120s", string(raw))
	return StreamingChunk{}, false
}

// stepKey extracts a best-effort correlation key, falling back to NoStepKey
func stepKey(doc gjson.Result) string {
	if key := firstString(doc, stepAliases); key != "" {
		return key
	}
	if key := firstString(doc, toolCallIDPaths); key != "" {
		return key
	}
	return NoStepKey
}

func firstString(doc gjson.Result, paths []string) string {
	for _, path := range paths {
		if v := doc.Get(path); v.Exists() && v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

func firstInt(doc gjson.Result, paths []string) int64 {
	for _, path := range paths {
		if v := doc.Get(path); v.Exists() && v.Type == gjson.Number {
			return v.Int()
		}
	}
	return 0
}

// firstRaw returns the raw JSON of the first matching path, unquoting
// plain strings so argument payloads stay parseable either way.
func firstRaw(doc gjson.Result, paths []string) string {
	for _, path := range paths {
		if v := doc.Get(path); v.Exists() {
			if v.Type == gjson.String {
				return v.String()
			}
			return v.Raw
		}
	}
	return ""
}

func anyExists(doc gjson.Result, paths []string) bool {
	for _, path := range paths {
		if doc.Get(path).Exists() {
			return true
		}
	}
	return false
}

// textContent resolves a text field that may be a plain string or a
// multipart array of {type, text} parts.
func textContent(doc gjson.Result, paths []string) string {
	for _, path := range paths {
		v := doc.Get(path)
		if !v.Exists() {
			continue
		}
		if v.Type == gjson.String {
			return v.String()
		}
		if v.IsArray() {
			var parts []string
			v.ForEach(func(_, part gjson.Result) bool {
				if text := part.Get("text"); text.Exists() {
					parts = append(parts, text.String())
				}
				return true
			})
			if len(parts) > 0 {
				return strings.Join(parts, "")
			}
		}
	}
	return ""
}

// returnContent resolves a tool result that may be a string or structured
func returnContent(doc gjson.Result) string {
	for _, path := range returnAliases {
		v := doc.Get(path)
		if !v.Exists() {
			continue
		}
		if v.Type == gjson.String {
			return v.String()
		}
		return v.Raw
	}
	return ""
}
