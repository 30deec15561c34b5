package chat

// ChunkKind discriminates the variants of a streaming protocol chunk
type ChunkKind int

const (
	ChunkUnknown ChunkKind = iota
	ChunkAssistant
	ChunkReasoning
	ChunkToolCall
	ChunkToolReturn
	ChunkStop
	ChunkApproval
	ChunkPing
	ChunkError
)

func (k ChunkKind) String() string {
	switch k {
	case ChunkAssistant:
		return "assistant_message"
	case ChunkReasoning:
		return "reasoning_message"
	case ChunkToolCall:
		return "tool_call_message"
	case ChunkToolReturn:
		return "tool_return_message"
	case ChunkStop:
		return "stop_reason"
	case ChunkApproval:
		return "approval_request_message"
	case ChunkPing:
		return "ping"
	case ChunkError:
		return "error"
	default:
		return "unknown"
	}
}

// StreamingChunk is the internal tagged union every raw protocol chunk is
// normalized into. It is transient and never persisted. StepID is always
// populated: chunks with no usable correlation key carry NoStepKey so
// grouping degrades gracefully instead of failing.
type StreamingChunk struct {
	Kind       ChunkKind
	Text       string      // assistant text delta
	Reasoning  string      // reasoning delta
	ToolCall   *ToolCall   // set on ChunkToolCall
	ToolReturn *ToolReturn // set on ChunkToolReturn
	StopReason string      // set on ChunkStop
	ApprovalID string      // set on ChunkApproval
	ErrText    string      // set on ChunkError
	StepID     string
	RunID      string
	MessageID  string // server-side id when reported
	Seq        int64  // sequence offset for stream resumption
}
