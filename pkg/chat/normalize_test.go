package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAssistant(t *testing.T) {
	t.Run("plain content field", func(t *testing.T) {
		chunk, ok := Normalize([]byte(`{"message_type":"assistant_message","content":"Hello"}`))
		require.True(t, ok)
		assert.Equal(t, ChunkAssistant, chunk.Kind)
		assert.Equal(t, "Hello", chunk.Text)
	})

	t.Run("camelCase discriminator", func(t *testing.T) {
		chunk, ok := Normalize([]byte(`{"messageType":"assistant_message","content":"Hi"}`))
		require.True(t, ok)
		assert.Equal(t, ChunkAssistant, chunk.Kind)
		assert.Equal(t, "Hi", chunk.Text)
	})

	t.Run("type discriminator with delta content", func(t *testing.T) {
		chunk, ok := Normalize([]byte(`{"type":"assistant_message","delta":{"content":"chunked"}}`))
		require.True(t, ok)
		assert.Equal(t, ChunkAssistant, chunk.Kind)
		assert.Equal(t, "chunked", chunk.Text)
	})

	t.Run("multipart content array", func(t *testing.T) {
		raw := `{"message_type":"assistant_message","content":[{"type":"text","text":"part one "},{"type":"text","text":"part two"}]}`
		chunk, ok := Normalize([]byte(raw))
		require.True(t, ok)
		assert.Equal(t, "part one part two", chunk.Text)
	})

	t.Run("captures server message id", func(t *testing.T) {
		chunk, ok := Normalize([]byte(`{"message_type":"assistant_message","content":"x","id":"msg-42"}`))
		require.True(t, ok)
		assert.Equal(t, "msg-42", chunk.MessageID)
	})
}

func TestNormalizeReasoning(t *testing.T) {
	t.Run("reasoning field", func(t *testing.T) {
		chunk, ok := Normalize([]byte(`{"message_type":"reasoning_message","reasoning":"thinking hard"}`))
		require.True(t, ok)
		assert.Equal(t, ChunkReasoning, chunk.Kind)
		assert.Equal(t, "thinking hard", chunk.Reasoning)
	})

	t.Run("hidden reasoning variant", func(t *testing.T) {
		chunk, ok := Normalize([]byte(`{"message_type":"hidden_reasoning_message","reasoning":"quiet"}`))
		require.True(t, ok)
		assert.Equal(t, ChunkReasoning, chunk.Kind)
		assert.Equal(t, "quiet", chunk.Reasoning)
	})

	t.Run("internal monologue alias", func(t *testing.T) {
		chunk, ok := Normalize([]byte(`{"message_type":"reasoning_message","internal_monologue":"hmm"}`))
		require.True(t, ok)
		assert.Equal(t, "hmm", chunk.Reasoning)
	})
}

func TestNormalizeToolCall(t *testing.T) {
	t.Run("nested tool_call payload", func(t *testing.T) {
		raw := `{"message_type":"tool_call_message","step_id":"step-1","tool_call":{"name":"search","arguments":"{\"q\":\"go\"}","tool_call_id":"call-1"}}`
		chunk, ok := Normalize([]byte(raw))
		require.True(t, ok)
		assert.Equal(t, ChunkToolCall, chunk.Kind)
		require.NotNil(t, chunk.ToolCall)
		assert.Equal(t, "search", chunk.ToolCall.Name)
		assert.Equal(t, `{"q":"go"}`, chunk.ToolCall.Arguments)
		assert.Equal(t, "call-1", chunk.ToolCall.CallID)
		assert.Equal(t, "step-1", chunk.StepID)
	})

	t.Run("function style payload", func(t *testing.T) {
		raw := `{"message_type":"function_call_message","function_call":{"name":"lookup","arguments":"{}"}}`
		chunk, ok := Normalize([]byte(raw))
		require.True(t, ok)
		assert.Equal(t, ChunkToolCall, chunk.Kind)
		assert.Equal(t, "lookup", chunk.ToolCall.Name)
	})

	t.Run("structured arguments kept as raw JSON", func(t *testing.T) {
		raw := `{"message_type":"tool_call_message","tool_call":{"name":"fetch","arguments":{"url":"http://x"}}}`
		chunk, ok := Normalize([]byte(raw))
		require.True(t, ok)
		assert.JSONEq(t, `{"url":"http://x"}`, chunk.ToolCall.Arguments)
	})

	t.Run("no step id falls back to the shared key", func(t *testing.T) {
		raw := `{"message_type":"tool_call_message","tool_call":{"name":"ping","arguments":"{}"}}`
		chunk, ok := Normalize([]byte(raw))
		require.True(t, ok)
		assert.Equal(t, NoStepKey, chunk.StepID)
	})

	t.Run("tool_call_id doubles as correlation key", func(t *testing.T) {
		raw := `{"message_type":"tool_call_message","tool_call":{"name":"ping","arguments":"{}","tool_call_id":"call-9"}}`
		chunk, ok := Normalize([]byte(raw))
		require.True(t, ok)
		assert.Equal(t, "call-9", chunk.StepID)
	})
}

func TestNormalizeToolReturn(t *testing.T) {
	t.Run("string result", func(t *testing.T) {
		raw := `{"message_type":"tool_return_message","step_id":"step-1","tool_return":"42 results","status":"success"}`
		chunk, ok := Normalize([]byte(raw))
		require.True(t, ok)
		assert.Equal(t, ChunkToolReturn, chunk.Kind)
		require.NotNil(t, chunk.ToolReturn)
		assert.Equal(t, "42 results", chunk.ToolReturn.Result)
		assert.Equal(t, "success", chunk.ToolReturn.Status)
	})

	t.Run("structured result kept raw", func(t *testing.T) {
		raw := `{"message_type":"tool_return_message","tool_return":{"count":3}}`
		chunk, ok := Normalize([]byte(raw))
		require.True(t, ok)
		assert.JSONEq(t, `{"count":3}`, chunk.ToolReturn.Result)
	})
}

func TestNormalizeLifecycle(t *testing.T) {
	t.Run("stop reason", func(t *testing.T) {
		chunk, ok := Normalize([]byte(`{"message_type":"stop_reason","stop_reason":"end_turn"}`))
		require.True(t, ok)
		assert.Equal(t, ChunkStop, chunk.Kind)
		assert.Equal(t, "end_turn", chunk.StopReason)
	})

	t.Run("approval request", func(t *testing.T) {
		chunk, ok := Normalize([]byte(`{"message_type":"approval_request_message","approval_request_id":"appr-1"}`))
		require.True(t, ok)
		assert.Equal(t, ChunkApproval, chunk.Kind)
		assert.Equal(t, "appr-1", chunk.ApprovalID)
	})

	t.Run("ping", func(t *testing.T) {
		chunk, ok := Normalize([]byte(`{"message_type":"ping"}`))
		require.True(t, ok)
		assert.Equal(t, ChunkPing, chunk.Kind)
	})

	t.Run("usage statistics treated as keep-alive", func(t *testing.T) {
		chunk, ok := Normalize([]byte(`{"message_type":"usage_statistics","total_tokens":120}`))
		require.True(t, ok)
		assert.Equal(t, ChunkPing, chunk.Kind)
	})

	t.Run("error chunk", func(t *testing.T) {
		chunk, ok := Normalize([]byte(`{"message_type":"error","error":{"message":"model overloaded"}}`))
		require.True(t, ok)
		assert.Equal(t, ChunkError, chunk.Kind)
		assert.Equal(t, "model overloaded", chunk.ErrText)
	})

	t.Run("sequence and run tracking", func(t *testing.T) {
		chunk, ok := Normalize([]byte(`{"message_type":"assistant_message","content":"x","seq_id":7,"run_id":"run-3"}`))
		require.True(t, ok)
		assert.Equal(t, int64(7), chunk.Seq)
		assert.Equal(t, "run-3", chunk.RunID)
	})
}

func TestNormalizeInference(t *testing.T) {
	t.Run("error field without discriminator", func(t *testing.T) {
		chunk, ok := Normalize([]byte(`{"error":"boom"}`))
		require.True(t, ok)
		assert.Equal(t, ChunkError, chunk.Kind)
		assert.Equal(t, "boom", chunk.ErrText)
	})

	t.Run("stop field without discriminator", func(t *testing.T) {
		chunk, ok := Normalize([]byte(`{"finish_reason":"stop"}`))
		require.True(t, ok)
		assert.Equal(t, ChunkStop, chunk.Kind)
		assert.Equal(t, "stop", chunk.StopReason)
	})

	t.Run("bare text without discriminator", func(t *testing.T) {
		chunk, ok := Normalize([]byte(`{"content":"just text"}`))
		require.True(t, ok)
		assert.Equal(t, ChunkAssistant, chunk.Kind)
		assert.Equal(t, "just text", chunk.Text)
	})

	t.Run("bare reasoning wins over text aliases", func(t *testing.T) {
		chunk, ok := Normalize([]byte(`{"thinking":"pondering"}`))
		require.True(t, ok)
		assert.Equal(t, ChunkReasoning, chunk.Kind)
		assert.Equal(t, "pondering", chunk.Reasoning)
	})
}

func TestNormalizeRejects(t *testing.T) {
	t.Run("invalid JSON", func(t *testing.T) {
		_, ok := Normalize([]byte(`not json at all`))
		assert.False(t, ok)
	})

	t.Run("unrecognized object", func(t *testing.T) {
		_, ok := Normalize([]byte(`{"metadata":{"version":2}}`))
		assert.False(t, ok)
	})

	t.Run("empty input", func(t *testing.T) {
		_, ok := Normalize(nil)
		assert.False(t, ok)
	})
}
