package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callChunk(step, name, args string) StreamingChunk {
	return StreamingChunk{
		Kind:     ChunkToolCall,
		StepID:   step,
		ToolCall: &ToolCall{Name: name, Arguments: args},
	}
}

func returnChunk(step, result, status string) StreamingChunk {
	return StreamingChunk{
		Kind:       ChunkToolReturn,
		StepID:     step,
		ToolReturn: &ToolReturn{Result: result, Status: status},
	}
}

func TestUpsertCall(t *testing.T) {
	t.Run("repeated chunks for one step yield one message", func(t *testing.T) {
		r := NewToolStepReconciler()
		var live []Message

		live = r.UpsertCall(live, callChunk("step-1", "search", `{"q":"go"}`))
		live = r.UpsertCall(live, callChunk("step-1", "search", `{"q":"golang"}`))
		live = r.UpsertCall(live, callChunk("step-1", "search", `{"q":"golang","limit":5}`))

		require.Len(t, live, 1)
		assert.Equal(t, `{"q":"golang","limit":5}`, live[0].ToolCall.Arguments)
		assert.Equal(t, `search(limit=5, q="golang")`, live[0].Content)
	})

	t.Run("distinct steps create distinct messages", func(t *testing.T) {
		r := NewToolStepReconciler()
		var live []Message

		live = r.UpsertCall(live, callChunk("step-1", "search", `{"q":"a"}`))
		live = r.UpsertCall(live, callChunk("step-2", "fetch", `{"url":"b"}`))

		require.Len(t, live, 2)
		assert.True(t, r.HasCall("step-1"))
		assert.True(t, r.HasCall("step-2"))
	})

	t.Run("chunks without step ids share the fallback key", func(t *testing.T) {
		r := NewToolStepReconciler()
		var live []Message

		live = r.UpsertCall(live, callChunk(NoStepKey, "ping", `{}`))
		live = r.UpsertCall(live, callChunk(NoStepKey, "ping", `{"target":"db"}`))

		require.Len(t, live, 1)
		assert.Equal(t, `ping(target="db")`, live[0].Content)
	})
}

func TestPendingReasoning(t *testing.T) {
	t.Run("first call consumes stashed reasoning exactly once", func(t *testing.T) {
		r := NewToolStepReconciler()
		var live []Message

		r.StashReasoning("I should ")
		r.StashReasoning("search first.")
		live = r.UpsertCall(live, callChunk("step-1", "search", `{}`))
		live = r.UpsertCall(live, callChunk("step-2", "fetch", `{}`))
		live = r.UpsertCall(live, callChunk("step-3", "summarize", `{}`))

		require.Len(t, live, 3)
		assert.Equal(t, "I should search first.", live[0].Reasoning)
		assert.Empty(t, live[1].Reasoning)
		assert.Empty(t, live[2].Reasoning)
	})

	t.Run("reasoning between calls attaches to the next call", func(t *testing.T) {
		r := NewToolStepReconciler()
		var live []Message

		r.StashReasoning("step one")
		live = r.UpsertCall(live, callChunk("step-1", "a", `{}`))
		r.StashReasoning("step two")
		live = r.UpsertCall(live, callChunk("step-2", "b", `{}`))

		assert.Equal(t, "step one", live[0].Reasoning)
		assert.Equal(t, "step two", live[1].Reasoning)
	})

	t.Run("trailing reasoning is left for the finalizer", func(t *testing.T) {
		r := NewToolStepReconciler()
		var live []Message

		live = r.UpsertCall(live, callChunk("step-1", "a", `{}`))
		r.StashReasoning("closing thoughts")

		assert.Empty(t, live[0].Reasoning)
		assert.Equal(t, "closing thoughts", r.TakePendingReasoning())
		assert.Empty(t, r.TakePendingReasoning())
	})
}

func TestRecordReturn(t *testing.T) {
	t.Run("return recorded alongside its call", func(t *testing.T) {
		r := NewToolStepReconciler()
		var live []Message

		live = r.UpsertCall(live, callChunk("step-1", "search", `{}`))
		live = r.RecordReturn(live, returnChunk("step-1", "3 hits", "success"))

		require.Len(t, live, 2)
		assert.Equal(t, "3 hits", live[1].ToolReturn.Result)
	})

	t.Run("duplicate returns update in place", func(t *testing.T) {
		r := NewToolStepReconciler()
		var live []Message

		live = r.RecordReturn(live, returnChunk("step-1", "partial", ""))
		live = r.RecordReturn(live, returnChunk("step-1", "complete", "success"))

		require.Len(t, live, 1)
		assert.Equal(t, "complete", live[0].ToolReturn.Result)
		assert.Equal(t, "success", live[0].ToolReturn.Status)
	})

	t.Run("orphan return is kept", func(t *testing.T) {
		r := NewToolStepReconciler()
		live := r.RecordReturn(nil, returnChunk("step-9", "late result", ""))

		require.Len(t, live, 1)
		assert.False(t, r.HasCall("step-9"))
		assert.Equal(t, "late result", live[0].Content)
	})
}

func TestFormatToolCall(t *testing.T) {
	t.Run("single string argument", func(t *testing.T) {
		assert.Equal(t, `search(q="x")`, FormatToolCall("search", `{"q":"x"}`))
	})

	t.Run("keys rendered in sorted order", func(t *testing.T) {
		out := FormatToolCall("fetch", `{"url":"http://x","retries":3,"verbose":true}`)
		assert.Equal(t, `fetch(retries=3, url="http://x", verbose=true)`, out)
	})

	t.Run("empty arguments", func(t *testing.T) {
		assert.Equal(t, "list()", FormatToolCall("list", ""))
		assert.Equal(t, "list()", FormatToolCall("list", "{}"))
	})

	t.Run("nested values use compact JSON", func(t *testing.T) {
		out := FormatToolCall("update", `{"fields":{"a":1}}`)
		assert.Equal(t, `update(fields={"a":1})`, out)
	})

	t.Run("unparseable payload falls back to raw", func(t *testing.T) {
		assert.Equal(t, "run(<<garbage)", FormatToolCall("run", "<<garbage"))
	})

	t.Run("missing name gets a placeholder", func(t *testing.T) {
		assert.Equal(t, "tool()", FormatToolCall("", "{}"))
	})
}
