package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/loomcli/loom/pkg/chat"
)

// StreamEvent is one unit read off an open protocol stream. Exactly one
// of Data and Err is meaningful; a closed channel means the stream ended.
type StreamEvent struct {
	Data []byte
	Err  error
}

// TurnRequest is the outgoing payload that opens a streamed turn
type TurnRequest struct {
	Messages []TurnMessage `json:"messages"`
}

// TurnMessage is one outgoing message of a turn request
type TurnMessage struct {
	Role    string             `json:"role"`
	Content []chat.ContentPart `json:"content"`
}

// NewTurnRequest builds a request from user text plus optional attachments
func NewTurnRequest(content string, attachments []chat.ContentPart) TurnRequest {
	parts := make([]chat.ContentPart, 0, len(attachments)+1)
	if content != "" {
		parts = append(parts, chat.ContentPart{Type: "text", Text: content})
	}
	parts = append(parts, attachments...)

	return TurnRequest{
		Messages: []TurnMessage{{Role: chat.RoleUser, Content: parts}},
	}
}

// CreateMessageStream opens one protocol stream for a new turn. The
// returned channel yields raw chunk payloads until the stream ends or
// errors; the caller owns normalization.
func (c *AgentClient) CreateMessageStream(ctx context.Context, agentID string, req TurnRequest) (<-chan StreamEvent, error) {
	path := "/v1/agents/" + url.PathEscape(agentID) + "/messages/stream"
	return c.openStream(ctx, path, req)
}

// ResumeMessageStream re-attaches to a previously interrupted turn from a
// sequence offset, yielding the same chunk shape as a fresh stream.
func (c *AgentClient) ResumeMessageStream(ctx context.Context, runID string, afterSeq int64) (<-chan StreamEvent, error) {
	path := "/v1/runs/" + url.PathEscape(runID) + "/stream?starting_after=" + strconv.FormatInt(afterSeq, 10)
	return c.openStream(ctx, path, nil)
}

// SubmitApproval resolves a suspended turn with the human's decision
func (c *AgentClient) SubmitApproval(ctx context.Context, approvalID string, approve bool, reason string) error {
	body := map[string]any{
		"approve": approve,
	}
	if reason != "" {
		body["reason"] = reason
	}
	path := "/v1/approvals/" + url.PathEscape(approvalID)
	if err := c.doJSON(ctx, "POST", path, body, nil); err != nil {
		return fmt.Errorf("failed to submit approval: %w", err)
	}
	return nil
}

func (c *AgentClient) openStream(ctx context.Context, path string, body any) (<-chan StreamEvent, error) {
	req, err := c.newRequest(ctx, "POST", path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	// The stream outlives any sane request timeout, so bypass the
	// client-wide one; cancellation comes from ctx.
	httpClient := *c.httpClient
	httpClient.Timeout = 0

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stream request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}

	events := make(chan StreamEvent, 100)
	go readStream(ctx, resp.Body, events)
	return events, nil
}

// readStream scans SSE framing off the response body: "data:" lines carry
// chunk payloads, a bare [DONE] terminates, everything else (event names,
// comments, blank separators) is framing.
func readStream(ctx context.Context, body io.ReadCloser, events chan<- StreamEvent) {
	defer close(events)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			events <- StreamEvent{Err: ctx.Err()}
			return
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ":") || strings.HasPrefix(line, "event:") {
			continue
		}

		data, found := strings.CutPrefix(line, "data:")
		if !found {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			return
		}

		events <- StreamEvent{Data: []byte(data)}
	}

	if err := scanner.Err(); err != nil {
		events <- StreamEvent{Err: fmt.Errorf("stream reading error: %w", err)}
	}
}
