package controllers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/loomcli/loom/pkg/chat"
	"github.com/loomcli/loom/pkg/client"
	"github.com/loomcli/loom/pkg/logger"
	"github.com/sirupsen/logrus"
)

// SessionState tracks where a turn is in its lifecycle
type SessionState int

const (
	StateIdle SessionState = iota
	StateSending
	StateStreaming
	StateSuspended
	StateFinalizing
	StateAborted
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateSuspended:
		return "suspended"
	case StateFinalizing:
		return "finalizing"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// StreamingUpdateType discriminates updates emitted during a turn
type StreamingUpdateType int

const (
	StreamStarted StreamingUpdateType = iota
	RevealProgress
	MessagesChanged
	ScrollSync
	ApprovalRequested
	TurnCompleted
	TurnAborted
)

// StreamingUpdate notifies the UI surface of turn progress. It carries
// only what changed; the surface pulls full snapshots as needed.
type StreamingUpdate struct {
	Type          StreamingUpdateType
	Text          string // assistant text revealed so far this turn
	Reasoning     string // reasoning revealed so far this turn
	ApprovalID    string
	Error         error
	RestoredInput string // typed text handed back after a retracted send
}

// TurnStreamer is the transport contract the session controller consumes
type TurnStreamer interface {
	CreateMessageStream(ctx context.Context, agentID string, req client.TurnRequest) (<-chan client.StreamEvent, error)
	ResumeMessageStream(ctx context.Context, runID string, afterSeq int64) (<-chan client.StreamEvent, error)
	SubmitApproval(ctx context.Context, approvalID string, approve bool, reason string) error
}

// scrollSyncWindow bounds the scroll-sync scheduler: it pulses only for
// this long after streaming starts, then self-cancels regardless of
// stream state.
const (
	scrollSyncWindow   = 400 * time.Millisecond
	scrollSyncInterval = 100 * time.Millisecond
)

// SessionController owns one in-flight turn: it opens ingestion, paces
// the reveal of buffered text, reconciles tool steps, detects logical
// completion and finalizes or aborts. All turn-scoped mutation happens on
// its event loop; a single mutex covers the snapshot read path.
type SessionController struct {
	streamer TurnStreamer
	store    *TranscriptStore
	agentID  string
	tuning   chat.RevealTuning
	updates  chan StreamingUpdate
	log      *logrus.Entry

	mu     sync.Mutex
	state  SessionState
	cancel context.CancelFunc
	done   chan struct{}

	// Turn-scoped conversation state, cleared on every exit path.
	live              []chat.Message
	textBuf           *chat.RevealBuffer
	reasoningBuf      *chat.RevealBuffer
	reconciler        *chat.ToolStepReconciler
	streamComplete    bool
	sawChunk          bool
	optimisticID      string
	userText          string
	runID             string
	lastSeq           int64
	approvalID        string
	assistantServerID string
	turnToken         string
}

// NewSessionController creates a controller bound to one agent and one
// shared transcript store.
func NewSessionController(streamer TurnStreamer, store *TranscriptStore, agentID string, tuning chat.RevealTuning) *SessionController {
	sc := &SessionController{
		streamer: streamer,
		store:    store,
		agentID:  agentID,
		tuning:   tuning,
		updates:  make(chan StreamingUpdate, 256),
		log:      logger.WithComponent("session"),
	}
	sc.resetTurnState()
	return sc
}

// Updates returns the channel the UI surface listens on
func (sc *SessionController) Updates() <-chan StreamingUpdate {
	return sc.updates
}

// State returns the current lifecycle state
func (sc *SessionController) State() SessionState {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.state
}

// Submit starts a new turn. It is a no-op in any state other than idle:
// one turn at a time, enforced here rather than at every call site.
func (sc *SessionController) Submit(content string, attachments []chat.ContentPart) error {
	if strings.TrimSpace(content) == "" && len(attachments) == 0 {
		return fmt.Errorf("message content cannot be empty")
	}

	sc.mu.Lock()
	if sc.state != StateIdle {
		sc.mu.Unlock()
		sc.log.WithField("state", sc.state.String()).Debug("submit ignored, turn already active")
		return nil
	}
	sc.state = StateSending
	sc.resetTurnStateLocked()

	user := chat.NewUserMessageWithParts(content, attachments)
	sc.optimisticID = user.ID
	sc.userText = content
	sc.turnToken = user.ID

	ctx, cancel := context.WithCancel(context.Background())
	sc.cancel = cancel
	done := make(chan struct{})
	sc.done = done
	sc.mu.Unlock()

	sc.store.Append(user)
	sc.emit(StreamingUpdate{Type: StreamStarted})

	req := client.NewTurnRequest(content, attachments)
	go func() {
		defer close(done)
		events, err := sc.streamer.CreateMessageStream(ctx, sc.agentID, req)
		if err != nil {
			sc.abort(fmt.Errorf("failed to open stream: %w", err))
			return
		}
		sc.setState(StateStreaming)
		sc.runLoop(ctx, events)
	}()
	return nil
}

// ResolveApproval resolves a suspended turn with the human's decision and
// resumes the stream. Denial is not an error: the remote turn concludes
// its own handling and the resumed stream runs to a normal stop.
func (sc *SessionController) ResolveApproval(approve bool, reason string) error {
	sc.mu.Lock()
	if sc.state != StateSuspended {
		sc.mu.Unlock()
		return fmt.Errorf("no approval pending")
	}
	approvalID := sc.approvalID
	runID := sc.runID
	lastSeq := sc.lastSeq
	sc.mu.Unlock()

	if err := sc.streamer.SubmitApproval(context.Background(), approvalID, approve, reason); err != nil {
		sc.abort(fmt.Errorf("failed to submit approval: %w", err))
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	sc.mu.Lock()
	sc.cancel = cancel
	sc.done = done
	sc.state = StateStreaming
	sc.approvalID = ""
	sc.mu.Unlock()

	go func() {
		defer close(done)
		events, err := sc.streamer.ResumeMessageStream(ctx, runID, lastSeq)
		if err != nil {
			sc.abort(fmt.Errorf("failed to resume stream: %w", err))
			return
		}
		sc.runLoop(ctx, events)
	}()
	return nil
}

// Cancel synchronously tears down an in-flight turn. Timers stop, turn
// state is discarded and nothing partial is committed. A suspended turn
// has no event loop left to observe the cancellation, so it is torn
// down directly instead.
func (sc *SessionController) Cancel() {
	sc.mu.Lock()
	cancel := sc.cancel
	done := sc.done
	state := sc.state
	sc.mu.Unlock()

	if state == StateIdle {
		return
	}
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	if sc.State() == StateSuspended {
		sc.abort(context.Canceled)
	}
}

// SnapshotMessages returns persisted messages plus everything live from
// the current turn, including a synthetic in-progress assistant message
// holding the text revealed so far.
func (sc *SessionController) SnapshotMessages() []chat.Message {
	persisted := sc.store.Messages()

	sc.mu.Lock()
	defer sc.mu.Unlock()

	out := make([]chat.Message, 0, len(persisted)+len(sc.live)+1)
	out = append(out, persisted...)
	out = append(out, sc.live...)

	if sc.textBuf != nil && (sc.textBuf.Revealed() != "" || sc.reasoningBuf.Revealed() != "") {
		partial := chat.NewAssistantMessage(sc.textBuf.Revealed())
		partial.ID = "streaming-" + sc.turnToken
		partial.Reasoning = sc.reasoningBuf.Revealed()
		out = append(out, partial)
	}
	return out
}

// runLoop is the single logical thread of a turn: every mutation happens
// inside chunk or timer arms of this select.
func (sc *SessionController) runLoop(ctx context.Context, events <-chan client.StreamEvent) {
	reveal := time.NewTicker(sc.tuning.Interval)
	defer reveal.Stop()

	scroll := time.NewTicker(scrollSyncInterval)
	defer scroll.Stop()
	scrollDeadline := time.Now().Add(scrollSyncWindow)
	scrollC := scroll.C

	for {
		select {
		case <-ctx.Done():
			sc.abort(ctx.Err())
			return

		case <-scrollC:
			if time.Now().After(scrollDeadline) {
				scroll.Stop()
				scrollC = nil
				continue
			}
			sc.emit(StreamingUpdate{Type: ScrollSync})

		case ev, ok := <-events:
			if !ok {
				// Stream ended without an explicit stop_reason; treat it
				// as completion and let the reveal ticker drain the rest.
				sc.mu.Lock()
				sc.streamComplete = true
				sc.mu.Unlock()
				events = nil
				continue
			}
			if ev.Err != nil {
				sc.abort(fmt.Errorf("stream failed: %w", ev.Err))
				return
			}
			chunk, recognized := chat.Normalize(ev.Data)
			if !recognized {
				continue
			}
			if exit := sc.applyChunk(chunk); exit {
				return
			}

		case <-reveal.C:
			progressed, complete := sc.drainTick()
			if progressed {
				sc.mu.Lock()
				update := StreamingUpdate{
					Type:      RevealProgress,
					Text:      sc.textBuf.Revealed(),
					Reasoning: sc.reasoningBuf.Revealed(),
				}
				sc.mu.Unlock()
				sc.emit(update)
			}
			if complete {
				sc.finalize()
				return
			}
		}
	}
}

// applyChunk dispatches one normalized chunk. The returned flag tells the
// loop to exit (suspension or a terminal error chunk).
func (sc *SessionController) applyChunk(chunk chat.StreamingChunk) bool {
	sc.mu.Lock()
	sc.sawChunk = true
	if chunk.Seq > 0 {
		sc.lastSeq = chunk.Seq
	}
	if chunk.RunID != "" {
		sc.runID = chunk.RunID
	}

	switch chunk.Kind {
	case chat.ChunkPing:
		sc.mu.Unlock()

	case chat.ChunkAssistant:
		if chunk.MessageID != "" {
			sc.assistantServerID = chunk.MessageID
		}
		sc.textBuf.Append(chunk.Text)
		sc.mu.Unlock()

	case chat.ChunkReasoning:
		sc.reasoningBuf.Append(chunk.Reasoning)
		sc.reconciler.StashReasoning(chunk.Reasoning)
		sc.mu.Unlock()

	case chat.ChunkToolCall:
		sc.live = sc.reconciler.UpsertCall(sc.live, chunk)
		sc.mu.Unlock()
		sc.emit(StreamingUpdate{Type: MessagesChanged})

	case chat.ChunkToolReturn:
		sc.live = sc.reconciler.RecordReturn(sc.live, chunk)
		sc.mu.Unlock()
		sc.emit(StreamingUpdate{Type: MessagesChanged})

	case chat.ChunkStop:
		sc.streamComplete = true
		sc.mu.Unlock()

	case chat.ChunkApproval:
		sc.mu.Unlock()
		sc.suspendForApproval(chunk.ApprovalID)
		return true

	case chat.ChunkError:
		sc.mu.Unlock()
		sc.abort(errors.New(chunk.ErrText))
		return true

	default:
		sc.mu.Unlock()
	}
	return false
}

// drainTick reveals one quantum from each buffer independently and
// reports whether the turn is ready to finalize. Finalization requires
// both stop_reason and empty buffers: visual completion must never outrun
// the last buffered character.
func (sc *SessionController) drainTick() (progressed, complete bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	text := sc.textBuf.Drain(sc.tuning.QuantumFor(sc.textBuf.Backlog()))
	reasoning := sc.reasoningBuf.Drain(sc.tuning.QuantumFor(sc.reasoningBuf.Backlog()))

	progressed = text != "" || reasoning != ""
	complete = sc.streamComplete && sc.textBuf.Empty() && sc.reasoningBuf.Empty()
	return progressed, complete
}

// suspendForApproval flushes the reveal buffers into a finalized
// assistant message and parks the turn until a human decides. Live tool
// messages stay turn-scoped: the resumed sub-stream may keep upserting
// them by correlation key, so they commit only at finalization.
func (sc *SessionController) suspendForApproval(approvalID string) {
	sc.mu.Lock()
	sc.textBuf.DrainAll()
	sc.reasoningBuf.DrainAll()
	flushed := sc.takeAssistantLocked()
	sc.approvalID = approvalID
	sc.state = StateSuspended
	sc.mu.Unlock()

	sc.store.AppendAll(flushed)
	sc.emit(StreamingUpdate{Type: ApprovalRequested, ApprovalID: approvalID})
	sc.log.WithField("approval_id", approvalID).Info("turn suspended pending approval")
}

// finalize commits the accumulated turn as immutable messages and returns
// the controller to idle.
func (sc *SessionController) finalize() {
	sc.setState(StateFinalizing)

	sc.mu.Lock()
	finalized := sc.takeFinalizedLocked()
	sc.resetTurnStateLocked()
	sc.state = StateIdle
	sc.mu.Unlock()

	sc.store.AppendAll(finalized)
	sc.emit(StreamingUpdate{Type: TurnCompleted})
	sc.log.WithField("messages", len(finalized)).Debug("turn finalized")
}

// takeFinalizedLocked drains the live tool messages plus one assistant
// message built from the revealed buffers. Callers hold sc.mu.
func (sc *SessionController) takeFinalizedLocked() []chat.Message {
	finalized := make([]chat.Message, 0, len(sc.live)+1)
	finalized = append(finalized, sc.live...)
	sc.live = nil
	return append(finalized, sc.takeAssistantLocked()...)
}

// takeAssistantLocked builds at most one assistant message from the
// revealed buffers and resets them. Callers hold sc.mu.
func (sc *SessionController) takeAssistantLocked() []chat.Message {
	text := sc.textBuf.Revealed()
	reasoning := sc.reconciler.TakePendingReasoning()

	var out []chat.Message
	if text != "" || reasoning != "" {
		final := chat.NewAssistantMessage(text)
		if sc.assistantServerID != "" {
			final.ID = sc.assistantServerID
			sc.assistantServerID = ""
		}
		final.Reasoning = reasoning
		out = append(out, final)
	}
	sc.textBuf.Reset()
	sc.reasoningBuf.Reset()
	return out
}

// abort tears down the turn. The optimistic user message is retracted
// only if the server never acknowledged the turn with a chunk.
func (sc *SessionController) abort(err error) {
	sc.mu.Lock()
	if sc.state == StateIdle {
		sc.mu.Unlock()
		return
	}
	sc.state = StateAborted
	retract := !sc.sawChunk && sc.optimisticID != ""
	optimisticID := sc.optimisticID
	restored := ""
	if retract {
		restored = sc.userText
	}
	sc.resetTurnStateLocked()
	sc.state = StateIdle
	sc.mu.Unlock()

	if retract {
		sc.store.Remove(optimisticID)
	}
	sc.emit(StreamingUpdate{Type: TurnAborted, Error: err, RestoredInput: restored})
	sc.log.WithError(err).Warn("turn aborted")
}

func (sc *SessionController) setState(state SessionState) {
	sc.mu.Lock()
	sc.state = state
	sc.mu.Unlock()
}

func (sc *SessionController) resetTurnState() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.resetTurnStateLocked()
}

func (sc *SessionController) resetTurnStateLocked() {
	sc.live = nil
	sc.textBuf = chat.NewRevealBuffer()
	sc.reasoningBuf = chat.NewRevealBuffer()
	if sc.reconciler == nil {
		sc.reconciler = chat.NewToolStepReconciler()
	} else {
		sc.reconciler.Reset()
	}
	sc.streamComplete = false
	sc.sawChunk = false
	sc.optimisticID = ""
	sc.userText = ""
	sc.runID = ""
	sc.lastSeq = 0
	sc.approvalID = ""
	sc.assistantServerID = ""
	sc.cancel = nil
}

// emit delivers an update without ever blocking the event loop. A full
// channel drops the update; the UI re-pulls snapshots so nothing is lost.
func (sc *SessionController) emit(update StreamingUpdate) {
	select {
	case sc.updates <- update:
	default:
		sc.log.WithField("type", update.Type).Debug("update channel full, dropping")
	}
}
