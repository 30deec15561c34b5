package controllers

import (
	"sync"

	"github.com/loomcli/loom/pkg/chat"
)

// TranscriptStore is the single source of truth for persisted messages.
// The session controller appends finalized turns to the tail while the
// history controller prepends older pages to the head; neither ever
// reorders what is already merged, so the two can run concurrently.
type TranscriptStore struct {
	mu         sync.RWMutex
	transcript chat.Transcript
}

func NewTranscriptStore() *TranscriptStore {
	return &TranscriptStore{transcript: chat.NewTranscript()}
}

// Append adds one finalized message to the tail
func (s *TranscriptStore) Append(msg chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = chat.Append(s.transcript, msg)
}

// AppendAll adds finalized messages to the tail in order
func (s *TranscriptStore) AppendAll(messages []chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range messages {
		s.transcript = chat.Append(s.transcript, msg)
	}
}

// Prepend merges an older page before the head, skipping duplicate ids
func (s *TranscriptStore) Prepend(older []chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = chat.Prepend(s.transcript, older)
}

// Remove retracts a message by id, used for failed optimistic sends
func (s *TranscriptStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = chat.RemoveByID(s.transcript, id)
}

// ReplaceID swaps a temporary client id for the server-reported one
func (s *TranscriptStore) ReplaceID(localID, serverID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = chat.ReplaceID(s.transcript, localID, serverID)
}

// Messages returns a copy of the current transcript
func (s *TranscriptStore) Messages() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return chat.GetMessages(s.transcript)
}

// Count returns the number of persisted messages
func (s *TranscriptStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return chat.GetMessageCount(s.transcript)
}

// OldestID returns the id of the first message, the pagination cursor
func (s *TranscriptStore) OldestID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return chat.GetOldestID(s.transcript)
}
