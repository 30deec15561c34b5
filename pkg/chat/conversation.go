package chat

// Transcript is the full ordered message list, persisted pages plus
// anything finalized from live turns. Helpers copy rather than mutate so
// readers holding an older slice never see reordering.
type Transcript struct {
	Messages []Message
}

func NewTranscript() Transcript {
	return Transcript{Messages: make([]Message, 0)}
}

// Append adds a message to the end of the transcript
func Append(t Transcript, msg Message) Transcript {
	messages := make([]Message, len(t.Messages)+1)
	copy(messages, t.Messages)
	messages[len(t.Messages)] = msg
	return Transcript{Messages: messages}
}

// Prepend inserts an older page before the existing messages. Already
// merged messages keep their relative order; duplicates by id are skipped.
func Prepend(t Transcript, older []Message) Transcript {
	seen := make(map[string]struct{}, len(t.Messages))
	for _, msg := range t.Messages {
		seen[msg.ID] = struct{}{}
	}

	fresh := make([]Message, 0, len(older))
	for _, msg := range older {
		if _, dup := seen[msg.ID]; dup {
			continue
		}
		seen[msg.ID] = struct{}{}
		fresh = append(fresh, msg)
	}

	messages := make([]Message, 0, len(fresh)+len(t.Messages))
	messages = append(messages, fresh...)
	messages = append(messages, t.Messages...)
	return Transcript{Messages: messages}
}

// RemoveByID drops the message with the given id, used to retract an
// optimistic user message after a failed send.
func RemoveByID(t Transcript, id string) Transcript {
	messages := make([]Message, 0, len(t.Messages))
	for _, msg := range t.Messages {
		if msg.ID == id {
			continue
		}
		messages = append(messages, msg)
	}
	return Transcript{Messages: messages}
}

// ReplaceID swaps a temporary client-generated id for the server id
func ReplaceID(t Transcript, localID, serverID string) Transcript {
	messages := make([]Message, len(t.Messages))
	copy(messages, t.Messages)
	for i := range messages {
		if messages[i].ID == localID {
			messages[i].ID = serverID
			break
		}
	}
	return Transcript{Messages: messages}
}

func GetMessages(t Transcript) []Message {
	result := make([]Message, len(t.Messages))
	copy(result, t.Messages)
	return result
}

func GetMessageCount(t Transcript) int {
	return len(t.Messages)
}

func GetLastMessage(t Transcript) (Message, bool) {
	if len(t.Messages) == 0 {
		return Message{}, false
	}
	return t.Messages[len(t.Messages)-1], true
}

func GetOldestID(t Transcript) (string, bool) {
	if len(t.Messages) == 0 {
		return "", false
	}
	return t.Messages[0].ID, true
}

func IsEmpty(t Transcript) bool {
	return len(t.Messages) == 0
}
