package chat

import "sync"

// Store is the ordered transcript of one session. Entries are only ever
// appended; the whole log is swapped out by ReplaceAll on session change.
type Store struct {
	mu       sync.RWMutex
	messages []Message
}

func NewStore() *Store {
	return &Store{messages: make([]Message, 0)}
}

// Append adds msg to the end of the transcript
func (s *Store) Append(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// ReplaceAll discards the transcript and installs messages in its place
func (s *Store) ReplaceAll(messages []Message) {
	replaced := make([]Message, len(messages))
	copy(replaced, messages)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = replaced
}

// Snapshot returns a copy of the transcript in order
func (s *Store) Snapshot() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Message, len(s.messages))
	copy(result, s.messages)
	return result
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Last returns the most recent entry
func (s *Store) Last() (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.messages) == 0 {
		return Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}
