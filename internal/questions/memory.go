package questions

import "time"

// MemoryCapacity bounds ConversationMemory.
const MemoryCapacity = 5

// Exchange is one remembered question and the summary derived from its result.
type Exchange struct {
	Question string
	Summary  string
	At       time.Time
}

// ConversationMemory keeps the most recent exchanges, oldest evicted first.
type ConversationMemory struct {
	entries []Exchange
	now     func() time.Time
}

func newMemory(now func() time.Time) *ConversationMemory {
	return &ConversationMemory{now: now}
}

// Add appends an exchange when both parts are non-empty. It reports whether
// the exchange was stored.
func (m *ConversationMemory) Add(question, summary string) bool {
	if question == "" || summary == "" {
		return false
	}
	m.entries = append(m.entries, Exchange{Question: question, Summary: summary, At: m.now()})
	if over := len(m.entries) - MemoryCapacity; over > 0 {
		m.entries = append([]Exchange(nil), m.entries[over:]...)
	}
	return true
}

// Recent returns up to n of the newest exchanges, oldest first.
func (m *ConversationMemory) Recent(n int) []Exchange {
	if n > len(m.entries) {
		n = len(m.entries)
	}
	out := make([]Exchange, n)
	copy(out, m.entries[len(m.entries)-n:])
	return out
}

// Len returns the number of stored exchanges.
func (m *ConversationMemory) Len() int {
	return len(m.entries)
}
