// Package chathistory keeps a short per-chat tail of recent messages so the
// analyzer sees a little conversational context around each candidate.
package chathistory

import (
	"sync"
	"time"
)

const defaultMaxMessages = 5

type Entry struct {
	Sender string
	Text   string
	SentAt time.Time
}

type Buffer struct {
	max    int
	mu     sync.Mutex
	byChat map[string][]Entry
}

func NewBuffer(max int) *Buffer {
	if max <= 0 {
		max = defaultMaxMessages
	}
	return &Buffer{max: max, byChat: make(map[string][]Entry)}
}

func (b *Buffer) Append(chatID string, entry Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	tail := append(b.byChat[chatID], entry)
	if len(tail) > b.max {
		tail = tail[len(tail)-b.max:]
	}
	b.byChat[chatID] = tail
}

// Recent returns a copy of the chat's tail, oldest first.
func (b *Buffer) Recent(chatID string) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	tail := b.byChat[chatID]
	out := make([]Entry, len(tail))
	copy(out, tail)
	return out
}
