package sender

import (
	"sync"

	"recruitmail/internal/types"
)

// StatusBoard holds the per-recipient send status of one session. Only the
// orchestrator writes to it during a pass; readers (status polling) may run
// concurrently. Absent entries read as not_sent.
type StatusBoard struct {
	mu      sync.RWMutex
	entries map[int]types.SendStatus
}

// NewStatusBoard returns an empty board.
func NewStatusBoard() *StatusBoard {
	return &StatusBoard{entries: make(map[int]types.SendStatus)}
}

// Get returns the status of recipient id.
func (b *StatusBoard) Get(id int) types.SendStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if s, ok := b.entries[id]; ok {
		return s
	}
	return types.SendStatus{State: types.SendStateNotSent}
}

// Set records the status of recipient id.
func (b *StatusBoard) Set(id int, s types.SendStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[id] = s
}

// Snapshot copies every recorded entry. Recipients without an entry are
// omitted.
func (b *StatusBoard) Snapshot() map[int]types.SendStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[int]types.SendStatus, len(b.entries))
	for id, s := range b.entries {
		out[id] = s
	}
	return out
}

// Reset clears every entry.
func (b *StatusBoard) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = make(map[int]types.SendStatus)
}
