package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/use-agent/scrapekit/models"
)

// ErrNoUser is returned when an entry has no user id.
var ErrNoUser = errors.New("history: entry has no user id")

// Memory is an in-memory Store keeping at most maxPerUser entries per user.
// It is safe for concurrent use.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string][]models.HistoryEntry // oldest first
	maxPerUser int
	now        func() time.Time
}

// NewMemory creates a Memory store. maxPerUser <= 0 means 100.
func NewMemory(maxPerUser int) *Memory {
	if maxPerUser <= 0 {
		maxPerUser = 100
	}
	return &Memory{
		entries:    make(map[string][]models.HistoryEntry),
		maxPerUser: maxPerUser,
		now:        time.Now,
	}
}

// Record stores entry, assigning its ID and CreatedAt when unset. The
// oldest entry of the user is dropped once the limit is reached.
func (m *Memory) Record(_ context.Context, entry *models.HistoryEntry) error {
	if entry.UserID == "" {
		return ErrNoUser
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = m.now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	list := append(m.entries[entry.UserID], *entry)
	if len(list) > m.maxPerUser {
		list = append([]models.HistoryEntry(nil), list[len(list)-m.maxPerUser:]...)
	}
	m.entries[entry.UserID] = list
	return nil
}

// List returns a copy of the user's entries, newest first.
func (m *Memory) List(_ context.Context, userID string) ([]models.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := m.entries[userID]
	out := make([]models.HistoryEntry, len(list))
	for i := range list {
		out[len(list)-1-i] = list[i]
	}
	return out, nil
}

// Len returns the total number of stored entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, list := range m.entries {
		n += len(list)
	}
	return n
}
