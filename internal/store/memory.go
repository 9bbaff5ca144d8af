// internal/store/memory.go
//
// In-memory registry of navigation shells, one per browser client.
//
// Characteristics:
//   - Shells are keyed by the client id carried in the client cookie.
//   - Concurrency-safe via RWMutex. Lookups take the write lock since they
//     bump last-seen; only Len reads under the shared lock.
//   - Every lookup refreshes the shell's last-seen time; Sweep closes and
//     drops shells idle for longer than a cutoff.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/imparo/internal/shell"
)

var ErrNotFound = errors.New("not found")

// Store holds the shells of connected clients.
type Store interface {
	// Get returns the shell of client id.
	Get(ctx context.Context, id string) (*shell.Shell, error)

	// GetOrCreate returns the shell of client id, creating it with mk if absent.
	GetOrCreate(ctx context.Context, id string, mk func() *shell.Shell) *shell.Shell

	// Delete closes and removes the shell of client id.
	Delete(ctx context.Context, id string) error

	// Sweep closes shells not seen for idle and returns how many were dropped.
	Sweep(idle time.Duration) int

	// Len returns the number of live shells.
	Len() int
}

type entry struct {
	sh       *shell.Shell
	lastSeen time.Time
}

type memory struct {
	mu     sync.RWMutex
	shells map[string]*entry
	now    func() time.Time
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{shells: make(map[string]*entry), now: time.Now}
}

func (m *memory) Get(ctx context.Context, id string) (*shell.Shell, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.shells[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.lastSeen = m.now()
	return e.sh, nil
}

func (m *memory) GetOrCreate(ctx context.Context, id string, mk func() *shell.Shell) *shell.Shell {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.shells[id]; ok {
		e.lastSeen = m.now()
		return e.sh
	}
	e := &entry{sh: mk(), lastSeen: m.now()}
	m.shells[id] = e
	return e.sh
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	e, ok := m.shells[id]
	delete(m.shells, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	e.sh.Close()
	return nil
}

func (m *memory) Sweep(idle time.Duration) int {
	cutoff := m.now().Add(-idle)
	var stale []*shell.Shell

	m.mu.Lock()
	for id, e := range m.shells {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e.sh)
			delete(m.shells, id)
		}
	}
	m.mu.Unlock()

	for _, sh := range stale {
		sh.Close()
	}
	return len(stale)
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.shells)
}
