package ledger

import "sync"

// Memory is an in-process ledger without persistence, used in tests
// and for one-shot runs where skip state across invocations does not
// matter.
type Memory struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemory creates an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{seen: make(map[string]struct{})}
}

// IsProcessed reports whether url was already recorded.
func (m *Memory) IsProcessed(url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.seen[url]
	return ok
}

// AddMany records the URLs.
func (m *Memory) AddMany(urls []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range urls {
		if u != "" {
			m.seen[u] = struct{}{}
		}
	}
	return nil
}
