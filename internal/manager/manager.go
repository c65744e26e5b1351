package manager

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/alexandrughinea/llm-api/internal/llm"
)

type Manager struct {
	mu        sync.RWMutex
	publisher EventPublisher
	lastErr   string

	handle    *llm.Handle
	gate      *gate
	maxTokens int
	playBack  bool
	threads   int
	log       zerolog.Logger
	startTime time.Time

	started   atomic.Uint64
	completed atomic.Uint64
	exhausted atomic.Uint64
	failed    atomic.Uint64
	cancelled atomic.Uint64
	rejected  atomic.Uint64
}

// Ready reports whether a model is loaded and sessions can be admitted.
func (m *Manager) Ready() bool { return m.handle != nil }

// Info describes the loaded model.
func (m *Manager) Info() llm.ModelInfo { return m.handle.Info() }

// MaxTokens is the per-session generated token budget.
func (m *Manager) MaxTokens() int { return m.maxTokens }

// Close releases the model. It refuses while any admitted session could
// still touch the model; call Drain first.
func (m *Manager) Close() error {
	if n := m.gate.busy(); n > 0 {
		return fmt.Errorf("%w: %d admitted", ErrSessionsActive, n)
	}
	return m.handle.Close()
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err.Error()
	m.mu.Unlock()
}
