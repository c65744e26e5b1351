package manager

import (
	"time"

	"github.com/alexandrughinea/llm-api/pkg/types"
)

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	info := m.Info()
	m.mu.RLock()
	lastErr := m.lastErr
	m.mu.RUnlock()
	state := "ready"
	if m.gate.draining.Load() {
		state = "draining"
	}
	return types.StatusResponse{
		State:          state,
		Model:          info.Name,
		Architecture:   info.Architecture.String(),
		Runtime:        info.Runtime,
		Exclusive:      m.handle.Exclusive(),
		LoadDurationMS: info.LoadDuration.Milliseconds(),
		MaxTokens:      m.maxTokens,
		Slots:          m.gate.slots,
		Inflight:       int(m.gate.inflight.Load()),
		QueueLen:       m.gate.waiting(),
		MaxQueueDepth:  m.gate.depth,
		Sessions: types.SessionCounters{
			Started:              m.started.Load(),
			Completed:            m.completed.Load(),
			TokenBudgetExhausted: m.exhausted.Load(),
			RuntimeErrors:        m.failed.Load(),
			Cancelled:            m.cancelled.Load(),
			Rejected:             m.rejected.Load(),
		},
		LastError:      lastErr,
		UptimeSeconds:  int64(time.Since(m.startTime).Seconds()),
		ServerTimeUnix: time.Now().Unix(),
	}
}
