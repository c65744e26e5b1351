package manager

import (
	"context"
	"time"
)

// Drain stops admitting sessions and waits for queued and in-flight ones to
// finish. New requests are rejected as too busy from the first call on.
// It returns ctx.Err() when sessions are still admitted as ctx ends; the
// model must then stay loaded.
func (m *Manager) Drain(ctx context.Context) error {
	if m.gate.draining.CompareAndSwap(false, true) {
		m.log.Info().Int("admitted", m.gate.busy()).Msg("draining sessions")
		m.publish(Event{Name: EventDrainStart, Fields: map[string]any{}})
	}
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()
	for {
		n := m.gate.busy()
		if n == 0 {
			m.publish(Event{Name: EventDrainDone, Fields: map[string]any{}})
			return nil
		}
		select {
		case <-ctx.Done():
			m.log.Warn().Int("admitted", n).Msg("drain timed out")
			m.publish(Event{Name: EventDrainTimeout, Fields: map[string]any{"admitted": n}})
			return ctx.Err()
		case <-tick.C:
		}
	}
}
