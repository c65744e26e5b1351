package manager

import (
	"context"
	"iter"
	"time"

	"github.com/rs/zerolog"

	"github.com/alexandrughinea/llm-api/internal/llm"
)

// Generate runs one inference session for prompt and returns its output.
// It blocks until the session reaches a terminal state. Errors:
//   - tooBusy (IsTooBusy) when admission fails;
//   - *GenerationError when the runtime fails; partial output is discarded;
//   - the context error when ctx ends first.
func (m *Manager) Generate(ctx context.Context, prompt string) (Result, error) {
	var res Result
	err := m.withSession(ctx, prompt, func(s *Session) error {
		r, err := s.Run(ctx)
		res = r
		return err
	})
	return res, err
}

// Tokens admits a session for prompt and returns its lazy token sequence.
// Admission happens when iteration starts; the session is released when
// iteration ends, including when the caller stops early.
func (m *Manager) Tokens(ctx context.Context, prompt string) iter.Seq2[llm.Token, error] {
	return func(yield func(llm.Token, error) bool) {
		admitted := false
		err := m.withSession(ctx, prompt, func(s *Session) error {
			admitted = true
			for tok, err := range s.Tokens(ctx) {
				if !yield(tok, err) {
					return nil
				}
			}
			return nil
		})
		if err != nil && !admitted {
			yield(llm.Token{}, err)
		}
	}
}

// withSession admits, creates and always closes one session around fn.
func (m *Manager) withSession(ctx context.Context, prompt string, fn func(*Session) error) error {
	waitStart := time.Now()
	release, err := m.gate.acquire(ctx)
	admissionWait.Observe(time.Since(waitStart).Seconds())
	if err != nil {
		if IsTooBusy(err) {
			reason := TooBusyReason(err)
			m.rejected.Add(1)
			admissionRejected.WithLabelValues(reason).Inc()
			m.log.Warn().Str("reason", reason).Msg("admission rejected")
			m.publish(Event{Name: EventAdmissionRejected, Fields: map[string]any{"reason": reason}})
		}
		return err
	}
	defer release()

	s, err := newSession(m.handle.Model(), prompt, m.maxTokens, m.playBack, m.threads)
	if err != nil {
		err = &GenerationError{State: StateCreated, Err: err}
		m.failed.Add(1)
		m.setLastError(err)
		sessionsTotal.WithLabelValues(string(StateRuntimeError)).Inc()
		m.log.Error().Err(err).Msg("session start failed")
		return err
	}
	m.started.Add(1)
	sessionsInflight.Inc()
	log := m.log.With().Str("session", s.ID).Logger()
	log.Debug().Int("prompt_bytes", len(prompt)).Bool("play_back", m.playBack).Msg("session start")
	m.publish(Event{Name: EventSessionStart, SessionID: s.ID})
	defer func() {
		if cerr := s.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("session close")
		}
		sessionsInflight.Dec()
		m.record(s, log)
	}()
	return fn(s)
}

// record accounts a closed session in counters, metrics, logs and events.
func (m *Manager) record(s *Session, log zerolog.Logger) {
	state := s.State()
	dur := time.Since(s.started)
	switch state {
	case StateCompleted:
		m.completed.Add(1)
	case StateTokenBudgetExhausted:
		m.exhausted.Add(1)
	case StateRuntimeError:
		m.failed.Add(1)
		m.setLastError(s.Err())
	default:
		m.cancelled.Add(1)
	}
	sessionsTotal.WithLabelValues(string(state)).Inc()
	sessionDuration.WithLabelValues(string(state)).Observe(dur.Seconds())
	generatedTokens.Add(float64(s.Generated()))

	ev := log.Info()
	switch state {
	case StateRuntimeError:
		ev = log.Error().Err(s.Err())
	case StateCancelled:
		ev = log.Info().AnErr("cause", s.Err())
	}
	ev.Str("state", string(state)).
		Int("generated", s.Generated()).
		Dur("elapsed", dur).
		Msg("session end")
	m.publish(Event{Name: EventSessionEnd, SessionID: s.ID, Fields: map[string]any{
		"state":       string(state),
		"generated":   s.Generated(),
		"duration_ms": dur.Milliseconds(),
	}})
}
