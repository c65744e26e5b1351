package manager

import (
	"context"
	"errors"
	"iter"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alexandrughinea/llm-api/internal/llm"
)

// SessionState is the lifecycle state of a Session.
type SessionState string

const (
	StateCreated              SessionState = "created"
	StatePriming              SessionState = "priming"
	StateGenerating           SessionState = "generating"
	StateCompleted            SessionState = "completed"
	StateTokenBudgetExhausted SessionState = "token_budget_exhausted"
	StateRuntimeError         SessionState = "runtime_error"
	StateCancelled            SessionState = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s SessionState) Terminal() bool {
	switch s {
	case StateCompleted, StateTokenBudgetExhausted, StateRuntimeError, StateCancelled:
		return true
	}
	return false
}

// Succeeded reports whether the state carries a usable result.
func (s SessionState) Succeeded() bool {
	return s == StateCompleted || s == StateTokenBudgetExhausted
}

// errConsumerStopped aborts priming when the consumer stops iterating.
var errConsumerStopped = errors.New("consumer stopped")

// Session is the decoding state of a single request. It is owned by one
// goroutine and must be closed on every exit path.
type Session struct {
	ID string

	rt        llm.Session
	prompt    string
	maxTokens int
	playBack  bool
	seed      uint64
	started   time.Time

	state     SessionState
	promptBuf strings.Builder
	outBuf    strings.Builder
	prompted  int
	generated int
	consumed  bool
	err       error
	// promptWhole is set when the runtime played the prompt back untokenized.
	promptWhole bool
}

// newSession starts a runtime session against model with a fresh seed.
func newSession(model llm.Model, prompt string, maxTokens int, playBack bool, threads int) (*Session, error) {
	seed := rand.Uint64()
	rt, err := model.StartSession(llm.SessionConfig{
		Seed:      seed,
		MaxTokens: maxTokens,
		Threads:   threads,
	})
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:        uuid.NewString(),
		rt:        rt,
		prompt:    prompt,
		maxTokens: maxTokens,
		playBack:  playBack,
		seed:      seed,
		started:   time.Now(),
		state:     StateCreated,
	}, nil
}

func (s *Session) State() SessionState { return s.state }

// Err is the error that ended the session, if any.
func (s *Session) Err() error { return s.err }

// Generated is the number of inferred tokens produced so far.
func (s *Session) Generated() int { return s.generated }

// Tokens returns the lazy token sequence of the session: played-back prompt
// tokens first (when enabled), then inferred tokens, in runtime order. The
// sequence ends when the model stops or the token budget is reached. A
// failure is yielded once as the final element. The sequence can be consumed
// only once; stopping early cancels the session.
func (s *Session) Tokens(ctx context.Context) iter.Seq2[llm.Token, error] {
	return func(yield func(llm.Token, error) bool) {
		if s.consumed {
			yield(llm.Token{}, ErrSessionConsumed)
			return
		}
		s.consumed = true

		stopped := false
		emit := func(tok llm.Token) error {
			if stopped {
				return errConsumerStopped
			}
			if tok.Whole {
				s.promptWhole = true
			} else {
				s.prompted++
			}
			if !yield(tok, nil) {
				stopped = true
				return errConsumerStopped
			}
			return nil
		}
		s.state = StatePriming
		err := s.feed(ctx, emit)
		if stopped {
			s.finish(StateCancelled, nil)
			return
		}
		if err != nil {
			yield(llm.Token{}, s.fail(ctx, err))
			return
		}

		s.state = StateGenerating
		for {
			if err := ctx.Err(); err != nil {
				yield(llm.Token{}, s.finish(StateCancelled, err))
				return
			}
			tok, fb, err := s.step(ctx)
			if err != nil {
				yield(llm.Token{}, s.fail(ctx, err))
				return
			}
			if fb == llm.Stop {
				s.finish(StateCompleted, nil)
				return
			}
			s.generated++
			if !yield(tok, nil) {
				s.finish(StateCancelled, nil)
				return
			}
			if s.generated >= s.maxTokens {
				s.finish(StateTokenBudgetExhausted, nil)
				return
			}
		}
	}
}

// Run drives the session to a terminal state and accumulates its output.
// Output of a failed or cancelled session is discarded.
func (s *Session) Run(ctx context.Context) (Result, error) {
	for tok, err := range s.Tokens(ctx) {
		if err != nil {
			s.promptBuf.Reset()
			s.outBuf.Reset()
			return Result{}, err
		}
		if tok.Kind == llm.PromptToken {
			s.promptBuf.WriteString(tok.Text)
		} else {
			s.outBuf.WriteString(tok.Text)
		}
	}
	return Result{
		SessionID:        s.ID,
		Prompt:           s.promptBuf.String(),
		Text:             s.outBuf.String(),
		PromptTokens:     s.prompted,
		PromptCounted:    !s.promptWhole,
		CompletionTokens: s.generated,
		State:            s.state,
		Duration:         time.Since(s.started),
	}, nil
}

// Close releases the runtime session. A session closed before reaching a
// terminal state is cancelled.
func (s *Session) Close() error {
	if !s.state.Terminal() {
		s.finish(StateCancelled, context.Canceled)
	}
	return s.rt.Close()
}

func (s *Session) feed(ctx context.Context, emit func(llm.Token) error) (err error) {
	defer recoverInto(&err)
	var fn func(llm.Token) error
	if s.playBack {
		fn = emit
	}
	return s.rt.Feed(ctx, s.prompt, s.playBack, fn)
}

func (s *Session) step(ctx context.Context) (tok llm.Token, fb llm.Feedback, err error) {
	defer recoverInto(&err)
	return s.rt.Step(ctx)
}

func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = panicError{v: r}
	}
}

// fail ends the session after a runtime error. Errors caused by the
// context ending count as cancellation.
func (s *Session) fail(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return s.finish(StateCancelled, ctxErr)
	}
	ge := &GenerationError{SessionID: s.ID, State: s.state, Err: err}
	return s.finish(StateRuntimeError, ge)
}

func (s *Session) finish(state SessionState, err error) error {
	s.state = state
	s.err = err
	return err
}

// Result is the outcome of a successful session.
type Result struct {
	SessionID string
	// Prompt holds played-back prompt tokens; empty when play-back is off.
	Prompt           string
	Text             string
	PromptTokens     int
	CompletionTokens int
	State            SessionState
	Duration         time.Duration
	// PromptCounted is false when the runtime could not report prompt tokens.
	PromptCounted bool
}

// Output is the response body: played-back prompt followed by generated text.
func (r Result) Output() string { return r.Prompt + r.Text }

// FinishReason is "length" when the token budget ran out, "stop" otherwise.
func (r Result) FinishReason() string {
	if r.State == StateTokenBudgetExhausted {
		return "length"
	}
	return "stop"
}
