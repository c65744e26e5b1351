// Package llmtest provides a scripted, in-memory llm.Runtime for tests.
//
// Prompts are split on whitespace into prompt tokens. Generated tokens come
// from Script (default: the prompt words echoed back in order, each prefixed
// with a space, until the words run out). The output depends only on the
// prompt, never on the seed, so concurrent and sequential runs can be compared.
package llmtest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alexandrughinea/llm-api/internal/llm"
)

// ErrConcurrentStep is returned when an exclusive model is stepped by two
// sessions at once.
var ErrConcurrentStep = errors.New("llmtest: concurrent step on exclusive model")

// Runtime is a configurable fake runtime. Zero value is usable.
type Runtime struct {
	// LoadErr is returned from Load when set.
	LoadErr error
	// Accept restricts the architectures Load accepts. Empty accepts all.
	Accept []llm.Architecture
	// Script produces the generated tokens for a prompt.
	Script func(prompt string) []string
	// Endless makes sessions generate "tok" forever (until the budget stops them).
	Endless bool
	// FailAfter makes Step fail once that many tokens were generated (0 disables).
	FailAfter int
	// FeedErr is returned from Feed when set.
	FeedErr error
	// PanicOnStep makes Step panic.
	PanicOnStep bool
	// StepDelay is slept inside every Step.
	StepDelay time.Duration
	// Block, when non-nil, makes every Step wait for a receive from it or for
	// the context to end.
	Block chan struct{}
	// WholePrompt plays the prompt back as one Whole token, like runtimes
	// that tokenize internally.
	WholePrompt bool
	// IsExclusive is reported by Model.Exclusive and enforced.
	IsExclusive bool

	Loads int32

	mu    sync.Mutex
	model *Model
}

func (r *Runtime) Name() string { return "llmtest" }

func (r *Runtime) Load(ctx context.Context, path string, arch llm.Architecture, tok llm.TokenizerSource, params llm.LoadParams) (llm.Model, error) {
	atomic.AddInt32(&r.Loads, 1)
	if r.LoadErr != nil {
		return nil, r.LoadErr
	}
	if len(r.Accept) > 0 {
		ok := false
		for _, a := range r.Accept {
			if a == arch {
				ok = true
			}
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", llm.ErrArchitectureMismatch, arch)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.model = &Model{rt: r}
	return r.model, nil
}

// LoadedModel returns the last model returned by Load.
func (r *Runtime) LoadedModel() *Model {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.model
}

// Model is the fake loaded model. It counts sessions for leak assertions.
type Model struct {
	rt       *Runtime
	started  atomic.Int32
	closed   atomic.Int32
	stepping atomic.Int32
	maxSeen  atomic.Int32
	isClosed atomic.Bool
}

// NewModel returns a model driven by rt without going through Load.
func NewModel(rt *Runtime) *Model { return &Model{rt: rt} }

func (m *Model) Exclusive() bool { return m.rt.IsExclusive }

func (m *Model) Close() error {
	m.isClosed.Store(true)
	return nil
}

// IsClosed reports whether Close was called on the model.
func (m *Model) IsClosed() bool { return m.isClosed.Load() }

// Started is the number of sessions created.
func (m *Model) Started() int { return int(m.started.Load()) }

// Closed is the number of sessions closed.
func (m *Model) Closed() int { return int(m.closed.Load()) }

// MaxConcurrentSteps is the highest number of Step calls observed in flight.
func (m *Model) MaxConcurrentSteps() int { return int(m.maxSeen.Load()) }

func (m *Model) StartSession(cfg llm.SessionConfig) (llm.Session, error) {
	if m.isClosed.Load() {
		return nil, errors.New("llmtest: model closed")
	}
	m.started.Add(1)
	return &session{m: m, cfg: cfg}, nil
}

type session struct {
	m      *Model
	cfg    llm.SessionConfig
	script []string
	next   int
	primed bool
	closed bool
}

func (s *session) Feed(ctx context.Context, prompt string, playBack bool, emit func(llm.Token) error) error {
	if s.m.rt.FeedErr != nil {
		return s.m.rt.FeedErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	words := strings.Fields(prompt)
	if playBack && emit != nil && s.m.rt.WholePrompt {
		if err := emit(llm.Token{Kind: llm.PromptToken, Text: prompt, Whole: true}); err != nil {
			return err
		}
	} else if playBack && emit != nil {
		for i, w := range words {
			if i > 0 {
				w = " " + w
			}
			if err := emit(llm.Token{Kind: llm.PromptToken, Text: w}); err != nil {
				return err
			}
		}
	}
	if s.m.rt.Script != nil {
		s.script = s.m.rt.Script(prompt)
	} else {
		for _, w := range words {
			s.script = append(s.script, " "+w)
		}
	}
	s.primed = true
	return nil
}

func (s *session) Step(ctx context.Context) (llm.Token, llm.Feedback, error) {
	if !s.primed {
		return llm.Token{}, llm.Stop, errors.New("llmtest: step before feed")
	}
	if s.closed {
		return llm.Token{}, llm.Stop, errors.New("llmtest: step after close")
	}
	n := s.m.stepping.Add(1)
	defer s.m.stepping.Add(-1)
	for {
		seen := s.m.maxSeen.Load()
		if n <= seen || s.m.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if s.m.rt.IsExclusive && n > 1 {
		return llm.Token{}, llm.Stop, ErrConcurrentStep
	}
	if s.m.rt.Block != nil {
		select {
		case <-s.m.rt.Block:
		case <-ctx.Done():
			return llm.Token{}, llm.Stop, ctx.Err()
		}
	}
	if s.m.rt.StepDelay > 0 {
		time.Sleep(s.m.rt.StepDelay)
	}
	if s.m.rt.PanicOnStep {
		panic("llmtest: boom")
	}
	if s.m.rt.FailAfter > 0 && s.next >= s.m.rt.FailAfter {
		return llm.Token{}, llm.Stop, errors.New("llmtest: runtime failure")
	}
	if s.m.rt.Endless {
		s.next++
		return llm.Token{Kind: llm.InferredToken, Text: " tok"}, llm.Continue, nil
	}
	if s.next >= len(s.script) {
		return llm.Token{}, llm.Stop, nil
	}
	tok := s.script[s.next]
	s.next++
	return llm.Token{Kind: llm.InferredToken, Text: tok}, llm.Continue, nil
}

func (s *session) Close() error {
	if !s.closed {
		s.closed = true
		s.m.closed.Add(1)
	}
	return nil
}
