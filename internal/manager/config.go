package manager

import (
	"errors"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/alexandrughinea/llm-api/internal/llm"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultMaxQueueDepth = 32
	defaultMaxWait       = 30 * time.Second
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	// Handle is the loaded model. Required.
	Handle *llm.Handle
	// MaxTokens caps generated tokens per session. Required, > 0.
	MaxTokens int
	// PlayBack echoes prompt tokens into the output before generated text.
	PlayBack bool
	// Threads is passed to every session (0 leaves the runtime default).
	Threads int
	// MaxConcurrent bounds parallel sessions for models that allow it.
	// Exclusive models always get a single slot.
	MaxConcurrent int
	MaxQueueDepth int
	MaxWait       time.Duration
	Logger        *zerolog.Logger
	Publisher     EventPublisher
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) (*Manager, error) {
	if cfg.Handle == nil {
		return nil, errors.New("manager: model handle is required")
	}
	if cfg.MaxTokens <= 0 {
		return nil, errors.New("manager: max tokens must be greater than zero")
	}
	m := &Manager{
		handle:    cfg.Handle,
		maxTokens: cfg.MaxTokens,
		playBack:  cfg.PlayBack,
		threads:   cfg.Threads,
		publisher: cfg.Publisher,
		startTime: time.Now(),
	}
	// Apply defaults if unset
	if cfg.Logger != nil {
		m.log = cfg.Logger.With().Str("component", "manager").Logger()
	} else {
		m.log = zerolog.Nop()
	}
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	depth := cfg.MaxQueueDepth
	if depth <= 0 {
		depth = defaultMaxQueueDepth
	}
	wait := cfg.MaxWait
	if wait <= 0 {
		wait = defaultMaxWait
	}
	slots := cfg.MaxConcurrent
	if slots <= 0 {
		slots = runtime.NumCPU()
	}
	if cfg.Handle.Exclusive() {
		slots = 1
	}
	m.gate = newGate(slots, depth, wait)
	return m, nil
}
