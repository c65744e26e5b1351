package llm

import "context"

// Runtime is the model-runtime collaborator. It owns tokenization and the
// numerical work; this package only drives it.
type Runtime interface {
	// Name identifies the runtime in logs and status output.
	Name() string
	// Load reads the model at path. It is called exactly once per process.
	Load(ctx context.Context, path string, arch Architecture, tok TokenizerSource, params LoadParams) (Model, error)
}

// Model is a loaded, immutable model. Implementations must allow StartSession
// to be called from many goroutines.
type Model interface {
	StartSession(cfg SessionConfig) (Session, error)
	// Exclusive reports whether sessions must not step concurrently, e.g. when
	// the backend keeps decoding state on the model itself.
	Exclusive() bool
	Close() error
}

// Session is the decoding state of one request. A Session is never shared
// between goroutines.
type Session interface {
	// Feed tokenizes prompt and primes the decoding context. When playBack is
	// set, each prompt token is reported through emit as a PromptToken.
	Feed(ctx context.Context, prompt string, playBack bool, emit func(Token) error) error
	// Step computes the next token. It returns Stop (with a zero Token) once
	// the model signals end of sequence. Step is not interruptible; ctx is
	// only consulted before the work starts.
	Step(ctx context.Context) (Token, Feedback, error)
	// Close releases the session. It is safe to call more than once.
	Close() error
}

// TokenizerSource selects where the tokenizer comes from.
// The zero value means the tokenizer embedded in the model file.
type TokenizerSource struct {
	Path string
}

// Embedded reports whether the model's own tokenizer is used.
func (t TokenizerSource) Embedded() bool { return t.Path == "" }

func (t TokenizerSource) String() string {
	if t.Embedded() {
		return "embedded"
	}
	return t.Path
}

// LoadParams are backend tunables applied at load time.
type LoadParams struct {
	ContextSize int
	Threads     int
	GPULayers   int
	UseMmap     bool
}

// SessionConfig parameterizes one session.
type SessionConfig struct {
	// Seed drives sampling. Callers pass a fresh non-reproducible value per session.
	Seed          uint64
	MaxTokens     int
	Threads       int
	Temperature   float32
	TopP          float32
	TopK          int
	RepeatPenalty float32
}

// TokenKind tells whether a token came from the prompt or from generation.
type TokenKind int

const (
	PromptToken TokenKind = iota
	InferredToken
)

func (k TokenKind) String() string {
	if k == PromptToken {
		return "prompt"
	}
	return "inferred"
}

// Token is one decoded piece of text.
type Token struct {
	Kind TokenKind
	Text string
	// Whole marks a prompt played back as a single piece by a runtime that
	// tokenizes internally. Its token count is unknown.
	Whole bool
}

// Feedback is the runtime's verdict after a step.
type Feedback int

const (
	Continue Feedback = iota
	Stop
)
