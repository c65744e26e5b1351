//go:build llama

package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"
)

// llamaRuntime loads GGUF models in-process through go-llama.cpp.
type llamaRuntime struct{}

// DefaultRuntime returns the in-process llama.cpp runtime.
func DefaultRuntime() Runtime { return llamaRuntime{} }

func (llamaRuntime) Name() string { return "go-llama.cpp" }

func (llamaRuntime) Load(ctx context.Context, path string, arch Architecture, tok TokenizerSource, params LoadParams) (Model, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("model path is empty")
	}
	// llama.cpp only reads llama-family GGUF files with their embedded vocabulary.
	if arch != ArchLlama {
		return nil, fmt.Errorf("%w: %s", ErrArchitectureMismatch, arch)
	}
	if !tok.Embedded() {
		return nil, fmt.Errorf("external tokenizer %q: %w", tok.Path, ErrRuntimeUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mo := []llama.ModelOption{
		llama.SetContext(zn(params.ContextSize, 2048)),
		llama.SetGPULayers(params.GPULayers),
		llama.SetMMap(params.UseMmap),
	}
	m, err := llama.New(path, mo...)
	if err != nil {
		return nil, err
	}
	return &llamaModel{lm: m, threads: params.Threads}, nil
}

// llamaModel owns the loaded weights. The token callback and KV cache live on
// the model, so sessions must be serialized by the caller.
type llamaModel struct {
	lm      *llama.LLama
	threads int
}

func (m *llamaModel) Exclusive() bool { return true }

func (m *llamaModel) Close() error {
	if m.lm != nil {
		m.lm.Free()
		m.lm = nil
	}
	return nil
}

func (m *llamaModel) StartSession(cfg SessionConfig) (Session, error) {
	if m.lm == nil {
		return nil, errors.New("llama model not initialized")
	}
	if cfg.Threads <= 0 {
		cfg.Threads = m.threads
	}
	return &llamaSession{predictBridge: newPredictBridge(), m: m, cfg: cfg}, nil
}

// llamaSession drives one Predict call through a predictBridge.
type llamaSession struct {
	*predictBridge
	m   *llamaModel
	cfg SessionConfig
}

func (s *llamaSession) Feed(ctx context.Context, prompt string, playBack bool, emit func(Token) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// go-llama.cpp tokenizes inside Predict, so the prompt is played back whole.
	if playBack && emit != nil {
		if err := emit(Token{Kind: PromptToken, Text: prompt, Whole: true}); err != nil {
			return err
		}
	}
	po := mapSessionConfigToPredictOptions(s.cfg)
	return s.start(func(cb func(string) bool) error {
		s.m.lm.SetTokenCallback(cb)
		_, err := s.m.lm.Predict(prompt, po...)
		return err
	})
}

func zn(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func zf(v, def float32) float32 {
	if v > 0 {
		return v
	}
	return def
}

// mapSessionConfigToPredictOptions converts session parameters into go-llama.cpp options.
func mapSessionConfigToPredictOptions(cfg SessionConfig) []llama.PredictOption {
	po := []llama.PredictOption{
		llama.SetTokens(max(1, cfg.MaxTokens)),
		llama.SetThreads(max(1, cfg.Threads)),
		llama.SetTopP(zf(cfg.TopP, llama.DefaultOptions.TopP)),
		llama.SetTopK(zn(cfg.TopK, llama.DefaultOptions.TopK)),
		llama.SetTemperature(zf(cfg.Temperature, llama.DefaultOptions.Temperature)),
		llama.SetPenalty(zf(cfg.RepeatPenalty, llama.DefaultOptions.Penalty)),
	}
	if cfg.Seed != 0 {
		// llama.cpp takes a non-negative int seed.
		po = append(po, llama.SetSeed(int(cfg.Seed&0x7fffffff)))
	}
	return po
}
