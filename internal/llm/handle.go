package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/alexandrughinea/llm-api/internal/common/fsutil"
)

// LoadSpec describes the single model a process serves.
type LoadSpec struct {
	Path         string
	Architecture Architecture
	Tokenizer    TokenizerSource
	Params       LoadParams
}

// ModelInfo is the read-only description of a loaded model.
type ModelInfo struct {
	Name         string
	Path         string
	Architecture Architecture
	Runtime      string
	LoadedAt     time.Time
	LoadDuration time.Duration
}

// Handle is the process-wide loaded model. It is never mutated after Load
// returns, so it can be read from any number of goroutines.
type Handle struct {
	model Model
	info  ModelInfo
}

// NewHandle wraps an already loaded model. Load is the normal constructor.
func NewHandle(model Model, info ModelInfo) *Handle {
	return &Handle{model: model, info: info}
}

func (h *Handle) Model() Model { return h.model }

func (h *Handle) Info() ModelInfo { return h.info }

func (h *Handle) Exclusive() bool { return h.model.Exclusive() }

func (h *Handle) Close() error { return h.model.Close() }

// Load validates the model file and loads it through rt. Any failure is a
// *LoadError; callers are expected to treat it as fatal and must not retry.
func Load(ctx context.Context, rt Runtime, spec LoadSpec, logger zerolog.Logger) (*Handle, error) {
	fail := func(err error) (*Handle, error) {
		return nil, &LoadError{Path: spec.Path, Architecture: spec.Architecture, Runtime: rt.Name(), Err: err}
	}
	if spec.Architecture == ArchUnknown {
		return fail(ErrUnknownArchitecture)
	}
	path, err := fsutil.ExpandHome(spec.Path)
	if err != nil {
		return fail(err)
	}
	if err := sniffModelFile(path); err != nil {
		return fail(err)
	}
	if !spec.Tokenizer.Embedded() && !fsutil.PathExists(spec.Tokenizer.Path) {
		return fail(fmt.Errorf("tokenizer %q: %w", spec.Tokenizer.Path, os.ErrNotExist))
	}

	logger.Info().
		Str("model", path).
		Str("architecture", spec.Architecture.String()).
		Str("runtime", rt.Name()).
		Str("tokenizer", spec.Tokenizer.String()).
		Msg("loading model")
	start := time.Now()
	m, err := rt.Load(ctx, path, spec.Architecture, spec.Tokenizer, spec.Params)
	if err != nil {
		return fail(err)
	}
	info := ModelInfo{
		Name:         strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Path:         path,
		Architecture: spec.Architecture,
		Runtime:      rt.Name(),
		LoadedAt:     time.Now(),
		LoadDuration: time.Since(start),
	}
	logger.Info().
		Str("model", info.Name).
		Str("architecture", info.Architecture.String()).
		Dur("elapsed", info.LoadDuration).
		Bool("exclusive", m.Exclusive()).
		Msg("model loaded")
	return NewHandle(m, info), nil
}

// Container magics accepted by the loader: GGUF plus the legacy GGML family.
var modelMagics = [][]byte{
	[]byte("GGUF"),
	[]byte("lmgg"), // ggml, little-endian on disk
	[]byte("fmgg"), // ggmf
	[]byte("tjgg"), // ggjt
}

func sniffModelFile(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrModelNotFound, err)
	}
	if fi.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrModelNotFound, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open model: %w", err)
	}
	defer f.Close()
	head := make([]byte, 4)
	if _, err := io.ReadFull(f, head); err != nil {
		return fmt.Errorf("%w: short header", ErrCorruptModel)
	}
	for _, m := range modelMagics {
		if bytes.Equal(head, m) {
			return nil
		}
	}
	return fmt.Errorf("%w: magic %q", ErrCorruptModel, head)
}
