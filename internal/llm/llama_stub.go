//go:build !llama

package llm

// No-CGO runtime used when the binary is built without the 'llama' tag. It
// keeps default builds and CI CGO-free and refuses to load anything, so the
// process fails at startup instead of serving a model it does not have.

import (
	"context"
	"fmt"
)

type llamaRuntime struct{}

// DefaultRuntime returns the in-process llama.cpp runtime, or this stub.
func DefaultRuntime() Runtime { return llamaRuntime{} }

func (llamaRuntime) Name() string { return "go-llama.cpp (not built)" }

func (llamaRuntime) Load(ctx context.Context, path string, arch Architecture, tok TokenizerSource, params LoadParams) (Model, error) {
	return nil, fmt.Errorf("%w: llama support not built (missing 'llama' build tag)", ErrRuntimeUnavailable)
}
