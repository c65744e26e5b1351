package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownArchitecture is returned by ResolveArchitecture for tags outside the supported set.
	ErrUnknownArchitecture = errors.New("unknown model architecture")
	// ErrModelNotFound means the model path does not exist or is not a regular file.
	ErrModelNotFound = errors.New("model file not found")
	// ErrCorruptModel means the file is not a recognised model container.
	ErrCorruptModel = errors.New("unrecognised model file format")
	// ErrArchitectureMismatch means the runtime cannot serve the requested architecture.
	ErrArchitectureMismatch = errors.New("architecture not supported by runtime")
	// ErrRuntimeUnavailable means the binary was built without a usable model runtime.
	ErrRuntimeUnavailable = errors.New("model runtime unavailable")
)

// LoadError carries the context of a failed model load. It is always fatal.
type LoadError struct {
	Path         string
	Architecture Architecture
	Runtime      string
	Err          error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s model from %q (runtime %s): %v", e.Architecture, e.Path, e.Runtime, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// IsLoadError reports whether err is (or wraps) a *LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}
