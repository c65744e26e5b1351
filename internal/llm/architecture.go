package llm

import (
	"fmt"
	"strings"
)

// Architecture is a model family understood by the runtime loader.
type Architecture int

const (
	ArchUnknown Architecture = iota
	ArchBloom
	ArchGPT2
	ArchGPTJ
	ArchGPTNeoX
	ArchLlama
	ArchMPT
)

// architectureTags is the closed set of configuration tags. Lookups are case-sensitive.
var architectureTags = map[string]Architecture{
	"bloom":   ArchBloom,
	"gpt2":    ArchGPT2,
	"gptj":    ArchGPTJ,
	"gptneox": ArchGPTNeoX,
	"llama":   ArchLlama,
	"mpt":     ArchMPT,
}

// ResolveArchitecture maps a configuration tag such as "llama" or "gptj" to its
// Architecture. Unknown tags return an error matching ErrUnknownArchitecture.
func ResolveArchitecture(tag string) (Architecture, error) {
	if a, ok := architectureTags[tag]; ok {
		return a, nil
	}
	return ArchUnknown, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownArchitecture, tag, strings.Join(ArchitectureTags(), ", "))
}

// Architectures returns every supported architecture in declaration order.
func Architectures() []Architecture {
	return []Architecture{ArchBloom, ArchGPT2, ArchGPTJ, ArchGPTNeoX, ArchLlama, ArchMPT}
}

// ArchitectureTags returns the configuration tags of Architectures, in the same order.
func ArchitectureTags() []string {
	archs := Architectures()
	out := make([]string, 0, len(archs))
	for _, a := range archs {
		out = append(out, a.String())
	}
	return out
}

func (a Architecture) String() string {
	switch a {
	case ArchBloom:
		return "bloom"
	case ArchGPT2:
		return "gpt2"
	case ArchGPTJ:
		return "gptj"
	case ArchGPTNeoX:
		return "gptneox"
	case ArchLlama:
		return "llama"
	case ArchMPT:
		return "mpt"
	default:
		return "unknown"
	}
}
