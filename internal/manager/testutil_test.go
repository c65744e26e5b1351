package manager

import (
	"context"
	"testing"
	"time"

	"github.com/alexandrughinea/llm-api/internal/llm"
	"github.com/alexandrughinea/llm-api/internal/llm/llmtest"
)

// newTestManager wires a Manager to a scripted model driven by rt.
func newTestManager(t *testing.T, rt *llmtest.Runtime, cfg ManagerConfig) (*Manager, *llmtest.Model) {
	t.Helper()
	model := llmtest.NewModel(rt)
	cfg.Handle = llm.NewHandle(model, llm.ModelInfo{
		Name:         "tiny",
		Path:         "/models/tiny.gguf",
		Architecture: llm.ArchLlama,
		Runtime:      rt.Name(),
		LoadedAt:     time.Now(),
	})
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 16
	}
	m, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	return m, model
}

// skyScript answers "The sky is" with " blue and clear".
func skyScript(prompt string) []string {
	if prompt == "The sky is" {
		return []string{" blue", " and", " clear"}
	}
	return nil
}

// waitFor polls cond until it holds or the test times out.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}
