package httpapi

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexandrughinea/llm-api/internal/llm"
	"github.com/alexandrughinea/llm-api/internal/llm/llmtest"
	"github.com/alexandrughinea/llm-api/internal/manager"
	"github.com/alexandrughinea/llm-api/pkg/types"
)

type mockService struct {
	res    manager.Result
	err    error
	ready  bool
	info   llm.ModelInfo
	status types.StatusResponse
	prompt string
}

func (m *mockService) Generate(ctx context.Context, prompt string) (manager.Result, error) {
	m.prompt = prompt
	if m.err != nil {
		return manager.Result{}, m.err
	}
	return m.res, nil
}
func (m *mockService) Info() llm.ModelInfo { return m.info }
func (m *mockService) Ready() bool { return m.ready }
func (m *mockService) Status() types.StatusResponse { return m.status }

type mockHTTPError struct {
	msg  string
	code int
}

func (e mockHTTPError) Error() string { return e.msg }
func (e mockHTTPError) StatusCode() int { return e.code }

// newManager builds a real manager over a scripted model.
func newManager(t *testing.T, rt *llmtest.Runtime, cfg manager.ManagerConfig) (*manager.Manager, *llmtest.Model) {
	t.Helper()
	model := llmtest.NewModel(rt)
	cfg.Handle = llm.NewHandle(model, llm.ModelInfo{Name: "tiny", Architecture: llm.ArchLlama, Runtime: rt.Name()})
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 5
	}
	m, err := manager.NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	return m, model
}

func skyScript(prompt string) []string {
	if prompt == "The sky is" {
		return []string{" blue", " and", " clear"}
	}
	return nil
}

func postJSON(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

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
