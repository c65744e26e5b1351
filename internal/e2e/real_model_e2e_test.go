//go:build llama

package e2e

import (
	"context"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alexandrughinea/llm-api/internal/httpapi"
	"github.com/alexandrughinea/llm-api/internal/llm"
	"github.com/alexandrughinea/llm-api/internal/manager"
)

// TestE2E_RealModel runs one prompt against a real GGUF llama model. Set
// LLMAPI_E2E_MODEL to the model path to enable it.
func TestE2E_RealModel(t *testing.T) {
	path := os.Getenv("LLMAPI_E2E_MODEL")
	if path == "" {
		t.Skip("LLMAPI_E2E_MODEL not set")
	}
	srv, mgr := newServer(t, llm.DefaultRuntime(), path, manager.ManagerConfig{MaxTokens: 5, PlayBack: true}, httpapi.Options{})
	if mgr.Status().Slots != 1 {
		t.Fatalf("go-llama.cpp models must be exclusive")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	code, body := post(t, ctx, srv.URL+"/prompt", `{"message":"The sky is"}`)
	if code != http.StatusOK {
		t.Fatalf("status=%d body=%s", code, body)
	}
	if !strings.HasPrefix(strings.TrimSpace(body), "The sky is") || len(body) <= len("The sky is") {
		t.Fatalf("body=%q", body)
	}
	if got := mgr.Status().Sessions.Completed + mgr.Status().Sessions.TokenBudgetExhausted; got != 1 {
		t.Fatalf("expected one successful session, got %d", got)
	}
}
