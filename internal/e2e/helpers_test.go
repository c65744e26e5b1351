package e2e

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/alexandrughinea/llm-api/internal/httpapi"
	"github.com/alexandrughinea/llm-api/internal/llm"
	"github.com/alexandrughinea/llm-api/internal/manager"
)

// writeTempModel writes a file with a GGUF header so the loader accepts it.
func writeTempModel(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, append([]byte("GGUF"), make([]byte, 64)...), 0o644); err != nil {
		t.Fatalf("write temp model %s: %v", p, err)
	}
	return p
}

// newServer loads modelPath through rt and serves it the way the binary does.
func newServer(t *testing.T, rt llm.Runtime, modelPath string, cfg manager.ManagerConfig, opts httpapi.Options) (*httptest.Server, *manager.Manager) {
	t.Helper()
	h, err := llm.Load(context.Background(), rt, llm.LoadSpec{Path: modelPath, Architecture: llm.ArchLlama}, zerolog.Nop())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg.Handle = h
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 5
	}
	mgr, err := manager.NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	srv := httptest.NewServer(httpapi.NewMux(mgr, opts))
	t.Cleanup(func() {
		srv.Close()
		_ = mgr.Close()
	})
	return srv, mgr
}

// post sends a JSON body and returns the status code and body.
func post(t *testing.T, ctx context.Context, url, body string) (int, string) {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err.Error()
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}
