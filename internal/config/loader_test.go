package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestFileYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "server_port: 8443\nllm_model: /m/a.gguf\nnetwork_public_ip_v4_services: [a.example, b.example]\nllm_play_back_previous_tokens: true\n")
	l, err := File(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for name, want := range map[string]string{
		EnvServerPort:   "8443",
		EnvModel:        "/m/a.gguf",
		EnvIPv4Services: "a.example,b.example",
		EnvPlayBack:     "true",
	} {
		if got, ok := l(name); !ok || got != want {
			t.Fatalf("%s = %q (%v), want %q", name, got, ok, want)
		}
	}
}

func TestFileJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"SERVER_PORT":7070,"max_age":3600,"llm_model_architecture":"gptj"}`)
	l, err := File(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if v, _ := l(EnvServerPort); v != "7070" {
		t.Fatalf("port=%q", v)
	}
	if v, _ := l(EnvMaxAge); v != "3600" {
		t.Fatalf("max age=%q", v)
	}
	if v, _ := l(EnvModelArchitecture); v != "gptj" {
		t.Fatalf("arch=%q", v)
	}
}

func TestFileTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "server_address=\"0.0.0.0\"\nllm_inference_max_token_count=64\n")
	l, err := File(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if v, _ := l(EnvServerAddress); v != "0.0.0.0" {
		t.Fatalf("addr=%q", v)
	}
	if v, _ := l(EnvMaxTokenCount); v != "64" {
		t.Fatalf("max tokens=%q", v)
	}
}

func TestFileErrors(t *testing.T) {
	if _, err := File(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := File(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
}

func TestChainPrecedence(t *testing.T) {
	l := Chain(Map(map[string]string{"A": "env"}), nil, Map(map[string]string{"A": "file", "B": "file"}))
	if v, _ := l("A"); v != "env" {
		t.Fatalf("A=%q", v)
	}
	if v, _ := l("B"); v != "file" {
		t.Fatalf("B=%q", v)
	}
	if _, ok := l("C"); ok {
		t.Fatalf("C should be missing")
	}
}
