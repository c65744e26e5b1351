package httpapi

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestCORS_Preflight(t *testing.T) {
	r := NewMux(&mockService{}, Options{AllowedOrigin: "https://app.example", MaxAge: time.Hour})
	req := httptest.NewRequest(http.MethodOptions, "/prompt", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	h := w.Header()
	if h.Get("Access-Control-Allow-Origin") != "https://app.example" {
		t.Fatalf("allow-origin=%q", h.Get("Access-Control-Allow-Origin"))
	}
	if h.Get("Access-Control-Max-Age") != "3600" {
		t.Fatalf("max-age=%q", h.Get("Access-Control-Max-Age"))
	}
	if !strings.Contains(h.Get("Access-Control-Allow-Methods"), http.MethodPost) {
		t.Fatalf("allow-methods=%q", h.Get("Access-Control-Allow-Methods"))
	}
}

func TestCORS_OtherOriginRejected(t *testing.T) {
	r := NewMux(&mockService{}, Options{AllowedOrigin: "https://app.example"})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected allow-origin %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := NewMux(&mockService{}, Options{})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	body, _ := io.ReadAll(w.Body)
	if !bytes.Contains(body, []byte(`llmapi_http_requests_total{method="GET",path="/health",status="200"}`)) {
		t.Fatalf("missing request counter in:\n%s", body)
	}
}

func TestRoutePatternOrPath_FallsBackToPath(t *testing.T) {
	svc := &mockService{}
	r := NewMux(svc, Options{})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/no/such/route", nil))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), `path="/no/such/route",status="404"`) {
		t.Fatalf("expected unmatched path label")
	}
}

func TestAccessLog_RemoteAddrAndUserAgent(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	r := NewMux(&mockService{}, Options{Logger: &logger})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("User-Agent", "probe/1.0")
	r.ServeHTTP(httptest.NewRecorder(), req)
	out := buf.String()
	for _, want := range []string{`"user_agent":"probe/1.0"`, `"remote_addr":"192.0.2.1`, `"status":200`, `"message":"request"`, `"request_id":`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s in log: %s", want, out)
		}
	}
}

func TestGenerateLog_DebugOverrideIncludesOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	svc := &mockService{}
	svc.res.Text = " secret continuation"
	r := NewMux(svc, Options{Logger: &logger, LogLevel: LevelInfo})

	postJSON(r, "/prompt", `{"message":"x"}`)
	if !strings.Contains(buf.String(), `"message":"generate end"`) || strings.Contains(buf.String(), "secret continuation") {
		t.Fatalf("info log: %s", buf.String())
	}
	buf.Reset()
	req := httptest.NewRequest(http.MethodPost, "/prompt?log=debug", strings.NewReader(`{"message":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(httptest.NewRecorder(), req)
	if !strings.Contains(buf.String(), "secret continuation") {
		t.Fatalf("debug log: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"":      LevelInfo,
		"off":   LevelOff,
		"error": LevelError,
		"info":  LevelInfo,
		"DEBUG": LevelDebug,
		"trace": LevelDebug,
		"weird": LevelInfo, // default
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRequestLogLevel_Overrides(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?log=debug", nil)
	if got := requestLogLevel(r, LevelOff); got != LevelDebug {
		t.Fatalf("query override failed: %v", got)
	}
	r = httptest.NewRequest("GET", "/x?log=1", nil)
	if got := requestLogLevel(r, LevelOff); got != LevelDebug {
		t.Fatalf("legacy query override failed: %v", got)
	}
	r = httptest.NewRequest("GET", "/x", nil)
	r.Header.Set("X-Log-Level", "error")
	if got := requestLogLevel(r, LevelInfo); got != LevelError {
		t.Fatalf("header override failed: %v", got)
	}
	r = httptest.NewRequest("GET", "/x", nil)
	if got := requestLogLevel(r, LevelError); got != LevelError {
		t.Fatalf("default not used: %v", got)
	}
}
