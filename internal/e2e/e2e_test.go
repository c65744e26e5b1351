package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexandrughinea/llm-api/internal/httpapi"
	"github.com/alexandrughinea/llm-api/internal/llm/llmtest"
	"github.com/alexandrughinea/llm-api/internal/manager"
	"github.com/alexandrughinea/llm-api/pkg/types"
)

// TestE2E_SkyIsBoundedByBudget: prompt "The sky is" with a budget of 5 returns
// the prompt context plus at most 5 generated tokens.
func TestE2E_SkyIsBoundedByBudget(t *testing.T) {
	rt := &llmtest.Runtime{Endless: true}
	srv, _ := newServer(t, rt, writeTempModel(t, "tiny.gguf"), manager.ManagerConfig{MaxTokens: 5, PlayBack: true}, httpapi.Options{})

	code, body := post(t, context.Background(), srv.URL+"/prompt", `{"message":"The sky is"}`)
	if code != http.StatusOK {
		t.Fatalf("status=%d body=%s", code, body)
	}
	if !strings.HasPrefix(body, "The sky is") || strings.Count(body, " tok") > 5 || body == "The sky is" {
		t.Fatalf("body=%q", body)
	}

	code, body = post(t, context.Background(), srv.URL+"/api/generate", `{"prompt":"The sky is"}`)
	var resp types.GenerateResponse
	if code != http.StatusOK || json.Unmarshal([]byte(body), &resp) != nil {
		t.Fatalf("status=%d body=%s", code, body)
	}
	if resp.CompletionTokens != 5 || resp.FinishReason != "length" || resp.Model != "tiny" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

// TestE2E_Backpressure429 verifies we return 429 Too Many Requests when the
// queue is full and the wait timeout elapses.
func TestE2E_Backpressure429(t *testing.T) {
	rt := &llmtest.Runtime{IsExclusive: true, Block: make(chan struct{})}
	srv, mgr := newServer(t, rt, writeTempModel(t, "alpha.gguf"), manager.ManagerConfig{
		MaxQueueDepth: 1, // one waiting request besides the in-flight
		MaxWait:       20 * time.Millisecond,
	}, httpapi.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		post(t, ctx, srv.URL+"/prompt", `{"message":"hold the slot"}`)
	}()
	deadline := time.Now().Add(2 * time.Second)
	for mgr.Status().Inflight != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("first request never started")
		}
		time.Sleep(time.Millisecond)
	}

	code, body := post(t, context.Background(), srv.URL+"/prompt", `{"message":"second"}`)
	if code != http.StatusTooManyRequests {
		t.Fatalf("status=%d body=%s", code, body)
	}
	cancel()
	wg.Wait()
}

// TestE2E_ConcurrentRequestsMatchSequential: N concurrent requests produce the
// same bodies as the same requests sent one at a time.
func TestE2E_ConcurrentRequestsMatchSequential(t *testing.T) {
	rt := &llmtest.Runtime{StepDelay: time.Millisecond}
	srv, _ := newServer(t, rt, writeTempModel(t, "tiny.gguf"), manager.ManagerConfig{MaxTokens: 16, MaxConcurrent: 4}, httpapi.Options{})

	bodies := make([]string, 8)
	for i := range bodies {
		bodies[i] = fmt.Sprintf(`{"message":"request %d of the batch"}`, i)
	}
	want := make([]string, len(bodies))
	for i, b := range bodies {
		code, out := post(t, context.Background(), srv.URL+"/prompt", b)
		if code != http.StatusOK {
			t.Fatalf("sequential %d: status=%d", i, code)
		}
		want[i] = out
	}
	got := make([]string, len(bodies))
	var wg sync.WaitGroup
	for i, b := range bodies {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, got[i] = post(t, context.Background(), srv.URL+"/prompt", b)
		}()
	}
	wg.Wait()
	for i := range bodies {
		if got[i] != want[i] {
			t.Fatalf("request %d: concurrent %q != sequential %q", i, got[i], want[i])
		}
	}
}

// TestE2E_HealthDuringGeneration: /health answers while the only slot is busy.
func TestE2E_HealthDuringGeneration(t *testing.T) {
	rt := &llmtest.Runtime{IsExclusive: true, Block: make(chan struct{})}
	srv, mgr := newServer(t, rt, writeTempModel(t, "tiny.gguf"), manager.ManagerConfig{}, httpapi.Options{})

	done := make(chan int, 1)
	go func() {
		code, _ := post(t, context.Background(), srv.URL+"/prompt", `{"message":"slow one"}`)
		done <- code
	}()
	deadline := time.Now().Add(2 * time.Second)
	for mgr.Status().Inflight != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("generation never started")
		}
		time.Sleep(time.Millisecond)
	}

	client := &http.Client{Timeout: time.Second}
	resp, err := client.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(b) != "OK!" {
		t.Fatalf("health status=%d body=%q", resp.StatusCode, b)
	}

	close(rt.Block)
	if code := <-done; code != http.StatusOK {
		t.Fatalf("prompt status=%d", code)
	}
}

// TestE2E_RequestTimeout504: a generation outliving the request timeout gets
// 504 and its session is released.
func TestE2E_RequestTimeout504(t *testing.T) {
	rt := &llmtest.Runtime{Endless: true, StepDelay: 2 * time.Millisecond}
	srv, mgr := newServer(t, rt, writeTempModel(t, "tiny.gguf"), manager.ManagerConfig{MaxTokens: 1 << 20}, httpapi.Options{RequestTimeout: 30 * time.Millisecond})

	code, body := post(t, context.Background(), srv.URL+"/prompt", `{"message":"never ends"}`)
	if code != http.StatusGatewayTimeout || body != "" {
		t.Fatalf("status=%d body=%q", code, body)
	}
	st := mgr.Status()
	if st.Inflight != 0 || st.Sessions.Cancelled != 1 {
		t.Fatalf("status: %+v", st)
	}
}
