package types

// PromptRequest is the body of POST /prompt.
type PromptRequest struct {
	// Prompt text to continue.
	// example: The sky is
	Message string `json:"message" example:"The sky is"`
}

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	// Prompt text to continue.
	// example: The sky is
	Prompt string `json:"prompt" example:"The sky is"`
}

// GenerateResponse is returned by POST /api/generate.
type GenerateResponse struct {
	// Model name (file name without extension).
	// example: open_llama_3b
	Model string `json:"model" example:"open_llama_3b"`
	// Architecture tag of the loaded model.
	// example: llama
	Architecture string `json:"architecture" example:"llama"`
	// Played-back prompt context followed by the generated text.
	// example: The sky is blue and clear
	Response string `json:"response" example:"The sky is blue and clear"`
	// Number of prompt tokens played back into the response. Omitted when the
	// runtime plays the prompt back as one untokenized piece.
	// example: 3
	PromptTokens *int `json:"prompt_tokens,omitempty" example:"3"`
	// Number of generated tokens.
	// example: 3
	CompletionTokens int `json:"completion_tokens" example:"3"`
	// "stop" when the model ended the sequence, "length" when the token budget ran out.
	// example: stop
	FinishReason string `json:"finish_reason" example:"stop"`
	// Wall-clock duration of the session in milliseconds.
	// example: 812
	DurationMS int64 `json:"duration_ms" example:"812"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Overall state; "ready" once the model is loaded.
	// example: ready
	State string `json:"state" example:"ready"`
	// Loaded model name.
	// example: open_llama_3b
	Model string `json:"model" example:"open_llama_3b"`
	// Architecture tag.
	// example: llama
	Architecture string `json:"architecture" example:"llama"`
	// Model runtime name.
	// example: go-llama.cpp
	Runtime string `json:"runtime" example:"go-llama.cpp"`
	// Whether generations are serialized through a single slot.
	// example: true
	Exclusive bool `json:"exclusive" example:"true"`
	// Model load duration in milliseconds.
	// example: 5210
	LoadDurationMS int64 `json:"load_duration_ms" example:"5210"`
	// Maximum generated tokens per request.
	// example: 128
	MaxTokens int `json:"max_tokens" example:"128"`
	// Concurrent generation slots.
	// example: 1
	Slots int `json:"slots" example:"1"`
	// Sessions currently generating.
	// example: 1
	Inflight int `json:"inflight" example:"1"`
	// Requests waiting for a slot.
	// example: 0
	QueueLen int `json:"queue_len" example:"0"`
	// Maximum waiting requests before backpressure triggers.
	// example: 32
	MaxQueueDepth int `json:"max_queue_depth" example:"32"`
	// Session outcome counters since start.
	Sessions SessionCounters `json:"sessions"`
	// Last generation error observed (if any).
	LastError string `json:"last_error,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// SessionCounters counts sessions by terminal state.
type SessionCounters struct {
	Started              uint64 `json:"started"`
	Completed            uint64 `json:"completed"`
	TokenBudgetExhausted uint64 `json:"token_budget_exhausted"`
	RuntimeErrors        uint64 `json:"runtime_errors"`
	Cancelled            uint64 `json:"cancelled"`
	Rejected             uint64 `json:"rejected"`
}
