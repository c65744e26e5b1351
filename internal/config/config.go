// Package config builds the process-wide, read-only Config once at startup.
// Variables come from the environment first, then an optional .env file,
// then an optional yaml/json/toml file. Missing or unparsable required
// variables are all reported together and are fatal.
package config

import (
	"errors"
	"fmt"
	"net"
	"runtime"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/alexandrughinea/llm-api/internal/llm"
)

// Variable names.
const (
	EnvServerAddress     = "SERVER_ADDRESS"
	EnvServerPort        = "SERVER_PORT"
	EnvRequestTimeout    = "SERVER_REQUEST_TIMEOUT_IN_SECONDS"
	EnvCommandTimeout    = "MACHINE_COMMAND_TIMEOUT_IN_SECONDS"
	EnvMaxConnections    = "MAX_CONNECTIONS"
	EnvAllowedOrigin     = "ALLOWED_ORIGIN"
	EnvMaxAge            = "MAX_AGE"
	EnvIPv4Services      = "NETWORK_PUBLIC_IP_V4_SERVICES"
	EnvIPv6Services      = "NETWORK_PUBLIC_IP_V6_SERVICES"
	EnvModel             = "LLM_MODEL"
	EnvModelArchitecture = "LLM_MODEL_ARCHITECTURE"
	EnvMaxTokenCount     = "LLM_INFERENCE_MAX_TOKEN_COUNT"
	EnvTokenizerPath     = "LLM_TOKENIZER_PATH"
	EnvContextSize       = "LLM_CONTEXT_SIZE"
	EnvThreads           = "LLM_THREADS"
	EnvGPULayers         = "LLM_GPU_LAYERS"
	EnvPlayBack          = "LLM_PLAY_BACK_PREVIOUS_TOKENS"
	EnvMaxQueueDepth     = "LLM_MAX_QUEUE_DEPTH"
	EnvQueueWait         = "LLM_QUEUE_WAIT_IN_SECONDS"
	EnvMaxConcurrent     = "LLM_MAX_CONCURRENT_SESSIONS"
	EnvTLSCertFile       = "TLS_CERT_FILE"
	EnvTLSKeyFile        = "TLS_KEY_FILE"
	EnvLogLevel          = "LOG_LEVEL"
	EnvLogFormat         = "LOG_FORMAT"
	EnvMaxBodyBytes      = "MAX_BODY_BYTES"
)

// Defaults for optional variables.
const (
	DefaultContextSize   = 2048
	DefaultPlayBack      = true
	DefaultMaxQueueDepth = 32
	DefaultQueueWait     = 30 * time.Second
	DefaultTLSCertFile   = "certs/cert.pem"
	DefaultTLSKeyFile    = "certs/key.pem"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "json"
	DefaultMaxBodyBytes  = 1 << 20
)

// Services is a main/fallback pair of public-IP probe endpoints.
type Services struct {
	Main     string
	Fallback string
}

// Config holds runtime parameters for the service. It is built once and
// never modified afterwards.
type Config struct {
	ServerAddress string
	ServerPort    uint16
	// RequestTimeout bounds one generation; zero means no deadline.
	RequestTimeout time.Duration
	// CommandTimeout bounds the model load; always positive.
	CommandTimeout time.Duration
	MaxConnections int
	AllowedOrigin  string
	MaxAge         time.Duration

	IPv4Services Services
	IPv6Services *Services

	Model           string
	ArchitectureTag string
	Architecture    llm.Architecture
	MaxTokenCount   int
	TokenizerPath   string
	ContextSize     int
	Threads         int
	GPULayers       int
	PlayBack        bool

	MaxQueueDepth         int
	QueueWait             time.Duration
	MaxConcurrentSessions int

	TLSCertFile  string
	TLSKeyFile   string
	LogLevel     string
	LogFormat    string
	MaxBodyBytes int64
}

// Addr is the listen address, host:port.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.ServerAddress, strconv.Itoa(int(c.ServerPort)))
}

// LoadSpec derives the model load request from the configuration.
func (c *Config) LoadSpec() llm.LoadSpec {
	return llm.LoadSpec{
		Path:         c.Model,
		Architecture: c.Architecture,
		Tokenizer:    llm.TokenizerSource{Path: c.TokenizerPath},
		Params: llm.LoadParams{
			ContextSize: c.ContextSize,
			Threads:     c.Threads,
			GPULayers:   c.GPULayers,
			UseMmap:     true,
		},
	}
}

// VariableError describes one missing or invalid variable.
type VariableError struct {
	Name  string
	Value string
	Err   error
}

// ErrMissing marks a required variable that is absent or empty.
var ErrMissing = errors.New("must be specified")

func (e *VariableError) Error() string {
	if errors.Is(e.Err, ErrMissing) {
		return fmt.Sprintf("%s must be specified", e.Name)
	}
	return fmt.Sprintf("%s=%q: %v", e.Name, e.Value, e.Err)
}

func (e *VariableError) Unwrap() error { return e.Err }

// VariableErrors flattens a Parse error into its per-variable errors.
func VariableErrors(err error) []*VariableError {
	var out []*VariableError
	for _, e := range multierr.Errors(err) {
		var ve *VariableError
		if errors.As(e, &ve) {
			out = append(out, ve)
		}
	}
	return out
}

// IsMissing reports whether err names the required variable as missing.
func IsMissing(err error, name string) bool {
	for _, ve := range VariableErrors(err) {
		if ve.Name == name && errors.Is(ve.Err, ErrMissing) {
			return true
		}
	}
	return false
}

// parser accumulates variable errors so every problem is reported at once.
type parser struct {
	lookup Lookup
	err    error
}

func (p *parser) fail(name, value string, err error) {
	p.err = multierr.Append(p.err, &VariableError{Name: name, Value: value, Err: err})
}

func (p *parser) raw(name string, required bool) (string, bool) {
	v, ok := p.lookup(name)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		if required {
			p.fail(name, "", ErrMissing)
		}
		return "", false
	}
	return v, true
}

func (p *parser) str(name string, required bool, def string) string {
	v, ok := p.raw(name, required)
	if !ok {
		return def
	}
	return v
}

func (p *parser) uint(name string, required bool, bits int, def uint64) uint64 {
	v, ok := p.raw(name, required)
	if !ok {
		return def
	}
	n, err := strconv.ParseUint(v, 10, bits)
	if err != nil {
		p.fail(name, v, err)
		return def
	}
	return n
}

func (p *parser) positive(name string, required bool, def int) int {
	v, ok := p.raw(name, required)
	if !ok {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 31)
	if err == nil && n == 0 {
		err = errors.New("must be greater than zero")
	}
	if err != nil {
		p.fail(name, v, err)
		return def
	}
	return int(n)
}

func (p *parser) seconds(name string, required bool, def time.Duration) time.Duration {
	n := p.uint(name, required, 31, uint64(def/time.Second))
	return time.Duration(n) * time.Second
}

func (p *parser) boolean(name string, def bool) bool {
	v, ok := p.raw(name, false)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(name, v, err)
		return def
	}
	return b
}

func (p *parser) services(name string, required bool) *Services {
	v, ok := p.raw(name, required)
	if !ok {
		return nil
	}
	parts := SplitCSV(v)
	if len(parts) < 2 {
		p.fail(name, v, errors.New("expected main and fallback service addresses separated by a comma"))
		return nil
	}
	return &Services{Main: parts[0], Fallback: parts[1]}
}

// Parse builds a Config from lookup. The returned error aggregates every
// *VariableError; use VariableErrors or IsMissing to inspect it.
func Parse(lookup Lookup) (*Config, error) {
	p := &parser{lookup: lookup}
	c := &Config{}

	c.ServerAddress = p.str(EnvServerAddress, true, "")
	c.ServerPort = uint16(p.uint(EnvServerPort, true, 16, 0))
	c.MaxConnections = p.positive(EnvMaxConnections, true, 0)
	c.AllowedOrigin = p.str(EnvAllowedOrigin, true, "")
	c.MaxAge = p.seconds(EnvMaxAge, true, 0)
	// 0 disables the per-request deadline.
	c.RequestTimeout = p.seconds(EnvRequestTimeout, true, 0)
	c.CommandTimeout = time.Duration(p.positive(EnvCommandTimeout, true, 0)) * time.Second
	if s := p.services(EnvIPv4Services, true); s != nil {
		c.IPv4Services = *s
	}
	c.IPv6Services = p.services(EnvIPv6Services, false)

	c.Model = p.str(EnvModel, true, "")
	c.ArchitectureTag = p.str(EnvModelArchitecture, true, "")
	if c.ArchitectureTag != "" {
		arch, err := llm.ResolveArchitecture(c.ArchitectureTag)
		if err != nil {
			p.fail(EnvModelArchitecture, c.ArchitectureTag, err)
		}
		c.Architecture = arch
	}
	c.MaxTokenCount = p.positive(EnvMaxTokenCount, true, 0)
	c.TokenizerPath = p.str(EnvTokenizerPath, false, "")
	c.ContextSize = p.positive(EnvContextSize, false, DefaultContextSize)
	c.Threads = p.positive(EnvThreads, false, runtime.NumCPU())
	c.GPULayers = int(p.uint(EnvGPULayers, false, 31, 0))
	c.PlayBack = p.boolean(EnvPlayBack, DefaultPlayBack)

	c.MaxQueueDepth = p.positive(EnvMaxQueueDepth, false, DefaultMaxQueueDepth)
	c.QueueWait = p.seconds(EnvQueueWait, false, DefaultQueueWait)
	c.MaxConcurrentSessions = p.positive(EnvMaxConcurrent, false, runtime.NumCPU())

	c.TLSCertFile = p.str(EnvTLSCertFile, false, DefaultTLSCertFile)
	c.TLSKeyFile = p.str(EnvTLSKeyFile, false, DefaultTLSKeyFile)
	c.LogLevel = strings.ToLower(p.str(EnvLogLevel, false, DefaultLogLevel))
	c.LogFormat = strings.ToLower(p.str(EnvLogFormat, false, DefaultLogFormat))
	switch c.LogFormat {
	case "json", "console":
	default:
		p.fail(EnvLogFormat, c.LogFormat, errors.New("expected json or console"))
	}
	c.MaxBodyBytes = int64(p.positive(EnvMaxBodyBytes, false, DefaultMaxBodyBytes))

	if p.err != nil {
		return nil, p.err
	}
	return c, nil
}

// SplitCSV splits a comma-separated list, trimming blanks and dropping empties.
func SplitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
