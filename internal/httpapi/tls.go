package httpapi

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/netutil"

	"github.com/alexandrughinea/llm-api/internal/common/fsutil"
)

// TLSError reports a certificate or private key that could not be loaded.
type TLSError struct {
	CertFile string
	KeyFile  string
	Err      error
}

func (e *TLSError) Error() string {
	return fmt.Sprintf("load tls key pair (cert %s, key %s): %v", e.CertFile, e.KeyFile, e.Err)
}

func (e *TLSError) Unwrap() error { return e.Err }

// LoadTLS loads the server certificate and key. Both files must exist.
func LoadTLS(certFile, keyFile string) (*tls.Config, error) {
	fail := func(err error) (*tls.Config, error) {
		return nil, &TLSError{CertFile: certFile, KeyFile: keyFile, Err: err}
	}
	cert, err := fsutil.RegularFile(certFile)
	if err != nil {
		return fail(err)
	}
	key, err := fsutil.RegularFile(keyFile)
	if err != nil {
		return fail(err)
	}
	pair, err := tls.LoadX509KeyPair(cert, key)
	if err != nil {
		return fail(err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{pair},
		MinVersion:   tls.VersionTLS12,
		NextProtos:   []string{"h2", "http/1.1"},
	}, nil
}

// Listen opens addr, caps concurrent connections at maxConns (0 disables)
// and wraps the listener in TLS when cfg is set.
func Listen(addr string, maxConns int, cfg *tls.Config) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return WrapListener(ln, maxConns, cfg), nil
}

// WrapListener applies the connection limit and TLS to an open listener.
func WrapListener(ln net.Listener, maxConns int, cfg *tls.Config) net.Listener {
	if maxConns > 0 {
		ln = netutil.LimitListener(ln, maxConns)
	}
	if cfg != nil {
		ln = tls.NewListener(ln, cfg)
	}
	return ln
}

// NewServer builds the http.Server for h. Shutdown cancellation reaches
// handlers through Options.BaseContext, not the connection contexts, so a
// draining request can still be answered.
func NewServer(h http.Handler) *http.Server {
	return &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
