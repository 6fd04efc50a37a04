// Package tornet is the anonymity transport: it dials outbound connections
// through a local SOCKS5 circuit (a Tor SocksPort, in the deployed case) and
// exposes a tiny manual-HTTP client for the plain-HTTP fetch path. Rewriting
// the anonymity network itself is out of scope; this package only speaks to
// whatever SOCKS5 endpoint it is pointed at.
package tornet

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/proxy"
)

const fetchTimeout = 30 * time.Second

// Circuit wraps a SOCKS5 dialer bound to one local proxy address. It is
// safe for concurrent use — golang.org/x/net/proxy.Dialer has no mutable
// per-call state.
type Circuit struct {
	socksAddr string

	mu        sync.RWMutex
	connected bool
	dialer    proxy.Dialer
}

// New returns a Circuit targeting the given SOCKS5 address (host:port).
// It does not dial anything until Bootstrap is called.
func New(socksAddr string) *Circuit {
	return &Circuit{socksAddr: socksAddr}
}

// Bootstrap builds the SOCKS5 dialer and probes it with one dial/close
// round trip. On success the Circuit reports Connected() == true; on
// failure it stays disconnected and returns the dial error.
func (c *Circuit) Bootstrap(ctx context.Context) error {
	dialer, err := proxy.SOCKS5("tcp", c.socksAddr, nil, proxy.Direct)
	if err != nil {
		return fmt.Errorf("tornet: build socks5 dialer: %w", err)
	}

	conn, err := c.dialWithContext(ctx, dialer, "tcp", c.socksAddr)
	if err != nil {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		return fmt.Errorf("tornet: bootstrap probe failed: %w", err)
	}
	conn.Close()

	c.mu.Lock()
	c.dialer = dialer
	c.connected = true
	c.mu.Unlock()
	return nil
}

// Connected reports the last known bootstrap/teardown status.
func (c *Circuit) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Shutdown marks the Circuit disconnected. The underlying SOCKS5 endpoint
// is owned by the out-of-process anonymity daemon, so there is nothing
// local to close.
func (c *Circuit) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
}

// OpenStream dials addr ("host:port") through the circuit. Used by the
// CONNECT tunnel path, where the pipeline needs a raw byte-pipe rather than
// an HTTP round trip.
func (c *Circuit) OpenStream(ctx context.Context, addr string) (net.Conn, error) {
	c.mu.RLock()
	dialer := c.dialer
	connected := c.connected
	c.mu.RUnlock()

	if !connected || dialer == nil {
		return nil, fmt.Errorf("tornet: circuit not bootstrapped")
	}
	return c.dialWithContext(ctx, dialer, "tcp", addr)
}

// dialWithContext runs a (possibly blocking) proxy.Dialer.Dial in a
// goroutine so it can be abandoned on context cancellation, since
// golang.org/x/net/proxy.Dialer predates context.Context.
func (c *Circuit) dialWithContext(ctx context.Context, dialer proxy.Dialer, network, addr string) (net.Conn, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	resCh := make(chan result, 1)

	go func() {
		conn, err := dialer.Dial(network, addr)
		resCh <- result{conn, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-resCh:
		return r.conn, r.err
	}
}

// FetchHTTP performs a plain HTTP/1.1 GET of path on addr ("host:port")
// through the circuit and returns only the response body — callers needing
// status codes or headers must use OpenStream and speak HTTP themselves.
// This is a documented simplification, not an oversight: its caller, the
// pipeline's plain-HTTP path, forwards only the body under a synthesized
// 200. userAgent/acceptLanguage/acceptEncoding come from the caller's
// session fingerprint, so every request in one session presents the same
// header triple.
func (c *Circuit) FetchHTTP(ctx context.Context, addr, path, userAgent, acceptLanguage, acceptEncoding string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	conn, err := c.OpenStream(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("tornet: open stream: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	req := strings.Join([]string{
		fmt.Sprintf("GET %s HTTP/1.1", path),
		fmt.Sprintf("Host: %s", addr),
		fmt.Sprintf("User-Agent: %s", userAgent),
		"Accept: */*",
		fmt.Sprintf("Accept-Language: %s", acceptLanguage),
		fmt.Sprintf("Accept-Encoding: %s", acceptEncoding),
		"Connection: close",
		"", "",
	}, "\r\n")

	if _, err := conn.Write([]byte(req)); err != nil {
		return nil, fmt.Errorf("tornet: write request: %w", err)
	}

	raw, err := io.ReadAll(conn)
	if err != nil && len(raw) == 0 {
		return nil, fmt.Errorf("tornet: read response: %w", err)
	}

	idx := bytes.Index(raw, []byte("\r\n\r\n"))
	if idx < 0 {
		return nil, fmt.Errorf("tornet: malformed response: no header/body split")
	}
	return raw[idx+4:], nil
}

// CheckConnection does a cheap liveness probe: it dials the circuit's own
// address, which will only succeed if the local SOCKS5 endpoint is up.
func (c *Circuit) CheckConnection(ctx context.Context) bool {
	c.mu.RLock()
	dialer := c.dialer
	c.mu.RUnlock()
	if dialer == nil {
		return false
	}

	conn, err := c.dialWithContext(ctx, dialer, "tcp", c.socksAddr)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
