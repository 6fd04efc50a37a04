package privacysuite

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/privacysuite/privacysuite/pkg/tornet"
)

// peekBudget is how many bytes the pipeline buffers to classify and parse a
// connection's first request before routing it.
const peekBudget = 8192

// Pipeline is C5: the per-connection request handler. One Pipeline is
// shared by every connection the listener accepts; all its fields are
// read-only after construction except for the shared, already-synchronized
// State/Kill/Trackers collaborators.
type Pipeline struct {
	State       *SharedState
	Kill        *KillSwitch
	Trackers    *TrackerSet
	Circuit     *tornet.Circuit
	Fingerprint Fingerprint
}

// NewPipeline wires a Pipeline from its collaborators.
func NewPipeline(state *SharedState, kill *KillSwitch, trackers *TrackerSet, circuit *tornet.Circuit, fp Fingerprint) *Pipeline {
	return &Pipeline{
		State:       state,
		Kill:        kill,
		Trackers:    trackers,
		Circuit:     circuit,
		Fingerprint: fp,
	}
}

// Handle drives one client connection end to end: parse, gate, filter,
// route, respond. It always closes conn before returning.
func (p *Pipeline) Handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	p.State.UpdateStats(func(s *Stats) { s.TotalRequests++ })

	br := bufio.NewReaderSize(conn, peekBudget)
	req, err := http.ReadRequest(br)
	if err != nil {
		p.State.AddLog(LogWarn, CategoryNetwork, fmt.Sprintf("failed to parse request: %v", err))
		return
	}

	isConnect := req.Method == http.MethodConnect
	if isConnect {
		if _, _, err := net.SplitHostPort(req.Host); err != nil {
			p.State.AddLog(LogWarn, CategoryNetwork, fmt.Sprintf("malformed CONNECT authority %q; closing", req.Host))
			return
		}
	}

	host, port := splitHostPort(requestAuthority(req))

	// The HTTP path gets one structured "network" entry per request,
	// independent of whatever decision follows; the CONNECT path only logs
	// the decision itself.
	if !isConnect {
		p.State.AddLogWithDetails(LogInfo, CategoryNetwork, "request received", &LogDetails{
			Domain: host, Port: parsePort(port), Method: req.Method,
		})
	}

	if !p.Kill.ShouldAllow() {
		p.State.UpdateStats(func(s *Stats) { s.SecurityThreatsDetected++ })
		p.denyKillSwitch(conn, isConnect, host, port, req.Method)
		return
	}

	if ShouldBlockIPv6(host) {
		p.State.UpdateStats(func(s *Stats) { s.IPv6Blocked++ })
		p.deny(conn, isConnect, "IPv6", CategoryIPv6, "blocked: IPv6 destination", host, port, req.Method)
		return
	}

	if ShouldBlockWebRTC(host) {
		p.State.UpdateStats(func(s *Stats) { s.WebRTCBlocked++ })
		p.deny(conn, isConnect, "WebRTC", CategoryWebRTC, "blocked: WebRTC/STUN destination", host, port, req.Method)
		return
	}

	if p.Trackers.ShouldBlock(host) {
		p.State.UpdateStats(func(s *Stats) { s.TrackersBlocked++ })
		p.deny(conn, isConnect, "Tracker", CategoryTracker, "blocked: known tracker domain", host, port, req.Method)
		return
	}

	path := "/"
	if req.URL != nil && req.URL.Path != "" {
		path = req.URL.Path
	}
	for _, hit := range DetectThreats(host, path) {
		p.State.UpdateStats(func(s *Stats) { s.SecurityThreatsDetected++ })
		p.State.AddLogWithDetails(hit.Level, CategorySecurity, hit.Reason, &LogDetails{
			Domain: host, Port: parsePort(port), Method: req.Method, ThreatType: hit.ThreatType,
		})
	}

	if isConnect {
		p.handleConnect(ctx, conn, host, port)
		return
	}
	p.handleForward(ctx, conn, req, host, port)
}

// denyKillSwitch implements the gate's response: a 503 with a diagnostic
// body for HTTP, a silent close for CONNECT.
func (p *Pipeline) denyKillSwitch(conn net.Conn, isConnect bool, host, port, method string) {
	p.State.UpdateStats(func(s *Stats) { s.RequestsBlocked++ })
	p.State.AddLogWithDetails(LogWarn, CategoryNetwork, "blocked: kill switch active and transport not connected", &LogDetails{
		Domain: host, Port: parsePort(port), Method: method,
	})

	if isConnect {
		return
	}
	writeResponse(conn, "503 Service Unavailable", "Service unavailable: anonymity transport is not connected")
}

// deny implements a policy-filter block: a 403 with a kind-specific body for
// HTTP, a silent close for CONNECT — the same treatment CONNECT gets for a
// malformed authority.
func (p *Pipeline) deny(conn net.Conn, isConnect bool, kind string, category LogCategory, message, host, port, method string) {
	p.State.UpdateStats(func(s *Stats) { s.RequestsBlocked++ })
	p.State.AddLogWithDetails(LogWarn, category, message, &LogDetails{
		Domain: host, Port: parsePort(port), Method: method,
	})

	if isConnect {
		return
	}
	writeResponse(conn, "403 Forbidden", fmt.Sprintf("%s blocked by Privacy Suite", kind))
}

// handleConnect implements the CONNECT tunnel path: dial the target through
// the circuit, confirm with a 200, then relay bytes in both directions
// until either side closes.
func (p *Pipeline) handleConnect(ctx context.Context, client net.Conn, host, port string) {
	remote, err := p.Circuit.OpenStream(ctx, net.JoinHostPort(host, port))
	if err != nil {
		p.State.AddLog(LogError, CategoryNetwork, fmt.Sprintf("connect tunnel to %s failed: %v", host, err))
		writeResponse(client, "502 Bad Gateway", "Bad gateway")
		return
	}
	defer remote.Close()

	if _, err := fmt.Fprintf(client, "HTTP/1.1 200 Connection Established\r\n\r\n"); err != nil {
		return
	}

	relay(client, remote)
}

// handleForward implements the plain HTTP path: fetch the request through
// the circuit's manual HTTP client and forward the returned body as a
// fabricated 200 response, the documented body-only simplification for
// plain HTTP (HTTPS is always an opaque CONNECT tunnel instead).
func (p *Pipeline) handleForward(ctx context.Context, client net.Conn, req *http.Request, host, port string) {
	path := "/"
	if req.URL != nil {
		if uri := req.URL.RequestURI(); uri != "" {
			path = uri
		}
	}

	body, err := p.Circuit.FetchHTTP(ctx, net.JoinHostPort(host, port), path,
		p.Fingerprint.UserAgent, p.Fingerprint.AcceptLanguage, p.Fingerprint.AcceptEncoding)
	if err != nil {
		p.State.AddLog(LogError, CategoryNetwork, fmt.Sprintf("fetch %s failed: %v", host, err))
		writeResponse(client, "502 Bad Gateway", "Bad gateway")
		return
	}

	fmt.Fprintf(client, "HTTP/1.1 200 OK\r\nConnection: close\r\nContent-Length: %d\r\n\r\n", len(body))
	client.Write(body)
}

// writeResponse writes a minimal HTTP/1.1 response carrying a plain-text
// body and a matching Content-Length.
func writeResponse(conn net.Conn, status, body string) {
	fmt.Fprintf(conn, "HTTP/1.1 %s\r\nConnection: close\r\nContent-Length: %d\r\n\r\n%s", status, len(body), body)
}

// relay copies bytes in both directions until either side finishes; the
// first side to complete wins and the other is abandoned, since a half-open
// tunnel (e.g. the server half-closing after EOF) is a normal end state.
func relay(a, b net.Conn) {
	done := make(chan struct{}, 2)
	go func() {
		io.Copy(a, b)
		done <- struct{}{}
	}()
	go func() {
		io.Copy(b, a)
		done <- struct{}{}
	}()
	<-done
}

// requestAuthority returns the "host:port"-or-"host" authority a request is
// addressed to, covering both CONNECT's req.Host and a forward request's
// absolute-URI host.
func requestAuthority(req *http.Request) string {
	if req.Method == http.MethodConnect {
		return req.Host
	}
	if req.URL != nil && req.URL.Host != "" {
		return req.URL.Host
	}
	return req.Host
}

// splitHostPort separates an authority into host and port, defaulting to
// port 80 when none is present. CONNECT authorities always carry an
// explicit port; only a plain-HTTP absolute-URI host can reach the default.
func splitHostPort(authority string) (string, string) {
	host, port, err := net.SplitHostPort(authority)
	if err != nil {
		return strings.TrimSuffix(authority, ":"), "80"
	}
	return host, port
}

// parsePort converts a port string to the uint16 LogDetails expects,
// returning 0 for anything unparseable rather than failing a log write.
func parsePort(port string) uint16 {
	n, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return 0
	}
	return uint16(n)
}
