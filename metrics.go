package privacysuite

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics mirrors Stats as prometheus collectors, registered once at
// package init. Never constructed per-instance — Prometheus collectors are
// global by convention, matching the teacher's own package-level pattern.
var (
	totalRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "privacysuite_total_requests_total",
		Help: "Total requests observed by the proxy pipeline",
	})
	requestsBlockedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "privacysuite_requests_blocked_total",
		Help: "Total requests blocked for any reason (kill switch, IPv6, WebRTC, tracker)",
	})
	trackersBlockedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "privacysuite_trackers_blocked_total",
		Help: "Total requests blocked by the tracker filter",
	})
	webrtcBlockedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "privacysuite_webrtc_blocked_total",
		Help: "Total requests blocked by the WebRTC/STUN filter",
	})
	ipv6BlockedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "privacysuite_ipv6_blocked_total",
		Help: "Total requests blocked by the IPv6 filter",
	})
	securityThreatsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "privacysuite_security_threats_detected_total",
		Help: "Total non-blocking security threat tags emitted",
	})

	torConnectedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "privacysuite_tor_connected",
		Help: "1 if the anonymity transport last reported connected, else 0",
	})
	killSwitchActiveGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "privacysuite_kill_switch_active",
		Help: "1 if the kill switch gate is currently enabled, else 0",
	})
	proxyRunningGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "privacysuite_proxy_running",
		Help: "1 if the listener is currently accepting connections, else 0",
	})
)

func init() {
	prometheus.MustRegister(
		totalRequestsTotal,
		requestsBlockedTotal,
		trackersBlockedTotal,
		webrtcBlockedTotal,
		ipv6BlockedTotal,
		securityThreatsTotal,
		torConnectedGauge,
		killSwitchActiveGauge,
		proxyRunningGauge,
	)
}

// observeStats pushes the deltas of a Stats snapshot into the registered
// collectors. Counters are reconciled to last-seen values rather than
// incremented directly, since Stats itself (not this function) is the
// source of truth for counts.
func observeStats(prev, cur Stats) {
	if d := cur.TotalRequests - prev.TotalRequests; d > 0 {
		totalRequestsTotal.Add(float64(d))
	}
	if d := cur.RequestsBlocked - prev.RequestsBlocked; d > 0 {
		requestsBlockedTotal.Add(float64(d))
	}
	if d := cur.TrackersBlocked - prev.TrackersBlocked; d > 0 {
		trackersBlockedTotal.Add(float64(d))
	}
	if d := cur.WebRTCBlocked - prev.WebRTCBlocked; d > 0 {
		webrtcBlockedTotal.Add(float64(d))
	}
	if d := cur.IPv6Blocked - prev.IPv6Blocked; d > 0 {
		ipv6BlockedTotal.Add(float64(d))
	}
	if d := cur.SecurityThreatsDetected - prev.SecurityThreatsDetected; d > 0 {
		securityThreatsTotal.Add(float64(d))
	}

	torConnectedGauge.Set(boolToFloat(cur.TorConnected))
	killSwitchActiveGauge.Set(boolToFloat(cur.KillSwitchActive))
	proxyRunningGauge.Set(boolToFloat(cur.ProxyRunning))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
