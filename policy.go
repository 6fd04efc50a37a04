package privacysuite

import (
	"net"
	"strings"
)

// stunServers is the fixed list of known STUN/TURN hosts checked as literal
// substrings of the target host.
var stunServers = []string{
	"stun.l.google.com",
	"stun1.l.google.com",
	"stun2.l.google.com",
	"stun3.l.google.com",
	"stun4.l.google.com",
	"stun.cloudflare.com",
	"stun.services.mozilla.com",
	"stun.stunprotocol.org",
	"stun.voip.blackberry.com",
	"stun.voipbuster.com",
	"global.stun.twilio.com",
}

// ShouldBlockIPv6 blocks host if it parses as an IPv6 literal, or if it is in
// bracketed authority form ("[2001:db8::1]"). Never blocks on a DNS name
// alone — resolving AAAA records downstream is an accepted blind spot (see
// spec §4.5 / §9).
func ShouldBlockIPv6(host string) bool {
	if ip := net.ParseIP(host); ip != nil {
		return ip.To4() == nil
	}
	return strings.HasPrefix(host, "[") && strings.Contains(host, ":")
}

// ShouldBlockWebRTC blocks host if it contains a known STUN server substring,
// or if it is an IP literal (IPv4 or IPv6) — direct-IP connections are the
// common shape of peer-to-peer WebRTC media.
func ShouldBlockWebRTC(host string) bool {
	for _, s := range stunServers {
		if strings.Contains(host, s) {
			return true
		}
	}
	return net.ParseIP(host) != nil
}

// trackerHeuristics are substrings that, case-insensitively, mark a host as
// a tracker even without an exact/suffix blocklist match.
var trackerHeuristics = []string{
	"analytics",
	"doubleclick",
	"/ads",
	"/tr",
	"tracking",
	"pixel",
}

// TrackerSet is an immutable-after-construction set of blocked domains plus
// the heuristic substring list. Safe to share across goroutines without
// synchronization once built.
type TrackerSet struct {
	domains map[string]struct{}
}

// NewTrackerSet builds the default tracker domain blocklist.
func NewTrackerSet() *TrackerSet {
	domains := []string{
		// Google Analytics & Ads
		"google-analytics.com", "googletagmanager.com", "doubleclick.net",
		"googlesyndication.com", "googleadservices.com", "2mdn.net",
		"googletagservices.com",
		// Facebook tracking
		"facebook.net", "connect.facebook.net", "fbcdn.net",
		// Twitter/X tracking
		"analytics.twitter.com", "ads-twitter.com", "ads-api.twitter.com",
		"static.ads-twitter.com",
		// LinkedIn tracking
		"ads.linkedin.com", "px.ads.linkedin.com",
		"analytics.pointdrive.linkedin.com",
		// TikTok tracking
		"analytics.tiktok.com", "ads.tiktok.com",
		// Major analytics platforms
		"scorecardresearch.com", "quantserve.com", "omtrdc.net", "demdex.net",
		"2o7.net", "chartbeat.com", "chartbeat.net", "hotjar.com",
		"mouseflow.com", "crazyegg.com", "fullstory.com",
		// Microsoft tracking
		"clarity.ms", "bat.bing.com",
		// Amazon tracking
		"amazon-adsystem.com", "assoc-amazon.com",
		// Major ad networks
		"advertising.com", "adnxs.com", "pubmatic.com", "rubiconproject.com",
		"openx.net", "casalemedia.com", "criteo.com", "criteo.net",
		"bidswitch.net", "taboola.com", "outbrain.com", "smartadserver.com",
		"adform.net", "serving-sys.com", "mathtag.com", "adsrvr.org",
		"bluekai.com", "krxd.net", "exelator.com", "mookie1.com",
		"addthis.com", "sharethis.com",
		// Tracking pixels
		"pixel.facebook.com", "analytics.google.com",
		"stats.g.doubleclick.net", "pagead2.googlesyndication.com",
		// CDNs used primarily for tracking
		"cdn.segment.com", "cdn.segment.io", "api.segment.io",
		// Other major trackers
		"mixpanel.com", "amplitude.com", "heap.io", "loggly.com",
		"bugsnag.com", "sentry.io",
	}

	set := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		set[d] = struct{}{}
	}

	return &TrackerSet{domains: set}
}

// ShouldBlock reports whether host matches the blocklist by exact match,
// strict-suffix match ("x.google-analytics.com" absorbs
// "google-analytics.com"), or heuristic substring.
func (t *TrackerSet) ShouldBlock(host string) bool {
	if _, ok := t.domains[host]; ok {
		return true
	}

	parts := strings.Split(host, ".")
	for i := range parts {
		if _, ok := t.domains[strings.Join(parts[i:], ".")]; ok {
			return true
		}
	}

	lower := strings.ToLower(host)
	for _, h := range trackerHeuristics {
		if strings.Contains(lower, h) {
			return true
		}
	}

	return false
}

// Size returns the number of exact domains in the blocklist (heuristics not
// counted).
func (t *TrackerSet) Size() int {
	return len(t.domains)
}

// ThreatHit is one non-blocking tag emitted by the threat tagger.
type ThreatHit struct {
	ThreatType string
	Reason     string
	Level      LogLevel
}

var credentialPatterns = []struct {
	substr string
	threat string
}{
	{"password", "Password in URL"},
	{"pwd", "Password in URL"},
	{"api_key", "API Key in URL"},
	{"apikey", "API Key in URL"},
	{"token", "Token in URL"},
	{"access_token", "Access Token in URL"},
	{"secret", "Secret in URL"},
	{"private", "Private data in URL"},
	{"auth", "Auth data in URL"},
	{"session", "Session ID in URL"},
}

var trackingPatterns = []struct {
	substr string
	kind   string
}{
	{"/track", "Tracking endpoint"},
	{"/collect", "Data collection endpoint"},
	{"/analytics", "Analytics tracking"},
	{"/beacon", "Tracking beacon"},
	{"/pixel", "Tracking pixel"},
	{"/impression", "Ad impression tracking"},
	{"/conversion", "Conversion tracking"},
	{"/telemetry", "Telemetry data collection"},
	{"/fingerprint", "Browser fingerprinting"},
}

var maliciousDomainPatterns = []struct {
	substr string
	kind   string
}{
	{"analytics", "Analytics service"},
	{"doubleclick", "Ad network"},
	{"adserver", "Ad server"},
	{"tracker", "Tracking service"},
	{"metric", "Metrics collection"},
	{"stats", "Statistics collection"},
	{"tag-manager", "Tag management"},
	{"remarketing", "Remarketing service"},
}

// DetectThreats scans path and host against the credential, tracking-endpoint
// and malicious-domain pattern lists, plus a literal "http://" prefix check.
// It never blocks — it only tags; blocking is the exclusive province of
// ShouldBlockIPv6/ShouldBlockWebRTC/TrackerSet.ShouldBlock.
func DetectThreats(host, path string) []ThreatHit {
	var hits []ThreatHit
	lowerPath := strings.ToLower(path)
	lowerHost := strings.ToLower(host)

	for _, p := range credentialPatterns {
		if strings.Contains(lowerPath, p.substr) {
			hits = append(hits, ThreatHit{
				ThreatType: p.threat,
				Reason:     "Sensitive data detected in URL - potential credential leak",
				Level:      LogError,
			})
		}
	}

	for _, p := range trackingPatterns {
		if strings.Contains(lowerPath, p.substr) {
			hits = append(hits, ThreatHit{
				ThreatType: p.kind,
				Reason:     "Suspicious tracking pattern detected",
				Level:      LogWarn,
			})
		}
	}

	for _, p := range maliciousDomainPatterns {
		if strings.Contains(lowerHost, p.substr) {
			hits = append(hits, ThreatHit{
				ThreatType: p.kind,
				Reason:     "Suspicious domain pattern - likely tracking/advertising",
				Level:      LogInfo,
			})
		}
	}

	if strings.HasPrefix(strings.ToLower(host), "http://") || strings.HasPrefix(lowerPath, "http://") {
		hits = append(hits, ThreatHit{
			ThreatType: "Unencrypted connection",
			Reason:     "HTTP connection detected - data transmitted in plain text",
			Level:      LogWarn,
		})
	}

	return hits
}
