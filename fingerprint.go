package privacysuite

import "math/rand"

// Fingerprint is the 5-tuple of browser-identifying request headers/hints
// chosen once per transport instance and reused for its lifetime, so that a
// single session presents as one consistent browser rather than a new one
// per request.
type Fingerprint struct {
	UserAgent        string
	AcceptLanguage   string
	AcceptEncoding   string
	ScreenResolution string
	Timezone         string
}

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_1) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

var acceptLanguages = []string{
	"en-US,en;q=0.9",
	"en-GB,en;q=0.9",
	"en-US,en;q=0.5",
}

var screenResolutions = []string{
	"1920x1080",
	"1366x768",
	"2560x1440",
	"1440x900",
	"1536x864",
}

var timezones = []string{
	"America/New_York",
	"Europe/London",
	"America/Los_Angeles",
	"Europe/Berlin",
}

const fixedAcceptEncoding = "gzip, deflate, br"

// NewFingerprint draws one value from each catalog and pins them together
// for the caller's lifetime.
func NewFingerprint() Fingerprint {
	return Fingerprint{
		UserAgent:        userAgents[rand.Intn(len(userAgents))],
		AcceptLanguage:   acceptLanguages[rand.Intn(len(acceptLanguages))],
		AcceptEncoding:   fixedAcceptEncoding,
		ScreenResolution: screenResolutions[rand.Intn(len(screenResolutions))],
		Timezone:         timezones[rand.Intn(len(timezones))],
	}
}
