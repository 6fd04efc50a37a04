package privacysuite

import "sync"

// KillSwitch is C4: the fail-closed gate. When enabled, it blocks all
// traffic unless the anonymity transport has reported itself connected.
// Disabled, it is a no-op and traffic always passes.
type KillSwitch struct {
	mu           sync.Mutex
	torConnected bool
	enabled      bool
	blockedCount uint64
}

// NewKillSwitch returns a KillSwitch enabled by default, matching spec.md's
// fail-closed posture: traffic is blocked until the transport proves it is
// connected.
func NewKillSwitch() *KillSwitch {
	return &KillSwitch{enabled: true}
}

// SetTorStatus records whether the anonymity transport is currently
// connected. cmd/privacysuite sets it from the transport's Connected()
// status after bootstrap; the transport itself never calls it.
func (k *KillSwitch) SetTorStatus(connected bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.torConnected = connected
}

// SetEnabled toggles the gate itself. Disabling it lets traffic through
// regardless of transport status — the explicit escape hatch spec.md's
// control interface exposes as PUT /api/killswitch.
func (k *KillSwitch) SetEnabled(enabled bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.enabled = enabled
}

// ShouldAllow is the one counter-mutating predicate: it returns true if
// traffic should pass. A false result also increments the blocked-request
// counter, so callers must call it exactly once per connection attempt.
func (k *KillSwitch) ShouldAllow() bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	if !k.enabled {
		return true
	}
	if !k.torConnected {
		k.blockedCount++
		return false
	}
	return true
}

// IsTorConnected reports the last status SetTorStatus recorded.
func (k *KillSwitch) IsTorConnected() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.torConnected
}

// IsEnabled reports whether the gate is currently active.
func (k *KillSwitch) IsEnabled() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.enabled
}

// BlockedCount returns the number of requests ShouldAllow has refused.
func (k *KillSwitch) BlockedCount() uint64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.blockedCount
}
