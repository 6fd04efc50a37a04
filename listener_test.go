package privacysuite

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Listener", func() {
	var state *SharedState
	var listener *Listener

	BeforeEach(func() {
		state = NewSharedState()
		pipeline := NewPipeline(state, NewKillSwitch(), NewTrackerSet(), nil, Fingerprint{})
		listener = NewListener("127.0.0.1:0", pipeline, state)
	})

	AfterEach(func() {
		listener.Stop()
	})

	It("transitions to connected on Start and back to disconnected on Stop", func() {
		Expect(listener.ConnectionState()).To(Equal(StateDisconnected))

		Expect(listener.Start()).To(Succeed())
		Expect(listener.ConnectionState()).To(Equal(StateConnected))
		Expect(state.Snapshot().ProxyRunning).To(BeTrue())

		listener.Stop()
		Expect(listener.ConnectionState()).To(Equal(StateDisconnected))
		Expect(state.Snapshot().ProxyRunning).To(BeFalse())
	})

	It("treats a second Start while connected as a no-op", func() {
		Expect(listener.Start()).To(Succeed())
		Expect(listener.Start()).To(Succeed())

		logs := state.FilteredLogs("", LogWarn)
		found := false
		for _, l := range logs {
			if l.Message == "start requested while already connected; ignored" {
				found = true
			}
		}
		Expect(found).To(BeTrue())
	})
})
