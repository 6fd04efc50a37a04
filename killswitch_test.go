package privacysuite

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("KillSwitch", func() {
	var kill *KillSwitch

	BeforeEach(func() {
		kill = NewKillSwitch()
	})

	It("starts enabled and blocks traffic before the transport connects", func() {
		Expect(kill.IsEnabled()).To(BeTrue())
		Expect(kill.ShouldAllow()).To(BeFalse())
		Expect(kill.BlockedCount()).To(Equal(uint64(1)))
	})

	It("allows traffic once the transport reports connected", func() {
		kill.SetTorStatus(true)
		Expect(kill.ShouldAllow()).To(BeTrue())
		Expect(kill.BlockedCount()).To(Equal(uint64(0)))
	})

	It("allows traffic regardless of transport status when disabled", func() {
		kill.SetEnabled(false)
		kill.SetTorStatus(false)
		Expect(kill.ShouldAllow()).To(BeTrue())
	})

	It("re-blocks if the transport disconnects after being connected", func() {
		kill.SetTorStatus(true)
		Expect(kill.ShouldAllow()).To(BeTrue())

		kill.SetTorStatus(false)
		Expect(kill.ShouldAllow()).To(BeFalse())
		Expect(kill.BlockedCount()).To(Equal(uint64(1)))
	})
})
