package privacysuite

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var _ = Describe("observeStats()", func() {
	It("adds the positive delta of a monotonic counter", func() {
		before := testutil.ToFloat64(trackersBlockedTotal)

		prev := Stats{TrackersBlocked: 2}
		cur := Stats{TrackersBlocked: 5}
		observeStats(prev, cur)

		Expect(testutil.ToFloat64(trackersBlockedTotal)).To(Equal(before + 3))
	})

	It("sets the connection gauges from the latest snapshot", func() {
		observeStats(Stats{}, Stats{TorConnected: true, KillSwitchActive: false, ProxyRunning: true})

		Expect(testutil.ToFloat64(torConnectedGauge)).To(Equal(1.0))
		Expect(testutil.ToFloat64(killSwitchActiveGauge)).To(Equal(0.0))
		Expect(testutil.ToFloat64(proxyRunningGauge)).To(Equal(1.0))
	})
})
