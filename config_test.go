package privacysuite

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ApplyDefaults()", func() {
	It("fills every zero-valued tagged field", func() {
		cfg := Config{}
		ApplyDefaults(&cfg)

		Expect(cfg.ProxyAddr).To(Equal("0.0.0.0:8888"))
		Expect(cfg.NumHops).To(Equal(3))
		Expect(cfg.DNSServers).To(Equal([]string{"1.1.1.1:53", "8.8.8.8:53"}))
		Expect(cfg.FingerprintProtection).To(BeTrue())
		Expect(cfg.NodeDBPath).To(Equal("./privacysuite-nodes.db"))
	})

	It("leaves explicitly-set fields untouched", func() {
		cfg := Config{ProxyAddr: "127.0.0.1:1234", NumHops: 5}
		ApplyDefaults(&cfg)

		Expect(cfg.ProxyAddr).To(Equal("127.0.0.1:1234"))
		Expect(cfg.NumHops).To(Equal(5))
	})

	It("cannot distinguish an explicit false from an unset bool, like the rest of the tags", func() {
		// Same known limitation as the string/int cases: a zero value is
		// indistinguishable from "not set", so a tagged default always wins.
		cfg := Config{FingerprintProtection: false, ProxyAddr: "x"}
		ApplyDefaults(&cfg)
		Expect(cfg.FingerprintProtection).To(BeTrue())
	})
})
