package privacysuite

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Node.Available()", func() {
	It("is unavailable at exactly the threshold", func() {
		Expect(Node{Reputation: 0.5}.Available()).To(BeFalse())
	})

	It("is available just above the threshold", func() {
		Expect(Node{Reputation: 0.51}.Available()).To(BeTrue())
	})
})

var _ = Describe("NodeRegistry", func() {
	var registry *NodeRegistry

	BeforeEach(func() {
		registry = NewNodeRegistry()
	})

	Describe("Put()/Get()", func() {
		It("round-trips a node by address", func() {
			registry.Put(Node{Address: "relay-a", Reputation: 0.9})

			n, ok := registry.Get("relay-a")
			Expect(ok).To(BeTrue())
			Expect(n.Reputation).To(Equal(float32(0.9)))
		})

		It("reports not-found for an unknown address", func() {
			_, ok := registry.Get("missing")
			Expect(ok).To(BeFalse())
		})
	})

	Describe("Available()", func() {
		It("excludes nodes at or below the reputation threshold", func() {
			registry.Put(Node{Address: "good", Reputation: 0.9})
			registry.Put(Node{Address: "bad", Reputation: 0.1})

			available := registry.Available()
			Expect(available).To(HaveLen(1))
			Expect(available[0].Address).To(Equal("good"))
		})
	})

	Describe("Remove()", func() {
		It("drops the node", func() {
			registry.Put(Node{Address: "relay-a"})
			registry.Remove("relay-a")

			_, ok := registry.Get("relay-a")
			Expect(ok).To(BeFalse())
		})
	})

	Describe("Len()", func() {
		It("counts every registered node regardless of reputation", func() {
			registry.Put(Node{Address: "a", Reputation: 0.9})
			registry.Put(Node{Address: "b", Reputation: 0.1})
			Expect(registry.Len()).To(Equal(2))
		})
	})
})
