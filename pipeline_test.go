package privacysuite

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func newTestPipeline() (*Pipeline, *SharedState, *KillSwitch) {
	state := NewSharedState()
	kill := NewKillSwitch()
	return NewPipeline(state, kill, NewTrackerSet(), nil, Fingerprint{}), state, kill
}

func readBody(resp *http.Response) string {
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}

var _ = Describe("Pipeline", func() {
	It("blocks a known tracker host with a 403 and the documented body", func() {
		pipeline, state, kill := newTestPipeline()
		kill.SetTorStatus(true)

		client, server := net.Pipe()
		go pipeline.Handle(context.Background(), server)

		client.Write([]byte("GET http://google-analytics.com/collect?x=1 HTTP/1.1\r\nHost: google-analytics.com\r\n\r\n"))

		resp, err := http.ReadResponse(bufio.NewReader(client), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusForbidden))
		Expect(readBody(resp)).To(Equal("Tracker blocked by Privacy Suite"))

		snap := state.Snapshot()
		Expect(snap.TotalRequests).To(BeEquivalentTo(1))
		Expect(snap.TrackersBlocked).To(BeEquivalentTo(1))
		Expect(snap.RequestsBlocked).To(BeEquivalentTo(1))

		logs := state.RecentLogs()
		Expect(logs).To(HaveLen(2))
		Expect(logs[0].Category).To(Equal(CategoryNetwork))
		Expect(logs[1].Category).To(Equal(CategoryTracker))
	})

	It("returns a 503 with a diagnostic body when the kill switch denies an HTTP request", func() {
		pipeline, state, _ := newTestPipeline() // kill switch starts enabled, transport disconnected

		client, server := net.Pipe()
		go pipeline.Handle(context.Background(), server)

		client.Write([]byte("GET http://example.com/ HTTP/1.1\r\nHost: example.com\r\n\r\n"))

		resp, err := http.ReadResponse(bufio.NewReader(client), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusServiceUnavailable))
		Expect(readBody(resp)).To(HavePrefix("Service unavailable"))

		snap := state.Snapshot()
		Expect(snap.RequestsBlocked).To(BeEquivalentTo(1))
		Expect(snap.SecurityThreatsDetected).To(BeEquivalentTo(1))
	})

	It("closes a denied CONNECT without writing any response", func() {
		pipeline, state, _ := newTestPipeline() // kill switch starts enabled, transport disconnected

		client, server := net.Pipe()
		go pipeline.Handle(context.Background(), server)

		client.Write([]byte("CONNECT example.com:443 HTTP/1.1\r\nHost: example.com:443\r\n\r\n"))

		client.SetReadDeadline(time.Now().Add(2 * time.Second))
		buf := make([]byte, 16)
		n, err := client.Read(buf)
		Expect(n).To(Equal(0))
		Expect(err).To(HaveOccurred())

		snap := state.Snapshot()
		Expect(snap.RequestsBlocked).To(BeEquivalentTo(1))
		Expect(snap.SecurityThreatsDetected).To(BeEquivalentTo(1))
	})

	It("blocks a CONNECT to a STUN host without writing a response", func() {
		pipeline, state, kill := newTestPipeline()
		kill.SetTorStatus(true)

		client, server := net.Pipe()
		go pipeline.Handle(context.Background(), server)

		client.Write([]byte("CONNECT stun.l.google.com:19302 HTTP/1.1\r\nHost: stun.l.google.com:19302\r\n\r\n"))

		client.SetReadDeadline(time.Now().Add(2 * time.Second))
		buf := make([]byte, 16)
		n, err := client.Read(buf)
		Expect(n).To(Equal(0))
		Expect(err).To(HaveOccurred())

		Expect(state.Snapshot().WebRTCBlocked).To(BeEquivalentTo(1))
	})
})
