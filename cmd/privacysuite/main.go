package main

import (
	"context"
	"flag"
	"log"
	"net/http"

	"github.com/privacysuite/privacysuite"
	"github.com/privacysuite/privacysuite/pkg/controlapi"
	"github.com/privacysuite/privacysuite/pkg/tornet"
)

func main() {
	socksAddr := flag.String("socks-addr", "127.0.0.1:9050", "local SOCKS5 address of the anonymity transport")
	controlAddr := flag.String("control-addr", "127.0.0.1:9090", "control-plane HTTP listen address")
	flag.Parse()

	cfg := privacysuite.Config{}
	privacysuite.ApplyDefaults(&cfg)

	state := privacysuite.NewSharedState()
	kill := privacysuite.NewKillSwitch()
	trackers := privacysuite.NewTrackerSet()
	circuit := tornet.New(*socksAddr)

	if err := circuit.Bootstrap(context.Background()); err != nil {
		log.Printf("anonymity transport bootstrap failed, starting with kill switch engaged: %v", err)
	}
	kill.SetTorStatus(circuit.Connected())
	state.UpdateStats(func(s *privacysuite.Stats) {
		s.TorConnected = kill.IsTorConnected()
		s.KillSwitchActive = kill.IsEnabled()
	})

	fp := privacysuite.Fingerprint{}
	if cfg.FingerprintProtection {
		fp = privacysuite.NewFingerprint()
	}

	pipeline := privacysuite.NewPipeline(state, kill, trackers, circuit, fp)
	listener := privacysuite.NewListener(cfg.ProxyAddr, pipeline, state)

	if err := listener.Start(); err != nil {
		log.Fatalf("failed to start proxy listener: %v", err)
	}

	server := controlapi.NewServer(state, kill, listener, controlapi.NewNoopSystemProxy())
	log.Printf("control plane listening on %s", *controlAddr)
	log.Fatal(http.ListenAndServe(*controlAddr, server.Mux()))
}
