// cmd/uhfscan/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tamzrod/uhf-replicator/internal/discovery"
	"github.com/tamzrod/uhf-replicator/internal/logging"
)

func main() {
	var (
		mode        = flag.String("mode", "broadcast", "broadcast | sweep")
		cidr        = flag.String("cidr", "", "network to sweep, e.g. 192.168.1.0/24")
		port        = flag.Uint("port", 2022, "reader TCP port for sweep")
		listen      = flag.String("listen", "", "local UDP address for broadcast (default 0.0.0.0:5000)")
		target      = flag.String("target", "", "broadcast target (default 255.255.255.255:5000)")
		wait        = flag.Duration("wait", discovery.DefaultWait, "broadcast idle wait")
		timeout     = flag.Duration("timeout", 500*time.Millisecond, "per-host sweep timeout")
		concurrency = flag.Int("concurrency", discovery.DefaultConcurrency, "parallel sweep probes")
		level       = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	log := logging.New(logging.ApplyEnv(logging.Config{Level: *level}), os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	found := 0
	report := func(r discovery.Result) {
		if r.Err != nil {
			log.Warn().Str("source", r.Source).Err(r.Err).Msg("undecodable reply")
			return
		}
		found++
		n := r.Network
		fmt.Printf("%-15s port=%-5d mac=%s mask=%s gw=%s (from %s)\n",
			n.IP, n.Port, n.MAC, n.Netmask, n.Gateway, r.Source)
	}

	var err error
	switch *mode {
	case "broadcast":
		err = discovery.Broadcast(ctx, discovery.BroadcastConfig{
			Listen: *listen,
			Target: *target,
			Wait:   *wait,
		}, report)

	case "sweep":
		if *cidr == "" || *port == 0 || *port > 0xFFFF {
			log.Fatal().Msg("sweep needs -cidr and a valid -port")
		}
		err = discovery.Sweep(ctx, discovery.SweepConfig{
			CIDR:        *cidr,
			Port:        uint16(*port),
			Timeout:     *timeout,
			Concurrency: *concurrency,
		}, report, func(done, total int) {
			if done == total || done%64 == 0 {
				log.Info().Int("done", done).Int("total", total).Msg("sweep progress")
			}
		})

	default:
		log.Fatal().Str("mode", *mode).Msg("unknown mode")
	}

	if err != nil {
		log.Fatal().Err(err).Msg("scan failed")
	}
	log.Info().Int("readers", found).Msg("scan complete")
}
