// cmd/replicator/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/uhf-replicator/internal/capture"
	"github.com/tamzrod/uhf-replicator/internal/config"
	"github.com/tamzrod/uhf-replicator/internal/driver"
	"github.com/tamzrod/uhf-replicator/internal/logging"
	"github.com/tamzrod/uhf-replicator/internal/metrics"
	"github.com/tamzrod/uhf-replicator/internal/poller"
	"github.com/tamzrod/uhf-replicator/internal/status"
	"github.com/tamzrod/uhf-replicator/internal/writer"
)

func main() {
	boot := logging.New(logging.ApplyEnv(logging.Config{}), os.Stderr)

	if len(os.Args) < 2 {
		boot.Fatal().Msg("usage: replicator <config.yaml|config.toml>")
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		boot.Fatal().Err(err).Msg("config load failed")
	}

	if err := config.Validate(cfg); err != nil {
		boot.Fatal().Err(err).Msg("config validation failed")
	}
	config.Normalize(cfg)

	log := logging.New(logging.ApplyEnv(cfg.Logging), os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// --------------------
	// Observers (metrics + capture)
	// --------------------

	var observers driver.MultiObserver
	var collector *metrics.Collector

	if cfg.Metrics.Listen != "" {
		reg := prometheus.NewRegistry()
		collector, err = metrics.New(reg)
		if err != nil {
			log.Fatal().Err(err).Msg("metrics setup failed")
		}
		observers = append(observers, collector)

		srv := &http.Server{
			Addr:              cfg.Metrics.Listen,
			Handler:           metricsMux(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.Info().Str("listen", srv.Addr).Msg("metrics endpoint up")
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}

	if cfg.Capture.Path != "" {
		rec, err := capture.Create(cfg.Capture.Path)
		if err != nil {
			log.Fatal().Err(err).Msg("capture file open failed")
		}
		defer func() {
			if err := rec.Close(); err != nil {
				log.Error().Err(err).Msg("capture close failed")
			}
			log.Info().Int("records", rec.Count()).Msg("capture closed")
		}()
		observers = append(observers, rec)
	}

	// --------------------
	// Build per-reader pipelines
	// --------------------

	for _, reader := range cfg.Replicator.Readers {
		rlog := log.With().Str("reader", reader.ID).Logger()

		// ---- poller ----
		p, closePoller, err := poller.Build(reader, poller.BuildOptions{
			Logger:   log,
			Observer: observers,
		})
		if err != nil {
			rlog.Fatal().Err(err).Msg("poller build failed")
		}
		defer closePoller()

		// ---- writer plan ----
		plan, err := writer.BuildPlan(reader)
		if err != nil {
			rlog.Fatal().Err(err).Msg("writer plan failed")
		}

		// ---- writer clients (TAGS + STATUS) ----
		clients, closeWriters, err := writer.BuildEndpointClients(reader)
		if err != nil {
			rlog.Fatal().Err(err).Msg("writer clients failed")
		}
		defer closeWriters()

		dataWriter := writer.New(plan, clients)

		// Status writer (optional per reader)
		statusWriter, statusEnabled := writer.NewDeviceStatusWriter(plan, clients)

		// ---- channel between poller and writer ----
		out := make(chan poller.PollResult)

		// Orchestrator (runner-owned state + 1Hz seconds ticker)
		g.Go(func() error {
			run(ctx, rlog, out, dataWriter, statusWriter, statusEnabled, collector)
			return nil
		})

		// poller producer
		g.Go(func() error {
			p.Run(ctx, out)
			return nil
		})
	}

	log.Info().Int("readers", len(cfg.Replicator.Readers)).Msg("replicator running")

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("replicator stopped")
		return
	}
	log.Info().Msg("replicator stopped")
}

// run delivers rounds and keeps the reader status block current.
func run(
	ctx context.Context,
	log zerolog.Logger,
	out <-chan poller.PollResult,
	dataWriter writer.Writer,
	statusWriter writer.StatusWriter,
	statusEnabled bool,
	collector *metrics.Collector,
) {
	tracker := status.NewTracker()

	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	// Full block write on start (identity re-assert) if enabled.
	if statusEnabled {
		if err := statusWriter.WriteStatus(tracker.Snapshot()); err != nil {
			log.Warn().Err(err).Msg("status write failed on start")
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case res := <-out:
			if collector != nil {
				collector.Round(res.ReaderID, len(res.Tags), res.Err)
			}
			if res.Err != nil {
				log.Warn().Err(res.Err).Uint16("code", res.ErrorCode).Msg("inventory round failed")
			} else {
				log.Debug().Int("tags", len(res.Tags)).Msg("inventory round")
			}

			// --- data delivery ---
			if err := dataWriter.Write(res); err != nil {
				log.Error().Err(err).Msg("writer error")
			}

			// --- status update (device-level truth) ---
			if !statusEnabled {
				continue
			}
			if tracker.Round(res.ErrorCode, len(res.Tags), res.CapabilityFlags, res.MaxPower) {
				if err := statusWriter.WriteStatus(tracker.Snapshot()); err != nil {
					log.Error().Err(err).Msg("status write failed")
				}
			}

		case <-secTicker.C:
			if !statusEnabled {
				continue
			}

			// Tick 1 Hz while not OK.
			if tracker.Tick() {
				if err := statusWriter.WriteStatus(tracker.Snapshot()); err != nil {
					log.Error().Err(err).Msg("status seconds tick write failed")
				}
			}
		}
	}
}

func metricsMux(g prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(g))
	return mux
}
