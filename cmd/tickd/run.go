package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tickd/internal/config"
	"tickd/internal/httpapi"
	"tickd/internal/logging"
	"tickd/internal/loop"
)

type runFlags struct {
	addr        string
	tps         int
	minTPS      int
	maxTPS      int
	maxDrain    int
	corsOrigins string
	heartbeat   int
}

func newRunCmd(rf *rootFlags) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the tick loop and its observability endpoint",
		Example: "  tickd run --config tickd.yaml\n" +
			"  tickd run --tps 20 --heartbeat 20\n" +
			"  tickd run --min-tps 1 --max-tps 1000 --addr :9090",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rf.load()
			if err != nil {
				return err
			}
			f.apply(cmd, &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg, f.heartbeat)
		},
	}
	defAddr := os.Getenv("TICKD_ADDR")
	cmd.Flags().StringVar(&f.addr, "addr", defAddr, "HTTP listen address, e.g. :8080 (empty string keeps the config value; 'off' disables)")
	cmd.Flags().IntVar(&f.tps, "tps", 0, "Single tick-rate limit; replaces the clock bounds")
	cmd.Flags().IntVar(&f.minTPS, "min-tps", 0, "Minimum ticks per second before a tick counts as an overrun")
	cmd.Flags().IntVar(&f.maxTPS, "max-tps", 0, "Maximum ticks per second")
	cmd.Flags().IntVar(&f.maxDrain, "max-drain", 0, "Max actions/events drained per tick (0 = until empty)")
	cmd.Flags().StringVar(&f.corsOrigins, "cors-origins", "", "Comma-separated CORS origins; enables CORS when set")
	cmd.Flags().IntVar(&f.heartbeat, "heartbeat", 0, "Push a heartbeat action every N ticks (0 = off)")
	return cmd
}

// apply overlays explicitly set flags on the file config.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if f.addr != "" {
		cfg.HTTP.Addr = f.addr
	}
	if cmd.Flags().Changed("tps") {
		cfg.TPS = &config.TPS{Limit: f.tps}
		cfg.Clock = nil
	}
	if cmd.Flags().Changed("min-tps") || cmd.Flags().Changed("max-tps") {
		c := config.Clock{}
		if cfg.Clock != nil {
			c = *cfg.Clock
		}
		if cmd.Flags().Changed("min-tps") {
			c.MinTicksPerSecond = f.minTPS
		}
		if cmd.Flags().Changed("max-tps") {
			c.MaxTicksPerSecond = f.maxTPS
		}
		cfg.Clock = &c
	}
	if cmd.Flags().Changed("max-drain") {
		cfg.MaxDrainPerTick = f.maxDrain
	}
	if origins := splitCSV(f.corsOrigins); len(origins) > 0 {
		cfg.HTTP.CORS.Enabled = true
		cfg.HTTP.CORS.Origins = origins
	}
}

func run(parent context.Context, cfg config.Config, heartbeatEvery int) error {
	if parent == nil {
		parent = context.Background()
	}
	log := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetCORSOptions(cfg.HTTP.CORS.Enabled, cfg.HTTP.CORS.Origins, cfg.HTTP.CORS.Methods, cfg.HTTP.CORS.Headers)

	lp := loop.New(cfg.LoopConfig(log.With().Str("component", "loop").Logger()))
	if heartbeatEvery > 0 {
		if err := installHeartbeat(lp, log.With().Str("component", "heartbeat").Logger(), heartbeatEvery); err != nil {
			return err
		}
	}

	// Graceful shutdown (Ctrl+C / SIGTERM)
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var srv *http.Server
	if cfg.HTTP.Addr != "" && cfg.HTTP.Addr != "off" {
		srv = &http.Server{Addr: cfg.HTTP.Addr, Handler: httpapi.NewMux(lp), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Info().Str("addr", cfg.HTTP.Addr).Msg("tickd listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("server error")
				stop()
			}
		}()
	}

	runErr := lp.Run(ctx)

	if srv != nil {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown error")
		}
	}
	return runErr
}
