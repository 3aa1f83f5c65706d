/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ssargent/shredrace/pkg/api"
	"github.com/ssargent/shredrace/pkg/config"
	"github.com/ssargent/shredrace/pkg/race"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Listen on both ports and report the race in real time",
	Long: `Listen on both UDP ports and pair up shreds as they arrive. Every
identity seen on both streams produces a match line naming the winner
and its lead; an identity only one stream ever delivers becomes a miss
once the window expires.

Flags override values loaded with --config.

Examples:
  shredrace watch --name-a uk --port-a 20001 --name-b de --port-b 20002
  shredrace watch --config shredrace.yaml --window 500ms
  shredrace watch --listen :9200`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		// The persistent flag wins; a level from the file applies only
		// when the flag was left at its default.
		if !cmd.Flags().Changed("log-level") && cfg.Logging.Level != "" {
			level, err := log.ParseLevel(cfg.Logging.Level)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
			}
			log.SetLevel(level)
		}

		registry := prometheus.NewRegistry()
		engine := race.New(race.Config{
			Streams: [2]race.StreamConfig{
				{Name: cfg.Streams[0].Name, Port: cfg.Streams[0].Port},
				{Name: cfg.Streams[1].Name, Port: cfg.Streams[1].Port},
			},
			Window:        cfg.Window.Std(),
			StatsInterval: cfg.StatsEvery.Std(),
		}, registry)

		if err := engine.Bind(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if cfg.API.Listen != "" {
			server := api.NewServer(api.ServerConfig{Listen: cfg.API.Listen}, engine, registry)
			go func() {
				if err := server.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.WithError(err).Error("debug endpoint failed")
				}
			}()
		}

		return engine.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	registerWatchFlags(watchCmd)
}

func registerWatchFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Load settings from a YAML file")
	cmd.Flags().String("name-a", "a", "Name of the first stream")
	cmd.Flags().Int("port-a", 20001, "UDP port of the first stream")
	cmd.Flags().String("name-b", "b", "Name of the second stream")
	cmd.Flags().Int("port-b", 20002, "UDP port of the second stream")
	cmd.Flags().Duration("window", 60*time.Second, "How long a shred may wait for its counterpart")
	cmd.Flags().Duration("stats-every", 10*time.Second, "Interval between stats lines, 0 disables")
	cmd.Flags().String("listen", "", "Serve /metrics and /api/v1/status on this address")
}

// resolveConfig layers flag overrides on top of the config file, or on top
// of the defaults when no file is given.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	// A malformed file may not carry two streams; Validate reports that
	// with a better message than an index panic would.
	if len(cfg.Streams) == 2 {
		if flags.Changed("name-a") {
			cfg.Streams[0].Name, _ = flags.GetString("name-a")
		}
		if flags.Changed("port-a") {
			cfg.Streams[0].Port, _ = flags.GetInt("port-a")
		}
		if flags.Changed("name-b") {
			cfg.Streams[1].Name, _ = flags.GetString("name-b")
		}
		if flags.Changed("port-b") {
			cfg.Streams[1].Port, _ = flags.GetInt("port-b")
		}
	}
	if flags.Changed("window") {
		window, _ := flags.GetDuration("window")
		cfg.Window = config.Duration(window)
	}
	if flags.Changed("stats-every") {
		statsEvery, _ := flags.GetDuration("stats-every")
		cfg.StatsEvery = config.Duration(statsEvery)
	}
	if flags.Changed("listen") {
		cfg.API.Listen, _ = flags.GetString("listen")
	}

	return cfg, nil
}
