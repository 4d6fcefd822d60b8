// collect records credit history without serving the dashboard. It is the
// same collector the dashboard runs with --collect, for hosts that only
// want the history.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papaburgs/spacegui/internal/collector"
	"github.com/papaburgs/spacegui/internal/config"
	"github.com/papaburgs/spacegui/internal/db"
	"github.com/papaburgs/spacegui/internal/gate"
	"github.com/papaburgs/spacegui/internal/logging"
	"github.com/papaburgs/spacegui/internal/metrics"
	"github.com/papaburgs/spacegui/internal/spacetraders"
)

var (
	configFile string
	once       bool
)

var rootCmd = &cobra.Command{
	Use:          "collect",
	Short:        "Record agent credits and fleet status on a timer",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&configFile, "config", "c", "", "config file (default ./spacegui.yaml when present)")
	f.BoolVar(&once, "once", false, "take a single snapshot and exit")
	f.String("backend-url", "", "SpaceTraders backend base url")
	f.String("token", "", "agent bearer token")
	f.String("database-url", "", "libsql url or sqlite path")
	f.String("log-level", "", "debug, info, warn or error")
	f.Duration("collect-every", 0, "time between snapshots")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	v := viper.New()
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return err
	}
	// collecting is the point of this binary
	v.Set("collect", true)
	cfg, err := config.Load(v, configFile)
	if err != nil {
		return err
	}
	logging.InitLogger(cfg.LogLevel)
	l := slog.With("function", "main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, cfg.DatabaseURL, cfg.DatabaseToken)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer database.Close()
	if err := db.InitSchema(ctx, database); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	g := gate.New(cfg.GatePerSecond, cfg.GateBurst)
	defer g.Close()
	client := spacetraders.New(cfg.BackendURL,
		spacetraders.WithToken(cfg.Token),
		spacetraders.WithGate(g),
	)
	c := collector.New(database, client, metrics.New())

	if once {
		if err := c.IngestOnce(ctx); err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		return nil
	}
	l.Info("collecting", "every", cfg.CollectEvery, "backend", cfg.BackendURL)
	c.Run(ctx, cfg.CollectEvery)
	l.Info("collector stopped")
	return nil
}
