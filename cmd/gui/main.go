package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/papaburgs/spacegui/internal/app"
	"github.com/papaburgs/spacegui/internal/collector"
	"github.com/papaburgs/spacegui/internal/config"
	"github.com/papaburgs/spacegui/internal/db"
	"github.com/papaburgs/spacegui/internal/gate"
	"github.com/papaburgs/spacegui/internal/live"
	"github.com/papaburgs/spacegui/internal/logging"
	"github.com/papaburgs/spacegui/internal/metrics"
	"github.com/papaburgs/spacegui/internal/querycache"
	"github.com/papaburgs/spacegui/internal/session"
	"github.com/papaburgs/spacegui/internal/spacetraders"
)

const version = "1.0.0"

var configFile string

var rootCmd = &cobra.Command{
	Use:          "spacegui",
	Short:        "Web dashboard for a SpaceTraders agent",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&configFile, "config", "c", "", "config file (default ./spacegui.yaml when present)")
	f.String("listen", "", "address to listen on")
	f.String("backend-url", "", "SpaceTraders backend base url")
	f.String("token", "", "agent bearer token")
	f.String("database-url", "", "libsql url or sqlite path for history")
	f.String("log-level", "", "debug, info, warn or error")
	f.String("static-dir", "", "serve static files from this directory")
	f.Bool("collect", false, "record credit history in the database")
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
	cfg, err := config.Load(v, configFile)
	if err != nil {
		return err
	}
	logging.InitLogger(cfg.LogLevel)
	l := slog.With("function", "main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	g := gate.New(cfg.GatePerSecond, cfg.GateBurst)
	defer g.Close()
	client := spacetraders.New(cfg.BackendURL,
		spacetraders.WithToken(cfg.Token),
		spacetraders.WithGate(g),
		spacetraders.WithMetrics(m),
	)
	cache := querycache.New(cfg.CacheTTL, cfg.CacheIdle, m)
	defer cache.Close()
	sessions := session.NewStore(cfg.SessionTTL, m)
	hub := live.NewHub(m)

	opts := app.Options{
		Client:         client,
		Cache:          cache,
		Sessions:       sessions,
		Hub:            hub,
		Metrics:        m,
		BackendURL:     cfg.BackendURL,
		Token:          cfg.Token,
		AllowedOrigins: cfg.AllowedOrigins,
		StaticDir:      cfg.StaticDir,
		RequestTimeout: cfg.RequestTimeout,
		CollectEvery:   cfg.CollectEvery,
	}

	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL, cfg.DatabaseToken)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer database.Close()
		if err := db.InitSchema(ctx, database); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
		opts.DB = database
	}

	eg, ctx := errgroup.WithContext(ctx)

	hubDone := make(chan struct{})
	opts.HubDone = hubDone
	eg.Go(func() error {
		defer close(hubDone)
		hub.Run(ctx)
		return nil
	})
	eg.Go(func() error {
		sessions.Run(ctx, time.Minute)
		return nil
	})
	if cfg.Collect {
		c := collector.New(opts.DB, client, m)
		eg.Go(func() error {
			c.Run(ctx, cfg.CollectEvery)
			return nil
		})
	}

	a, err := app.New(opts)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           a.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	eg.Go(func() error {
		l.Info("starting spacegui", "version", version, "listen", cfg.Listen, "backend", cfg.BackendURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		l.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := eg.Wait(); err != nil {
		l.Error("server stopped", "error", err)
		return err
	}
	l.Info("server stopped")
	return nil
}
