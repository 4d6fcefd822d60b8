// Package collector records credit and fleet history on a timer, for the
// dashboard charts.
package collector

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/papaburgs/spacegui/internal/db"
	"github.com/papaburgs/spacegui/internal/metrics"
	"github.com/papaburgs/spacegui/internal/types"
)

// Source is the part of the backend client the collector reads.
type Source interface {
	Agent(ctx context.Context) (types.Agent, error)
	Ships(ctx context.Context) ([]types.Ship, error)
}

type Collector struct {
	db      *sql.DB
	src     Source
	metrics *metrics.Metrics
	now     func() time.Time
}

func New(database *sql.DB, src Source, m *metrics.Metrics) *Collector {
	return &Collector{
		db:      database,
		src:     src,
		metrics: m,
		now:     time.Now,
	}
}

func (c *Collector) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run immediately on start
	c.Ingest(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Ingest(ctx)
		}
	}
}

// Ingest takes one snapshot. Failures are logged and counted, the next tick
// tries again.
func (c *Collector) Ingest(ctx context.Context) {
	_ = c.IngestOnce(ctx)
}

// IngestOnce is Ingest for callers that need the outcome, such as a one shot
// run that should exit non-zero.
func (c *Collector) IngestOnce(ctx context.Context) error {
	l := slog.With("function", "collector.Ingest")
	if err := c.snapshot(ctx); err != nil {
		if ctx.Err() == nil {
			l.Error("snapshot failed", "error", err)
		}
		c.count("error")
		return err
	}
	c.count("ok")
	l.Debug("snapshot stored")
	return nil
}

func (c *Collector) snapshot(ctx context.Context) error {
	ts := c.now()
	agent, err := c.src.Agent(ctx)
	if err != nil {
		return fmt.Errorf("get agent: %w", err)
	}
	ships, err := c.src.Ships(ctx)
	if err != nil {
		return fmt.Errorf("get ships: %w", err)
	}
	return db.SaveSnapshot(ctx, c.db, ts, agent, ships)
}

func (c *Collector) count(outcome string) {
	if c.metrics != nil {
		c.metrics.Snapshots.WithLabelValues(outcome).Inc()
	}
}
