package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/papaburgs/spacegui/internal/types"
)

// SaveSnapshot writes one agent row and one row per ship, all stamped with ts.
func SaveSnapshot(ctx context.Context, db *sql.DB, ts time.Time, agent types.Agent, ships []types.Ship) error {
	unix := ts.Unix()
	return Tx(ctx, db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO agent_history (timestamp, symbol, credits, ships, headquarters)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(timestamp, symbol) DO NOTHING
		`, unix, agent.Symbol, agent.Credits, len(ships), agent.Headquarters)
		if err != nil {
			return fmt.Errorf("insert agent %s: %w", agent.Symbol, err)
		}
		for _, s := range ships {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO ship_history (timestamp, symbol, status, waypoint, fuel, cargo)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT(timestamp, symbol) DO NOTHING
			`, unix, s.Symbol, string(s.Nav.Status), s.Nav.WaypointSymbol, s.Fuel.Current, s.Cargo.Units)
			if err != nil {
				return fmt.Errorf("insert ship %s: %w", s.Symbol, err)
			}
		}
		return nil
	})
}

// AgentRecords reads an agent's credit history for the last duration, oldest first.
func AgentRecords(ctx context.Context, db *sql.DB, symbol string, duration time.Duration) ([]types.AgentRecord, error) {
	records := []types.AgentRecord{}
	startTime := time.Now().Add(-duration).Unix()

	rows, err := db.QueryContext(ctx, "SELECT timestamp, ships, credits FROM agent_history WHERE symbol = ? AND timestamp >= ? ORDER BY timestamp ASC", symbol, startTime)
	if err != nil {
		return nil, fmt.Errorf("failed to query agent history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ts int64
		var r types.AgentRecord
		if err := rows.Scan(&ts, &r.ShipCount, &r.Credits); err != nil {
			continue
		}
		r.Timestamp = time.Unix(ts, 0).UTC()
		records = append(records, r)
	}
	return records, rows.Err()
}

// AgentSymbols lists every agent with recorded history.
func AgentSymbols(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT DISTINCT symbol FROM agent_history ORDER BY symbol")
	if err != nil {
		return nil, fmt.Errorf("failed to query agents: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ActionEntry is one row of action_log.
type ActionEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Ship      string    `json:"ship"`
	Action    string    `json:"action"`
	OK        bool      `json:"ok"`
	Detail    string    `json:"detail,omitempty"`
}

func LogAction(ctx context.Context, db *sql.DB, e ActionEntry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	_, err := db.ExecContext(ctx,
		"INSERT INTO action_log (timestamp, ship, action, ok, detail) VALUES (?, ?, ?, ?, ?)",
		e.Timestamp.Unix(), e.Ship, e.Action, e.OK, e.Detail)
	if err != nil {
		return fmt.Errorf("failed to log action: %w", err)
	}
	return nil
}

// RecentActions returns the newest entries first. An empty ship means all ships.
func RecentActions(ctx context.Context, db *sql.DB, ship string, limit int) ([]ActionEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	q := "SELECT timestamp, ship, action, ok, detail FROM action_log"
	args := []any{}
	if ship != "" {
		q += " WHERE ship = ?"
		args = append(args, ship)
	}
	q += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query action log: %w", err)
	}
	defer rows.Close()

	var out []ActionEntry
	for rows.Next() {
		var ts int64
		var e ActionEntry
		if err := rows.Scan(&ts, &e.Ship, &e.Action, &e.OK, &e.Detail); err != nil {
			return nil, err
		}
		e.Timestamp = time.Unix(ts, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
