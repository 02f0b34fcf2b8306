package journal

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/autopilot/risk"
)

// SQLiteJournal stores decisions and the daily ledger in one database file.
// It satisfies both Journal and risk.Store.
type SQLiteJournal struct {
	db *sql.DB
}

var _ risk.Store = (*SQLiteJournal)(nil)

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordDecision(d Decision) error {
	_, err := j.db.Exec(`
		INSERT INTO decisions
		(id, time, symbol, action, reason, notional, trading_day, notional_spent, realized_pnl, stop_triggered)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Time, d.Symbol, d.Action, d.Reason, d.Notional,
		d.TradingDay, d.NotionalSpent, d.RealizedPnL, d.StopTriggered,
	)
	return err
}

// LoadDay implements risk.Store.
func (j *SQLiteJournal) LoadDay(day string) (risk.DailyLedger, bool, error) {
	led := risk.DailyLedger{TradingDay: day}

	row := j.db.QueryRow(`
		SELECT notional_spent, realized_pnl, stop_triggered
		FROM daily_ledger WHERE trading_day = ?`, day)

	err := row.Scan(&led.NotionalSpent, &led.RealizedPnL, &led.StopTriggered)
	if errors.Is(err, sql.ErrNoRows) {
		return risk.DailyLedger{}, false, nil
	}
	if err != nil {
		return risk.DailyLedger{}, false, err
	}
	return led, true, nil
}

// SaveDay implements risk.Store.
func (j *SQLiteJournal) SaveDay(led risk.DailyLedger) error {
	_, err := j.db.Exec(`
		INSERT INTO daily_ledger (trading_day, notional_spent, realized_pnl, stop_triggered)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(trading_day) DO UPDATE SET
			notional_spent = excluded.notional_spent,
			realized_pnl = excluded.realized_pnl,
			stop_triggered = excluded.stop_triggered`,
		led.TradingDay, led.NotionalSpent, led.RealizedPnL, led.StopTriggered,
	)
	return err
}

// ListDecisions returns the decisions recorded for one trading day, oldest
// first.
func (j *SQLiteJournal) ListDecisions(ctx context.Context, day string) ([]Decision, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, time, symbol, action, reason, notional, trading_day, notional_spent, realized_pnl, stop_triggered
		FROM decisions WHERE trading_day = ? ORDER BY id`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Decision
	for rows.Next() {
		var d Decision
		if err := rows.Scan(&d.ID, &d.Time, &d.Symbol, &d.Action, &d.Reason,
			&d.Notional, &d.TradingDay, &d.NotionalSpent, &d.RealizedPnL, &d.StopTriggered); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
