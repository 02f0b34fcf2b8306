// journal/csv.go
package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// CSVJournal appends decisions to a flat file. It does not persist the
// ledger; with a csv journal the daily budget restarts with the process.
type CSVJournal struct {
	decisions *csv.Writer
	f         *os.File
}

func NewCSV(decisionsPath string) (*CSVJournal, error) {
	f, err := os.Create(decisionsPath)
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"id", "time", "symbol", "action", "reason", "notional",
		"trading_day", "notional_spent", "realized_pnl", "stop_triggered",
	}); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{decisions: w, f: f}, nil
}

func (j *CSVJournal) RecordDecision(d Decision) error {
	err := j.decisions.Write([]string{
		d.ID,
		d.Time.Format(time.RFC3339),
		d.Symbol,
		d.Action,
		d.Reason,
		d.Notional.String(),
		d.TradingDay,
		d.NotionalSpent.String(),
		d.RealizedPnL.String(),
		strconv.FormatBool(d.StopTriggered),
	})
	if err != nil {
		return err
	}

	j.decisions.Flush()
	return j.decisions.Error()
}

func (j *CSVJournal) Close() error {
	j.decisions.Flush()
	if err := j.decisions.Error(); err != nil {
		return err
	}
	return j.f.Close()
}
