// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS decisions (
	id TEXT PRIMARY KEY,
	time DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	action TEXT NOT NULL,
	reason TEXT NOT NULL,
	notional TEXT NOT NULL,
	trading_day TEXT NOT NULL,
	notional_spent TEXT NOT NULL,
	realized_pnl TEXT NOT NULL,
	stop_triggered INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decisions_day ON decisions(trading_day);

CREATE TABLE IF NOT EXISTS daily_ledger (
	trading_day TEXT PRIMARY KEY,
	notional_spent TEXT NOT NULL,
	realized_pnl TEXT NOT NULL,
	stop_triggered INTEGER NOT NULL
);
`
