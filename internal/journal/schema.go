package journal

const Schema = `
CREATE TABLE IF NOT EXISTS ledger_runs (
	run_id TEXT PRIMARY KEY,
	account TEXT NOT NULL,
	computed_at TEXT NOT NULL,
	bot_trade BOOLEAN NOT NULL,
	row_count INTEGER NOT NULL,
	open_legs INTEGER NOT NULL,
	dropped INTEGER NOT NULL,
	gross_pnl TEXT NOT NULL,
	total_charges TEXT NOT NULL,
	net_pnl TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS ledger_rows (
	run_id TEXT NOT NULL REFERENCES ledger_runs(run_id),
	seq INTEGER NOT NULL,
	account TEXT NOT NULL,
	computed_at TEXT NOT NULL,
	bot_trade BOOLEAN NOT NULL,
	symbol TEXT NOT NULL,
	strike TEXT NOT NULL,
	option_type TEXT NOT NULL,
	buy_time TEXT NOT NULL,
	sell_time TEXT NOT NULL,
	buy_price TEXT NOT NULL,
	sell_price TEXT NOT NULL,
	qty INTEGER NOT NULL,
	gross_pnl TEXT NOT NULL,
	buy_turnover TEXT NOT NULL,
	sell_turnover TEXT NOT NULL,
	brokerage TEXT NOT NULL,
	stt TEXT NOT NULL,
	exchange_txn TEXT NOT NULL,
	sebi_fees TEXT NOT NULL,
	stamp_duty TEXT NOT NULL,
	gst TEXT NOT NULL,
	total_charges TEXT NOT NULL,
	net_pnl TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_ledger_runs_account ON ledger_runs(account, computed_at);
`
