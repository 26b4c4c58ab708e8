package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"broker-ledger/internal/interfaces"
	"broker-ledger/internal/types"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

var _ interfaces.Journal = (*SQLite)(nil)

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// one writer at a time keeps concurrent accounts off SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

var insertRow = fmt.Sprintf(
	`INSERT INTO ledger_rows (seq, %s) VALUES (?%s)`,
	strings.Join(Columns, ", "),
	strings.Repeat(", ?", len(Columns)),
)

// RecordLedger stores the run summary and its rows in one transaction.
func (j *SQLite) RecordLedger(ctx context.Context, e types.JournalEntry) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	l := e.Ledger
	_, err = tx.ExecContext(ctx, `
		INSERT INTO ledger_runs
		(run_id, account, computed_at, bot_trade, row_count, open_legs, dropped, gross_pnl, total_charges, net_pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Account, formatTime(e.ComputedAt), e.BotTrade,
		len(l.Rows), len(l.OpenLegs), len(l.Dropped),
		l.GrossPnL.String(), l.TotalCharges.String(), l.NetPnL.String(),
	)
	if err != nil {
		return fmt.Errorf("sqlite journal: run %s: %w", e.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertRow)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range l.Rows {
		vals := rowValues(e, r)
		args := make([]any, 0, len(vals)+1)
		args = append(args, i)
		for _, v := range vals {
			args = append(args, v)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("sqlite journal: run %s row %d: %w", e.RunID, i, err)
		}
	}
	return tx.Commit()
}

// RunSummary is one stored ledger run.
type RunSummary struct {
	RunID        string
	Account      string
	ComputedAt   string
	Rows         int
	OpenLegs     int
	Dropped      int
	GrossPnL     string
	TotalCharges string
	NetPnL       string
}

// RunsByAccount lists an account's runs, newest first.
func (j *SQLite) RunsByAccount(ctx context.Context, account string) ([]RunSummary, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, account, computed_at, row_count, open_legs, dropped, gross_pnl, total_charges, net_pnl
		FROM ledger_runs WHERE account = ? ORDER BY computed_at DESC, run_id DESC`, account)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(&s.RunID, &s.Account, &s.ComputedAt, &s.Rows, &s.OpenLegs, &s.Dropped,
			&s.GrossPnL, &s.TotalCharges, &s.NetPnL); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
