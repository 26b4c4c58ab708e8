package journal

import (
	"context"
	"database/sql"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"broker-ledger/internal/pnl"
	"broker-ledger/internal/types"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntry(t *testing.T, runID string) types.JournalEntry {
	t.Helper()
	raw := []types.RawOrderRecord{
		{ConfirmedAt: "15-Jan-2024 09:31:05", AvgPrice: "100", Quantity: "50", Symbol: "NIFTY", Strike: "21500", OptionType: "CE", Side: "B"},
		{ConfirmedAt: "15-Jan-2024 10:02:41", AvgPrice: "120", Quantity: "50", Symbol: "NIFTY", Strike: "21500", OptionType: "CE", Side: "S"},
		{ConfirmedAt: "15-Jan-2024 11:00:00", AvgPrice: "90", Quantity: "25", Symbol: "BANKNIFTY", Side: "B"},
		{ConfirmedAt: "15-Jan-2024 11:30:00", AvgPrice: "95", Quantity: "25", Symbol: "BANKNIFTY", Side: "S"},
	}
	l, err := pnl.ComputeLedger(raw, false, pnl.DefaultConfig())
	require.NoError(t, err)
	require.Len(t, l.Rows, 2)
	return types.JournalEntry{
		RunID:      runID,
		Account:    "primary",
		ComputedAt: time.Date(2024, 1, 15, 15, 40, 0, 0, pnl.IST),
		Ledger:     l,
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return recs
}

func TestCSVAppendsWithSingleHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")

	j, err := NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, j.RecordLedger(context.Background(), sampleEntry(t, "run-1")))
	require.NoError(t, j.Close())

	j, err = NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, j.RecordLedger(context.Background(), sampleEntry(t, "run-2")))
	require.NoError(t, j.Close())

	recs := readCSV(t, path)
	require.Len(t, recs, 5)
	assert.Equal(t, Columns, recs[0])

	row := map[string]string{}
	for i, c := range Columns {
		row[c] = recs[1][i]
	}
	assert.Equal(t, "run-1", row["run_id"])
	assert.Equal(t, "NIFTY", row["symbol"])
	assert.Equal(t, "21500", row["strike"])
	assert.Equal(t, "CALL", row["option_type"])
	assert.Equal(t, "2024-01-15T09:31:05+05:30", row["buy_time"])
	assert.Equal(t, "57.9", row["total_charges"])
	assert.Equal(t, "942.1", row["net_pnl"])
	assert.Equal(t, "run-2", recs[3][0])

	// no strike and no option type stay empty
	assert.Equal(t, "", recs[2][5])
	assert.Equal(t, "", recs[2][6])
}

func TestCSVEmptyLedgerWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	j, err := NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, j.RecordLedger(context.Background(), types.JournalEntry{RunID: "r", Account: "a"}))
	require.NoError(t, j.Close())

	assert.Len(t, readCSV(t, path), 1)
}

func TestSQLiteRecordLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	j, err := NewSQLite(path)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, j.RecordLedger(ctx, sampleEntry(t, "run-1")))
	require.NoError(t, j.RecordLedger(ctx, sampleEntry(t, "run-2")))

	// same run id twice violates the primary key and leaves nothing behind
	assert.Error(t, j.RecordLedger(ctx, sampleEntry(t, "run-1")))

	runs, err := j.RunsByAccount(ctx, "primary")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].RunID)
	assert.Equal(t, 2, runs[0].Rows)
	assert.Equal(t, "2024-01-15T15:40:00+05:30", runs[0].ComputedAt)
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM ledger_rows`).Scan(&count))
	assert.Equal(t, 4, count)

	var net string
	require.NoError(t, db.QueryRow(`SELECT net_pnl FROM ledger_rows WHERE run_id = ? AND seq = 0`, "run-1").Scan(&net))
	assert.Equal(t, "942.1", net)
}

func TestNop(t *testing.T) {
	j := Nop()
	assert.NoError(t, j.RecordLedger(context.Background(), sampleEntry(t, "x")))
	assert.NoError(t, j.Close())
}
