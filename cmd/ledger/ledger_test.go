package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"broker-ledger/internal/eod"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reportA = `{"stat":"Ok","data":[
 {"exCfmTm":"15-Jan-2024 09:31:05","exSeg":"nse_fo","avgPrc":"100.00","qty":"50","sym":"NIFTY","stkPrc":"21500.00","optTp":"CE","trnsTp":"B","stat":"complete"},
 {"exCfmTm":"15-Jan-2024 10:02:41","exSeg":"nse_fo","avgPrc":"120.00","qty":"50","sym":"NIFTY","stkPrc":"21500.00","optTp":"CE","trnsTp":"S","stat":"complete"}
]}`

func setup(t *testing.T, reportB string) (cfgPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	ra := filepath.Join(dir, "a.json")
	rb := filepath.Join(dir, "b.json")
	require.NoError(t, os.WriteFile(ra, []byte(reportA), 0o644))
	require.NoError(t, os.WriteFile(rb, []byte(reportB), 0o644))

	dbPath = filepath.Join(dir, "ledger.db")
	cfg := `
gateway: FILE
journal:
  type: sqlite
  db_path: ` + dbPath + `
recorder:
  dir: ` + filepath.Join(dir, "audit") + `
accounts:
  - name: alpha
    order_report_file: ` + ra + `
  - name: beta
    order_report_file: ` + rb + `
`
	cfgPath = filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return cfgPath, dbPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestComputeAllAccounts(t *testing.T) {
	cfgPath, dbPath := setup(t, `{"stat":"Ok","data":[]}`)

	out, err := run(t, "--config", cfgPath, "compute")
	require.NoError(t, err)

	var results []ledgerResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)

	byAccount := map[string]ledgerResult{}
	for _, r := range results {
		byAccount[r.Account] = r
		assert.Len(t, r.RunID, 26)
	}
	assert.Equal(t, "942.1", byAccount["alpha"].Ledger.NetPnL.String())
	assert.Empty(t, byAccount["beta"].Ledger.Rows)

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()
	var runs int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM ledger_runs`).Scan(&runs))
	assert.Equal(t, 2, runs)
}

func TestComputeBotFlag(t *testing.T) {
	cfgPath, _ := setup(t, `{"stat":"Ok","data":[]}`)

	out, err := run(t, "--config", cfgPath, "compute", "--account", "alpha", "--bot")
	require.NoError(t, err)

	var results []ledgerResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.True(t, results[0].BotTrade)
	assert.Equal(t, "989.3", results[0].Ledger.NetPnL.String())
}

func TestComputeReportsFailingAccount(t *testing.T) {
	cfgPath, _ := setup(t, `{"stat":"Not_Ok","emsg":"session expired"}`)

	out, err := run(t, "--config", cfgPath, "compute")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "beta")
	assert.Contains(t, err.Error(), "session expired")

	var results []ledgerResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "alpha", results[0].Account)
}

func TestComputeUnknownAccount(t *testing.T) {
	cfgPath, _ := setup(t, `{"stat":"Ok","data":[]}`)
	_, err := run(t, "--config", cfgPath, "compute", "--account", "gamma")
	assert.ErrorContains(t, err, "unknown account")
}

func TestOrderPlaceUnsupportedOnFileGateway(t *testing.T) {
	cfgPath, _ := setup(t, `{"stat":"Ok","data":[]}`)
	_, err := run(t, "--config", cfgPath, "order", "place", "--symbol", "NIFTY24JAN21500CE", "--side", "buy", "--qty", "50")
	assert.ErrorContains(t, err, "not supported")
}

func TestWriteEODOncePerDay(t *testing.T) {
	dir := t.TempDir()
	summ := eod.New(dir)
	ist := time.FixedZone("IST", 19800)

	early := ledgerResult{Account: "alpha", ComputedAt: time.Date(2024, 1, 15, 11, 0, 0, 0, ist)}
	writeEOD(context.Background(), summ, early)
	_, err := os.Stat(filepath.Join(dir, "eod", "alpha-2024-01-15.csv"))
	assert.True(t, os.IsNotExist(err))

	late := ledgerResult{Account: "alpha", ComputedAt: time.Date(2024, 1, 15, 15, 45, 0, 0, ist)}
	writeEOD(context.Background(), summ, late)
	assert.FileExists(t, filepath.Join(dir, "eod", "alpha-2024-01-15.csv"))
}
