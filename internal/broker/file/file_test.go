package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"broker-ledger/internal/pnl"
	"broker-ledger/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const report = `{"stat":"Ok","data":[
 {"exCfmTm":"15-Jan-2024 09:31:05","exSeg":"nse_fo","avgPrc":"100.00","qty":50,"sym":"NIFTY","stkPrc":"21500.00","optTp":"CE","trnsTp":"B","stat":"complete"},
 {"exCfmTm":"15-Jan-2024 10:02:41","exSeg":"nse_fo","avgPrc":"120.00","qty":"50","sym":"NIFTY","stkPrc":21500,"optTp":"CE","trnsTp":"S","stat":"complete"}
]}`

func write(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestOrderReportReadsFile(t *testing.T) {
	g := New(write(t, report))
	ctx := context.Background()

	s, err := g.Login(ctx, types.Credentials{APIKey: "acct"})
	require.NoError(t, err)

	rep, err := g.OrderReport(ctx, s)
	require.NoError(t, err)
	require.NotNil(t, rep.Data)
	assert.Len(t, *rep.Data, 2)

	l, err := pnl.ComputeReport(rep, false, pnl.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "942.1", l.NetPnL.String())
}

func TestOrderReportRereadsOnEachCall(t *testing.T) {
	path := write(t, `{"stat":"Ok","data":[]}`)
	g := New(path)

	rep, err := g.OrderReport(context.Background(), types.Session{})
	require.NoError(t, err)
	assert.Empty(t, *rep.Data)

	require.NoError(t, os.WriteFile(path, []byte(report), 0o644))
	rep, err = g.OrderReport(context.Background(), types.Session{})
	require.NoError(t, err)
	assert.Len(t, *rep.Data, 2)
}

func TestOrderReportErrors(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.json")).OrderReport(context.Background(), types.Session{})
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = New(write(t, `{"stat":"Ok","data":{"oops":1}}`)).OrderReport(context.Background(), types.Session{})
	assert.ErrorIs(t, err, pnl.ErrStructural)
}

func TestTradingCallsUnsupported(t *testing.T) {
	g := New("unused")
	_, err := g.PlaceOrder(context.Background(), types.Session{}, types.OrderReq{})
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = g.Limits(context.Background(), types.Session{})
	assert.ErrorIs(t, err, ErrUnsupported)
}
