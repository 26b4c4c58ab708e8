package store

import (
	"os"
	"path/filepath"
	"testing"

	"broker-ledger/internal/charges"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimal = `
gateway: file
accounts:
  - name: primary
    order_report_file: testdata/report.json
`

func TestParseConfigDefaults(t *testing.T) {
	c, err := ParseConfig([]byte(minimal))
	require.NoError(t, err)

	assert.Equal(t, "DRY_RUN", c.Mode)
	assert.Equal(t, "FILE", c.Gateway)
	assert.Equal(t, "NFO", c.Exchange)
	assert.Equal(t, "none", c.Journal.Type)
	assert.Equal(t, 60, c.Watch.PollSeconds)
	assert.Equal(t, uint32(5), c.Guard.BreakerConsecutiveFailures)

	s := c.Schedule()
	def := charges.NSEOptions()
	assert.True(t, def.BrokeragePerLeg.Equal(s.BrokeragePerLeg))
	assert.True(t, def.ExchangeTxnRate.Equal(s.ExchangeTxnRate), "exchange rate %s", s.ExchangeTxnRate)
	assert.True(t, def.GSTRate.Equal(s.GSTRate))
	assert.Equal(t, int32(2), s.Places)
}

func TestParseConfigOverrides(t *testing.T) {
	c, err := ParseConfig([]byte(`
mode: LIVE
gateway: KITE
bot_trade: true
charges:
  brokerage_per_leg: 15
  stt_sell_rate: 0.000625
  exchange_txn_rate: 0.0005
  sebi_fee_rate: 0.000001
  stamp_duty_buy_rate: 0.00003
  gst_rate: 0.18
  round_places: 4
matching:
  statuses: [complete, traded]
journal:
  type: sqlite
  db_path: ledger.db
accounts:
  - name: kite-main
    api_key_env: KITE_API_KEY
    access_token_env: KITE_ACCESS_TOKEN
`))
	require.NoError(t, err)

	assert.True(t, c.BotTrade)
	s := c.Schedule()
	assert.True(t, decimal.NewFromInt(15).Equal(s.BrokeragePerLeg))
	assert.True(t, decimal.RequireFromString("0.000625").Equal(s.STTSellRate))
	assert.Equal(t, int32(4), s.Places)

	pc := c.PnLConfig()
	assert.Equal(t, []string{"complete", "traded"}, pc.Normalize.Statuses)

	a, ok := c.Account("kite-main")
	require.True(t, ok)
	t.Setenv("KITE_API_KEY", "k1")
	assert.Equal(t, "k1", a.APIKey())
	_, ok = c.Account("missing")
	assert.False(t, ok)
}

func TestParseConfigValidation(t *testing.T) {
	cases := map[string]string{
		"bad mode": `
mode: PAPER
gateway: file
accounts: [{name: a, order_report_file: r.json}]`,
		"no accounts": `
gateway: file`,
		"duplicate account": `
gateway: file
accounts: [{name: a, order_report_file: r.json}, {name: a, order_report_file: r.json}]`,
		"file gateway needs report": `
gateway: file
accounts: [{name: a}]`,
		"csv journal needs path": `
gateway: file
journal: {type: csv}
accounts: [{name: a, order_report_file: r.json}]`,
		"negative rate": `
gateway: file
charges: {brokerage_per_leg: 20, gst_rate: -0.18}
accounts: [{name: a, order_report_file: r.json}]`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimal), 0o644))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "primary", c.Accounts[0].Name)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
