package store

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"broker-ledger/internal/charges"
	"broker-ledger/internal/pnl"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Mode     string `yaml:"mode"`    // LIVE or DRY_RUN
	Gateway  string `yaml:"gateway"` // KITE or FILE
	Exchange string `yaml:"exchange"`
	Product  string `yaml:"product"`
	BotTrade bool   `yaml:"bot_trade"`
	Charges  struct {
		BrokeragePerLeg  float64 `yaml:"brokerage_per_leg"`
		STTSellRate      float64 `yaml:"stt_sell_rate"`
		ExchangeTxnRate  float64 `yaml:"exchange_txn_rate"`
		SEBIFeeRate      float64 `yaml:"sebi_fee_rate"`
		StampDutyBuyRate float64 `yaml:"stamp_duty_buy_rate"`
		GSTRate          float64 `yaml:"gst_rate"`
		RoundPlaces      *int32  `yaml:"round_places"`
	} `yaml:"charges"`
	Matching struct {
		Statuses        []string `yaml:"statuses"`
		TimestampLayout string   `yaml:"timestamp_layout"`
	} `yaml:"matching"`
	Journal struct {
		Type    string `yaml:"type"` // csv, sqlite or none
		CSVPath string `yaml:"csv_path"`
		DBPath  string `yaml:"db_path"`
	} `yaml:"journal"`
	Recorder struct {
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"recorder"`
	Guard struct {
		RatePerSecond              float64 `yaml:"rate_per_second"`
		Burst                      int     `yaml:"burst"`
		BreakerTimeoutSeconds      int     `yaml:"breaker_timeout_seconds"`
		BreakerConsecutiveFailures uint32  `yaml:"breaker_consecutive_failures"`
	} `yaml:"guard"`
	Watch struct {
		PollSeconds int    `yaml:"poll_seconds"`
		MetricsAddr string `yaml:"metrics_addr"`
	} `yaml:"watch"`
	Accounts []Account `yaml:"accounts"`
}

// Account names one broker login. Secrets are read from the named env vars.
type Account struct {
	Name            string `yaml:"name"`
	APIKeyEnv       string `yaml:"api_key_env"`
	APISecretEnv    string `yaml:"api_secret_env"`
	AccessTokenEnv  string `yaml:"access_token_env"`
	OrderReportFile string `yaml:"order_report_file"`
}

func (a Account) APIKey() string      { return os.Getenv(a.APIKeyEnv) }
func (a Account) APISecret() string   { return os.Getenv(a.APISecretEnv) }
func (a Account) AccessToken() string { return os.Getenv(a.AccessTokenEnv) }

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if c.Gateway != "KITE" && c.Gateway != "FILE" {
		return fmt.Errorf("invalid gateway '%s': must be 'KITE' or 'FILE'", c.Gateway)
	}
	switch c.Journal.Type {
	case "none":
	case "csv":
		if c.Journal.CSVPath == "" {
			return errors.New("journal.csv_path is required for csv journal")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return errors.New("journal.db_path is required for sqlite journal")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none', got '%s'", c.Journal.Type)
	}
	if len(c.Accounts) == 0 {
		return errors.New("accounts cannot be empty")
	}
	seen := make(map[string]struct{}, len(c.Accounts))
	for i, a := range c.Accounts {
		if a.Name == "" {
			return fmt.Errorf("accounts[%d].name is required", i)
		}
		if _, dup := seen[a.Name]; dup {
			return fmt.Errorf("duplicate account name '%s'", a.Name)
		}
		seen[a.Name] = struct{}{}
		if c.Gateway == "FILE" && a.OrderReportFile == "" {
			return fmt.Errorf("accounts[%d].order_report_file is required for FILE gateway", i)
		}
		if c.Gateway == "KITE" && a.APIKeyEnv == "" {
			return fmt.Errorf("accounts[%d].api_key_env is required for KITE gateway", i)
		}
	}
	if c.Guard.RatePerSecond <= 0 {
		return fmt.Errorf("guard.rate_per_second must be positive, got %.2f", c.Guard.RatePerSecond)
	}
	if err := c.Schedule().Validate(); err != nil {
		return err
	}
	return nil
}

// Schedule converts the charges section into a fee schedule.
func (c *Config) Schedule() charges.Schedule {
	s := charges.Schedule{
		BrokeragePerLeg:  decimal.NewFromFloat(c.Charges.BrokeragePerLeg),
		STTSellRate:      decimal.NewFromFloat(c.Charges.STTSellRate),
		ExchangeTxnRate:  decimal.NewFromFloat(c.Charges.ExchangeTxnRate),
		SEBIFeeRate:      decimal.NewFromFloat(c.Charges.SEBIFeeRate),
		StampDutyBuyRate: decimal.NewFromFloat(c.Charges.StampDutyBuyRate),
		GSTRate:          decimal.NewFromFloat(c.Charges.GSTRate),
		Places:           2,
	}
	if c.Charges.RoundPlaces != nil {
		s.Places = *c.Charges.RoundPlaces
	}
	return s
}

func (c *Config) PnLConfig() pnl.Config {
	return pnl.Config{
		Schedule: c.Schedule(),
		Normalize: pnl.NormalizeOptions{
			Statuses: c.Matching.Statuses,
			Layout:   c.Matching.TimestampLayout,
		},
	}
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Watch.PollSeconds) * time.Second
}

func (c *Config) Account(name string) (Account, bool) {
	for _, a := range c.Accounts {
		if a.Name == name {
			return a, true
		}
	}
	return Account{}, false
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(b)
}

func ParseConfig(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	c.Mode = strings.ToUpper(c.Mode)
	c.Gateway = strings.ToUpper(c.Gateway)
	if c.Mode == "" {
		c.Mode = "DRY_RUN"
	}
	if c.Gateway == "" {
		c.Gateway = "KITE"
	}
	if c.Exchange == "" {
		c.Exchange = "NFO"
	}
	if c.Product == "" {
		c.Product = "NRML"
	}

	// An absent charges section means the NSE options schedule
	def := charges.NSEOptions()
	ch := &c.Charges
	if ch.BrokeragePerLeg == 0 && ch.STTSellRate == 0 && ch.ExchangeTxnRate == 0 &&
		ch.SEBIFeeRate == 0 && ch.StampDutyBuyRate == 0 && ch.GSTRate == 0 {
		ch.BrokeragePerLeg = def.BrokeragePerLeg.InexactFloat64()
		ch.STTSellRate = def.STTSellRate.InexactFloat64()
		ch.ExchangeTxnRate = def.ExchangeTxnRate.InexactFloat64()
		ch.SEBIFeeRate = def.SEBIFeeRate.InexactFloat64()
		ch.StampDutyBuyRate = def.StampDutyBuyRate.InexactFloat64()
		ch.GSTRate = def.GSTRate.InexactFloat64()
	}

	if c.Journal.Type == "" {
		c.Journal.Type = "none"
	}
	if c.Recorder.RetentionDays == 0 {
		c.Recorder.RetentionDays = 7
	}
	if c.Guard.RatePerSecond == 0 {
		c.Guard.RatePerSecond = 3 // Kite allows 3 req/s on most endpoints
	}
	if c.Guard.Burst == 0 {
		c.Guard.Burst = 1
	}
	if c.Guard.BreakerTimeoutSeconds == 0 {
		c.Guard.BreakerTimeoutSeconds = 30
	}
	if c.Guard.BreakerConsecutiveFailures == 0 {
		c.Guard.BreakerConsecutiveFailures = 5
	}
	if c.Watch.PollSeconds == 0 {
		c.Watch.PollSeconds = 60
	}
	if c.Watch.MetricsAddr == "" {
		c.Watch.MetricsAddr = ":9108"
	}
}
