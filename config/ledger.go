package config

import (
	"io/ioutil"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

var Ledger *LedgerConfig

// LedgerConfig carries the accounting policy knobs read from ledger.yml.
type LedgerConfig struct {
	CommissionPercentage decimal.Decimal `yaml:"commission_percentage"`
	MinimumWithdrawal    decimal.Decimal `yaml:"minimum_withdrawal"`
	WithdrawalMethods    []string        `yaml:"withdrawal_methods"`
	EarningsTimeout      time.Duration   `yaml:"earnings_timeout"`
	EarningsCacheTTL     time.Duration   `yaml:"earnings_cache_ttl"`
	PendingAuditAge      time.Duration   `yaml:"pending_audit_age"`
}

func DefaultLedgerConfig() *LedgerConfig {
	return &LedgerConfig{
		CommissionPercentage: decimal.NewFromInt(7),
		MinimumWithdrawal:    decimal.NewFromInt(500),
		WithdrawalMethods:    []string{"bank", "easypaisa", "jazzcash", "crypto"},
		EarningsTimeout:      2 * time.Second,
		EarningsCacheTTL:     30 * time.Second,
		PendingAuditAge:      24 * time.Hour,
	}
}

func LedgerConfigPath() string {
	return Getenv("LEDGER_CONFIG", "config/ledger.yml")
}

// LoadLedgerConfig reads path over the defaults. A missing file keeps the
// defaults.
func LoadLedgerConfig(path string) error {
	c, err := ParseLedgerConfig(path)
	if err != nil {
		return err
	}

	Ledger = c

	return nil
}

func ParseLedgerConfig(path string) (*LedgerConfig, error) {
	c := DefaultLedgerConfig()

	buf, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	} else if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(buf, c); err != nil {
		return nil, err
	}

	return c, nil
}
