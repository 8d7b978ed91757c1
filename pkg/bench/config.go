package bench

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config describes one benchmark run. The engine itself is agnostic
// to all of this; only the driver consumes it.
type Config struct {
	NumAccounts    int    `toml:"num-accounts"`    // Size of the shared cell arena.
	NumTxns        int    `toml:"num-txns"`        // Total transactions, split evenly across workers.
	NumThreads     int    `toml:"num-threads"`     // Worker goroutines.
	OpsPerTxn      int    `toml:"ops-per-txn"`     // Transfers batched into one transaction.
	TransferAmount int64  `toml:"transfer-amount"` // Amount moved per transfer.
	InitialBalance int64  `toml:"initial-balance"` // Starting balance of every account.
	LogLevel       string `toml:"log-level"`
	MetricsAddr    string `toml:"metrics-addr"` // Serve prometheus metrics here when non-empty.
}

var DefaultConf = Config{
	NumAccounts:    1000000,
	NumTxns:        100000,
	NumThreads:     4,
	OpsPerTxn:      10,
	TransferAmount: 50,
	InitialBalance: 1000,
	LogLevel:       "info",
}

// FromFile overlays c with the values found in a toml file.
func (c *Config) FromFile(path string) error {
	if _, err := toml.DecodeFile(path, c); err != nil {
		return errors.Wrapf(err, "load config %s", path)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.NumAccounts < 2 {
		return errors.New("num-accounts must be at least 2")
	}
	if c.NumTxns <= 0 {
		return errors.New("num-txns must be positive")
	}
	if c.NumThreads <= 0 {
		return errors.New("num-threads must be positive")
	}
	if c.OpsPerTxn <= 0 {
		return errors.New("ops-per-txn must be positive")
	}
	if c.TransferAmount <= 0 {
		return errors.New("transfer-amount must be positive")
	}
	if c.InitialBalance < 0 {
		return errors.New("initial-balance must not be negative")
	}
	return nil
}
