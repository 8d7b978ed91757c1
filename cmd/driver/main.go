package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tiny_stm/pkg/bench"
)

var (
	configPath string
	conf       = bench.DefaultConf
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "driver",
		Short:         "Bank-transfer benchmark driver for the tiny_stm engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	flags := rootCmd.Flags()
	flags.StringVar(&configPath, "config", "", "toml config file; when set, it overrides the other flags")
	flags.IntVar(&conf.NumThreads, "threads", conf.NumThreads, "number of worker threads")
	flags.IntVar(&conf.NumAccounts, "accounts", conf.NumAccounts, "number of accounts in the arena")
	flags.IntVar(&conf.NumTxns, "txns", conf.NumTxns, "total transactions across all workers")
	flags.IntVar(&conf.OpsPerTxn, "ops-per-txn", conf.OpsPerTxn, "transfers batched into one transaction")
	flags.Int64Var(&conf.TransferAmount, "transfer-amount", conf.TransferAmount, "amount moved per transfer")
	flags.Int64Var(&conf.InitialBalance, "initial-balance", conf.InitialBalance, "starting balance of every account")
	flags.StringVar(&conf.LogLevel, "log-level", conf.LogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&conf.MetricsAddr, "metrics-addr", conf.MetricsAddr, "serve prometheus metrics on this address")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(_ *cobra.Command, _ []string) error {
	if configPath != "" {
		conf = bench.DefaultConf
		if err := conf.FromFile(configPath); err != nil {
			return err
		}
	}
	if err := conf.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(conf.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	report, err := bench.Run(&conf, logger)
	if err != nil {
		return err
	}
	fmt.Println(report)

	if !report.Conserved() {
		return errors.Errorf("conservation violated: total before=%d after=%d",
			report.TotalBefore, report.TotalAfter)
	}
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.Set(level); err != nil {
		return nil, errors.Wrapf(err, "log level %q", level)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
