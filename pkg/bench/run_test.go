package bench

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func smallConf() Config {
	conf := DefaultConf
	conf.NumAccounts = 50
	conf.NumTxns = 400
	conf.NumThreads = 4
	conf.OpsPerTxn = 5
	conf.TransferAmount = 5
	conf.InitialBalance = 100
	return conf
}

func TestRunConservesTheTotalBalance(t *testing.T) {
	conf := smallConf()

	report, err := Run(&conf, zap.NewNop())
	require.NoError(t, err)

	assert.True(t, report.Conserved())
	assert.Equal(t, int64(conf.NumAccounts)*conf.InitialBalance, report.TotalAfter)
	assert.Equal(t, uint64(conf.NumTxns), report.Commits)
}

func TestRunUnderContentionStillConserves(t *testing.T) {
	conf := smallConf()
	conf.NumAccounts = 4 // constant collisions
	conf.NumThreads = 8
	conf.NumTxns = 800

	report, err := Run(&conf, zap.NewNop())
	require.NoError(t, err)

	assert.True(t, report.Conserved())
}

func TestRunRejectsAnInvalidConfig(t *testing.T) {
	conf := smallConf()
	conf.NumThreads = 0

	_, err := Run(&conf, zap.NewNop())
	assert.Error(t, err)
}
