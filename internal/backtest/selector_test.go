package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-backtester/internal/errors"
	"options-backtester/internal/models"
)

func testChain() *models.OptionChain {
	return &models.OptionChain{
		Underlying: "NSE:NIFTY50-INDEX",
		Contracts: []models.OptionContract{
			{Symbol: "CE21500", Type: models.OptionTypeCall, Strike: 21500, LTP: 180, Delta: 0.62},
			{Symbol: "CE21700", Type: models.OptionTypeCall, Strike: 21700, LTP: 95, Delta: 0.48},
			{Symbol: "CE22000", Type: models.OptionTypeCall, Strike: 22000, LTP: 40, Delta: 0.28},
			{Symbol: "PE21500", Type: models.OptionTypePut, Strike: 21500, LTP: 160, Delta: -0.58},
			{Symbol: "PE21200", Type: models.OptionTypePut, Strike: 21200, LTP: 70, Delta: -0.33},
		},
	}
}

func TestSelectContract_ClosestAbsoluteDelta(t *testing.T) {
	chain := testChain()

	call, err := SelectContract(chain, 0.6, models.OptionTypeCall)
	require.NoError(t, err)
	assert.Equal(t, "CE21500", call.Symbol)

	// Put deltas are negative in the chain; selection normalizes to
	// absolute value.
	put, err := SelectContract(chain, 0.6, models.OptionTypePut)
	require.NoError(t, err)
	assert.Equal(t, "PE21500", put.Symbol)

	put, err = SelectContract(chain, 0.3, models.OptionTypePut)
	require.NoError(t, err)
	assert.Equal(t, "PE21200", put.Symbol)
}

func TestSelectContract_TieBreaksOnSnapshotOrder(t *testing.T) {
	chain := &models.OptionChain{
		Contracts: []models.OptionContract{
			{Symbol: "CE_A", Type: models.OptionTypeCall, Delta: 0.55},
			{Symbol: "CE_B", Type: models.OptionTypeCall, Delta: 0.65},
		},
	}

	// Both contracts are 0.05 away from the target; the first wins.
	got, err := SelectContract(chain, 0.6, models.OptionTypeCall)
	require.NoError(t, err)
	assert.Equal(t, "CE_A", got.Symbol)
}

func TestSelectContract_Deterministic(t *testing.T) {
	chain := testChain()

	first, err := SelectContract(chain, 0.5, models.OptionTypeCall)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := SelectContract(chain, 0.5, models.OptionTypeCall)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSelectContract_TypeAbsent(t *testing.T) {
	chain := &models.OptionChain{
		Contracts: []models.OptionContract{
			{Symbol: "PE21500", Type: models.OptionTypePut, Delta: -0.5},
		},
	}

	_, err := SelectContract(chain, 0.5, models.OptionTypeCall)
	assert.ErrorIs(t, err, errors.ErrContractNotFound)
}

func TestSelectContract_EmptyChain(t *testing.T) {
	_, err := SelectContract(&models.OptionChain{}, 0.5, models.OptionTypePut)
	assert.ErrorIs(t, err, errors.ErrContractNotFound)
}
