package backtest

import (
	"math"

	"options-backtester/internal/errors"
	"options-backtester/internal/models"
)

// SelectContract picks the contract of the given type whose absolute delta
// is closest to target. Ties break in snapshot order: the first contract
// encountered wins. Delta is normalized to absolute value before comparison
// since puts carry negative delta in the source convention.
func SelectContract(chain *models.OptionChain, target float64, optType models.OptionType) (models.OptionContract, error) {
	var best models.OptionContract
	bestDiff := math.Inf(1)
	found := false

	for _, contract := range chain.Contracts {
		if contract.Type != optType {
			continue
		}
		diff := math.Abs(math.Abs(contract.Delta) - target)
		if diff < bestDiff {
			bestDiff = diff
			best = contract
			found = true
		}
	}

	if !found {
		return models.OptionContract{}, errors.Wrapf(errors.ErrContractNotFound, "type %s target delta %.2f", optType, target)
	}
	return best, nil
}
