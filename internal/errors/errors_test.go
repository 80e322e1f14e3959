package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDataError_UnwrapsSentinel(t *testing.T) {
	err := NewDataError("history", "NSE:NIFTY50-INDEX", "no data", ErrEmptySeries)

	assert.True(t, Is(err, ErrEmptySeries))
	assert.Contains(t, err.Error(), "history")
	assert.Contains(t, err.Error(), "NSE:NIFTY50-INDEX")

	var dataErr *DataError
	assert.True(t, As(err, &dataErr))
	assert.Equal(t, "no data", dataErr.Message)
}

func TestRiskError_Fields(t *testing.T) {
	err := NewRiskError("margin_vs_cash", 5000, 4000, "margin exceeds available cash")

	var riskErr *RiskError
	assert.True(t, As(err, &riskErr))
	assert.Equal(t, "margin_vs_cash", riskErr.Rule)
	assert.Equal(t, 5000.0, riskErr.Current)
	assert.Equal(t, 4000.0, riskErr.Limit)
	assert.Contains(t, err.Error(), "margin_vs_cash")
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))

	wrapped := Wrap(ErrPriceUnavailable, "fetching close")
	assert.True(t, Is(wrapped, ErrPriceUnavailable))
	assert.Contains(t, wrapped.Error(), "fetching close")

	wrappedf := Wrapf(ErrContractNotFound, "type %s", "CALL")
	assert.True(t, Is(wrappedf, ErrContractNotFound))
	assert.Contains(t, wrappedf.Error(), "type CALL")
}
