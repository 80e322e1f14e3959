package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatIndianCurrency(t *testing.T) {
	assert.Equal(t, "₹0.00", FormatIndianCurrency(0))
	assert.Equal(t, "₹999.50", FormatIndianCurrency(999.5))
	assert.Equal(t, "₹1,000.00", FormatIndianCurrency(1000))
	assert.Equal(t, "₹1,00,000.00", FormatIndianCurrency(100000))
	assert.Equal(t, "₹1,23,45,678.90", FormatIndianCurrency(12345678.9))
	assert.Equal(t, "-₹5,000.00", FormatIndianCurrency(-5000))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "+5.25%", FormatPercent(5.25))
	assert.Equal(t, "0.00%", FormatPercent(0))
	assert.Equal(t, "-3.10%", FormatPercent(-3.1))
}
