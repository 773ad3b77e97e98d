package candle

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

func TestValidate_AcceptsWellFormedCandle(t *testing.T) {
	c := Candle{Open: dec("100"), High: dec("110"), Low: dec("90"), Close: dec("105"), Volume: dec("1")}
	assert.NoError(t, c.Validate())
}

func TestValidate_RejectsHighBelowOpen(t *testing.T) {
	c := Candle{Open: dec("100"), High: dec("99"), Low: dec("90"), Close: dec("95"), Volume: dec("1")}
	assert.Error(t, c.Validate())
}

func TestValidate_RejectsLowAboveClose(t *testing.T) {
	c := Candle{Open: dec("100"), High: dec("110"), Low: dec("101"), Close: dec("105"), Volume: dec("1")}
	assert.Error(t, c.Validate())
}

func TestValidate_RejectsNegativeVolume(t *testing.T) {
	c := Candle{Open: dec("100"), High: dec("110"), Low: dec("90"), Close: dec("105"), Volume: dec("-1")}
	assert.Error(t, c.Validate())
}
