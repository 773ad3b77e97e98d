package codec

import (
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/islero/historyvault/internal/candle"
	"github.com/islero/historyvault/internal/interval"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

// TestDecimalRoundTrip_ExtremePrecision exercises scenario S1's
// byte-identical round-trip requirement across high-precision values.
func TestDecimalRoundTrip_ExtremePrecision(t *testing.T) {
	values := []string{
		"0.12345678901234567890",
		"9999999999.999999999999999999",
		"0.000000000000000000000000001",
		"1234567890.123456789012345678",
		"99999999999999999999999999.99",
		"0",
		"-42.5",
	}
	for _, s := range values {
		s := s
		t.Run(s, func(t *testing.T) {
			d := dec(t, s)
			buf := make([]byte, 16)
			require.NoError(t, putDecimal(buf, d))
			got := getDecimal(buf)
			assert.True(t, d.Equal(got), "want %s got %s", d, got)
		})
	}
}

func TestPutDecimal_OverflowRejected(t *testing.T) {
	tooBig := new(big.Int).Lsh(big.NewInt(1), 97) // exceeds the 96-bit magnitude
	huge := decimal.NewFromBigInt(tooBig, 0)
	buf := make([]byte, 16)
	err := putDecimal(buf, huge)
	assert.Error(t, err)
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	open := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := []candle.Candle{
		{
			OpenTime:  open,
			CloseTime: open.Add(time.Hour).Add(-100 * time.Nanosecond),
			Open:      dec(t, "100.5"),
			High:      dec(t, "105.25"),
			Low:       dec(t, "99.75"),
			Close:     dec(t, "102.125"),
			Volume:    dec(t, "12345.6789"),
		},
		{
			OpenTime:  open.Add(time.Hour),
			CloseTime: open.Add(2 * time.Hour).Add(-100 * time.Nanosecond),
			Open:      dec(t, "102.125"),
			High:      dec(t, "110"),
			Low:       dec(t, "101"),
			Close:     dec(t, "108.5"),
			Volume:    dec(t, "500"),
		},
	}

	buf, err := Encode(candles, interval.Hour1, false)
	require.NoError(t, err)
	defer buf.Release()

	decoded, header, err := Decode(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, int64(2), header.RecordCount)
	assert.False(t, header.Compressed())

	for i := range candles {
		assert.True(t, candles[i].OpenTime.Equal(decoded[i].OpenTime))
		assert.True(t, candles[i].CloseTime.Equal(decoded[i].CloseTime))
		assert.True(t, candles[i].Open.Equal(decoded[i].Open))
		assert.True(t, candles[i].High.Equal(decoded[i].High))
		assert.True(t, candles[i].Low.Equal(decoded[i].Low))
		assert.True(t, candles[i].Close.Equal(decoded[i].Close))
		assert.True(t, candles[i].Volume.Equal(decoded[i].Volume))
	}
}

func TestDecodeHeaderOnly_EmptyPayload(t *testing.T) {
	buf := EncodeEmpty(interval.Minute1, false)
	defer buf.Release()

	header, err := DecodeHeaderOnly(buf.Bytes())
	require.NoError(t, err)
	assert.Zero(t, header.RecordCount)
}

func TestParseHeader_RejectsBadMagic(t *testing.T) {
	data := make([]byte, HeaderSize)
	copy(data, "XXXX")
	_, err := parseHeader(data)
	assert.Error(t, err)
}

func TestParseHeader_RejectsTruncated(t *testing.T) {
	_, err := parseHeader(make([]byte, 10))
	assert.Error(t, err)
}
