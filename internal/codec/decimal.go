package codec

import (
	"encoding/binary"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/islero/historyvault/internal/vaulterrors"
)

// maxScale is the largest scale the four-word layout can address (a
// single byte in the flags word, capped at the 128-bit-decimal
// convention of spec.md §4.3).
const maxScale = 28

var (
	ten        = big.NewInt(10)
	bitMask32  = big.NewInt(0xFFFFFFFF)
	signFlag   = uint32(0x80000000)
)

// putDecimal writes d into the 16-byte little-endian four-word layout
// (96-bit magnitude + a flags word holding scale and sign) at buf[0:16].
func putDecimal(buf []byte, d decimal.Decimal) error {
	coeff := d.Coefficient()
	negative := coeff.Sign() < 0
	mag := new(big.Int).Abs(coeff)
	scale := -int64(d.Exponent())

	if scale < 0 {
		// Positive exponent: bring the representation to scale 0.
		mul := new(big.Int).Exp(ten, big.NewInt(-scale), nil)
		mag.Mul(mag, mul)
		scale = 0
	}
	if scale > maxScale {
		// Round half-away-from-zero down to the representable scale.
		excess := scale - maxScale
		divisor := new(big.Int).Exp(ten, big.NewInt(excess), nil)
		half := new(big.Int).Rsh(divisor, 1)
		mag.Add(mag, half)
		mag.Div(mag, divisor)
		scale = maxScale
	}
	if mag.BitLen() > 96 {
		return vaulterrors.ErrInvalidArgument
	}

	tmp := new(big.Int).Set(mag)
	var words [3]uint32
	for i := 0; i < 3; i++ {
		w := new(big.Int).And(tmp, bitMask32)
		words[i] = uint32(w.Uint64())
		tmp.Rsh(tmp, 32)
	}

	flags := uint32(scale) & 0xFF
	if negative {
		flags |= signFlag
	}

	binary.LittleEndian.PutUint32(buf[0:4], words[0])
	binary.LittleEndian.PutUint32(buf[4:8], words[1])
	binary.LittleEndian.PutUint32(buf[8:12], words[2])
	binary.LittleEndian.PutUint32(buf[12:16], flags)
	return nil
}

// getDecimal reads the 16-byte four-word layout at buf[0:16] back into a
// decimal.Decimal.
func getDecimal(buf []byte) decimal.Decimal {
	lo := binary.LittleEndian.Uint32(buf[0:4])
	mid := binary.LittleEndian.Uint32(buf[4:8])
	hi := binary.LittleEndian.Uint32(buf[8:12])
	flags := binary.LittleEndian.Uint32(buf[12:16])

	mag := new(big.Int).SetUint64(uint64(hi))
	mag.Lsh(mag, 32)
	mag.Or(mag, new(big.Int).SetUint64(uint64(mid)))
	mag.Lsh(mag, 32)
	mag.Or(mag, new(big.Int).SetUint64(uint64(lo)))

	scale := int32(flags & 0xFF)
	if flags&signFlag != 0 {
		mag.Neg(mag)
	}
	return decimal.NewFromBigInt(mag, -scale)
}
