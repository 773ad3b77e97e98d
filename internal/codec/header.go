package codec

import (
	"encoding/binary"
	"time"

	"github.com/islero/historyvault/internal/interval"
)

const (
	// Magic is the four-byte file signature every on-disk file begins with.
	Magic = "HVLT"
	// Version is the only format version this codec understands.
	Version uint16 = 1
	// HeaderSize is the fixed size, in bytes, of the file header.
	HeaderSize = 64
	// RecordSize is the fixed size, in bytes, of one encoded candle.
	RecordSize = 96
	// FlagCompressed marks the payload that follows the header as
	// deflate-family compressed (bit 0 of the flags field).
	FlagCompressed uint16 = 0x0001
)

const tickEpochOffset = 0 // ticks are counted from the Unix epoch

// ticksPerSecond is 10,000,000 100-nanosecond ticks per second.
const ticksPerSecond = int64(time.Second / 100)

func timeToTicks(t time.Time) int64 {
	return t.Unix()*ticksPerSecond + int64(t.Nanosecond())/100
}

func ticksToTime(ticks int64) time.Time {
	sec := ticks / ticksPerSecond
	rem := ticks % ticksPerSecond
	if rem < 0 {
		rem += ticksPerSecond
		sec--
	}
	return time.Unix(sec, rem*100).UTC()
}

// Header mirrors the 64-byte on-disk header field-for-field.
type Header struct {
	Version        uint16
	Flags          uint16
	RecordCount    int64
	FirstOpenTicks int64
	LastCloseTicks int64
	IntervalSecs   int32
}

// Compressed reports whether FlagCompressed is set.
func (h Header) Compressed() bool {
	return h.Flags&FlagCompressed != 0
}

// FirstOpenTime and LastCloseTime convert the header's tick fields back
// to time.Time, for callers that prefer wall-clock values.
func (h Header) FirstOpenTime() time.Time { return ticksToTime(h.FirstOpenTicks) }
func (h Header) LastCloseTime() time.Time { return ticksToTime(h.LastCloseTicks) }

func writeHeader(buf []byte, h Header) {
	copy(buf[0:4], Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint16(buf[6:8], h.Flags)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(h.RecordCount))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(h.FirstOpenTicks))
	binary.LittleEndian.PutUint64(buf[24:32], uint64(h.LastCloseTicks))
	binary.LittleEndian.PutUint32(buf[32:36], uint32(h.IntervalSecs))
	for i := 36; i < HeaderSize; i++ {
		buf[i] = 0
	}
}

func intervalSeconds(iv interval.Interval) int32 {
	s, err := interval.Seconds(iv)
	if err != nil {
		return 0
	}
	return int32(s)
}
