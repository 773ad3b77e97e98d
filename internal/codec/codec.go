// Package codec implements the fixed-layout, little-endian binary
// record format of spec.md §4.3/§6: a 64-byte validated header followed
// by a dense array of 96-byte candle records.
package codec

import (
	"bytes"
	"encoding/binary"
	"io"
	"sync"

	"github.com/islero/historyvault/internal/candle"
	"github.com/islero/historyvault/internal/interval"
	"github.com/islero/historyvault/internal/vaulterrors"
)

var bufferPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// PooledBuffer wraps a byte slice borrowed from the package's internal
// sync.Pool arena. The caller must call Release when done to return the
// backing buffer to the pool; a PooledBuffer that is never released is
// still safe (it is simply garbage-collected rather than reused).
type PooledBuffer struct {
	buf *bytes.Buffer
}

// Bytes returns the encoded content. The returned slice is only valid
// until Release is called.
func (p *PooledBuffer) Bytes() []byte {
	return p.buf.Bytes()
}

// Len returns the number of encoded bytes.
func (p *PooledBuffer) Len() int {
	return p.buf.Len()
}

// Release returns the backing buffer to the pool for reuse.
func (p *PooledBuffer) Release() {
	if p == nil || p.buf == nil {
		return
	}
	p.buf.Reset()
	bufferPool.Put(p.buf)
	p.buf = nil
}

func getBuffer(sizeHint int) *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	buf.Grow(sizeHint)
	return buf
}

// Encode serializes candles in input order (no sorting, no monotonicity
// validation) under the given interval and compressed-flag marker. The
// returned PooledBuffer must be released by the caller.
func Encode(candles []candle.Candle, iv interval.Interval, compressed bool) (*PooledBuffer, error) {
	size := HeaderSize + len(candles)*RecordSize
	buf := getBuffer(size)

	header := Header{
		Version:      Version,
		IntervalSecs: intervalSeconds(iv),
		RecordCount:  int64(len(candles)),
	}
	if compressed {
		header.Flags |= FlagCompressed
	}
	if len(candles) > 0 {
		header.FirstOpenTicks = timeToTicks(candles[0].OpenTime)
		header.LastCloseTicks = timeToTicks(candles[len(candles)-1].CloseTime)
	}

	headerBytes := make([]byte, HeaderSize)
	writeHeader(headerBytes, header)
	buf.Write(headerBytes)

	record := make([]byte, RecordSize)
	for _, c := range candles {
		if err := writeRecord(record, c); err != nil {
			buf.Reset()
			bufferPool.Put(buf)
			return nil, err
		}
		buf.Write(record)
	}

	return &PooledBuffer{buf: buf}, nil
}

// EncodeEmpty returns the 64-byte header-only encoding of an empty
// candle list.
func EncodeEmpty(iv interval.Interval, compressed bool) *PooledBuffer {
	buf, _ := Encode(nil, iv, compressed)
	return buf
}

func writeRecord(buf []byte, c candle.Candle) error {
	binary.LittleEndian.PutUint64(buf[0:8], uint64(timeToTicks(c.OpenTime)))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(timeToTicks(c.CloseTime)))
	if err := putDecimal(buf[16:32], c.Open); err != nil {
		return err
	}
	if err := putDecimal(buf[32:48], c.High); err != nil {
		return err
	}
	if err := putDecimal(buf[48:64], c.Low); err != nil {
		return err
	}
	if err := putDecimal(buf[64:80], c.Close); err != nil {
		return err
	}
	if err := putDecimal(buf[80:96], c.Volume); err != nil {
		return err
	}
	return nil
}

func readRecord(buf []byte) candle.Candle {
	return candle.Candle{
		OpenTime:  ticksToTime(int64(binary.LittleEndian.Uint64(buf[0:8]))),
		CloseTime: ticksToTime(int64(binary.LittleEndian.Uint64(buf[8:16]))),
		Open:      getDecimal(buf[16:32]),
		High:      getDecimal(buf[32:48]),
		Low:       getDecimal(buf[48:64]),
		Close:     getDecimal(buf[64:80]),
		Volume:    getDecimal(buf[80:96]),
	}
}

// parseHeader validates and parses the first HeaderSize bytes of data.
func parseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, vaulterrors.ErrTruncated
	}
	if string(data[0:4]) != Magic {
		return Header{}, vaulterrors.ErrBadMagic
	}
	version := binary.LittleEndian.Uint16(data[4:6])
	if version > Version {
		return Header{}, vaulterrors.ErrUnsupportedVersion
	}
	flags := binary.LittleEndian.Uint16(data[6:8])
	count := int64(binary.LittleEndian.Uint64(data[8:16]))
	if count < 0 {
		return Header{}, vaulterrors.ErrNegativeCount
	}
	first := int64(binary.LittleEndian.Uint64(data[16:24]))
	last := int64(binary.LittleEndian.Uint64(data[24:32]))
	ivSecs := int32(binary.LittleEndian.Uint32(data[32:36]))

	return Header{
		Version:        version,
		Flags:          flags,
		RecordCount:    count,
		FirstOpenTicks: first,
		LastCloseTicks: last,
		IntervalSecs:   ivSecs,
	}, nil
}

// Decode validates, then fully decodes, an encoded buffer into a freshly
// owned candle list plus its header.
func Decode(data []byte) ([]candle.Candle, Header, error) {
	header, err := parseHeader(data)
	if err != nil {
		return nil, Header{}, err
	}
	needed := HeaderSize + header.RecordCount*RecordSize
	if int64(len(data)) < needed {
		return nil, Header{}, vaulterrors.ErrTruncated
	}

	candles := make([]candle.Candle, header.RecordCount)
	offset := int64(HeaderSize)
	for i := range candles {
		candles[i] = readRecord(data[offset : offset+RecordSize])
		offset += RecordSize
	}
	return candles, header, nil
}

// DecodeHeaderOnly validates and parses only the first HeaderSize bytes,
// without reading any record payload. Used by the availability scan
// (spec.md C7) to avoid decoding full files just to inspect bounds.
func DecodeHeaderOnly(data []byte) (Header, error) {
	return parseHeader(data)
}

// EncodeToStream writes the header followed by the exact records byte
// count to w, with no other buffering assumptions.
func EncodeToStream(w io.Writer, candles []candle.Candle, iv interval.Interval, compressed bool) error {
	buf, err := Encode(candles, iv, compressed)
	if err != nil {
		return err
	}
	defer buf.Release()
	_, err = w.Write(buf.Bytes())
	return err
}

// DecodeFromStream reads a full encoded buffer (header then exactly
// RecordCount records) from r and decodes it.
func DecodeFromStream(r io.Reader) ([]candle.Candle, Header, error) {
	headerBytes := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, Header{}, vaulterrors.ErrTruncated
		}
		return nil, Header{}, err
	}
	header, err := parseHeader(headerBytes)
	if err != nil {
		return nil, Header{}, err
	}

	payload := make([]byte, header.RecordCount*RecordSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, Header{}, vaulterrors.ErrTruncated
		}
		return nil, Header{}, err
	}

	full := append(headerBytes, payload...)
	return Decode(full)
}
