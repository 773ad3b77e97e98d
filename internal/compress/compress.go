// Package compress wraps a streaming, gzip-magic-compatible deflate
// codec (spec.md C4), grounded on the teacher's
// internal/performance.MessageCompressor pooled gzip/zlib/deflate/zstd
// wrapper, trimmed to the single gzip-family codec the storage format
// requires (magic bytes 0x1F 0x8B, no outer framing).
package compress

import (
	"bytes"
	"io"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// Level is the compression level enum of spec.md §4.4.
type Level int

const (
	Fastest Level = iota
	Optimal
	SmallestSize
)

// DefaultLevel is Optimal, per spec.md §4.4.
const DefaultLevel = Optimal

func (l Level) gzipLevel() int {
	switch l {
	case Fastest:
		return gzip.BestSpeed
	case SmallestSize:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

// gzipMagic is the two-byte signature every gzip stream begins with.
var gzipMagic = [2]byte{0x1F, 0x8B}

// Sniff peeks at the first two bytes of b and reports whether they are
// the gzip magic, without consuming b.
func Sniff(b []byte) bool {
	return len(b) >= 2 && b[0] == gzipMagic[0] && b[1] == gzipMagic[1]
}

var writerPools sync.Map // map[int]*sync.Pool of *gzip.Writer

func writerPoolFor(level int) *sync.Pool {
	if p, ok := writerPools.Load(level); ok {
		return p.(*sync.Pool)
	}
	p := &sync.Pool{
		New: func() any {
			w, _ := gzip.NewWriterLevel(io.Discard, level)
			return w
		},
	}
	actual, _ := writerPools.LoadOrStore(level, p)
	return actual.(*sync.Pool)
}

var readerPool = sync.Pool{
	New: func() any { return new(gzip.Reader) },
}

// Compress returns the gzip-compressed form of data at the given level.
func Compress(data []byte, level Level) ([]byte, error) {
	glevel := level.gzipLevel()
	pool := writerPoolFor(glevel)
	w := pool.Get().(*gzip.Writer)
	defer pool.Put(w)

	var out bytes.Buffer
	w.Reset(&out)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Decompress returns the decompressed form of a gzip stream.
func Decompress(data []byte) ([]byte, error) {
	r, err := newReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer releaseReader(r)
	return io.ReadAll(r)
}

// PooledDecompress decompresses data into a buffer seeded with
// sizeEstimate bytes of capacity, growing geometrically (doubling) on
// exhaustion, per spec.md §4.4/§9.
func PooledDecompress(data []byte, sizeEstimate int) ([]byte, error) {
	r, err := newReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer releaseReader(r)

	if sizeEstimate <= 0 {
		sizeEstimate = 4096
	}
	buf := make([]byte, 0, sizeEstimate)
	for {
		if len(buf) == cap(buf) {
			grown := make([]byte, len(buf), cap(buf)*2)
			copy(grown, buf)
			buf = grown
		}
		n, err := r.Read(buf[len(buf):cap(buf)])
		buf = buf[:len(buf)+n]
		if err == io.EOF {
			return buf, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func newReader(r io.Reader) (*gzip.Reader, error) {
	gr := readerPool.Get().(*gzip.Reader)
	if err := gr.Reset(r); err != nil {
		readerPool.Put(gr)
		return nil, err
	}
	return gr, nil
}

func releaseReader(r *gzip.Reader) {
	r.Close()
	readerPool.Put(r)
}

// CompressStream compresses src into dst as a gzip stream.
func CompressStream(dst io.Writer, src io.Reader, level Level) error {
	w, err := gzip.NewWriterLevel(dst, level.gzipLevel())
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, src); err != nil {
		return err
	}
	return w.Close()
}

// DecompressStream decompresses src as a gzip stream into dst.
func DecompressStream(dst io.Writer, src io.Reader) error {
	r, err := gzip.NewReader(src)
	if err != nil {
		return err
	}
	defer r.Close()
	_, err = io.Copy(dst, r)
	return err
}
