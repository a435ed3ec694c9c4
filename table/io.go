package table

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/rmera/nbforce/vmath"
)

// ErrFormat is returned (wrapped) when a table file can't be understood.
var ErrFormat = errors.New("not a table file")

const magic = "NBTAB1\n"

// compression level for gzip and flate.
const level = 9

// the header that follows the magic string.
type header struct {
	Stride int32
	N      int32
	Scale  float64
}

// codec picks the compression from the file extension:
// .zst zstd, .gz gzip, .flate deflate, anything else uncompressed.
func codec(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".zst", ".zstd":
		return "zstd"
	case ".gz":
		return "gzip"
	case ".flate", ".z":
		return "flate"
	}
	return "none"
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// Write stores the table in the file name. Values are always written
// in double precision, little endian.
func Write[T vmath.Real](name string, t *Table[T]) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()
	buf := bufio.NewWriter(f)
	zstdwriter := func(a io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(a, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	}
	gzipwriter := func(a io.Writer) (io.WriteCloser, error) { return gzip.NewWriterLevel(a, level) }
	flatewriter := func(a io.Writer) (io.WriteCloser, error) { return flate.NewWriter(a, level) }
	var AnyNewWriter func(io.Writer) (io.WriteCloser, error)
	switch codec(name) {
	case "zstd":
		AnyNewWriter = zstdwriter
	case "gzip":
		AnyNewWriter = gzipwriter
	case "flate":
		AnyNewWriter = flatewriter
	default:
		AnyNewWriter = func(a io.Writer) (io.WriteCloser, error) { return nopCloser{a}, nil }
	}
	h, err := AnyNewWriter(buf)
	if err != nil {
		return fmt.Errorf("table: can't open writer for %s: %w", name, err)
	}
	if _, err = io.WriteString(h, magic); err != nil {
		return err
	}
	hd := header{Stride: int32(t.Stride), N: int32(t.N), Scale: float64(t.Scale)}
	if err = binary.Write(h, binary.LittleEndian, hd); err != nil {
		return err
	}
	b := make([]byte, 8)
	for _, v := range t.Data {
		binary.LittleEndian.PutUint64(b, math.Float64bits(float64(v)))
		if _, err = h.Write(b); err != nil {
			return err
		}
	}
	if err = h.Close(); err != nil {
		return err
	}
	return buf.Flush()
}

// zstd's Decoder doesn't implement io.ReadCloser, as its Close
// returns nothing.
type zstdql struct {
	*zstd.Decoder
}

func (z zstdql) Close() error {
	z.Decoder.Close()
	return nil
}

// Read loads a table written by Write, converting it to T.
func Read[T vmath.Real](name string) (*Table[T], error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	zstdreader := func(a io.Reader) (io.ReadCloser, error) {
		r, err := zstd.NewReader(a)
		if err != nil {
			return nil, err
		}
		return zstdql{r}, nil
	}
	var AnyNewReader func(io.Reader) (io.ReadCloser, error)
	switch codec(name) {
	case "zstd":
		AnyNewReader = zstdreader
	case "gzip":
		AnyNewReader = func(a io.Reader) (io.ReadCloser, error) { return gzip.NewReader(a) }
	case "flate":
		AnyNewReader = func(a io.Reader) (io.ReadCloser, error) { return flate.NewReader(a), nil }
	default:
		AnyNewReader = func(a io.Reader) (io.ReadCloser, error) { return io.NopCloser(a), nil }
	}
	r, err := AnyNewReader(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFormat, name, err)
	}
	defer r.Close()
	m := make([]byte, len(magic))
	if _, err = io.ReadFull(r, m); err != nil || string(m) != magic {
		return nil, fmt.Errorf("%w: %s: bad magic", ErrFormat, name)
	}
	var hd header
	if err = binary.Read(r, binary.LittleEndian, &hd); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFormat, name, err)
	}
	if hd.Stride <= 0 || hd.Stride%Width != 0 || hd.N <= 1 || hd.Scale <= 0 {
		return nil, fmt.Errorf("%w: %s: bad header %+v", ErrFormat, name, hd)
	}
	t := &Table[T]{Scale: T(hd.Scale), Stride: int(hd.Stride), N: int(hd.N)}
	t.Data = make([]T, t.Stride*t.N)
	b := make([]byte, 8)
	for i := range t.Data {
		if _, err = io.ReadFull(r, b); err != nil {
			return nil, fmt.Errorf("%w: %s: truncated after %d values", ErrFormat, name, i)
		}
		t.Data[i] = T(math.Float64frombits(binary.LittleEndian.Uint64(b)))
	}
	return t, nil
}
