package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression names a body compression algorithm.
type Compression string

const (
	CompressionNone Compression = ""
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

// ParseCompression accepts "zstd", "lz4", "none" or "".
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case string(CompressionZstd):
		return CompressionZstd, nil
	case string(CompressionLZ4):
		return CompressionLZ4, nil
	}
	return CompressionNone, fmt.Errorf("unknown compression %q", s)
}

var errIncompressible = errors.New("data is incompressible")

// Decompression limits. A zstd frame written by zstdEncoder never uses a
// window above zstdMaxWindow, and an LZ4 block cannot expand by more than
// lz4MaxRatio.
const (
	zstdMaxWindow = 8 << 20
	lz4MaxRatio   = 255
)

// zstd.Encoder is safe for concurrent use.
var zstdEncoder *zstd.Encoder

// zstdDecoders holds synchronous stream decoders; each is used by one
// goroutine at a time.
var zstdDecoders = sync.Pool{
	New: func() any {
		dec, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderMaxWindow(zstdMaxWindow),
			zstd.WithDecoderMaxMemory(maxBodySize),
			zstd.WithDecoderLowmem(true),
		)
		if err != nil {
			panic("schema: zstd decoder initialization failed: " + err.Error())
		}
		return dec
	},
}

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("schema: zstd encoder initialization failed: " + err.Error())
	}
}

// compress returns the compressed body and the algorithm actually applied,
// which is CompressionNone when compression would not shrink data.
func compress(data []byte, c Compression) ([]byte, Compression, error) {
	var (
		out []byte
		err error
	)
	switch c {
	case CompressionNone:
		return data, CompressionNone, nil
	case CompressionZstd:
		out, err = compressZstd(data)
	case CompressionLZ4:
		out, err = compressLZ4(data)
	default:
		return nil, CompressionNone, fmt.Errorf("unknown compression %q", c)
	}
	if errors.Is(err, errIncompressible) {
		return data, CompressionNone, nil
	}
	if err != nil {
		return nil, CompressionNone, err
	}
	return out, c, nil
}

func decompress(body []byte, c Compression, size int) ([]byte, error) {
	switch c {
	case CompressionNone:
		return body, nil
	case CompressionZstd:
		return decompressZstd(body, size)
	case CompressionLZ4:
		return decompressLZ4(body, size)
	}
	return nil, fmt.Errorf("unsupported compression %q", c)
}

func compressZstd(data []byte) ([]byte, error) {
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil, errIncompressible
	}
	return compressed, nil
}

// decompressZstd streams compressed through a reader capped one byte past
// size, so memory and work are bounded by the declared size rather than by
// what the frames claim.
func decompressZstd(compressed []byte, size int) ([]byte, error) {
	dec := zstdDecoders.Get().(*zstd.Decoder)
	defer func() {
		_ = dec.Reset(nil)
		zstdDecoders.Put(dec)
	}()
	if err := dec.Reset(bytes.NewReader(compressed)); err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}

	var out bytes.Buffer
	out.Grow(min(size, 4*len(compressed)+512))
	n, err := out.ReadFrom(io.LimitReader(dec, int64(size)+1))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if n > int64(size) {
		return nil, fmt.Errorf("zstd decompress: body exceeds declared size %d", size)
	}
	if n != int64(size) {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", n, size)
	}
	return out.Bytes(), nil
}

func compressLZ4(data []byte) ([]byte, error) {
	destination := make([]byte, lz4.CompressBlockBound(len(data)))
	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock reports 0 for incompressible input.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}
	return destination[:written], nil
}

func decompressLZ4(compressed []byte, size int) ([]byte, error) {
	if size > lz4MaxRatio*len(compressed)+16 {
		return nil, fmt.Errorf("lz4 decompress: declared size %d exceeds the bound for %d compressed bytes", size, len(compressed))
	}
	destination := make([]byte, size)
	read, err := lz4.UncompressBlock(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != size {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, size)
	}
	return destination, nil
}
