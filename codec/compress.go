package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/contactbook/internal/conv"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// ErrCorruptBlock is returned when a compressed block cannot be decoded.
var ErrCorruptBlock = errors.New("codec: corrupt block")

// Compressor compresses whole snapshot payloads.
// Implementations must be safe for concurrent use.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	Name() string
}

// CompressorByName returns a built-in compressor by its stable name.
func CompressorByName(name string) (Compressor, bool) {
	switch name {
	case "none", "":
		return None{}, true
	case "zstd":
		return Zstd{}, true
	case "lz4":
		return LZ4{}, true
	default:
		return nil, false
	}
}

// None stores payloads as-is.
type None struct{}

// Compress returns data unchanged.
func (None) Compress(data []byte) ([]byte, error) { return data, nil }

// Decompress returns data unchanged.
func (None) Decompress(data []byte) ([]byte, error) { return data, nil }

// Name returns "none".
func (None) Name() string { return "none" }

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Zstd compresses with klauspost/compress zstd. Better ratio than LZ4.
type Zstd struct{}

// Compress encodes data as a header-prefixed zstd block.
func (Zstd) Compress(data []byte) ([]byte, error) {
	enc := getZstdEncoder()
	defer zstdEncoderPool.Put(enc)

	return frame(data, enc.EncodeAll(data, nil))
}

// Decompress reverses Compress.
func (Zstd) Decompress(data []byte) ([]byte, error) {
	size, body, raw, err := unframe(data)
	if err != nil || raw {
		return body, err
	}

	dec := getZstdDecoder()
	defer zstdDecoderPool.Put(dec)

	out, err := dec.DecodeAll(body, make([]byte, 0, size))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptBlock, err)
	}
	if uint32(len(out)) != size {
		return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorruptBlock)
	}
	return out, nil
}

// Name returns "zstd".
func (Zstd) Name() string { return "zstd" }

// LZ4 compresses with pierrec/lz4 block compression. Faster than Zstd.
type LZ4 struct{}

// Compress encodes data as a header-prefixed lz4 block.
func (LZ4) Compress(data []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		return nil, err
	}
	return frame(data, dst[:n])
}

// Decompress reverses Compress.
func (LZ4) Decompress(data []byte) ([]byte, error) {
	size, body, raw, err := unframe(data)
	if err != nil || raw {
		return body, err
	}

	n, err := conv.Uint32ToInt(size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptBlock, err)
	}
	out := make([]byte, n)
	n, err = lz4.UncompressBlock(body, out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptBlock, err)
	}
	if uint32(n) != size {
		return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorruptBlock)
	}
	return out, nil
}

// Name returns "lz4".
func (LZ4) Name() string { return "lz4" }

// Block layout: [uncompressed size uint32][compressed size uint32][body].
// A compressed size of 0 marks a body stored uncompressed.
const blockHeaderSize = 8

func frame(data, compressed []byte) ([]byte, error) {
	size, err := conv.IntToUint32(len(data))
	if err != nil {
		return nil, fmt.Errorf("codec: block too large: %w", err)
	}

	// Keep the raw bytes when compression saves less than 10%.
	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		out := make([]byte, blockHeaderSize+len(data))
		binary.LittleEndian.PutUint32(out[0:], size)
		copy(out[blockHeaderSize:], data)
		return out, nil
	}

	out := make([]byte, blockHeaderSize+len(compressed))
	binary.LittleEndian.PutUint32(out[0:], size)
	binary.LittleEndian.PutUint32(out[4:], uint32(len(compressed)))
	copy(out[blockHeaderSize:], compressed)
	return out, nil
}

func unframe(data []byte) (size uint32, body []byte, raw bool, err error) {
	if len(data) < blockHeaderSize {
		return 0, nil, false, fmt.Errorf("%w: block too small for header", ErrCorruptBlock)
	}

	size = binary.LittleEndian.Uint32(data[0:])
	csize := binary.LittleEndian.Uint32(data[4:])
	rest := data[blockHeaderSize:]

	if csize == 0 {
		if uint32(len(rest)) != size {
			return 0, nil, false, fmt.Errorf("%w: raw block length mismatch", ErrCorruptBlock)
		}
		return size, rest, true, nil
	}
	if uint32(len(rest)) != csize {
		return 0, nil, false, fmt.Errorf("%w: compressed block length mismatch", ErrCorruptBlock)
	}
	return size, rest, false, nil
}
