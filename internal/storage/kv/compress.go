package kv

import (
	"fmt"
	"sync"

	"github.com/pierrec/lz4"
)

// Compressor compresses values before they reach the backend.
type Compressor interface {
	// Name returns the name of the compression algorithm.
	Name() string

	// Compress compresses the input data.
	Compress(data []byte) ([]byte, error)

	// Decompress decompresses the input data.
	Decompress(data []byte) ([]byte, error)
}

// CompressorFactory creates a new compressor instance.
type CompressorFactory func() Compressor

var (
	compressorMu sync.RWMutex
	compressors  = make(map[string]CompressorFactory)
)

// RegisterCompressor registers a compressor factory under a name.
func RegisterCompressor(name string, factory CompressorFactory) {
	compressorMu.Lock()
	defer compressorMu.Unlock()
	compressors[name] = factory
}

// GetCompressor returns a new compressor for the given name.
func GetCompressor(name string) (Compressor, error) {
	compressorMu.RLock()
	factory, ok := compressors[name]
	compressorMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("kv: unknown compressor %q", name)
	}
	return factory(), nil
}

func init() {
	RegisterCompressor("none", func() Compressor { return noCompressor{} })
	RegisterCompressor("lz4", func() Compressor { return lz4Compressor{} })
}

// noCompressor passes data through unchanged.
type noCompressor struct{}

func (noCompressor) Name() string { return "none" }

func (noCompressor) Compress(data []byte) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (noCompressor) Decompress(data []byte) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// lz4Compressor implements LZ4 block compression.
type lz4Compressor struct{}

func (lz4Compressor) Name() string { return "lz4" }

func (lz4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}

	compressed := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}
	return compressed[:n], nil
}

func (lz4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}

	// The stored envelope does not record the uncompressed size, so grow
	// the buffer until the block fits.
	for size := len(data) * 4; size <= len(data)*64; size *= 2 {
		decompressed := make([]byte, size)
		n, err := lz4.UncompressBlock(data, decompressed)
		if err == nil {
			return decompressed[:n], nil
		}
	}
	return nil, fmt.Errorf("lz4 decompression failed")
}
