package storage

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// IsCompressed reports whether path is zstd-compressed by name
func IsCompressed(path string) bool {
	return strings.HasSuffix(path, ".zst")
}

type zstdReadCloser struct {
	dec *zstd.Decoder
	src io.Closer
}

func (z *zstdReadCloser) Read(p []byte) (int, error) {
	return z.dec.Read(p)
}

func (z *zstdReadCloser) Close() error {
	z.dec.Close()
	return z.src.Close()
}

// NewDecompressor wraps rc so reads return decompressed data. Closing it
// closes rc.
func NewDecompressor(rc io.ReadCloser) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(rc)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &zstdReadCloser{dec: dec, src: rc}, nil
}

// NewCompressor returns a zstd stream writing to w. Close flushes the last
// frame but does not close w.
func NewCompressor(w io.Writer) (*zstd.Encoder, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	return enc, nil
}
