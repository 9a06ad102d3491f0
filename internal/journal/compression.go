// internal/journal/compression.go
package journal

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// minCompressSize is the output size below which compression is skipped.
const minCompressSize = 512

// codec compresses captured script output before it is stored.
type codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newCodec() (*codec, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("creating encoder: %w", err)
	}

	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
	)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("creating decoder: %w", err)
	}

	return &codec{enc: enc, dec: dec}, nil
}

// compress returns data, compressed when it is large enough to be worth it.
func (c *codec) compress(data []byte) ([]byte, bool) {
	if len(data) < minCompressSize {
		return data, false
	}
	return c.enc.EncodeAll(data, make([]byte, 0, len(data)/2)), true
}

func (c *codec) decompress(data []byte, compressed bool) ([]byte, error) {
	if !compressed {
		return data, nil
	}
	out, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing output: %w", err)
	}
	return out, nil
}

func (c *codec) close() {
	c.enc.Close()
	c.dec.Close()
}
