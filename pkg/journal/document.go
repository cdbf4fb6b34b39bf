package journal

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Encoder and decoder are safe for concurrent use and expensive to build.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("journal: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("journal: zstd decoder initialization failed: " + err.Error())
	}
}

// CompressDocument returns the zstd frame for doc. The empty document
// compresses to nil.
func CompressDocument(doc string) []byte {
	if doc == "" {
		return nil
	}
	return zstdEncoder.EncodeAll([]byte(doc), nil)
}

// DecompressDocument reverses CompressDocument.
func DecompressDocument(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	out, err := zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		return "", fmt.Errorf("zstd decompress: %w", err)
	}
	return string(out), nil
}
