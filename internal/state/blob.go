package state

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// #region blob-codec
var (
	codecOnce sync.Once
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	codecErr  error
)

func initCodec() error {
	codecOnce.Do(func() {
		encoder, codecErr = zstd.NewWriter(nil)
		if codecErr != nil {
			return
		}
		decoder, codecErr = zstd.NewReader(nil)
	})
	return codecErr
}

// encodeBlob stores v as zstd-compressed JSON.
func encodeBlob(v any) ([]byte, error) {
	if err := initCodec(); err != nil {
		return nil, fmt.Errorf("init zstd: %w", err)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal blob: %w", err)
	}
	return encoder.EncodeAll(raw, nil), nil
}

// decodeBlob reverses encodeBlob. An empty blob leaves v untouched.
func decodeBlob(b []byte, v any) error {
	if len(b) == 0 {
		return nil
	}
	if err := initCodec(); err != nil {
		return fmt.Errorf("init zstd: %w", err)
	}
	raw, err := decoder.DecodeAll(b, nil)
	if err != nil {
		return fmt.Errorf("decompress blob: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("unmarshal blob: %w", err)
	}
	return nil
}

// #endregion blob-codec
