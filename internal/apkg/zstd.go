package apkg

import (
	"bytes"

	"github.com/klauspost/compress/zstd"

	"github.com/hpungsan/deckpack/internal/errors"
)

// zstdMagic is the four-byte frame header of a zstd stream.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// decoder is shared by all decompression calls. A nil decoder means zstd is
// unavailable and magic-prefixed payloads pass through unchanged.
var decoder *zstd.Decoder

func init() {
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
}

// ZstdAvailable reports whether zstd decompression is usable. Checked once at
// init; call sites branch on it instead of on decode errors.
func ZstdAvailable() bool {
	return decoder != nil
}

// MaybeDecompress returns the zstd-decompressed form of data if it carries
// the zstd magic prefix, and data unchanged otherwise. When zstd is
// unavailable, magic-prefixed data is also returned unchanged; downstream
// callers tolerate still-compressed bytes in that degraded mode.
func MaybeDecompress(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, zstdMagic) || decoder == nil {
		return data, nil
	}
	out, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, errors.NewPackageCorrupt(err)
	}
	return out, nil
}
