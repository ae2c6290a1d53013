package codec

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
)

// compressZlib deflates data at the given zlib level (real Go
// Minecraft server implementations reach for klauspost/compress here
// instead of the stdlib compress/zlib for its throughput, per
// SPEC_FULL.md's DOMAIN STACK).
func compressZlib(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decompressZlib inflates data, which must expand to exactly
// expectedSize bytes (the data-length prefix the sender attached).
func decompressZlib(data []byte, expectedSize int) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	out := make([]byte, expectedSize)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}
