package codec

import (
	"bytes"
	"testing"
)

func TestVarIntRoundTrip(t *testing.T) {
	cases := []int32{0, 1, 127, 128, 255, 300, 2097151, -1, -2147483648, 2147483647}
	for _, v := range cases {
		buf := AppendVarInt(nil, v)
		if len(buf) != VarIntSize(v) {
			t.Fatalf("VarIntSize(%d) = %d, encoded length = %d", v, VarIntSize(v), len(buf))
		}
		got, n, err := ReadVarInt(buf)
		if err != nil {
			t.Fatalf("ReadVarInt(%d): %v", v, err)
		}
		if n != len(buf) || got != v {
			t.Fatalf("ReadVarInt round trip: got (%d, %d), want (%d, %d)", got, n, v, len(buf))
		}
	}
}

func TestReadVarIntRejectsUnterminated(t *testing.T) {
	buf := []byte{0x80, 0x80, 0x80, 0x80, 0x80}
	if _, _, err := ReadVarInt(buf); err != ErrMalformedLength {
		t.Fatalf("ReadVarInt(unterminated) error = %v, want ErrMalformedLength", err)
	}
}

func TestEncodeDecodeRoundTripNoCompressionNoEncryption(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	dec := NewDecoder(&buf)

	pkt := RawPacket{ID: 0x02, Body: []byte("hello, voxelcore")}
	if err := enc.Encode(pkt); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := dec.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.ID != pkt.ID || !bytes.Equal(got.Body, pkt.Body) {
		t.Fatalf("Decode = %+v, want %+v", got, pkt)
	}
}

func TestEncodeDecodeRoundTripWithCompression(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	dec := NewDecoder(&buf)

	enc.EnableCompression(16, 6)
	dec.EnableCompression(16)

	// Below threshold: stored uncompressed.
	small := RawPacket{ID: 0x01, Body: []byte("hi")}
	if err := enc.Encode(small); err != nil {
		t.Fatalf("Encode(small): %v", err)
	}
	got, err := dec.Decode()
	if err != nil {
		t.Fatalf("Decode(small): %v", err)
	}
	if got.ID != small.ID || !bytes.Equal(got.Body, small.Body) {
		t.Fatalf("Decode(small) = %+v, want %+v", got, small)
	}

	// Above threshold: actually deflated.
	large := RawPacket{ID: 0x03, Body: bytes.Repeat([]byte("voxelcore chunk payload "), 16)}
	if err := enc.Encode(large); err != nil {
		t.Fatalf("Encode(large): %v", err)
	}
	got, err = dec.Decode()
	if err != nil {
		t.Fatalf("Decode(large): %v", err)
	}
	if got.ID != large.ID || !bytes.Equal(got.Body, large.Body) {
		t.Fatalf("Decode(large) = %+v, want %+v", got, large)
	}
}

func TestEncodeDecodeRoundTripWithEncryption(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	dec := NewDecoder(&buf)

	key := bytes.Repeat([]byte{0x42}, 16)
	if err := enc.EnableEncryption(key); err != nil {
		t.Fatalf("EnableEncryption (encoder): %v", err)
	}
	if err := dec.EnableEncryption(key); err != nil {
		t.Fatalf("EnableEncryption (decoder): %v", err)
	}

	for i, body := range [][]byte{
		[]byte("first packet"),
		[]byte("second packet, right after, same stream state"),
		{},
	} {
		pkt := RawPacket{ID: int32(i), Body: body}
		if err := enc.Encode(pkt); err != nil {
			t.Fatalf("Encode(%d): %v", i, err)
		}
	}

	for i, body := range [][]byte{
		[]byte("first packet"),
		[]byte("second packet, right after, same stream state"),
		{},
	} {
		got, err := dec.Decode()
		if err != nil {
			t.Fatalf("Decode(%d): %v", i, err)
		}
		if got.ID != int32(i) || !bytes.Equal(got.Body, body) {
			t.Fatalf("Decode(%d) = %+v, want ID %d Body %q", i, got, i, body)
		}
	}
}

func TestEncodeDecodeWithCompressionAndEncryptionLayered(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	dec := NewDecoder(&buf)

	enc.EnableCompression(8, 6)
	dec.EnableCompression(8)

	key := bytes.Repeat([]byte{0x17}, 16)
	if err := enc.EnableEncryption(key); err != nil {
		t.Fatalf("EnableEncryption (encoder): %v", err)
	}
	if err := dec.EnableEncryption(key); err != nil {
		t.Fatalf("EnableEncryption (decoder): %v", err)
	}

	pkt := RawPacket{ID: 0x24, Body: bytes.Repeat([]byte("layered"), 32)}
	if err := enc.Encode(pkt); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := dec.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.ID != pkt.ID || !bytes.Equal(got.Body, pkt.Body) {
		t.Fatalf("Decode = %+v, want %+v", got, pkt)
	}
}

func TestDecodeRejectsOversizedLengthPrefix(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(AppendVarInt(nil, int32(MaxPacketSize+1)))

	dec := NewDecoder(&buf)
	if _, err := dec.Decode(); err != ErrTooLong {
		t.Fatalf("Decode oversized length error = %v, want ErrTooLong", err)
	}
}

func TestDecodeSurfacesConnectionClosedOnShortRead(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(AppendVarInt(nil, 10))
	buf.WriteString("short")

	dec := NewDecoder(&buf)
	if _, err := dec.Decode(); err != ErrConnectionClosed {
		t.Fatalf("Decode short frame error = %v, want ErrConnectionClosed", err)
	}
}

func TestEncodeRejectsOverlongPacket(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	pkt := RawPacket{ID: 0, Body: make([]byte, MaxPacketSize+1)}
	if err := enc.Encode(pkt); err != ErrTooLong {
		t.Fatalf("Encode oversized body error = %v, want ErrTooLong", err)
	}
}
