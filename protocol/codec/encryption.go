package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// cfb8 implements 8-bit cipher feedback mode. crypto/cipher's own
// NewCFBEncrypter feeds back a full cipher block (128 bits); vanilla
// Minecraft's scheme feeds back a single byte, matching
// java_tcp_client.rs's Aes128Cfb8Enc/Cfb8Decryptor pair, so it has to
// be implemented by hand.
type cfb8 struct {
	block   cipher.Block
	iv      []byte
	encrypt bool
}

func newCFB8(block cipher.Block, iv []byte, encrypt bool) cipher.Stream {
	buf := make([]byte, len(iv))
	copy(buf, iv)
	return &cfb8{block: block, iv: buf, encrypt: encrypt}
}

// XORKeyStream encrypts or decrypts src into dst one byte at a time:
// each keystream byte is the first byte of E(iv), and iv then shifts
// in the resulting ciphertext byte (whichever direction produced it).
func (c *cfb8) XORKeyStream(dst, src []byte) {
	tmp := make([]byte, c.block.BlockSize())
	for i, in := range src {
		c.block.Encrypt(tmp, c.iv)
		out := in ^ tmp[0]

		var feedback byte
		if c.encrypt {
			feedback = out
		} else {
			feedback = in
		}
		copy(c.iv, c.iv[1:])
		c.iv[len(c.iv)-1] = feedback

		dst[i] = out
	}
}

// newEncryptStream builds the server->client direction of an
// AES-128/CFB-8 stream. Per java_tcp_client.rs, the IV equals the
// shared secret itself (there's no separate IV negotiated) and
// encryption is a one-way upgrade: once enabled a connection never
// goes back to plaintext.
func newEncryptStream(key []byte) (cipher.Stream, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("codec: build AES cipher: %w", err)
	}
	return newCFB8(block, key, true), nil
}

func newDecryptStream(key []byte) (cipher.Stream, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("codec: build AES cipher: %w", err)
	}
	return newCFB8(block, key, false), nil
}
