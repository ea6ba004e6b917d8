package keystream

import (
	"crypto/cipher"
	"io"
)

// The generator doubles as a cipher.Stream and as an infinite io.Reader so
// it composes with the usual XOR plumbing.
var (
	_ cipher.Stream = (*Generator)(nil)
	_ io.Reader     = (*Generator)(nil)
)

// XORKeyStream XORs src into dst with the next len(src) keystream bytes.
func (g *Generator) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		panic("keystream: dst shorter than src")
	}
	for i, v := range src {
		dst[i] = v ^ g.Next()
	}
}

// Transform XORs data in place with the keystream. Encryption and
// decryption are the same operation.
func (g *Generator) Transform(data []byte) {
	g.XORKeyStream(data, data)
}

// Read fills p with raw keystream bytes. The stream is infinite, so Read
// never returns an error or a short count.
func (g *Generator) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = g.Next()
	}
	return len(p), nil
}
