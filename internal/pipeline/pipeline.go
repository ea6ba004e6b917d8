// Package pipeline composes the keystream generator with byte streams:
// stream-cipher XOR, raw keystream dump, and plain two-file XOR.
package pipeline

import (
	"io"

	"github.com/terriblecrypt/terrible/internal/errors"
	"github.com/terriblecrypt/terrible/internal/keystream"
)

// Crypt XORs src with the keystream for key and writes the result to dst,
// until src ends. The keystream is infinite, so the input alone governs
// termination. Encryption and decryption are the same operation.
func Crypt(dst io.Writer, src io.Reader, key []byte) error {
	g, err := keystream.New(key)
	if err != nil {
		return err
	}

	bufPtr := GetBuffer()
	defer PutBuffer(bufPtr)
	buf := *bufPtr

	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			g.Transform(buf[:n])
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return errors.NewInternalWithCause("writing output", werr)
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return errors.NewInternalWithCause("reading input", rerr)
		}
	}
}

// Keystream writes exactly n raw keystream bytes for key to dst.
func Keystream(dst io.Writer, key []byte, n uint64) error {
	g, err := keystream.New(key)
	if err != nil {
		return err
	}

	bufPtr := GetBuffer()
	defer PutBuffer(bufPtr)
	buf := *bufPtr

	for n > 0 {
		chunk := uint64(len(buf))
		if n < chunk {
			chunk = n
		}
		g.Read(buf[:chunk])
		if _, werr := dst.Write(buf[:chunk]); werr != nil {
			return errors.NewInternalWithCause("writing output", werr)
		}
		n -= chunk
	}
	return nil
}

// XOR writes the byte-wise XOR of a and b to dst, truncated to the length
// of the shorter stream. Differing lengths are not an error; the transform
// simply stops when either source is exhausted.
func XOR(dst io.Writer, a, b io.Reader) error {
	aPtr := GetBuffer()
	defer PutBuffer(aPtr)
	bPtr := GetBuffer()
	defer PutBuffer(bPtr)
	abuf, bbuf := *aPtr, *bPtr

	for {
		na, aerr := a.Read(abuf)
		if na > 0 {
			nb, berr := io.ReadFull(b, bbuf[:na])
			for i := 0; i < nb; i++ {
				abuf[i] ^= bbuf[i]
			}
			if nb > 0 {
				if _, werr := dst.Write(abuf[:nb]); werr != nil {
					return errors.NewInternalWithCause("writing output", werr)
				}
			}
			if berr == io.EOF || berr == io.ErrUnexpectedEOF {
				return nil
			}
			if berr != nil {
				return errors.NewInternalWithCause("reading input", berr)
			}
		}
		if aerr == io.EOF {
			return nil
		}
		if aerr != nil {
			return errors.NewInternalWithCause("reading input", aerr)
		}
	}
}
