// Package keystream implements the "terrible" pseudorandom byte generator:
// a 256-byte key is continuously self-shuffled, RC4-style, to produce one
// output byte per step.
//
// Known properties of the construction:
//   - the working key is only ever permuted, so every output byte is a
//     value that occurs somewhere in the original key
//   - the keystream's symbol frequencies stay close to the key's
//   - it is NOT a cryptographically secure cipher; the arithmetic is kept
//     bit-exact because reproducibility of the keystream is the whole
//     point of the tool
package keystream

import (
	"github.com/terriblecrypt/terrible/internal/errors"
)

// KeySize is the only accepted key length.
const KeySize = 256

// Generator holds the mutable keystream state. It owns a private copy of
// the key; the caller's slice is never touched. The zero value is not
// usable, construct with New.
type Generator struct {
	key [KeySize]byte
	i   byte // step counter, pre-incremented so the first step uses index 1
	q   byte // accumulator
}

// New creates a generator from a key of exactly 256 bytes.
func New(key []byte) (*Generator, error) {
	if len(key) != KeySize {
		return nil, errors.NewInvalidKeySize(len(key))
	}
	g := &Generator{}
	copy(g.key[:], key)
	return g, nil
}

// Next produces one keystream byte and advances the state. Byte-typed
// counters make every addition wrap mod 256 for free.
func (g *Generator) Next() byte {
	g.i++
	g.q += g.key[g.i]
	g.key[g.i], g.key[g.q] = g.key[g.q], g.key[g.i]
	w := g.key[g.i] + g.key[g.q]
	return g.key[w]
}

// Snapshot returns a copy of the current working key. The working key is
// always a permutation of the original key's bytes (only swaps happen).
func (g *Generator) Snapshot() []byte {
	out := make([]byte, KeySize)
	copy(out, g.key[:])
	return out
}

// Pos returns the number of bytes generated so far, mod 256.
func (g *Generator) Pos() byte {
	return g.i
}
