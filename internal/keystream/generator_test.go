package keystream

import (
	"bytes"
	"io"
	"sort"
	"testing"
)

func identityKey() []byte {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func reversedKey() []byte {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(255 - i)
	}
	return key
}

func affineKey() []byte {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i*7 + 13)
	}
	return key
}

// TestKnownVectors pins the generator output for fixed keys. These vectors
// were produced by the reference implementation; any deviation is a
// compatibility break, not an improvement.
func TestKnownVectors(t *testing.T) {
	tests := []struct {
		name string
		key  []byte
		want []byte
	}{
		{
			name: "identity key",
			key:  identityKey(),
			want: []byte{2, 5, 7, 13, 13, 23, 31, 40, 40, 56, 50, 72, 86, 101, 117, 134},
		},
		{
			name: "reversed key",
			key:  reversedKey(),
			want: []byte{0, 1, 251, 247, 242, 236, 229, 221, 212, 202, 191, 179, 166, 152, 137, 121},
		},
		{
			name: "affine key",
			key:  affineKey(),
			want: []byte{200, 36, 215, 225, 66, 250, 9, 111, 44, 46, 171, 109, 134, 246, 32, 219},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g, err := New(tc.key)
			if err != nil {
				t.Fatalf("New() error: %v", err)
			}
			got := make([]byte, len(tc.want))
			for i := range got {
				got[i] = g.Next()
			}
			if !bytes.Equal(got, tc.want) {
				t.Errorf("keystream = %v, want %v", got, tc.want)
			}
		})
	}
}

// TestAllZeroKey checks the degenerate case: a valid key of 256 zero bytes
// produces an all-zero keystream (the output alphabet is the key alphabet).
func TestAllZeroKey(t *testing.T) {
	g, err := New(make([]byte, KeySize))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	for i := 0; i < 1000; i++ {
		if b := g.Next(); b != 0 {
			t.Fatalf("byte %d = %d, want 0", i, b)
		}
	}
}

// TestDeterminism checks that two fresh generators with the same key
// produce identical streams.
func TestDeterminism(t *testing.T) {
	g1, _ := New(affineKey())
	g2, _ := New(affineKey())

	a := make([]byte, 4096)
	b := make([]byte, 4096)
	g1.Read(a)
	g2.Read(b)

	if !bytes.Equal(a, b) {
		t.Error("two generators with the same key diverged")
	}
}

// TestKeySizeRejection checks that every length except 256 is refused.
func TestKeySizeRejection(t *testing.T) {
	for _, size := range []int{0, 1, 255, 257, 512} {
		if _, err := New(make([]byte, size)); err == nil {
			t.Errorf("New() accepted a %d-byte key", size)
		}
	}
	if _, err := New(make([]byte, KeySize)); err != nil {
		t.Errorf("New() rejected a 256-byte key: %v", err)
	}
}

// TestKeyNotMutated checks the generator works on a private copy.
func TestKeyNotMutated(t *testing.T) {
	key := identityKey()
	g, _ := New(key)
	g.Read(make([]byte, 1024))

	if !bytes.Equal(key, identityKey()) {
		t.Error("caller's key slice was mutated")
	}
}

// TestPermutationInvariant checks that after any number of steps the
// working key is still a permutation of the original key.
func TestPermutationInvariant(t *testing.T) {
	key := affineKey()
	g, _ := New(key)

	sortedOrig := append([]byte(nil), key...)
	sort.Slice(sortedOrig, func(i, j int) bool { return sortedOrig[i] < sortedOrig[j] })

	for _, steps := range []int{1, 7, 256, 10000} {
		for i := 0; i < steps; i++ {
			g.Next()
		}
		snap := g.Snapshot()
		sort.Slice(snap, func(i, j int) bool { return snap[i] < snap[j] })
		if !bytes.Equal(snap, sortedOrig) {
			t.Fatalf("working key no longer a permutation after steps")
		}
	}
}

// TestAlphabetContainment checks every output byte occurs in the key.
func TestAlphabetContainment(t *testing.T) {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i%16) * 16 // only 16 distinct values
	}
	var alphabet [256]bool
	for _, v := range key {
		alphabet[v] = true
	}

	g, _ := New(key)
	out := make([]byte, 8192)
	g.Read(out)
	for i, b := range out {
		if !alphabet[b] {
			t.Fatalf("byte %d = %d not present in the key", i, b)
		}
	}
}

// TestXORKeyStreamSelfInverse checks that XOR with two fresh generators
// round-trips.
func TestXORKeyStreamSelfInverse(t *testing.T) {
	data := []byte("Hello, World! This is a test message for streaming encryption.")
	buf := append([]byte(nil), data...)

	g1, _ := New(identityKey())
	g1.XORKeyStream(buf, buf)
	if bytes.Equal(buf, data) {
		t.Error("encryption did not change the data")
	}

	g2, _ := New(identityKey())
	g2.XORKeyStream(buf, buf)
	if !bytes.Equal(buf, data) {
		t.Errorf("round-trip failed: got %q, want %q", buf, data)
	}
}

// TestReaderMatchesNext checks Read and Next draw from the same stream.
func TestReaderMatchesNext(t *testing.T) {
	g1, _ := New(reversedKey())
	g2, _ := New(reversedKey())

	got := make([]byte, 300)
	if _, err := io.ReadFull(g1, got); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}
	for i, b := range got {
		if want := g2.Next(); b != want {
			t.Fatalf("byte %d: Read gave %d, Next gave %d", i, b, want)
		}
	}
}
