// Package keyfile reads and writes raw 256-byte key files.
package keyfile

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"

	"github.com/terriblecrypt/terrible/internal/errors"
	"github.com/terriblecrypt/terrible/internal/keystream"
)

// Load reads a key file and requires it to hold exactly 256 raw bytes.
// Bytes are read literally, never text-tokenized; whitespace is data.
// A short or long file fails closed rather than padding or truncating.
func Load(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewFileOpen(path, err)
	}
	defer f.Close()

	// Read one byte past the key size so an oversized file is detected.
	buf := make([]byte, keystream.KeySize+1)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, errors.NewInternalWithCause(fmt.Sprintf("reading %s", path), err)
	}
	if n != keystream.KeySize {
		return nil, errors.NewInvalidKeySize(n)
	}
	return buf[:keystream.KeySize], nil
}

// Generate writes a fresh random 256-byte key to path. It refuses to
// clobber an existing file.
func Generate(path string) error {
	key := make([]byte, keystream.KeySize)
	if _, err := rand.Read(key); err != nil {
		return errors.NewInternalWithCause("generating key", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return errors.NewFileOpen(path, err)
	}
	defer f.Close()

	if _, err := f.Write(key); err != nil {
		return errors.NewInternalWithCause(fmt.Sprintf("writing %s", path), err)
	}
	return nil
}
