package keyring

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize       = 16
	pbkdf2Iters    = 10000
	sealedOverhead = saltSize + chacha20poly1305.NonceSize
)

// deriveKey stretches the passphrase into a 32-byte sealing key
func deriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iters, chacha20poly1305.KeySize, sha256.New)
}

// seal encrypts plaintext under the passphrase. Output layout:
// salt(16) || nonce(12) || ciphertext+tag.
func seal(passphrase string, plaintext []byte) ([]byte, error) {
	blob := make([]byte, sealedOverhead, sealedOverhead+len(plaintext)+chacha20poly1305.Overhead)
	salt := blob[:saltSize]
	nonce := blob[saltSize:sealedOverhead]
	if _, err := rand.Read(blob[:sealedOverhead]); err != nil {
		return nil, fmt.Errorf("failed to generate salt/nonce: %w", err)
	}

	aead, err := chacha20poly1305.New(deriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return aead.Seal(blob, nonce, plaintext, nil), nil
}

// open decrypts a sealed blob. A wrong passphrase fails authentication.
func open(passphrase string, blob []byte) ([]byte, error) {
	if len(blob) < sealedOverhead+chacha20poly1305.Overhead {
		return nil, fmt.Errorf("sealed blob too short (%d bytes)", len(blob))
	}
	salt := blob[:saltSize]
	nonce := blob[saltSize:sealedOverhead]

	aead, err := chacha20poly1305.New(deriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	plaintext, err := aead.Open(nil, nonce, blob[sealedOverhead:], nil)
	if err != nil {
		return nil, fmt.Errorf("failed to unseal (wrong passphrase?): %w", err)
	}
	return plaintext, nil
}
