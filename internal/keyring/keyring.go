package keyring

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/terriblecrypt/terrible/internal/errors"
	"github.com/terriblecrypt/terrible/internal/keystream"
)

// KeyInfo is the stored metadata for a named key
type KeyInfo struct {
	Name        string    `json:"name"`
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"created_at"`
}

// Keyring is a named key store. Key material is sealed at rest; metadata
// (fingerprints, timestamps) is stored in the clear.
type Keyring struct {
	store      *Store
	passphrase string
}

// Open opens (creating if needed) the keyring under dataDir.
func Open(dataDir, passphrase string) (*Keyring, error) {
	store, err := NewStore(dataDir)
	if err != nil {
		return nil, errors.NewInternalWithCause("opening keyring", err)
	}
	return &Keyring{store: store, passphrase: passphrase}, nil
}

// Close closes the underlying database
func (k *Keyring) Close() error {
	return k.store.Close()
}

// Fingerprint returns the short SHA-256 fingerprint of key material.
func Fingerprint(key []byte) string {
	sum := sha256.Sum256(key)
	return hex.EncodeToString(sum[:8])
}

// Put stores key under name, replacing any previous entry. The key must
// be exactly 256 bytes, same as everywhere else.
func (k *Keyring) Put(name string, key []byte) error {
	if name == "" {
		return errors.NewInvalidArgument("key name must not be empty")
	}
	if len(key) != keystream.KeySize {
		return errors.NewInvalidKeySize(len(key))
	}

	sealed, err := seal(k.passphrase, key)
	if err != nil {
		return errors.NewInternalWithCause("sealing key", err)
	}
	if err := k.store.Set(BucketKeys, name, sealed); err != nil {
		return errors.NewInternalWithCause("storing key", err)
	}

	info := KeyInfo{
		Name:        name,
		Fingerprint: Fingerprint(key),
		CreatedAt:   time.Now().UTC(),
	}
	if err := k.store.SetJSON(BucketMeta, name, info); err != nil {
		return errors.NewInternalWithCause("storing key metadata", err)
	}
	return nil
}

// Get retrieves and unseals the key stored under name.
func (k *Keyring) Get(name string) ([]byte, error) {
	sealed, err := k.store.Get(BucketKeys, name)
	if err != nil {
		return nil, errors.NewInternalWithCause("reading keyring", err)
	}
	if sealed == nil {
		return nil, errors.NewKeyNotFound(name)
	}
	key, err := open(k.passphrase, sealed)
	if err != nil {
		return nil, errors.NewInternalWithCause("unsealing key", err)
	}
	if len(key) != keystream.KeySize {
		return nil, errors.NewInvalidKeySize(len(key))
	}
	return key, nil
}

// List returns metadata for all stored keys, sorted by name.
func (k *Keyring) List() ([]KeyInfo, error) {
	var infos []KeyInfo
	err := k.store.ForEach(BucketMeta, func(_, v []byte) error {
		var info KeyInfo
		if err := json.Unmarshal(v, &info); err != nil {
			return err
		}
		infos = append(infos, info)
		return nil
	})
	if err != nil {
		return nil, errors.NewInternalWithCause("listing keys", err)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Delete removes a named key and its metadata.
func (k *Keyring) Delete(name string) error {
	sealed, err := k.store.Get(BucketKeys, name)
	if err != nil {
		return errors.NewInternalWithCause("reading keyring", err)
	}
	if sealed == nil {
		return errors.NewKeyNotFound(name)
	}
	if err := k.store.Delete(BucketKeys, name); err != nil {
		return errors.NewInternalWithCause("deleting key", err)
	}
	if err := k.store.Delete(BucketMeta, name); err != nil {
		return errors.NewInternalWithCause("deleting key metadata", err)
	}
	return nil
}
