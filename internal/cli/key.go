package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/terriblecrypt/terrible/internal/config"
	"github.com/terriblecrypt/terrible/internal/errors"
	"github.com/terriblecrypt/terrible/internal/keyfile"
	"github.com/terriblecrypt/terrible/internal/keyring"
)

// dataDir prefers the environment so tests and one-off invocations don't
// depend on the config singleton.
func dataDir() string {
	if dir := os.Getenv("TERRIBLE_DATA_DIR"); dir != "" {
		return dir
	}
	return config.Get().DataDir
}

func passphrase() string {
	return os.Getenv("TERRIBLE_PASSPHRASE")
}

func openRing() (*keyring.Keyring, error) {
	return keyring.Open(dataDir(), passphrase())
}

// runKey handles the keyring subcommands: import, export, list, rm.
func runKey(stdout io.Writer, args []string) error {
	switch args[0] {
	case "import":
		if len(args) < 3 {
			return errors.NewInvalidArgument("usage: terrible key import name keyfile")
		}
		return runKeyImport(args[1], args[2])
	case "export":
		if len(args) < 3 {
			return errors.NewInvalidArgument("usage: terrible key export name keyfile")
		}
		return runKeyExport(args[1], args[2])
	case "list":
		return runKeyList(stdout)
	case "rm":
		if len(args) < 2 {
			return errors.NewInvalidArgument("usage: terrible key rm name")
		}
		return runKeyRemove(args[1])
	default:
		return errors.NewUnknownCommand("key " + args[0])
	}
}

func runKeyImport(name, keyPath string) error {
	key, err := keyfile.Load(keyPath)
	if err != nil {
		return err
	}

	ring, err := openRing()
	if err != nil {
		return err
	}
	defer ring.Close()

	return ring.Put(name, key)
}

func runKeyExport(name, keyPath string) error {
	ring, err := openRing()
	if err != nil {
		return err
	}
	defer ring.Close()

	key, err := ring.Get(name)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(keyPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return errors.NewFileOpen(keyPath, err)
	}
	defer f.Close()

	if _, err := f.Write(key); err != nil {
		return errors.NewInternalWithCause(fmt.Sprintf("writing %s", keyPath), err)
	}
	return nil
}

func runKeyList(stdout io.Writer) error {
	ring, err := openRing()
	if err != nil {
		return err
	}
	defer ring.Close()

	infos, err := ring.List()
	if err != nil {
		return err
	}
	for _, info := range infos {
		fmt.Fprintf(stdout, "%s\t%s\t%s\n", info.Name, info.Fingerprint,
			info.CreatedAt.Format("2006-01-02T15:04:05Z"))
	}
	return nil
}

func runKeyRemove(name string) error {
	ring, err := openRing()
	if err != nil {
		return err
	}
	defer ring.Close()

	return ring.Delete(name)
}
