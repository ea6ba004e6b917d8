// Package cli implements the terrible command-line surface: the three
// classic pipe modes plus key management and serve mode.
package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/terriblecrypt/terrible/internal/errors"
	"github.com/terriblecrypt/terrible/internal/keyfile"
	"github.com/terriblecrypt/terrible/internal/pipeline"
)

const usageText = `USAGE:
  (1) terrible crypt keyfile <plaintext >cyphertext
  (2) terrible keystream keyfile length > keystream_file
  (3) terrible xor file_a file_b > result
  (4) terrible keygen keyfile
  (5) terrible key import|export|list|rm [args]
  (6) terrible serve
`

func usage(stderr io.Writer) int {
	fmt.Fprint(stderr, usageText)
	return errors.ExitUsage
}

// Run dispatches a subcommand and returns the process exit code. All
// diagnostics go to stderr; stdout carries nothing but payload bytes.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		return usage(stderr)
	}

	var err error
	switch args[0] {
	case "crypt":
		if len(args) < 2 {
			return usage(stderr)
		}
		err = runCrypt(stdin, stdout, args[1])
	case "keystream":
		if len(args) < 3 {
			return usage(stderr)
		}
		err = runKeystream(stdout, args[1], args[2])
	case "xor":
		if len(args) < 3 {
			return usage(stderr)
		}
		err = runXOR(stdout, args[1], args[2])
	case "keygen":
		if len(args) < 2 {
			return usage(stderr)
		}
		err = runKeygen(stderr, args[1])
	case "key":
		if len(args) < 2 {
			return usage(stderr)
		}
		err = runKey(stdout, args[1:])
	case "serve":
		err = runServe()
	default:
		return usage(stderr)
	}

	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return errors.ToExitCode(err)
	}
	return errors.ExitOK
}

func runCrypt(stdin io.Reader, stdout io.Writer, keyPath string) error {
	key, err := keyfile.Load(keyPath)
	if err != nil {
		return err
	}
	return pipeline.Crypt(stdout, stdin, key)
}

func runKeystream(stdout io.Writer, keyPath, lengthArg string) error {
	length, err := strconv.ParseUint(lengthArg, 10, 64)
	if err != nil {
		return errors.NewInvalidArgumentWithCause(fmt.Sprintf("invalid length %q", lengthArg), err)
	}
	key, err := keyfile.Load(keyPath)
	if err != nil {
		return err
	}
	return pipeline.Keystream(stdout, key, length)
}

func runXOR(stdout io.Writer, pathA, pathB string) error {
	fileA, err := os.Open(pathA)
	if err != nil {
		return errors.NewXORFileOpen(pathA, err)
	}
	defer fileA.Close()

	fileB, err := os.Open(pathB)
	if err != nil {
		return errors.NewXORFileOpen(pathB, err)
	}
	defer fileB.Close()

	return pipeline.XOR(stdout, fileA, fileB)
}

func runKeygen(stderr io.Writer, keyPath string) error {
	if err := keyfile.Generate(keyPath); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "wrote %s\n", keyPath)
	return nil
}
