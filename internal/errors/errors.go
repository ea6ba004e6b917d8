package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Kind classifies application errors
type Kind int

const (
	// KindInvalidKeySize means a key was not exactly 256 bytes
	KindInvalidKeySize Kind = iota + 1
	// KindFileOpen means a key or input file could not be opened
	KindFileOpen
	// KindInvalidArgument means a malformed argument (e.g. non-numeric length)
	KindInvalidArgument
	// KindUnknownCommand means an unrecognized subcommand
	KindUnknownCommand
	// KindKeyNotFound means a named key is missing from the keyring
	KindKeyNotFound
	// KindUnauthorized means failed authentication on the serve API
	KindUnauthorized
	// KindInternal is everything else
	KindInternal
)

// Exit codes used by the CLI boundary
const (
	ExitOK      = 0
	ExitUsage   = 1
	ExitXORFile = 2
	ExitRuntime = 3
)

// AppError is a structured application error. The same kinds map to CLI
// exit codes and to HTTP statuses in serve mode.
type AppError struct {
	Kind       Kind   `json:"kind"`
	Message    string `json:"message"`
	ExitCode   int    `json:"-"`
	HTTPStatus int    `json:"-"`
	Cause      error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewInvalidKeySize creates a key-size error. Keys must be exactly 256 bytes.
func NewInvalidKeySize(size int) *AppError {
	return &AppError{
		Kind:       KindInvalidKeySize,
		Message:    fmt.Sprintf("invalid keysize(%d)", size),
		ExitCode:   ExitRuntime,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewFileOpen creates a file-open error
func NewFileOpen(path string, cause error) *AppError {
	return &AppError{
		Kind:       KindFileOpen,
		Message:    fmt.Sprintf("could not open %s", path),
		ExitCode:   ExitRuntime,
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewXORFileOpen creates a file-open error for the xor subcommand, which
// historically exits with its own code
func NewXORFileOpen(path string, cause error) *AppError {
	return &AppError{
		Kind:       KindFileOpen,
		Message:    fmt.Sprintf("could not open %s", path),
		ExitCode:   ExitXORFile,
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewInvalidArgument creates an invalid-argument error
func NewInvalidArgument(message string) *AppError {
	return &AppError{
		Kind:       KindInvalidArgument,
		Message:    message,
		ExitCode:   ExitRuntime,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidArgumentWithCause creates an invalid-argument error with cause
func NewInvalidArgumentWithCause(message string, cause error) *AppError {
	return &AppError{
		Kind:       KindInvalidArgument,
		Message:    message,
		ExitCode:   ExitRuntime,
		HTTPStatus: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewUnknownCommand creates an unknown-command error
func NewUnknownCommand(command string) *AppError {
	return &AppError{
		Kind:       KindUnknownCommand,
		Message:    fmt.Sprintf("unknown command: %s", command),
		ExitCode:   ExitUsage,
		HTTPStatus: http.StatusNotFound,
	}
}

// NewKeyNotFound creates a missing-key error
func NewKeyNotFound(name string) *AppError {
	return &AppError{
		Kind:       KindKeyNotFound,
		Message:    fmt.Sprintf("key not found: %s", name),
		ExitCode:   ExitRuntime,
		HTTPStatus: http.StatusNotFound,
	}
}

// NewUnauthorized creates an authentication error
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Kind:       KindUnauthorized,
		Message:    message,
		ExitCode:   ExitRuntime,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewInternal creates an internal error
func NewInternal(message string) *AppError {
	return &AppError{
		Kind:       KindInternal,
		Message:    message,
		ExitCode:   ExitRuntime,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewInternalWithCause creates an internal error with cause
func NewInternalWithCause(message string, cause error) *AppError {
	return &AppError{
		Kind:       KindInternal,
		Message:    message,
		ExitCode:   ExitRuntime,
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// ToExitCode converts an error to a CLI exit code
func ToExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr.ExitCode
	}
	return ExitRuntime
}

// ToHTTPStatus converts an error to an HTTP status code
func ToHTTPStatus(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// ToJSON converts an error to JSON bytes for the serve API
func ToJSON(err error) []byte {
	if appErr, ok := err.(*AppError); ok {
		data, _ := json.Marshal(map[string]interface{}{
			"code": appErr.HTTPStatus,
			"msg":  appErr.Message,
		})
		return data
	}
	data, _ := json.Marshal(map[string]interface{}{
		"code": http.StatusInternalServerError,
		"msg":  err.Error(),
	})
	return data
}
