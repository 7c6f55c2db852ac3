// Package fs implements the filtered read-only passthrough filesystem.
//
// This file contains error types and errno conversion for forwarded
// operations.
package fs

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/gburca/rofs-filtered/internal/logging"
)

var (
	errLogger = logging.GetLogger().WithPrefix("error")
)

// Error wraps a forwarded filesystem error with the operation and virtual
// path it failed for, for logging.
type Error struct {
	Op   string // Operation that failed (e.g., "lookup", "readdir")
	Path string // Affected virtual path
	Err  error  // Underlying error
}

// Error implements the error interface, providing a formatted error message
func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("operation %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("operation %s on %s failed: %v", e.Op, e.Path, e.Err)
}

// Unwrap implements error unwrapping for the errors.Is/As functions
func (e *Error) Unwrap() error {
	return e.Err
}

// toErrno converts an error from a forwarded syscall into the errno
// reported to the kernel, preserving the original classification where one
// is available.
func toErrno(err error) syscall.Errno {
	if err == nil {
		return 0
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}

	errLogger.Trace("Converting non-errno error: %v", err)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return syscall.ENOENT
	case errors.Is(err, os.ErrPermission):
		return syscall.EACCES
	default:
		errLogger.Debug("Unknown error type, returning EIO: %v", err)
		return syscall.EIO
	}
}

// forwarded logs and converts an underlying error for the given operation.
func forwarded(op string, vp *VirtualPath, err error) error {
	e := &Error{Op: op, Path: vp.String(), Err: err}
	errLogger.Debug("%v", e)
	return toErrno(err)
}

// Common operation names for consistent logging and error reporting
const (
	OpLookup    = "lookup"
	OpReadDir   = "readdir"
	OpOpen      = "open"
	OpRead      = "read"
	OpGetattr   = "getattr"
	OpReadlink  = "readlink"
	OpAccess    = "access"
	OpGetxattr  = "getxattr"
	OpListxattr = "listxattr"
	OpStatfs    = "statfs"
)
