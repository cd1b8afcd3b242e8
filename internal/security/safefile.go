package security

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/codeintake/codeintake/internal/logging"
)

// SafeFileErrorKind classifies why a secure open or read failed.
type SafeFileErrorKind int

const (
	// SymlinkDetected means the terminal path component is a symlink,
	// blocked by the no-follow open.
	SymlinkDetected SafeFileErrorKind = iota
	// PathMismatch means the opened handle's real path differs from the
	// expected canonical path.
	PathMismatch
	// IOError is an ordinary I/O failure.
	IOError
	// OutsideBoundary means the path resolves outside the allowed workspace.
	OutsideBoundary
	// InvalidPath means the path contains invalid components.
	InvalidPath
)

// SafeFileError describes a secure file access failure. Every variant
// retains the offending path; PathMismatch additionally retains the
// expected and actual resolved paths.
type SafeFileError struct {
	Kind     SafeFileErrorKind
	Path     string
	Expected string
	Actual   string
	Boundary string
	Reason   string
	Err      error
}

// Error implements the error interface.
func (e *SafeFileError) Error() string {
	switch e.Kind {
	case SymlinkDetected:
		return fmt.Sprintf("symlink detected (blocked for security): %s", e.Path)
	case PathMismatch:
		return fmt.Sprintf("path mismatch detected (possible TOCTOU attack): expected %s, got %s", e.Expected, e.Actual)
	case OutsideBoundary:
		return fmt.Sprintf("path %s is outside allowed boundary %s", e.Path, e.Boundary)
	case InvalidPath:
		return fmt.Sprintf("invalid path %s: %s", e.Path, e.Reason)
	default:
		return fmt.Sprintf("i/o error reading %s: %v", e.Path, e.Err)
	}
}

// Unwrap returns the underlying OS error, if any.
func (e *SafeFileError) Unwrap() error {
	return e.Err
}

var (
	auditMu  sync.RWMutex
	auditLog logging.Logger = logging.NopLogger{}
)

// SetAuditLogger installs the logger used for security audit events
// (blocked symlinks, escape attempts, path mismatches). The default
// discards them.
func SetAuditLogger(l logging.Logger) {
	auditMu.Lock()
	defer auditMu.Unlock()
	if l == nil {
		l = logging.NopLogger{}
	}
	auditLog = l.WithComponent("security")
}

func auditLogger() logging.Logger {
	auditMu.RLock()
	defer auditMu.RUnlock()
	return auditLog
}

// SafeOpen opens a file for reading without following a terminal symlink.
//
// Checking whether a path is a symlink and then opening it are two
// operations an attacker can race between; folding "refuse to follow"
// into the open call itself removes that gap. On POSIX systems this uses
// O_NOFOLLOW; on Windows a reparse-point-aware open; elsewhere it degrades
// to an ordinary open with a loud warning.
func SafeOpen(path string) (*os.File, error) {
	if err := validatePathComponents(path); err != nil {
		return nil, err
	}

	file, sfe := openNoFollow(path)
	if sfe != nil {
		if sfe.Kind == SymlinkDetected {
			auditLogger().Warn(context.Background(), nil, "symlink blocked on open",
				"path", path,
			)
		}
		return nil, sfe
	}

	// Best effort only: the open already succeeded safely, so a mismatch
	// here indicates normalization differences, not an exploitable race.
	verifyOpenedFile(file, path)

	return file, nil
}

// SafeReadToString reads an entire file to a string without following
// symlinks. If workspaceRoot is non-empty the path is validated against
// that boundary first, so an out-of-bounds path never reaches the
// filesystem-open syscall at all.
func SafeReadToString(path, workspaceRoot string) (string, error) {
	if workspaceRoot != "" {
		if err := validateWorkspaceBoundary(path, workspaceRoot); err != nil {
			return "", err
		}
	}

	file, err := SafeOpen(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", &SafeFileError{Kind: IOError, Path: path, Err: err}
	}

	return string(content), nil
}

// validatePathComponents rejects paths with null bytes and logs parent
// directory references for monitoring. Rejecting ".." outright would break
// legitimate relative traversal by callers that already boundary-checked.
func validatePathComponents(path string) error {
	if strings.ContainsRune(path, 0) {
		return &SafeFileError{
			Kind:   InvalidPath,
			Path:   path,
			Reason: "path contains null byte",
		}
	}

	for _, component := range splitComponents(path) {
		if component == ".." {
			auditLogger().Debug(context.Background(), "path contains parent directory reference",
				"path", path,
			)
			break
		}
	}

	return nil
}

// validateWorkspaceBoundary canonicalizes both the path and the root and
// checks containment. Unlike WorkspaceBoundary.Validate this does not walk
// intermediate symlinks; it is the lightweight check threaded through the
// read pipeline.
func validateWorkspaceBoundary(path, workspaceRoot string) error {
	canonicalRoot, err := canonicalize(workspaceRoot)
	if err != nil {
		return &SafeFileError{Kind: IOError, Path: workspaceRoot, Err: err}
	}

	canonicalPath, err := canonicalize(path)
	if err != nil {
		return &SafeFileError{Kind: IOError, Path: path, Err: err}
	}

	if !hasPathPrefix(canonicalPath, canonicalRoot) {
		auditLogger().Warn(context.Background(), nil, "path escape attempt blocked",
			"path", path,
			"boundary", workspaceRoot,
		)
		return &SafeFileError{
			Kind:     OutsideBoundary,
			Path:     path,
			Boundary: workspaceRoot,
		}
	}

	return nil
}

// reportPathMismatch logs a post-open path verification mismatch. By the
// time this fires the open already succeeded with no-follow semantics, so
// it is a monitoring signal, not a failure.
func reportPathMismatch(expected, actual string) {
	auditLogger().Debug(context.Background(), "post-open path verification mismatch",
		"expected", expected,
		"actual", actual,
	)
}
