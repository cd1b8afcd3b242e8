// Package security provides workspace boundary enforcement and TOCTOU-safe
// file access for the ingestion pipeline.
//
// WorkspaceBoundary confines all file operations to a declared root
// directory, auditing every symlink hop along a candidate path instead of
// trusting canonicalization alone. SafeOpen and SafeReadToString open files
// with a platform no-follow primitive so a symlink can never be swapped in
// between validation and open.
package security

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BoundaryErrorKind classifies why a path failed confinement.
type BoundaryErrorKind int

const (
	// BoundaryEscapeAttempt means the path resolves outside the workspace.
	BoundaryEscapeAttempt BoundaryErrorKind = iota
	// BoundaryValidationFailed means the path could not be validated at all.
	BoundaryValidationFailed
)

// BoundaryError describes a workspace boundary violation. It carries enough
// context (path, workspace root, reason) to log a security audit event.
type BoundaryError struct {
	Kind      BoundaryErrorKind
	Path      string
	Workspace string
	Reason    string
}

// Error implements the error interface.
func (e *BoundaryError) Error() string {
	switch e.Kind {
	case BoundaryEscapeAttempt:
		return fmt.Sprintf("path %s attempts to escape workspace %s: %s", e.Path, e.Workspace, e.Reason)
	default:
		return fmt.Sprintf("path validation failed for %s: %s", e.Path, e.Reason)
	}
}

// WorkspaceBoundary confines file access to a canonical root directory.
// The root is canonicalized exactly once at construction and is immutable
// for the lifetime of the value.
type WorkspaceBoundary struct {
	root                  string
	allowInternalSymlinks bool
}

// NewWorkspaceBoundary creates a boundary rooted at the given directory.
// The root is resolved to its canonical absolute form; failure to do so is
// a fatal setup error.
func NewWorkspaceBoundary(root string) (*WorkspaceBoundary, error) {
	canonical, err := canonicalize(root)
	if err != nil {
		return nil, &BoundaryError{
			Kind:   BoundaryValidationFailed,
			Path:   root,
			Reason: fmt.Sprintf("cannot canonicalize workspace root: %v", err),
		}
	}

	return &WorkspaceBoundary{root: canonical}, nil
}

// WithInternalSymlinks controls whether symlinks inside the workspace are
// tolerated. When false (the default), every symlink along a validated
// path's component chain is inspected; when true, only the final
// canonicalized destination is checked against the root.
func (b *WorkspaceBoundary) WithInternalSymlinks(allow bool) *WorkspaceBoundary {
	b.allowInternalSymlinks = allow
	return b
}

// Root returns the canonical workspace root.
func (b *WorkspaceBoundary) Root() string {
	return b.root
}

// Validate checks that a path stays within the workspace boundary and
// returns its canonical form.
//
// Canonicalization resolves symlinks transparently, which is exactly the
// mechanism an attacker abuses: a path can canonicalize to a location
// inside the root even though a symlink hop during resolution passed
// outside. The per-component walk below audits every hop against live
// filesystem state to close that gap.
func (b *WorkspaceBoundary) Validate(path string) (string, error) {
	canonical, err := canonicalize(path)
	if err != nil {
		return "", &BoundaryError{
			Kind:   BoundaryValidationFailed,
			Path:   path,
			Reason: fmt.Sprintf("cannot canonicalize path: %v", err),
		}
	}

	if !hasPathPrefix(canonical, b.root) {
		auditLogger().Warn(context.Background(), nil, "path escape attempt blocked",
			"path", path,
			"workspace", b.root,
		)
		return "", &BoundaryError{
			Kind:      BoundaryEscapeAttempt,
			Path:      path,
			Workspace: b.root,
			Reason:    "path resolves outside workspace",
		}
	}

	if !b.allowInternalSymlinks {
		if err := b.checkNoSymlinks(path); err != nil {
			return "", err
		}
	}

	return canonical, nil
}

// ValidateRelative joins an untrusted relative identifier onto the root and
// validates the result.
func (b *WorkspaceBoundary) ValidateRelative(rel string) (string, error) {
	return b.Validate(filepath.Join(b.root, rel))
}

// checkNoSymlinks walks the path component by component against live
// filesystem state. For every accumulated prefix that is a symlink, the
// link's immediate target is resolved (relative targets against the link's
// parent directory) and its canonical form must stay inside the root.
func (b *WorkspaceBoundary) checkNoSymlinks(path string) error {
	var current string

	for _, component := range splitComponents(path) {
		if current == "" {
			current = component
		} else {
			current = filepath.Join(current, component)
		}

		info, err := os.Lstat(current)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return &BoundaryError{
				Kind:   BoundaryValidationFailed,
				Path:   current,
				Reason: fmt.Sprintf("cannot read metadata: %v", err),
			}
		}

		if info.Mode()&os.ModeSymlink == 0 {
			continue
		}

		target, err := os.Readlink(current)
		if err != nil {
			return &BoundaryError{
				Kind:   BoundaryValidationFailed,
				Path:   current,
				Reason: fmt.Sprintf("cannot read symlink target: %v", err),
			}
		}

		resolved := target
		if !filepath.IsAbs(target) {
			resolved = filepath.Join(filepath.Dir(current), target)
		}

		canonicalTarget, err := filepath.EvalSymlinks(resolved)
		if err != nil {
			// Dangling link; canonicalization of the full path already
			// succeeded, so there is nothing reachable to escape through.
			continue
		}

		if !hasPathPrefix(canonicalTarget, b.root) {
			auditLogger().Warn(context.Background(), nil, "symlink escape blocked",
				"path", path,
				"symlink", current,
				"target", canonicalTarget,
				"workspace", b.root,
			)
			return &BoundaryError{
				Kind:      BoundaryEscapeAttempt,
				Path:      path,
				Workspace: b.root,
				Reason:    fmt.Sprintf("symlink %s points outside workspace to %s", current, canonicalTarget),
			}
		}
	}

	return nil
}

// canonicalize resolves a path to its unique absolute form, following all
// symlinks and removing . and .. segments.
func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// hasPathPrefix reports whether path is root itself or lies under root,
// respecting component boundaries ("/a/bc" is not under "/a/b").
func hasPathPrefix(path, root string) bool {
	if path == root {
		return true
	}
	if root == string(filepath.Separator) {
		return strings.HasPrefix(path, root)
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}

// splitComponents breaks a cleaned path into its components, keeping the
// leading separator as the first component for absolute paths.
func splitComponents(path string) []string {
	cleaned := filepath.Clean(path)
	sep := string(filepath.Separator)

	var components []string
	if filepath.IsAbs(cleaned) {
		vol := filepath.VolumeName(cleaned)
		components = append(components, vol+sep)
		cleaned = strings.TrimPrefix(cleaned[len(vol):], sep)
	}

	if cleaned != "" && cleaned != "." {
		components = append(components, strings.Split(cleaned, sep)...)
	}

	return components
}
