//go:build unix

package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBlocksSymlinkEscape(t *testing.T) {
	base := t.TempDir()
	workspace := filepath.Join(base, "workspace")
	outside := filepath.Join(base, "outside")

	require.NoError(t, os.MkdirAll(workspace, 0o755))
	require.NoError(t, os.MkdirAll(outside, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("secret"), 0o644))

	// Symlink lexically inside the workspace but pointing outside it.
	link := filepath.Join(workspace, "link.txt")
	require.NoError(t, os.Symlink(filepath.Join(outside, "secret.txt"), link))

	boundary, err := NewWorkspaceBoundary(workspace)
	require.NoError(t, err)

	_, err = boundary.Validate(link)
	require.Error(t, err)

	var be *BoundaryError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, BoundaryEscapeAttempt, be.Kind)
}

func TestValidateBlocksIntermediateSymlinkEscape(t *testing.T) {
	base := t.TempDir()
	workspace := filepath.Join(base, "workspace")
	outside := filepath.Join(base, "outside")

	require.NoError(t, os.MkdirAll(workspace, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(outside, "dir"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "dir", "file.go"), []byte("package x"), 0o644))

	// Non-terminal component is a symlink to a directory outside the root.
	require.NoError(t, os.Symlink(filepath.Join(outside, "dir"), filepath.Join(workspace, "sub")))

	boundary, err := NewWorkspaceBoundary(workspace)
	require.NoError(t, err)

	// Canonicalization alone resolves the path outside the root, so the
	// prefix check rejects it before the component walk runs.
	_, err = boundary.Validate(filepath.Join(workspace, "sub", "file.go"))
	require.Error(t, err)

	var be *BoundaryError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, BoundaryEscapeAttempt, be.Kind)
}

func TestValidateBlocksSymlinkHopThatReturnsInside(t *testing.T) {
	base := t.TempDir()
	workspace := filepath.Join(base, "workspace")
	outside := filepath.Join(base, "outside")

	require.NoError(t, os.MkdirAll(workspace, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(outside, "dir"), 0o755))

	real := filepath.Join(workspace, "real.go")
	require.NoError(t, os.WriteFile(real, []byte("package x"), 0o644))

	// The path canonicalizes back inside the workspace, so only the
	// component walk can catch the hop through the outside directory.
	require.NoError(t, os.Symlink(real, filepath.Join(outside, "dir", "file.go")))
	require.NoError(t, os.Symlink(filepath.Join(outside, "dir"), filepath.Join(workspace, "sub")))

	boundary, err := NewWorkspaceBoundary(workspace)
	require.NoError(t, err)

	_, err = boundary.Validate(filepath.Join(workspace, "sub", "file.go"))
	require.Error(t, err)

	var be *BoundaryError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, BoundaryEscapeAttempt, be.Kind)
	assert.Contains(t, be.Reason, "symlink")
}

func TestValidateRelativeSymlinkTargetResolvedAgainstParent(t *testing.T) {
	base := t.TempDir()
	workspace := filepath.Join(base, "workspace")
	outside := filepath.Join(base, "outside")

	require.NoError(t, os.MkdirAll(filepath.Join(workspace, "src"), 0o755))
	require.NoError(t, os.MkdirAll(outside, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "evil.go"), []byte("package evil"), 0o644))

	// Relative target climbing out of the workspace via the link's parent.
	link := filepath.Join(workspace, "src", "evil.go")
	require.NoError(t, os.Symlink(filepath.Join("..", "..", "outside", "evil.go"), link))

	boundary, err := NewWorkspaceBoundary(workspace)
	require.NoError(t, err)

	_, err = boundary.Validate(link)
	require.Error(t, err)

	var be *BoundaryError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, BoundaryEscapeAttempt, be.Kind)
}

func TestInternalSymlinkAllowedWhenConfigured(t *testing.T) {
	workspace := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(workspace, "src"), 0o755))
	real := filepath.Join(workspace, "src", "real.go")
	require.NoError(t, os.WriteFile(real, []byte("package src"), 0o644))

	link := filepath.Join(workspace, "src", "link.go")
	require.NoError(t, os.Symlink(real, link))

	boundary, err := NewWorkspaceBoundary(workspace)
	require.NoError(t, err)
	boundary = boundary.WithInternalSymlinks(true)

	_, err = boundary.Validate(link)
	assert.NoError(t, err)
}

func TestInternalSymlinkStillWalkedByDefault(t *testing.T) {
	workspace := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(workspace, "src"), 0o755))
	real := filepath.Join(workspace, "src", "real.go")
	require.NoError(t, os.WriteFile(real, []byte("package src"), 0o644))

	link := filepath.Join(workspace, "src", "link.go")
	require.NoError(t, os.Symlink(real, link))

	boundary, err := NewWorkspaceBoundary(workspace)
	require.NoError(t, err)

	// The link stays inside the workspace, so the component walk passes.
	canonical, err := boundary.Validate(link)
	require.NoError(t, err)

	resolved, err := filepath.EvalSymlinks(real)
	require.NoError(t, err)
	assert.Equal(t, resolved, canonical)
}
