//go:build unix

package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeOpenBlocksSymlink(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real.txt")
	link := filepath.Join(dir, "link.txt")

	require.NoError(t, os.WriteFile(real, []byte("secret content"), 0o644))
	require.NoError(t, os.Symlink(real, link))

	// The regular file opens; the symlink is refused even though both
	// paths canonicalize to readable content.
	file, err := SafeOpen(real)
	require.NoError(t, err)
	require.NoError(t, file.Close())

	_, err = SafeOpen(link)
	require.Error(t, err)

	var sfe *SafeFileError
	require.ErrorAs(t, err, &sfe)
	assert.Equal(t, SymlinkDetected, sfe.Kind)
	assert.Equal(t, link, sfe.Path)
}

func TestSafeReadBlocksSymlink(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real.txt")
	link := filepath.Join(dir, "link.txt")

	require.NoError(t, os.WriteFile(real, []byte("secret content"), 0o644))
	require.NoError(t, os.Symlink(real, link))

	content, err := SafeReadToString(real, "")
	require.NoError(t, err)
	assert.Equal(t, "secret content", content)

	_, err = SafeReadToString(link, "")
	require.Error(t, err)

	var sfe *SafeFileError
	require.ErrorAs(t, err, &sfe)
	assert.Equal(t, SymlinkDetected, sfe.Kind)
}

func TestSafeReadSymlinkInsideBoundaryStillBlocked(t *testing.T) {
	workspace := t.TempDir()
	real := filepath.Join(workspace, "real.txt")
	link := filepath.Join(workspace, "link.txt")

	require.NoError(t, os.WriteFile(real, []byte("content"), 0o644))
	require.NoError(t, os.Symlink(real, link))

	// Boundary validation passes (target is inside), but the terminal
	// no-follow open still refuses the link itself.
	_, err := SafeReadToString(link, workspace)
	require.Error(t, err)

	var sfe *SafeFileError
	require.ErrorAs(t, err, &sfe)
	assert.Equal(t, SymlinkDetected, sfe.Kind)
}
