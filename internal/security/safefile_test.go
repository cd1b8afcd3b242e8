package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeReadRegularFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	content, err := SafeReadToString(path, "")
	require.NoError(t, err)
	assert.Equal(t, "hello world", content)
}

func TestSafeReadMissingFile(t *testing.T) {
	_, err := SafeReadToString(filepath.Join(t.TempDir(), "missing.txt"), "")
	require.Error(t, err)

	var sfe *SafeFileError
	require.ErrorAs(t, err, &sfe)
	assert.Equal(t, IOError, sfe.Kind)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSafeReadWithWorkspaceBoundary(t *testing.T) {
	base := t.TempDir()
	workspace := filepath.Join(base, "workspace")
	outside := filepath.Join(base, "outside")

	require.NoError(t, os.MkdirAll(workspace, 0o755))
	require.NoError(t, os.MkdirAll(outside, 0o755))

	insideFile := filepath.Join(workspace, "inside.txt")
	outsideFile := filepath.Join(outside, "outside.txt")
	require.NoError(t, os.WriteFile(insideFile, []byte("inside content"), 0o644))
	require.NoError(t, os.WriteFile(outsideFile, []byte("outside content"), 0o644))

	content, err := SafeReadToString(insideFile, workspace)
	require.NoError(t, err)
	assert.Equal(t, "inside content", content)

	_, err = SafeReadToString(outsideFile, workspace)
	require.Error(t, err)

	var sfe *SafeFileError
	require.ErrorAs(t, err, &sfe)
	assert.Equal(t, OutsideBoundary, sfe.Kind)
	assert.Equal(t, outsideFile, sfe.Path)
	assert.Equal(t, workspace, sfe.Boundary)
}

func TestNullBytePathRejectedBeforeSyscall(t *testing.T) {
	_, err := SafeOpen("test\x00file.txt")
	require.Error(t, err)

	var sfe *SafeFileError
	require.ErrorAs(t, err, &sfe)
	assert.Equal(t, InvalidPath, sfe.Kind)
	assert.Contains(t, sfe.Reason, "null byte")
}

func TestNullByteRejectedInRead(t *testing.T) {
	_, err := SafeReadToString("dir/te\x00st.txt", "")
	require.Error(t, err)

	var sfe *SafeFileError
	require.ErrorAs(t, err, &sfe)
	assert.Equal(t, InvalidPath, sfe.Kind)
}

func TestParentDirComponentsAllowed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	path := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("up and over"), 0o644))

	// Legitimate relative traversal through .. must keep working; it is
	// logged, not rejected.
	content, err := SafeReadToString(filepath.Join(dir, "sub", "..", "file.txt"), "")
	require.NoError(t, err)
	assert.Equal(t, "up and over", content)
}

func TestSafeFileErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  *SafeFileError
		want string
	}{
		{
			name: "symlink",
			err:  &SafeFileError{Kind: SymlinkDetected, Path: "/w/link"},
			want: "symlink detected",
		},
		{
			name: "mismatch",
			err:  &SafeFileError{Kind: PathMismatch, Path: "/w/a", Expected: "/w/a", Actual: "/w/b"},
			want: "TOCTOU",
		},
		{
			name: "boundary",
			err:  &SafeFileError{Kind: OutsideBoundary, Path: "/etc/passwd", Boundary: "/w"},
			want: "outside allowed boundary",
		},
		{
			name: "invalid",
			err:  &SafeFileError{Kind: InvalidPath, Path: "bad", Reason: "null byte"},
			want: "invalid path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, tt.err.Error(), tt.want)
			assert.Contains(t, tt.err.Error(), tt.err.Path)
		})
	}
}
