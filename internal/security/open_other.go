//go:build !unix && !windows

package security

import (
	"context"
	"os"
)

// openNoFollow has no no-follow primitive on this platform; the safety
// guarantee is degraded to an ordinary open.
func openNoFollow(path string) (*os.File, *SafeFileError) {
	auditLogger().Warn(context.Background(), nil,
		"platform does not support no-follow open, symlink protection degraded",
		"path", path,
	)

	file, err := os.Open(path)
	if err != nil {
		return nil, &SafeFileError{Kind: IOError, Path: path, Err: err}
	}

	return file, nil
}
