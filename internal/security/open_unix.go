//go:build unix

package security

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// openNoFollow opens a file read-only with O_NOFOLLOW so the kernel itself
// refuses to follow a terminal symlink. ELOOP (EMLINK on some BSDs) from
// such an open means the path was a symlink.
func openNoFollow(path string) (*os.File, *SafeFileError) {
	file, err := os.OpenFile(path, os.O_RDONLY|unix.O_NOFOLLOW, 0)
	if err != nil {
		var errno unix.Errno
		if errors.As(err, &errno) && (errno == unix.ELOOP || errno == unix.EMLINK) {
			return nil, &SafeFileError{Kind: SymlinkDetected, Path: path}
		}
		return nil, &SafeFileError{Kind: IOError, Path: path, Err: err}
	}

	return file, nil
}
