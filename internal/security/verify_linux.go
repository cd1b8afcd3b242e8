//go:build linux

package security

import (
	"fmt"
	"os"
	"path/filepath"
)

// verifyOpenedFile reads back the real path of the open descriptor through
// /proc/self/fd and compares it with the expected canonical path. Purely a
// diagnostic: the no-follow open is the primary TOCTOU defense.
func verifyOpenedFile(file *os.File, expectedPath string) {
	procPath := fmt.Sprintf("/proc/self/fd/%d", file.Fd())

	actual, err := os.Readlink(procPath)
	if err != nil {
		return
	}

	expected, err := filepath.EvalSymlinks(expectedPath)
	if err != nil {
		return
	}

	if actual != expected {
		reportPathMismatch(expected, actual)
	}
}
