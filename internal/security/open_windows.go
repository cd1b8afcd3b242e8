//go:build windows

package security

import (
	"os"

	"golang.org/x/sys/windows"
)

// openNoFollow opens a file with FILE_FLAG_OPEN_REPARSE_POINT so symlinks
// and junctions are opened as themselves rather than followed, then checks
// the resulting handle's attributes for a reparse point.
func openNoFollow(path string) (*os.File, *SafeFileError) {
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, &SafeFileError{Kind: InvalidPath, Path: path, Reason: err.Error()}
	}

	handle, err := windows.CreateFile(
		pathPtr,
		windows.GENERIC_READ,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_OPEN_REPARSE_POINT,
		0,
	)
	if err != nil {
		return nil, &SafeFileError{Kind: IOError, Path: path, Err: err}
	}

	var info windows.ByHandleFileInformation
	if err := windows.GetFileInformationByHandle(handle, &info); err != nil {
		windows.CloseHandle(handle)
		return nil, &SafeFileError{Kind: IOError, Path: path, Err: err}
	}

	if info.FileAttributes&windows.FILE_ATTRIBUTE_REPARSE_POINT != 0 {
		windows.CloseHandle(handle)
		return nil, &SafeFileError{Kind: SymlinkDetected, Path: path}
	}

	return os.NewFile(uintptr(handle), path), nil
}
