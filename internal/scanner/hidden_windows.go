//go:build windows

package scanner

import (
	"path/filepath"
	"strings"
	"syscall"
)

func isHidden(dir, name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}

	p, err := syscall.UTF16PtrFromString(filepath.Join(dir, name))
	if err != nil {
		return false
	}

	attrs, err := syscall.GetFileAttributes(p)
	if err != nil {
		return false
	}

	return attrs&syscall.FILE_ATTRIBUTE_HIDDEN != 0
}
