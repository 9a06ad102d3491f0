//go:build !windows

package scanner

import (
	"strings"
)

func isHidden(dir, name string) bool {
	return strings.HasPrefix(name, ".")
}
