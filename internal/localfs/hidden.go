// Package localfs holds the local filesystem operations on the results
// directory: listing downloaded artifacts and clearing them.
package localfs

import "strings"

// IsHiddenName returns true if name starts with a dot.
// "." and ".." are not considered hidden.
func IsHiddenName(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".")
}
