// Package validation checks names that arrive from the remote side or from
// the user before they reach the local filesystem or a remote command line.
package validation

import (
	"fmt"
	"strings"
)

// ValidateFilename checks a bare filename taken from a remote listing before
// it is joined onto a local directory.
//
// Rejected: empty names, NUL bytes, either path separator, "." and "..".
// Names such as "S1..v2.docx" are fine since separators are already refused.
func ValidateFilename(filename string) error {
	switch {
	case filename == "":
		return fmt.Errorf("filename cannot be empty")
	case strings.ContainsRune(filename, 0):
		return fmt.Errorf("filename contains null byte: %q", filename)
	case strings.ContainsAny(filename, `/\`):
		return fmt.Errorf("filename cannot contain path separators: %s", filename)
	case filename == "." || filename == "..":
		return fmt.Errorf("filename cannot be %q", filename)
	}
	return nil
}

// shellUnsafe are the characters that keep their meaning inside a
// double-quoted shell word.
const shellUnsafe = "\"`$\\\n\r"

// ValidateSampleName checks that a sample name can be placed inside the
// double-quoted sample argument of the batch submission without escaping.
func ValidateSampleName(name string) error {
	if name == "" {
		return fmt.Errorf("sample name cannot be empty")
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("sample name contains null byte: %q", name)
	}
	if i := strings.IndexAny(name, shellUnsafe); i >= 0 {
		return fmt.Errorf("sample name %q contains forbidden character %q", name, name[i])
	}
	return nil
}

// ValidateSampleNames runs ValidateSampleName over names and returns the first failure.
func ValidateSampleNames(names []string) error {
	for _, n := range names {
		if err := ValidateSampleName(n); err != nil {
			return err
		}
	}
	return nil
}
