// Package samples derives sample names from a raw-data listing and holds the
// user's checked/unchecked selection.
package samples

import (
	"strings"

	"github.com/google/uuid"

	"github.com/tbgui/tbgui/internal/constants"
)

// Sample is one sequencing sample found in the raw-data directory.
// Samples are rebuilt on every listing; IDs are only stable within one pass.
type Sample struct {
	ID      uuid.UUID
	Name    string
	Checked bool
}

// Discover turns a directory listing into samples. Each name is split at the
// first "_" and the prefix becomes the sample name; names without "_" are
// skipped. A prefix appears once, in order of first occurrence, unchecked.
func Discover(listing []string) []Sample {
	seen := make(map[string]struct{}, len(listing))
	result := make([]Sample, 0, len(listing)/2)

	for _, entry := range listing {
		prefix, _, ok := strings.Cut(entry, constants.SampleSeparator)
		if !ok {
			continue
		}
		if _, dup := seen[prefix]; dup {
			continue
		}
		seen[prefix] = struct{}{}
		result = append(result, Sample{ID: uuid.New(), Name: prefix})
	}
	return result
}

// Names returns the names of samples in order.
func Names(samples []Sample) []string {
	names := make([]string, len(samples))
	for i, s := range samples {
		names[i] = s.Name
	}
	return names
}
