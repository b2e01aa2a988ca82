package manifest

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeTags trims and NFC-normalizes tags, dropping empties and
// case-insensitive duplicates. The first spelling of a tag wins.
func NormalizeTags(tags ...[]string) []string {
	fold := cases.Fold()
	seen := make(map[string]struct{})
	out := []string{}
	for _, group := range tags {
		for _, tag := range group {
			clean := norm.NFC.String(strings.TrimSpace(tag))
			if clean == "" {
				continue
			}
			key := fold.String(clean)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, clean)
		}
	}
	return out
}
