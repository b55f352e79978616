package utils

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Suggest returns the candidate closest to name, or "" when nothing is close.
// Used to hint at typos in configured library names.
func Suggest(name string, candidates []string) string {
	target := strings.ToLower(name)
	best := ""
	bestDistance := -1
	for _, candidate := range candidates {
		d := levenshtein.ComputeDistance(target, strings.ToLower(candidate))
		if bestDistance < 0 || d < bestDistance {
			best = candidate
			bestDistance = d
		}
	}

	// Anything needing more edits than half the name is not a typo
	if bestDistance < 0 || bestDistance > len(target)/2 {
		return ""
	}
	return best
}
