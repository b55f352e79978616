package utils

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MatchSeparator prefixes every match key so "\E01.mkv" cannot match "\SE01.mkv"
const MatchSeparator = `\`

// finalComponent returns the last element of a Plex or Shoko path. Both
// separators are honoured since either server may run on Windows.
func finalComponent(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// BaseName is the NFC-normalised final component, used for local comparisons
func BaseName(path string) string {
	return norm.NFC.String(finalComponent(path))
}

// MatchKey is the suffix used to look a Plex file up in Shoko's file index.
// It goes to Shoko byte for byte, so the file name is not normalised.
func MatchKey(path string) string {
	return MatchSeparator + finalComponent(path)
}

// HasMatchKeySuffix reports whether path ends with key, treating / and \ alike
func HasMatchKeySuffix(path, key string) bool {
	if key == "" {
		return false
	}
	path = norm.NFC.String(strings.ReplaceAll(path, `/`, `\`))
	key = norm.NFC.String(strings.ReplaceAll(key, `/`, `\`))
	return strings.HasSuffix(path, key)
}
