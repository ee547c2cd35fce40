package strutils

import "strings"

// StrListContains looks for a string in a list of strings.
func StrListContains(haystack []string, needle string) bool {
	for _, item := range haystack {
		if item == needle {
			return true
		}
	}
	return false
}

// RemoveDuplicatesStable removes duplicate and empty elements from a slice of
// strings, preserving the order of the original slice.  Elements are compared
// after their surrounding whitespace is trimmed, and lower cased when
// caseInsensitive is true.
func RemoveDuplicatesStable(items []string, caseInsensitive bool) []string {
	seen := make(map[string]struct{}, len(items))
	deduplicated := make([]string, 0, len(items))
	for _, item := range items {
		key := strings.TrimSpace(item)
		if key == "" {
			continue
		}
		if caseInsensitive {
			key = strings.ToLower(key)
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		deduplicated = append(deduplicated, item)
	}
	return deduplicated
}

// Scopes splits a space delimited scope parameter into its unique values.
// Each required value missing from scope is prepended, in order.
func Scopes(scope string, required ...string) []string {
	scopes := RemoveDuplicatesStable(strings.Fields(scope), false)
	missing := make([]string, 0, len(required))
	for _, r := range required {
		if !StrListContains(scopes, r) && !StrListContains(missing, r) {
			missing = append(missing, r)
		}
	}
	return append(missing, scopes...)
}
