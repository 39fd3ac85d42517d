package model

import "strings"

// Candidates returns ids in order with blanks and duplicates removed.
func Candidates(ids ...string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// attemptOrder puts selected first, followed by the remaining preferences.
func attemptOrder(selected string, preferences []string) []string {
	return Candidates(append([]string{selected}, preferences...)...)
}
