package validation

import (
	"regexp"
	"strings"
)

var mentionRegex = regexp.MustCompile(`@([a-zA-Z][\w.]*)`)

// ExtractMentions returns the distinct handles mentioned in text, in order of
// first appearance. Trailing dots are punctuation, not part of the handle.
func ExtractMentions(text string) []string {
	matches := mentionRegex.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimRight(m[1], ".")
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
