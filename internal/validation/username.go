package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.]*$`)

// ValidateUsername enforces handle rules shared with mention parsing: a leading
// letter, then letters, digits, '_' or '.', without doubled separators and not
// ending in one.
func ValidateUsername(username string) error {
	if len(username) < 3 {
		return fmt.Errorf("username must be at least 3 characters long")
	}
	if len(username) > 30 {
		return fmt.Errorf("username must not exceed 30 characters")
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username must start with a letter and contain only letters, numbers, underscores, and dots")
	}
	for _, pair := range []string{"..", "__", "._", "_."} {
		if strings.Contains(username, pair) {
			return fmt.Errorf("username cannot contain consecutive dots or underscores")
		}
	}
	last := username[len(username)-1]
	if last == '.' || last == '_' {
		return fmt.Errorf("username cannot end with a dot or underscore")
	}
	return nil
}
