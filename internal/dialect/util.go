package dialect

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxIdentifierLength is the longest identifier accepted, matching the Postgres limit.
const MaxIdentifierLength = 63

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateIdentifier rejects names that cannot be used as a table, schema or column name.
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier is empty")
	}
	if len(name) > MaxIdentifierLength {
		return fmt.Errorf("identifier %q exceeds %d characters", name, MaxIdentifierLength)
	}
	if !identPattern.MatchString(name) {
		return fmt.Errorf("identifier %q must contain only letters, digits and underscores and not start with a digit", name)
	}
	return nil
}

// GeneratePlaceholders is a helper function to create a slice of placeholder strings.
// It takes the number of placeholders needed and a function that returns the placeholder for a given index.
// It returns a comma-separated string of the generated placeholders.
func GeneratePlaceholders(count int, placeholderFunc func(int) string) string {
	placeholders := make([]string, count)
	for i := 0; i < count; i++ {
		placeholders[i] = placeholderFunc(i)
	}
	return strings.Join(placeholders, ", ")
}

// quoteWith wraps name in open/close, doubling any embedded close character.
func quoteWith(name, open, close string) string {
	return open + strings.ReplaceAll(name, close, close+close) + close
}

func portOr(port, def int) int {
	if port <= 0 {
		return def
	}
	return port
}

var errEmptyPath = fmt.Errorf("sqlite database path (dbname) is empty")
