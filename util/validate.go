package util

import (
	"fmt"
	"strings"
)

// ValidateNonEmpty checks that a required flow specification field (name,
// stage name, queue name) is not empty after trimming whitespace.
func ValidateNonEmpty(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", field)
	}
	return nil
}
