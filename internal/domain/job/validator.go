package job

import (
	"errors"
	"fmt"
	"strings"
)

var ErrIncompleteDraft = errors.New("incomplete draft")

// Validate reports ErrIncompleteDraft when any field of d is empty or only
// whitespace. The returned error names the missing fields.
func Validate(d Draft) error {
	missing := MissingFields(d)
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: missing %s", ErrIncompleteDraft, strings.Join(missing, ", "))
}

func MissingFields(d Draft) []string {
	var missing []string
	for _, f := range draftFields {
		if strings.TrimSpace(f.value(d)) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}
