package fitness

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationErrors maps a payload field name to the reason it was rejected.
type ValidationErrors map[string]string

func (ve ValidationErrors) Error() string {
	fields := make([]string, 0, len(ve))
	for field := range ve {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var sb strings.Builder
	for i, field := range fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%s: %s", field, ve[field]))
	}
	return sb.String()
}

func (ve ValidationErrors) Add(field, reason string) {
	ve[field] = reason
}

func (ve ValidationErrors) IsValid() bool {
	return len(ve) == 0
}
