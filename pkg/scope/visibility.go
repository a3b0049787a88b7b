package scope

import (
	"fmt"
	"strings"
)

// Visibility classifies a variable for export purposes, independent of lock state.
type Visibility uint8

const (
	VisibilityPublic Visibility = iota
	VisibilityProtected
	VisibilityPrivate
)

// String returns the lowercase name of the visibility.
func (v Visibility) String() string {
	switch v {
	case VisibilityPublic:
		return "public"
	case VisibilityProtected:
		return "protected"
	case VisibilityPrivate:
		return "private"
	default:
		return fmt.Sprintf("visibility(%d)", uint8(v))
	}
}

// IsValid reports whether the visibility is one of the recognised values.
func (v Visibility) IsValid() bool {
	switch v {
	case VisibilityPublic, VisibilityProtected, VisibilityPrivate:
		return true
	default:
		return false
	}
}

// ParseVisibility converts a textual visibility into its enumerated value.
func ParseVisibility(input string) (Visibility, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "public":
		return VisibilityPublic, nil
	case "protected":
		return VisibilityProtected, nil
	case "private":
		return VisibilityPrivate, nil
	default:
		return 0, fmt.Errorf("scope: unknown visibility %q", input)
	}
}
