package catalog

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ValidationError is a local, synchronous rejection of a value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(col Column, format string, args ...any) error {
	return &ValidationError{Field: col.Field, Message: fmt.Sprintf(format, args...)}
}

// Check runs the synchronous shape check for v in col. It never consults the
// store; uniqueness is checked separately.
func Check(col Column, v Value) error {
	if raw, ok := v.(Raw); ok {
		return invalid(col, "%q is not a valid %s value", string(raw), col.Type)
	}
	if col.Required && IsEmpty(col.Type, v) {
		return invalid(col, "%s is required", col.Title)
	}

	switch col.Type {
	case TypeText, TypeReadOnly:
		if _, ok := v.(Text); !ok && v != nil {
			return invalid(col, "expected text")
		}
	case TypeNumeric:
		n, ok := v.(Number)
		if !ok && v != nil {
			return invalid(col, "expected a number")
		}
		if s := strings.TrimSpace(string(n)); s != "" {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				return invalid(col, "%q is not a number", s)
			}
		}
	case TypeSingleChoice:
		s, ok := v.(Text)
		if !ok && v != nil {
			return invalid(col, "expected one of %s", strings.Join(col.Options, ", "))
		}
		if s != "" && !slices.Contains(col.Options, string(s)) {
			return invalid(col, "%q is not one of %s", string(s), strings.Join(col.Options, ", "))
		}
	case TypeRelationship:
		if r, ok := v.(Ref); ok {
			if r.ID <= 0 {
				return invalid(col, "invalid reference")
			}
		} else if v != nil {
			return invalid(col, "expected a %s reference", col.Target)
		}
	case TypeMultiRelationship:
		refs, ok := v.(RefList)
		if !ok && v != nil {
			return invalid(col, "expected %s references", col.Target)
		}
		for _, r := range refs {
			if r.ID <= 0 {
				return invalid(col, "invalid reference")
			}
		}
	case TypeTagList:
		tags, ok := v.(Tags)
		if !ok && v != nil {
			return invalid(col, "expected tags")
		}
		for _, tag := range tags {
			if strings.TrimSpace(tag) == "" {
				return invalid(col, "tags must not be blank")
			}
		}
	case TypeBoolean:
		if _, ok := v.(Bool); !ok && v != nil {
			return invalid(col, "expected yes or no")
		}
	}
	return nil
}
