package validation

import (
	"fmt"
	"strings"
)

// Kind classifies a violation.
type Kind string

const (
	KindStructural           Kind = "structural"
	KindConditionalField     Kind = "conditional_field"
	KindRange                Kind = "range"
	KindDerivedFieldMismatch Kind = "derived_field_mismatch"
	KindInvariant            Kind = "invariant_violation"
)

type Violation struct {
	Kind    Kind   `json:"kind"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	if v.Path == "" {
		return v.Message
	}
	return v.Path + ": " + v.Message
}

// Violations is the complete result of a failed validation. It is never
// truncated; presentation layers decide how much of it to show.
type Violations []Violation

func (v Violations) Error() string {
	if len(v) == 1 {
		return "validation failed: " + v[0].String()
	}
	parts := make([]string, len(v))
	for i, item := range v {
		parts[i] = item.String()
	}
	return fmt.Sprintf("validation failed with %d errors: %s", len(v), strings.Join(parts, "; "))
}

func (v Violations) OfKind(kind Kind) Violations {
	var out Violations
	for _, item := range v {
		if item.Kind == kind {
			out = append(out, item)
		}
	}
	return out
}

func (v Violations) Has(kind Kind, path string) bool {
	for _, item := range v {
		if item.Kind == kind && item.Path == path {
			return true
		}
	}
	return false
}

func (v *Violations) add(kind Kind, path, format string, args ...any) {
	*v = append(*v, Violation{Kind: kind, Path: path, Message: fmt.Sprintf(format, args...)})
}

// Add appends a violation found outside the engine, such as a tag rejected
// by the value registry.
func (v *Violations) Add(kind Kind, path, message string) {
	*v = append(*v, Violation{Kind: kind, Path: path, Message: message})
}
