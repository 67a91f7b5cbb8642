package core

import (
	"sort"
	"strings"
)

// ValidationError collects per-field failures so callers can surface them as
// form flags instead of a single message.
type ValidationError struct {
	Fields map[string]bool
	errs   []error
}

// Add records a failure for field.
func (v *ValidationError) Add(field string, err error) {
	if v.Fields == nil {
		v.Fields = make(map[string]bool)
	}
	v.Fields[field] = true
	v.errs = append(v.errs, err)
}

// OrNil returns v as an error when at least one field failed.
func (v *ValidationError) OrNil() error {
	if len(v.errs) == 0 {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	fields := make([]string, 0, len(v.Fields))
	for f := range v.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	msgs := make([]string, 0, len(v.errs))
	for _, e := range v.errs {
		msgs = append(msgs, e.Error())
	}
	return "validation failed (" + strings.Join(fields, ", ") + "): " + strings.Join(msgs, "; ")
}

// Unwrap exposes the individual sentinel errors to errors.Is.
func (v *ValidationError) Unwrap() []error {
	return v.errs
}
