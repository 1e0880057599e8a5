// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package validate collects field errors for service inputs and turns them into
one VALIDATION_ERROR.

	err := (&validate.Validator{}).
		Required("reason", reason).
		MaxLen("reason", reason, 500).
		Err()

Only the first failing rule is reported for each field, so an empty username
yields "required" rather than "required" plus "too short".
*/
package validate

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
)

var (
	slugPattern       = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	permissionPattern = regexp.MustCompile(`^(?:\*|[a-z][a-z0-9_]*(?:\.[a-z][a-z0-9_]*)*)$`)
)

// ErrInvalidJSON is returned for request bodies that do not decode.
var ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")

// Validator accumulates field failures. The zero value is ready to use; it
// is meant for a single input and is not safe for concurrent use.
type Validator struct {
	errs   []apperr.FieldError
	failed map[string]bool
}

// check records message for field when ok is false and the field has not
// already failed.
func (v *Validator) check(ok bool, field, message string) *Validator {
	if ok || v.failed[field] {
		return v
	}
	if v.failed == nil {
		v.failed = make(map[string]bool)
	}
	v.failed[field] = true
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: message})
	return v
}

// Required rejects blank values.
func (v *Validator) Required(field, value string) *Validator {
	return v.check(strings.TrimSpace(value) != "", field, "This field is required")
}

// MinLen rejects values shorter than min characters.
func (v *Validator) MinLen(field, value string, min int) *Validator {
	return v.check(utf8.RuneCountInString(value) >= min, field, fmt.Sprintf("Minimum %d characters", min))
}

// MaxLen rejects values longer than max characters.
func (v *Validator) MaxLen(field, value string, max int) *Validator {
	return v.check(utf8.RuneCountInString(value) <= max, field, fmt.Sprintf("Maximum %d characters", max))
}

// Email accepts a bare addr-spec; display-name forms are rejected.
func (v *Validator) Email(field, value string) *Validator {
	address, err := mail.ParseAddress(value)
	return v.check(err == nil && address.Address == value, field, "Must be a valid email address")
}

// Slug accepts lowercase words joined by single hyphens.
func (v *Validator) Slug(field, value string) *Validator {
	return v.check(slugPattern.MatchString(value), field, "Lowercase letters, digits and single hyphens only")
}

// Permission accepts "*" or a dotted name such as "submissions.review".
func (v *Validator) Permission(field, value string) *Validator {
	return v.check(permissionPattern.MatchString(value), field, "Must be a dotted permission name (e.g. submissions.review)")
}

// Custom records message when failed is true.
func (v *Validator) Custom(field string, failed bool, message string) *Validator {
	return v.check(!failed, field, message)
}

// HasErrors reports whether any rule has failed.
func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

// Err returns the accumulated VALIDATION_ERROR, or nil.
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	return apperr.ValidationError("Validation failed", v.errs...)
}

// FieldError builds a VALIDATION_ERROR for a single field.
func FieldError(field, message string) *apperr.AppError {
	return apperr.ValidationError("Validation failed", apperr.FieldError{Field: field, Message: message})
}
