// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr is the error vocabulary of the Shelf API.

Services return *[AppError] for every failure a client should see; the
respond package maps it to a status and the JSON error envelope. Anything
else reaching a handler is reported as INTERNAL_ERROR.

The Cause of an AppError is for logs only and never leaves the server.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// # Codes

const (
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeConflict           = "CONFLICT"
	CodeValidation         = "VALIDATION_ERROR"
	CodeRateLimited        = "RATE_LIMITED"
	CodeUnprocessable      = "UNPROCESSABLE"
	CodeInternal           = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"

	// Library workflow.
	CodeIncompleteMetadata   = "INCOMPLETE_METADATA"
	CodeDuplicateSubmission  = "DUPLICATE_SUBMISSION"
	CodeInvalidState         = "INVALID_STATE"
	CodeAlreadyPending       = "ALREADY_PENDING"
	CodeTransitionInProgress = "TRANSITION_IN_PROGRESS"
	CodeFileNotFound         = "FILE_NOT_FOUND"
	CodeStorage              = "STORAGE_ERROR"
	CodePlacementExhausted   = "PLACEMENT_EXHAUSTED"
)

// AppError is a client-facing failure.
type AppError struct {
	// Code is the stable machine-readable identifier.
	Code string `json:"code"`
	// Message is safe to show to the caller.
	Message string `json:"error"`
	// HTTPStatus is the response status.
	HTTPStatus int `json:"-"`
	// Cause is logged server-side only.
	Cause error `json:"-"`
	// Details lists per-field failures.
	Details []FieldError `json:"details,omitempty"`
	// RetryAfter, in seconds, is sent as the Retry-After header when positive.
	RetryAfter int `json:"-"`
}

// FieldError is one entry of [AppError.Details].
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string { return e.Message }

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause returns a copy of e carrying cause; e itself is not modified.
func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

func newError(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// # Request Errors

// NotFound reports that resource does not exist, e.g. "Publication not found".
func NotFound(resource string) *AppError {
	return newError(http.StatusNotFound, CodeNotFound, resource+" not found")
}

func Unauthorized(message string) *AppError {
	return newError(http.StatusUnauthorized, CodeUnauthorized, message)
}

func Forbidden(message string) *AppError {
	return newError(http.StatusForbidden, CodeForbidden, message)
}

// Conflict reports a uniqueness clash.
func Conflict(message string) *AppError {
	return newError(http.StatusConflict, CodeConflict, message)
}

// ValidationError is a 400 with optional per-field details.
func ValidationError(message string, details ...FieldError) *AppError {
	err := newError(http.StatusBadRequest, CodeValidation, message)
	err.Details = details
	return err
}

// InvalidInput is a 422 VALIDATION_ERROR for well-formed requests whose
// content is unacceptable, such as an upload named outside the filename grammar.
func InvalidInput(message string, details ...FieldError) *AppError {
	err := newError(http.StatusUnprocessableEntity, CodeValidation, message)
	err.Details = details
	return err
}

// Unprocessable reports input that breaks a data constraint.
func Unprocessable(message string) *AppError {
	return newError(http.StatusUnprocessableEntity, CodeUnprocessable, message)
}

// RateLimited is a 429 that tells the caller when to retry.
func RateLimited(retryAfterSeconds int) *AppError {
	err := newError(http.StatusTooManyRequests, CodeRateLimited,
		fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds))
	err.RetryAfter = retryAfterSeconds
	return err
}

// # Library Workflow

// IncompleteMetadata blocks a strict approval of a submission missing its date.
func IncompleteMetadata(message string) *AppError {
	return newError(http.StatusUnprocessableEntity, CodeIncompleteMetadata, message)
}

// DuplicateSubmission names the record already holding the same document in
// Details under "existing_id".
func DuplicateSubmission(existingID string) *AppError {
	err := newError(http.StatusConflict, CodeDuplicateSubmission, "This document has already been submitted")
	err.Details = []FieldError{{Field: "existing_id", Message: existingID}}
	return err
}

// InvalidState rejects a transition the record's current status does not allow.
func InvalidState(message string) *AppError {
	return newError(http.StatusConflict, CodeInvalidState, message)
}

func AlreadyPending() *AppError {
	return newError(http.StatusConflict, CodeAlreadyPending, "Submission is already pending")
}

// TransitionInProgress means another reviewer holds the record right now.
func TransitionInProgress() *AppError {
	return newError(http.StatusConflict, CodeTransitionInProgress, "Another review of this record is in progress")
}

// FileNotFound reports a database row whose stored file is gone.
func FileNotFound(cause error) *AppError {
	return newError(http.StatusNotFound, CodeFileNotFound, "Stored file not found").WithCause(cause)
}

// # Server Errors

// Internal hides cause behind a generic message.
func Internal(cause error) *AppError {
	return newError(http.StatusInternalServerError, CodeInternal, "An unexpected error occurred").WithCause(cause)
}

// StorageError reports a failed blob write, move or delete.
func StorageError(cause error) *AppError {
	return newError(http.StatusInternalServerError, CodeStorage, "The file could not be stored").WithCause(cause)
}

// PlacementExhausted is a 507: every candidate file name in the target
// directory is taken.
func PlacementExhausted(cause error) *AppError {
	return newError(http.StatusInsufficientStorage, CodePlacementExhausted, "No free file name is available for this document").WithCause(cause)
}

// ServiceUnavailable is a 503, used while submissions are closed.
func ServiceUnavailable(message string) *AppError {
	return newError(http.StatusServiceUnavailable, CodeServiceUnavailable, message)
}

// # Inspection

// IsAppError reports whether err's chain holds an *[AppError].
func IsAppError(err error) bool {
	return As(err) != nil
}

// As returns the first *[AppError] in err's chain, or nil.
func As(err error) *AppError {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError
	}
	return nil
}

// HasCode reports whether err's chain holds an *[AppError] with code.
func HasCode(err error, code string) bool {
	appError := As(err)
	return appError != nil && appError.Code == code
}

func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}
