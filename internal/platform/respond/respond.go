// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package respond writes every Shelf HTTP response.

Bodies use one of three envelopes:

	{"data": ...}                      single resource
	{"data": [...], "meta": {...}}     page of a list
	{"error": "...", "code": "..."}    failure, with optional "details"

Handlers never call json.NewEncoder on the writer themselves.
*/
package respond

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
	"github.com/taibuivan/yomira-shelf/internal/platform/ctxutil"
	"github.com/taibuivan/yomira-shelf/pkg/pagination"
)

const contentTypeJSON = "application/json; charset=utf-8"

// SuccessEnvelope wraps a single resource.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// PaginatedEnvelope wraps one page of a list.
type PaginatedEnvelope struct {
	Data any             `json:"data"`
	Meta pagination.Meta `json:"meta"`
}

// ErrorEnvelope is the body of every non-2xx response.
type ErrorEnvelope struct {
	Error   string              `json:"error"`
	Code    string              `json:"code"`
	Details []apperr.FieldError `json:"details,omitempty"`
}

// JSON encodes payload with the given status.
func JSON(writer http.ResponseWriter, status int, payload any) {
	writer.Header().Set("Content-Type", contentTypeJSON)
	writer.WriteHeader(status)
	if err := json.NewEncoder(writer).Encode(payload); err != nil {
		slog.Default().Warn("response_encode_failed", slog.Int("status", status), slog.Any("error", err))
	}
}

// OK writes 200 with data in a [SuccessEnvelope].
func OK(writer http.ResponseWriter, data any) {
	JSON(writer, http.StatusOK, SuccessEnvelope{Data: data})
}

// Created writes 201 with data in a [SuccessEnvelope].
func Created(writer http.ResponseWriter, data any) {
	JSON(writer, http.StatusCreated, SuccessEnvelope{Data: data})
}

// Paginated writes 200 with a [PaginatedEnvelope].
func Paginated(writer http.ResponseWriter, data any, meta pagination.Meta) {
	JSON(writer, http.StatusOK, PaginatedEnvelope{Data: data, Meta: meta})
}

// NoContent writes 204.
func NoContent(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusNoContent)
}

/*
File streams content as a download and closes it.

Parameters:
  - content: Document body; closed before File returns
  - contentType: Detected MIME type; empty falls back to application/octet-stream
  - filename: Suggested name in Content-Disposition

A copy error after the headers are sent is only logged; the client sees a
truncated body.
*/
func File(writer http.ResponseWriter, request *http.Request, content io.ReadCloser, contentType, filename string) {
	defer content.Close()

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := writer.Header()
	header.Set("Content-Type", contentType)
	header.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	header.Set("X-Content-Type-Options", "nosniff")
	writer.WriteHeader(http.StatusOK)

	if written, err := io.Copy(writer, content); err != nil {
		ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "file_stream_interrupted",
			slog.String("filename", filename),
			slog.Int64("bytes_written", written),
			slog.Any("error", err),
		)
	}
}

/*
Error writes err as an [ErrorEnvelope].

An *apperr.AppError anywhere in the chain decides status, code and message.
Anything else becomes 500 INTERNAL_ERROR with its text kept out of the body.
Every 5xx is logged with its cause on the request logger.
*/
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	var appError *apperr.AppError
	if !errors.As(err, &appError) {
		appError = apperr.Internal(err)
	}

	if appError.HTTPStatus >= http.StatusInternalServerError {
		ctxutil.GetLogger(request.Context()).ErrorContext(request.Context(), "request_failed",
			slog.String("code", appError.Code),
			slog.Any("error", appError.Cause),
		)
	}

	if appError.RetryAfter > 0 {
		writer.Header().Set("Retry-After", strconv.Itoa(appError.RetryAfter))
	}

	JSON(writer, appError.HTTPStatus, ErrorEnvelope{
		Error:   appError.Message,
		Code:    appError.Code,
		Details: appError.Details,
	})
}
