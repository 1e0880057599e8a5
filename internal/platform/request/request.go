// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package requestutil reads path parameters, bodies and the caller's identity
// off an incoming request, returning apperr values handlers pass straight to
// respond.Error.
package requestutil

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/yomira-shelf/internal/platform/apperr"
	"github.com/taibuivan/yomira-shelf/internal/platform/constants"
	"github.com/taibuivan/yomira-shelf/internal/platform/ctxutil"
	"github.com/taibuivan/yomira-shelf/internal/platform/sec"
	"github.com/taibuivan/yomira-shelf/internal/platform/validate"
)

// maxJSONBody bounds every JSON request body.
const maxJSONBody = 1 << 20

// # Bodies

/*
DecodeJSON decodes a single JSON value from the body into target.

Returns:
  - error: validate.ErrInvalidJSON for empty, oversized, malformed or
    trailing-garbage bodies
*/
func DecodeJSON(request *http.Request, target any) error {
	decoder := json.NewDecoder(io.LimitReader(request.Body, maxJSONBody))

	if err := decoder.Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
FormFile parses a multipart upload and returns its file part.

Parameters:
  - writer: Needed by http.MaxBytesReader to close oversized connections
  - field: Name of the file part
  - maxBytes: Largest accepted file; the body may exceed it by the
    multipart memory allowance for the text fields

Returns:
  - multipart.File: Seekable content; the caller closes it
  - *multipart.FileHeader: Client filename and size
  - error: VALIDATION_ERROR on a missing, oversized or malformed upload
*/
func FormFile(writer http.ResponseWriter, request *http.Request, field string, maxBytes int64) (multipart.File, *multipart.FileHeader, error) {
	tooLarge := validate.FieldError(field, "File exceeds the maximum upload size")

	request.Body = http.MaxBytesReader(writer, request.Body, maxBytes+constants.MultipartMemory)
	if err := request.ParseMultipartForm(constants.MultipartMemory); err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			return nil, nil, tooLarge
		}
		return nil, nil, apperr.ValidationError("Invalid multipart payload")
	}

	file, header, err := request.FormFile(field)
	if err != nil {
		return nil, nil, validate.FieldError(field, "File is required")
	}
	if header.Size > maxBytes {
		_ = file.Close()
		return nil, nil, tooLarge
	}
	return file, header, nil
}

// FormValue returns the named form field with surrounding whitespace removed.
func FormValue(request *http.Request, name string) string {
	return strings.TrimSpace(request.FormValue(name))
}

// # Parameters

// ID returns the chi path parameter called name.
func ID(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

// QueryInt parses an integer query parameter, returning fallback when it is
// absent or not a number.
func QueryInt(request *http.Request, name string, fallback int) int {
	value, err := strconv.Atoi(request.URL.Query().Get(name))
	if err != nil {
		return fallback
	}
	return value
}

// # Caller

// RequiredClaims returns the caller's claims or 401 for anonymous requests.
func RequiredClaims(request *http.Request) (*sec.AuthClaims, error) {
	if claims := ctxutil.GetAuthUser(request.Context()); claims != nil {
		return claims, nil
	}
	return nil, apperr.Unauthorized("Authentication required")
}

// RequiredUserID is [RequiredClaims] reduced to the user ID.
func RequiredUserID(request *http.Request) (string, error) {
	claims, err := RequiredClaims(request)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}
