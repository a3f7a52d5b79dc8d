// Package httperr maps the errs taxonomy onto HTTP status codes for
// cmd/svr's local-only API surface, the way the teacher's
// server/httperr package does for its chi handlers.
package httperr

import (
	"context"
	"errors"
	"net/http"

	"github.com/dicelab/fairsim/errs"
)

// StatusCode maps err to the HTTP status a caller should see: context
// cancellation maps to its own codes, then errs.C/errs.E's severity,
// defaulting to 500 for anything else.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}

	if code, ok := errs.CodeOf(err); ok {
		switch code {
		case errs.CodeConfigInvalid, errs.CodeBetInvalid:
			return http.StatusBadRequest
		case errs.CodeCancelled:
			return http.StatusRequestTimeout
		}
	}

	var e *errs.E
	if errors.As(err, &e) {
		switch e.ErrLv {
		case errs.Warn:
			return http.StatusBadRequest
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

// Write maps err to a status code and writes it as a plain-text body,
// the same minimal boundary-layer response the teacher's Errs uses.
func Write(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	http.Error(w, err.Error(), StatusCode(err))
}
