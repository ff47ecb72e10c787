package http

import (
	"errors"
	"net/http"
	"strings"

	"prodash/internal/core"
	applog "prodash/internal/log"
)

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// failure maps a service error to a response. Validation problems are
// echoed to the client; anything unexpected is logged and answered with
// failMsg.
func (s *Server) failure(r *http.Request, err error, resource, failMsg string) *JSONResponseBuilder {
	switch {
	case core.IsValidation(err):
		return BadRequestError(err.Error())
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError(resource + " not found")
	case errors.Is(err, core.ErrNoNextStatus):
		return ConflictError("Job is already in its final stage")
	default:
		s.errors.LogError(r.Context(), failMsg, err, operationFor(r.Method), applog.NewFields().WithRequestID(requestIDFrom(r)))
		return InternalServerError(failMsg)
	}
}

func operationFor(method string) string {
	switch method {
	case http.MethodPost:
		return applog.OpCreate
	case http.MethodPatch, http.MethodPut:
		return applog.OpUpdate
	case http.MethodDelete:
		return applog.OpDelete
	default:
		return applog.OpRead
	}
}
