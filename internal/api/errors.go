package api

import (
	"errors"
	"net/http"

	"github.com/robert-radu/tablecmd/internal/domain"
)

// httpStatusFromError maps domain errors to HTTP status codes.
func httpStatusFromError(err error) int {
	var cmdErr *domain.CommandError
	var notFound *domain.NotFoundError
	var conflict *domain.ConflictError

	switch {
	case errors.As(err, &cmdErr):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &conflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
