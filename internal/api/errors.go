package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/erazemk/estatedesk/internal/model"
)

// imageError is a rejected inline image.
type imageError struct {
	index int
	err   error
}

func (e *imageError) Error() string {
	if e.index < 0 {
		return fmt.Sprintf("image: %v", e.err)
	}
	return fmt.Sprintf("image %d: %v", e.index, e.err)
}

func (e *imageError) Unwrap() error { return e.err }

// applyError marks a failure to merge a request body into a document.
type applyError struct{ err error }

func (e *applyError) Error() string { return e.err.Error() }
func (e *applyError) Unwrap() error { return e.err }

// writeDocError handles errors from a repository write whose apply
// function may have rejected the request body.
func (rs responder) writeDocError(w http.ResponseWriter, r *http.Request, message string, err error) {
	var imgErr *imageError
	var appErr *applyError
	switch {
	case errors.As(err, &imgErr):
		jsonResponse(w, http.StatusBadRequest, errorBody{Error: "invalid image", Detail: imgErr.Error()})
	case errors.As(err, &appErr):
		badInput(w, &model.ValidationError{Message: "request body does not match the document shape"})
	default:
		rs.writeError(w, r, message, err)
	}
}
