package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/spf13/cast"

	"github.com/erazemk/estatedesk/internal/model"
	"github.com/erazemk/estatedesk/internal/store"
)

// Request body limits. Documents may carry inline images.
const (
	maxJSONBody     = 1 << 20
	maxDocumentBody = 32 << 20
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string `json:"error"`
	Field  string `json:"field,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, errorBody{Error: message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(target)
}

// readBody reads a document payload up to maxDocumentBody bytes.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	defer r.Body.Close()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			jsonError(w, http.StatusBadRequest, "invalid request body")
		}
		return nil, false
	}
	return body, true
}

// responder writes error responses. Internal error detail is included
// only outside production.
type responder struct {
	production bool
}

// serverError logs err and writes a 500.
func (rs responder) serverError(w http.ResponseWriter, r *http.Request, message string, err error) {
	slog.Error(message, "method", r.Method, "path", r.URL.Path, "error", err)
	body := errorBody{Error: message}
	if !rs.production {
		body.Detail = err.Error()
	}
	jsonResponse(w, http.StatusInternalServerError, body)
}

// writeError maps repository errors to status codes.
func (rs responder) writeError(w http.ResponseWriter, r *http.Request, message string, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		validationError(w, verr)
	case errors.Is(err, store.ErrConflict):
		jsonResponse(w, http.StatusConflict, errorBody{Error: "conflicts with an existing record", Detail: err.Error()})
	default:
		rs.serverError(w, r, message, err)
	}
}

// validationError writes a 400 naming the first violation.
func validationError(w http.ResponseWriter, verr *model.ValidationError) {
	jsonResponse(w, http.StatusBadRequest, errorBody{
		Error:  "validation failed",
		Field:  verr.Field,
		Detail: verr.Message,
	})
}

// badInput writes a 400 for err, which is usually a *model.ValidationError.
func badInput(w http.ResponseWriter, err error) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		validationError(w, verr)
		return
	}
	jsonResponse(w, http.StatusBadRequest, errorBody{Error: "validation failed", Detail: err.Error()})
}

func notFound(w http.ResponseWriter, what string) {
	jsonError(w, http.StatusNotFound, what+" not found")
}

// queryInt reads an integer query parameter; anything unparseable is 0.
func queryInt(r *http.Request, key string) int {
	return cast.ToInt(r.URL.Query().Get(key))
}

func queryBool(r *http.Request, key string) bool {
	return cast.ToBool(r.URL.Query().Get(key))
}
