// Package httputil holds the JSON request/response helpers shared by handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	dErrors "listsnap/pkg/domain-errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validatable requests run their own semantic checks after tag validation.
type Validatable interface {
	Validate() error
}

type errorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError renders err as {"error": code, "error_description": message}.
// Internal errors omit the description so causes never reach clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := errorBody{Error: string(code)}
	if code != dErrors.CodeInternal {
		body.Description = dErrors.UserMessage(err)
	}
	WriteJSON(w, ToHTTPStatus(code), body)
}

// ToHTTPStatus maps an error code to its HTTP status.
func ToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeNoItemsDetected:
		return http.StatusUnprocessableEntity
	case dErrors.CodeInvalidState, dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// DecodeAndPrepare decodes the JSON body into T, runs struct tag validation
// and, when T implements Validatable, its Validate method. On failure it has
// already written the error response and returns false.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	ctx := r.Context()
	req := new(T)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "path", r.URL.Path, "error", err)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}
	if err := validate.StructCtx(ctx, req); err != nil {
		var verrs validator.ValidationErrors
		msg := "invalid request"
		if errors.As(err, &verrs) && len(verrs) > 0 {
			msg = verrs[0].Field() + " failed " + verrs[0].Tag() + " validation"
		}
		WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, msg))
		return nil, false
	}
	if v, ok := any(req).(Validatable); ok {
		if err := v.Validate(); err != nil {
			WriteError(w, err)
			return nil, false
		}
	}
	return req, true
}
