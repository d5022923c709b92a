package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Hint      string `json:"hint,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, e *HTTPError) error {
	if e.RetryAfter > 0 {
		secs := int(math.Ceil(e.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	return writeJSON(w, e.Code, errorBody{
		Error:     e.Message,
		Code:      e.ErrorCode,
		Hint:      e.Hint,
		RequestID: e.RequestID,
	})
}

// decodeJSON reads a bounded JSON body into dst and validates its struct
// tags.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return NewHTTPError(http.StatusRequestEntityTooLarge, "Request body too large",
				WithErrorCode("body_too_large"), WithError(errors.Join(ErrBodyTooLarge, err)))
		case errors.Is(err, io.EOF):
			return ErrBadRequest("Request body required", WithError(errors.Join(ErrInvalidBody, err)))
		default:
			return ErrBadRequest("Invalid JSON body", WithError(errors.Join(ErrInvalidBody, err)))
		}
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return ErrBadRequest(fmt.Sprintf("Invalid field %s", fe.Field()),
				WithErrorCode("validation"), WithError(errors.Join(ErrInvalidFields, err)))
		}
		return ErrBadRequest("Invalid request", WithError(errors.Join(ErrInvalidFields, err)))
	}
	return nil
}
