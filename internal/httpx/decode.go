package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const (
	// MaxRequestBodySize is the maximum allowed request body size (1MB).
	MaxRequestBodySize = 1 << 20

	// MaxFormSize caps url-encoded form bodies such as the password prompt.
	MaxFormSize = 64 << 10
)

// ErrEmptyBody is returned by DecodeJSON when the request carries no body.
var ErrEmptyBody = errors.New("request body is empty")

// DecodeJSON decodes a single JSON object from the request body with size
// limits and unknown-field rejection.
func DecodeJSON[T any](r *http.Request) (T, error) {
	var zero T

	if r.Body == nil {
		return zero, ErrEmptyBody
	}
	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)
	defer func() {
		_ = r.Body.Close()
	}()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var v T
	if err := dec.Decode(&v); err != nil {
		var syntaxErr *json.SyntaxError
		var unmarshalErr *json.UnmarshalTypeError
		var maxBytesErr *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxErr):
			return zero, fmt.Errorf("malformed JSON at position %d", syntaxErr.Offset)
		case errors.As(err, &unmarshalErr):
			return zero, fmt.Errorf("invalid value for field %q", unmarshalErr.Field)
		case errors.As(err, &maxBytesErr):
			return zero, fmt.Errorf("request body too large (max %d bytes)", MaxRequestBodySize)
		case errors.Is(err, io.EOF):
			return zero, ErrEmptyBody
		case errors.Is(err, io.ErrUnexpectedEOF):
			return zero, errors.New("malformed JSON: unexpected end of input")
		default:
			return zero, fmt.Errorf("failed to decode JSON: %w", err)
		}
	}

	if dec.More() {
		return zero, errors.New("request body contains multiple JSON objects")
	}

	return v, nil
}

// DecodeOptionalJSON is DecodeJSON for endpoints whose body may be omitted:
// an empty body yields the zero value and no error.
func DecodeOptionalJSON[T any](r *http.Request) (T, error) {
	v, err := DecodeJSON[T](r)
	if errors.Is(err, ErrEmptyBody) {
		var zero T
		return zero, nil
	}
	return v, err
}

// FormValue reads a field from a url-encoded POST body. The second result
// reports whether the field was present at all, so "password=" (present,
// empty) can be told apart from a form without the field.
func FormValue(w http.ResponseWriter, r *http.Request, field string) (string, bool, error) {
	if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, MaxFormSize)
	}
	if err := r.ParseForm(); err != nil {
		return "", false, fmt.Errorf("failed to parse form: %w", err)
	}

	values, ok := r.PostForm[field]
	if !ok || len(values) == 0 {
		return "", false, nil
	}
	return values[0], true, nil
}
