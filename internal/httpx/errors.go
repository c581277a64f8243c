package httpx

import (
	"net/http"

	"github.com/sundayezeilo/filedrop/internal/errx"
)

type kindResponse struct {
	status int
	code   string
}

// Storage collaborators failing (Unavailable) still surface as a plain 500;
// only the code tells them apart from bugs.
var kindResponses = map[errx.Kind]kindResponse{
	errx.NotFound:     {http.StatusNotFound, "not_found"},
	errx.Invalid:      {http.StatusBadRequest, "invalid_input"},
	errx.Unauthorized: {http.StatusUnauthorized, "unauthorized"},
	errx.Unavailable:  {http.StatusInternalServerError, "unavailable"},
}

var fallbackResponse = kindResponse{http.StatusInternalServerError, "internal_error"}

func responseFor(kind errx.Kind) kindResponse {
	if r, ok := kindResponses[kind]; ok {
		return r
	}
	return fallbackResponse
}

// StatusFor maps an error kind to the HTTP status used by JSON endpoints.
func StatusFor(kind errx.Kind) int { return responseFor(kind).status }

// CodeFor maps an error kind to the machine-readable "error" field.
func CodeFor(kind errx.Kind) string { return responseFor(kind).code }
