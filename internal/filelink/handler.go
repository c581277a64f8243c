package filelink

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sundayezeilo/filedrop/internal/errx"
	"github.com/sundayezeilo/filedrop/internal/httpx"
	"github.com/sundayezeilo/filedrop/internal/pages"
)

const (
	msgTryLater        = "Sorry, an error occurred. Please try again later."
	msgResolveFailed   = "Something went wrong on our end. Please try again in some time."
	msgPasswordMissing = "Please enter the password."
	msgPasswordWrong   = "Incorrect password."
)

// UploadResponse is returned by the upload endpoint.
type UploadResponse struct {
	UploadURL string `json:"UploadURL"`
	Key       string `json:"Key"`
}

// CreateLinkResponse carries the new link id.
type CreateLinkResponse struct {
	URL string `json:"URL"`
}

// HTTPCreateLinkRequest is the optional JSON body of the create endpoint.
type HTTPCreateLinkRequest struct {
	Password *string `json:"password"`
}

// createFailureResponse reports whether the uploaded object was removed
// after the link could not be stored.
type createFailureResponse struct {
	Error        string `json:"error"`
	Message      string `json:"message"`
	ObjectDelete bool   `json:"object_delete"`
}

// Handler provides the HTTP endpoints for uploads and links.
type Handler struct {
	service Service
	logger  *slog.Logger
	pages   *pages.Renderer
}

// HandlerConfig holds configuration for the handler.
type HandlerConfig struct {
	Service Service
	Logger  *slog.Logger
	Pages   *pages.Renderer
}

// NewHandler creates a new Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		service: cfg.Service,
		logger:  logger,
		pages:   cfg.Pages,
	}
}

func (h *Handler) requestLogger(r *http.Request) *slog.Logger {
	return h.logger.With(
		"request_id", httpx.GetRequestID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
	)
}

// SignUpload handles GET /signed-url-upload/{key}.
func (h *Handler) SignUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	ticket, err := h.service.IssueUpload(ctx, r.PathValue("key"))
	if err != nil {
		h.writeJSONError(ctx, logger, w, err, msgTryLater)
		return
	}

	logger.InfoContext(ctx, "upload url issued", "key", ticket.Key)

	httpx.WriteJSON(w, http.StatusOK, UploadResponse{
		UploadURL: ticket.UploadURL,
		Key:       ticket.Key,
	})
}

// CreateLink handles POST /custom-uri/{key}/{ttl}. The body is optional; when
// present it may carry a password.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	expires, err := strconv.ParseInt(r.PathValue("ttl"), 10, 64)
	if err != nil {
		logger.WarnContext(ctx, "invalid ttl", "ttl", r.PathValue("ttl"))
		httpx.WriteError(w, http.StatusBadRequest, "invalid_input", "ttl must be a unix timestamp in seconds", nil)
		return
	}

	body, err := httpx.DecodeOptionalJSON[HTTPCreateLinkRequest](r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	link, err := h.service.Create(ctx, CreateLinkRequest{
		Key:      r.PathValue("key"),
		Expires:  expires,
		Password: body.Password,
	})
	if err != nil {
		var ce *CreateError
		if errors.As(err, &ce) {
			logger.ErrorContext(ctx, "link write failed",
				"error", err.Error(),
				"operation", errx.OpOf(err),
				"cleanup", ce.Cleanup.String(),
			)
			httpx.WriteJSON(w, http.StatusInternalServerError, createFailureResponse{
				Error:        httpx.CodeFor(errx.KindOf(err)),
				Message:      msgTryLater,
				ObjectDelete: ce.ObjectDeleted(),
			})
			return
		}
		h.writeJSONError(ctx, logger, w, err, msgTryLater)
		return
	}

	logger.InfoContext(ctx, "link created",
		"random_uri", link.RandomURI.String(),
		"expires", link.Expires,
		"protected", link.Protected(),
	)

	httpx.WriteJSON(w, http.StatusCreated, CreateLinkResponse{URL: link.RandomURI.String()})
}

// ResolveAsset handles GET /asset/{custom_id}: open links redirect, protected
// links get the password form.
func (h *Handler) ResolveAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)
	rawID := r.PathValue("custom_id")

	res, err := h.service.Resolve(ctx, rawID)
	if err != nil {
		h.writeAssetError(ctx, logger, w, err, rawID)
		return
	}

	if res.Outcome == OutcomePasswordRequired {
		h.writePrompt(ctx, logger, w, http.StatusOK, rawID, "")
		return
	}

	httpx.Redirect(w, r, res.Download.URL, http.StatusTemporaryRedirect)
}

// UnlockAsset handles POST /asset/{custom_id} with a form-encoded password.
func (h *Handler) UnlockAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)
	rawID := r.PathValue("custom_id")

	var password *string
	value, present, err := httpx.FormValue(w, r, "password")
	if err != nil {
		logger.WarnContext(ctx, "unreadable password form", "error", err.Error())
	} else if present {
		password = &value
	}

	res, err := h.service.Unlock(ctx, rawID, password)
	if err != nil {
		h.writeAssetError(ctx, logger, w, err, rawID)
		return
	}

	httpx.Redirect(w, r, res.Download.URL, http.StatusFound)
}

func (h *Handler) writeJSONError(ctx context.Context, logger *slog.Logger, w http.ResponseWriter, err error, message string) {
	kind := errx.KindOf(err)
	attrs := []any{
		"error", err.Error(),
		"error_kind", kind.String(),
		"operation", errx.OpOf(err),
	}

	if kind == errx.Invalid {
		logger.WarnContext(ctx, "invalid request", attrs...)
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeFor(kind), reason(err), nil)
		return
	}

	logger.ErrorContext(ctx, "request failed", attrs...)
	httpx.WriteError(w, httpx.StatusFor(kind), httpx.CodeFor(kind), message, nil)
}

func (h *Handler) writeAssetError(ctx context.Context, logger *slog.Logger, w http.ResponseWriter, err error, rawID string) {
	kind := errx.KindOf(err)
	attrs := []any{
		"error", err.Error(),
		"error_kind", kind.String(),
		"operation", errx.OpOf(err),
	}

	switch kind {
	case errx.NotFound:
		logger.InfoContext(ctx, "link not found", attrs...)
		body, rerr := h.pages.NotFound()
		if rerr != nil {
			h.writeRenderError(ctx, logger, w, rerr)
			return
		}
		httpx.WriteHTML(w, http.StatusNotFound, body)

	case errx.Invalid:
		logger.InfoContext(ctx, "password missing", attrs...)
		h.writePrompt(ctx, logger, w, http.StatusUnauthorized, rawID, msgPasswordMissing)

	case errx.Unauthorized:
		logger.WarnContext(ctx, "wrong password", attrs...)
		h.writePrompt(ctx, logger, w, http.StatusUnauthorized, rawID, msgPasswordWrong)

	default:
		logger.ErrorContext(ctx, "link resolution failed", attrs...)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeFor(kind), msgResolveFailed, nil)
	}
}

func (h *Handler) writePrompt(ctx context.Context, logger *slog.Logger, w http.ResponseWriter, status int, rawID, message string) {
	body, err := h.pages.PasswordPrompt("/asset/"+url.PathEscape(rawID), message)
	if err != nil {
		h.writeRenderError(ctx, logger, w, err)
		return
	}
	httpx.WriteHTML(w, status, body)
}

func (h *Handler) writeRenderError(ctx context.Context, logger *slog.Logger, w http.ResponseWriter, err error) {
	logger.ErrorContext(ctx, "failed to render page", "error", err.Error())
	httpx.WriteError(w, http.StatusInternalServerError, "internal_error", msgResolveFailed, nil)
}

// reason strips the op labels off a validation error so only the message
// written for the client remains.
func reason(err error) string {
	for {
		e, ok := err.(*errx.Error)
		if !ok || e.Err == nil {
			break
		}
		err = e.Err
	}
	return err.Error()
}
