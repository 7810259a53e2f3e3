package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/phrazzld/capsule-api/internal/api/shared"
	"github.com/phrazzld/capsule-api/internal/domain"
	"github.com/phrazzld/capsule-api/internal/platform/logger"
	"github.com/phrazzld/capsule-api/internal/service"
)

// maxUploadBytes caps the in-memory portion of a multipart capsule upload.
const maxUploadBytes = 32 << 20

// CapsuleHandler handles capsule authoring and retrieval API requests.
type CapsuleHandler struct {
	capsuleService service.CapsuleService
	logger         *slog.Logger
}

// NewCapsuleHandler creates a new CapsuleHandler with the given dependencies.
func NewCapsuleHandler(capsuleService service.CapsuleService, logger *slog.Logger) *CapsuleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CapsuleHandler{
		capsuleService: capsuleService,
		logger:         logger.With(slog.String("component", "capsule_handler")),
	}
}

// Create handles POST /capsules. The body is a multipart form with fields
// title, description, delivery_at (RFC 3339), recipient_email, method,
// privacy, text_content, and any number of files under "media".
func (h *CapsuleHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	title := r.FormValue("title")
	if title == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid title: required field")
		return
	}

	deliveryAt, err := time.Parse(time.RFC3339, r.FormValue("delivery_at"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			"Invalid delivery_at: expected RFC 3339 timestamp")
		return
	}

	input := service.CreateCapsuleInput{
		Title:          title,
		Description:    r.FormValue("description"),
		DeliveryAt:     deliveryAt,
		Method:         domain.DeliveryMethod(r.FormValue("method")),
		Privacy:        domain.PrivacyStatus(r.FormValue("privacy")),
		Text:           r.FormValue("text_content"),
		RecipientEmail: r.FormValue("recipient_email"),
	}

	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["media"] {
			file, err := header.Open()
			if err != nil {
				shared.RespondWithError(w, r, http.StatusBadRequest, "Unreadable uploaded file")
				return
			}
			defer func() { _ = file.Close() }()

			input.Files = append(input.Files, service.FileUpload{
				FileName:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Body:        file,
			})
		}
	}

	view, err := h.capsuleService.Create(r.Context(), userID, input)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Info("capsule created",
		slog.String("capsule_id", view.Capsule.ID.String()),
		slog.String("user_id", userID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, view)
}

// List handles GET /capsules.
func (h *CapsuleHandler) List(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	capsules, err := h.capsuleService.List(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list capsules")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, capsules)
}

// Get handles GET /capsules/{id}.
func (h *CapsuleHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, capsuleID, ok := handleUserIDAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	view, err := h.capsuleService.Get(r.Context(), userID, capsuleID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, view)
}

// Delete handles DELETE /capsules/{id}.
func (h *CapsuleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, capsuleID, ok := handleUserIDAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.capsuleService.Delete(r.Context(), userID, capsuleID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Open handles GET /capsules/open/{access_token}. It is unauthenticated;
// the access token is the capability. Malformed tokens get the same 404 as
// unknown ones.
func (h *CapsuleHandler) Open(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	accessToken, err := uuid.Parse(chi.URLParam(r, "access_token"))
	if err != nil {
		log.Debug("malformed capsule access token")
		shared.RespondWithError(w, r, http.StatusNotFound, "Not found")
		return
	}

	view, err := h.capsuleService.Open(r.Context(), accessToken)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, view)
}
