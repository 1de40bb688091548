package note

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/redmonkez12/notes-api/internal/apperror"
	"github.com/redmonkez12/notes-api/internal/auth"
	"github.com/redmonkez12/notes-api/internal/httputil"
	"github.com/redmonkez12/notes-api/internal/logging"
)

const deletedMessage = "Note deleted successfully"

// Handler contains HTTP handlers for note endpoints
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CreateNoteRequest represents the create note body
type CreateNoteRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Color   string   `json:"color,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// UpdateNoteRequest represents a partial note. Absent fields are left as they are.
type UpdateNoteRequest struct {
	Title   *string   `json:"title,omitempty"`
	Content *string   `json:"content,omitempty"`
	Color   *string   `json:"color,omitempty"`
	Tags    *[]string `json:"tags,omitempty"`
}

// Create handles note creation
// @Summary      Create a note
// @Tags         notes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateNoteRequest true "Note"
// @Success      201 {object} Note
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      401 {object} httputil.ErrorResponse "Invalid or expired token"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /notes/create [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req CreateNoteRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid create note body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	created, err := h.service.Create(r.Context(), p.UserID, CreateInput{
		Title:   req.Title,
		Content: req.Content,
		Color:   req.Color,
		Tags:    req.Tags,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	logger.Info("note created", "user_id", p.UserID, "note_id", created.ID)
	httputil.RespondJSON(w, created, http.StatusCreated)
}

// List handles note listing
// @Summary      List notes
// @Description  Newest first. Search matches title, content or any tag, case-insensitively.
// @Tags         notes
// @Produce      json
// @Security     BearerAuth
// @Param        page   query int    false "Page number (1-based)"
// @Param        limit  query int    false "Page size (default 10, max 100)"
// @Param        search query string false "Substring to search for"
// @Param        color  query string false "Palette color"
// @Success      200 {object} ListResult
// @Failure      400 {object} httputil.ErrorResponse "Unknown color"
// @Failure      401 {object} httputil.ErrorResponse "Invalid or expired token"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /notes/get [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	query := r.URL.Query()

	result, err := h.service.List(r.Context(), p.UserID, ListQuery{
		Page:   queryInt(query.Get("page")),
		Limit:  queryInt(query.Get("limit")),
		Search: query.Get("search"),
		Color:  query.Get("color"),
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	httputil.RespondJSON(w, result, http.StatusOK)
}

// Get handles single note retrieval
// @Summary      Get a note
// @Tags         notes
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Note ID"
// @Success      200 {object} Note
// @Failure      401 {object} httputil.ErrorResponse "Invalid or expired token"
// @Failure      404 {object} httputil.ErrorResponse "Note not found"
// @Router       /notes/get/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}

	found, err := h.service.Get(r.Context(), p.UserID, id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	httputil.RespondJSON(w, found, http.StatusOK)
}

// Update handles partial note updates
// @Summary      Update a note
// @Description  Only the fields present in the body are changed. An empty tags array clears the tags.
// @Tags         notes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string            true "Note ID"
// @Param        request body UpdateNoteRequest true "Fields to change"
// @Success      200 {object} Note
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      401 {object} httputil.ErrorResponse "Invalid or expired token"
// @Failure      404 {object} httputil.ErrorResponse "Note not found"
// @Router       /notes/update/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, ok := noteID(w, r)
	if !ok {
		return
	}

	var req UpdateNoteRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid update note body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	updated, err := h.service.Update(r.Context(), p.UserID, id, Patch{
		Title:   req.Title,
		Content: req.Content,
		Color:   req.Color,
		Tags:    req.Tags,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	httputil.RespondJSON(w, updated, http.StatusOK)
}

// Delete handles note removal
// @Summary      Delete a note
// @Tags         notes
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Note ID"
// @Success      200 {object} httputil.MessageResponse
// @Failure      401 {object} httputil.ErrorResponse "Invalid or expired token"
// @Failure      404 {object} httputil.ErrorResponse "Note not found"
// @Router       /notes/remove/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, ok := noteID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), p.UserID, id); err != nil {
		respondServiceError(w, r, err)
		return
	}

	logger.Info("note deleted", "user_id", p.UserID, "note_id", id)
	httputil.RespondMessage(w, deletedMessage, http.StatusOK)
}

// noteID parses the {id} path parameter. Malformed ids are indistinguishable
// from missing notes.
func noteID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, ErrNotFound.Message, httputil.CodeNoteNotFound, http.StatusNotFound)
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperror.KindOf(err)
	status := apperror.HTTPStatus(kind)

	switch kind {
	case apperror.KindValidation:
		httputil.RespondErrorWithCode(w, apperror.MessageOf(err, "invalid request"), httputil.CodeValidationFailed, status)
	case apperror.KindNotFound:
		httputil.RespondErrorWithCode(w, apperror.MessageOf(err, ErrNotFound.Message), httputil.CodeNoteNotFound, status)
	default:
		logging.GetLoggerFromContext(r.Context()).Error("note request failed", "kind", kind.String(), "error", err.Error())
		httputil.RespondErrorWithCode(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
	}
}
