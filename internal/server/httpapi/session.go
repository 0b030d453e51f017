package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"chat_practice_service/internal/service"
	"chat_practice_service/pkg/ctxdata"
)

type SessionHandler struct {
	sessions *service.SessionService
}

func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.With(authMiddleware).Get("/{assignment_id}/submission", h.GetSubmission)
	r.With(authMiddleware).Route("/{assignment_id}/session", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Post("/start", h.Start)
		r.Post("/message", h.SendMessage)
		r.Post("/finalize", h.Finalize)
		r.Post("/restart", h.Restart)
	})
}

func (h *SessionHandler) sessionIDs(r *http.Request) (studentID, assignmentID uuid.UUID, err error) {
	rawID, ok := ctxdata.GetUserID(r.Context())
	if !ok {
		return uuid.Nil, uuid.Nil, service.ErrPermissionDenied
	}
	studentID, err = uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, uuid.Nil, service.ErrPermissionDenied
	}
	assignmentID, err = parseUUIDParam(r, "assignment_id")
	if err != nil {
		return uuid.Nil, uuid.Nil, service.ErrInvalidArgument
	}
	return studentID, assignmentID, nil
}

func (h *SessionHandler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	studentID, assignmentID, err := h.sessionIDs(r)
	if err != nil {
		writeError(w, err)
		return
	}

	submission, err := h.sessions.Submission(r.Context(), studentID, assignmentID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSubmissionResponse(submission))
}

func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	studentID, assignmentID, err := h.sessionIDs(r)
	if err != nil {
		writeError(w, err)
		return
	}

	view, err := h.sessions.View(r.Context(), studentID, assignmentID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(view))
}

type startSessionRequest struct {
	CharacterID string `json:"character_id"`
}

func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	studentID, assignmentID, err := h.sessionIDs(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.sessions.Start(r.Context(), studentID, assignmentID, req.CharacterID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(view))
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

func (h *SessionHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	studentID, assignmentID, err := h.sessionIDs(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.sessions.SendMessage(r.Context(), studentID, assignmentID, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, turnResponse{
		Reply:      result.Reply,
		State:      string(result.State),
		Submission: toSubmissionResponse(result.Submission),
	})
}

func (h *SessionHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	studentID, assignmentID, err := h.sessionIDs(r)
	if err != nil {
		writeError(w, err)
		return
	}

	submission, err := h.sessions.Finalize(r.Context(), studentID, assignmentID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSubmissionResponse(submission))
}

func (h *SessionHandler) Restart(w http.ResponseWriter, r *http.Request) {
	studentID, assignmentID, err := h.sessionIDs(r)
	if err != nil {
		writeError(w, err)
		return
	}

	submission, err := h.sessions.Restart(r.Context(), studentID, assignmentID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSubmissionResponse(submission))
}
