package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"chat_practice_service/internal/service"
)

type AssignmentHandler struct {
	assignments *service.AssignmentService
	overviews   *service.OverviewService
}

func NewAssignmentHandler(assignments *service.AssignmentService, overviews *service.OverviewService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments, overviews: overviews}
}

func (h *AssignmentHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.With(authMiddleware).Group(func(r chi.Router) {
		r.Post("/", h.CreateAssignment)
		r.Get("/{assignment_id}", h.GetAssignment)
		r.Patch("/{assignment_id}", h.UpdateAssignment)
		r.Delete("/{assignment_id}", h.DeleteAssignment)
		r.Get("/{assignment_id}/submissions", h.ListSubmissions)
		r.Get("/{assignment_id}/overview", h.AssignmentOverview)
	})
}

type assignmentRequest struct {
	CourseID   string     `json:"course_id"`
	Title      string     `json:"title"`
	Topic      string     `json:"topic"`
	Scenario   string     `json:"scenario"`
	Difficulty string     `json:"difficulty"`
	Vocabulary *string    `json:"vocabulary"`
	Grammar    *string    `json:"grammar"`
	Exchanges  int        `json:"exchanges"`
	StartAt    *time.Time `json:"start_at"`
	DueAt      *time.Time `json:"due_at"`
}

func (req *assignmentRequest) toInput() (service.AssignmentInput, error) {
	input := service.AssignmentInput{
		Title:      req.Title,
		Topic:      req.Topic,
		Scenario:   req.Scenario,
		Difficulty: req.Difficulty,
		Vocabulary: req.Vocabulary,
		Grammar:    req.Grammar,
		Exchanges:  req.Exchanges,
		DueAt:      req.DueAt,
	}
	if req.StartAt != nil {
		input.StartAt = *req.StartAt
	}
	if req.CourseID != "" {
		courseID, err := uuid.Parse(req.CourseID)
		if err != nil {
			return input, err
		}
		input.CourseID = courseID
	}
	return input, nil
}

func (h *AssignmentHandler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req assignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input, err := req.toInput()
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid course id")
		return
	}

	assignment, err := h.assignments.CreateAssignment(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAssignmentResponse(assignment))
}

func (h *AssignmentHandler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := parseUUIDParam(r, "assignment_id")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	assignment, err := h.assignments.GetAssignment(r.Context(), assignmentID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAssignmentResponse(assignment))
}

func (h *AssignmentHandler) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := parseUUIDParam(r, "assignment_id")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	var req assignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input, err := req.toInput()
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid course id")
		return
	}

	assignment, err := h.assignments.UpdateAssignment(r.Context(), assignmentID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAssignmentResponse(assignment))
}

func (h *AssignmentHandler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := parseUUIDParam(r, "assignment_id")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.assignments.DeleteAssignment(r.Context(), assignmentID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AssignmentHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := parseUUIDParam(r, "assignment_id")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	submissions, err := h.assignments.ListSubmissions(r.Context(), assignmentID)
	if err != nil {
		writeError(w, err)
		return
	}

	result := make([]*submissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		result = append(result, toSubmissionResponse(submission))
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *AssignmentHandler) AssignmentOverview(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := parseUUIDParam(r, "assignment_id")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	overview, err := h.overviews.AssignmentOverview(r.Context(), assignmentID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOverviewResponse(overview))
}
