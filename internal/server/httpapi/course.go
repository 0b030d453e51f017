package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"chat_practice_service/internal/domain"
	"chat_practice_service/internal/service"
	"chat_practice_service/pkg/ctxdata"
)

type CourseHandler struct {
	courses     *service.CourseService
	assignments *service.AssignmentService
}

func NewCourseHandler(courses *service.CourseService, assignments *service.AssignmentService) *CourseHandler {
	return &CourseHandler{courses: courses, assignments: assignments}
}

func (h *CourseHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.With(authMiddleware).Group(func(r chi.Router) {
		r.Post("/", h.CreateCourse)
		r.Get("/", h.ListCourses)
		r.Post("/join", h.JoinCourse)
		r.Get("/{course_id}", h.GetCourse)
		r.Get("/{course_id}/roster", h.Roster)
		r.Get("/{course_id}/enrollments/{student_id}", h.GetEnrollment)
		r.Post("/{course_id}/vocab", h.SaveVocabWord)
		r.Get("/{course_id}/assignments", h.ListAssignments)
	})
}

type createCourseRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Language    string  `json:"language"`
	Level       string  `json:"level"`
}

func (h *CourseHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req createCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	course, err := h.courses.CreateCourse(r.Context(), service.CreateCourseInput{
		Title:       req.Title,
		Description: req.Description,
		Language:    req.Language,
		Level:       req.Level,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCourseResponse(course))
}

func (h *CourseHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	role, _ := ctxdata.GetUserRole(ctx)

	var (
		courses []*domain.Course
		err     error
	)
	if domain.UserRole(role) == domain.UserRoleTeacher {
		courses, err = h.courses.ListTeacherCourses(ctx)
	} else {
		courses, err = h.courses.ListStudentCourses(ctx)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCourseResponses(courses))
}

func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	courseID, err := parseUUIDParam(r, "course_id")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	course, err := h.courses.GetCourse(r.Context(), courseID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCourseResponse(course))
}

type joinCourseRequest struct {
	CourseCode string `json:"course_code"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
}

func (h *CourseHandler) JoinCourse(w http.ResponseWriter, r *http.Request) {
	var req joinCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	course, err := h.courses.JoinCourse(r.Context(), service.JoinCourseInput{
		CourseCode: req.CourseCode,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCourseResponse(course))
}

func (h *CourseHandler) Roster(w http.ResponseWriter, r *http.Request) {
	courseID, err := parseUUIDParam(r, "course_id")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	enrollments, err := h.courses.Roster(r.Context(), courseID)
	if err != nil {
		writeError(w, err)
		return
	}

	result := make([]enrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		result = append(result, toEnrollmentResponse(enrollment))
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *CourseHandler) GetEnrollment(w http.ResponseWriter, r *http.Request) {
	courseID, err := parseUUIDParam(r, "course_id")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	studentID, err := parseUUIDParam(r, "student_id")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	enrollment, err := h.courses.GetEnrollment(r.Context(), courseID, studentID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEnrollmentResponse(enrollment))
}

type saveVocabRequest struct {
	Word string `json:"word"`
}

func (h *CourseHandler) SaveVocabWord(w http.ResponseWriter, r *http.Request) {
	courseID, err := parseUUIDParam(r, "course_id")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	var req saveVocabRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.courses.SaveVocabWord(r.Context(), courseID, req.Word); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListAssignments returns the plain assignment list for teachers and the
// availability-annotated list for students.
func (h *CourseHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	courseID, err := parseUUIDParam(r, "course_id")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	role, _ := ctxdata.GetUserRole(ctx)
	if domain.UserRole(role) == domain.UserRoleTeacher {
		assignments, err := h.assignments.ListAssignments(ctx, courseID)
		if err != nil {
			writeError(w, err)
			return
		}
		result := make([]assignmentResponse, 0, len(assignments))
		for _, assignment := range assignments {
			result = append(result, toAssignmentResponse(assignment))
		}
		writeJSON(w, http.StatusOK, result)
		return
	}

	items, err := h.assignments.ListStudentAssignments(ctx, courseID)
	if err != nil {
		writeError(w, err)
		return
	}
	result := make([]studentAssignmentResponse, 0, len(items))
	for _, item := range items {
		result = append(result, studentAssignmentResponse{
			assignmentResponse: toAssignmentResponse(item.Assignment),
			Locked:             item.Locked,
			LockReason:         item.LockReason,
			Submission:         toSubmissionResponse(item.Submission),
		})
	}
	writeJSON(w, http.StatusOK, result)
}

func parseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	val := chi.URLParam(r, key)
	return uuid.Parse(val)
}
