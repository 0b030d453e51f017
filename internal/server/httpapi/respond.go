package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"chat_practice_service/internal/genai"
	"chat_practice_service/internal/repository"
	"chat_practice_service/internal/service"
)

func mapErr(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidArgument),
		errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrNotStarted):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrPermissionDenied),
		errors.Is(err, service.ErrNotEnrolled):
		return http.StatusForbidden
	case errors.Is(err, service.ErrAssignmentNotFound),
		errors.Is(err, service.ErrSubmissionNotFound),
		errors.Is(err, service.ErrCourseNotFound),
		errors.Is(err, service.ErrCharacterNotFound),
		errors.Is(err, service.ErrNoFeedback),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrTurnInFlight),
		errors.Is(err, service.ErrGreetingInFlight),
		errors.Is(err, service.ErrConversationComplete),
		errors.Is(err, service.ErrNotReadyToFinalize),
		errors.Is(err, repository.ErrAlreadyExists),
		errors.Is(err, repository.ErrVersionConflict):
		return http.StatusConflict
	case service.IsLocked(err):
		return http.StatusLocked
	case genai.IsOverloaded(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errMessage keeps internal detail out of responses except for errors the
// client is meant to act on.
func errMessage(err error, statusCode int) string {
	var lockedErr *service.LockedError
	if errors.As(err, &lockedErr) {
		return lockedErr.Reason
	}
	if statusCode == http.StatusInternalServerError {
		return http.StatusText(statusCode)
	}
	return err.Error()
}

func writeErrorJSON(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	resp, _ := json.Marshal(map[string]string{"error": message})
	w.Write(resp)
}

func writeError(w http.ResponseWriter, err error) {
	statusCode := mapErr(err)
	writeErrorJSON(w, statusCode, errMessage(err, statusCode))
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		writeErrorJSON(w, http.StatusInternalServerError, "failed to serialize response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(data)
}
