package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat_practice_service/internal/genai"
	"chat_practice_service/internal/repository"
	"chat_practice_service/internal/service"
)

func TestMapErr(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"EmptyMessage", service.ErrEmptyMessage, http.StatusBadRequest},
		{"InvalidArgument", service.ErrInvalidArgument, http.StatusBadRequest},
		{"NotStarted", service.ErrNotStarted, http.StatusBadRequest},
		{"PermissionDenied", service.ErrPermissionDenied, http.StatusForbidden},
		{"NotEnrolled", service.ErrNotEnrolled, http.StatusForbidden},
		{"AssignmentNotFound", service.ErrAssignmentNotFound, http.StatusNotFound},
		{"SubmissionNotFound", service.ErrSubmissionNotFound, http.StatusNotFound},
		{"NoFeedback", service.ErrNoFeedback, http.StatusNotFound},
		{"TurnInFlight", service.ErrTurnInFlight, http.StatusConflict},
		{"GreetingInFlight", service.ErrGreetingInFlight, http.StatusConflict},
		{"ConversationComplete", service.ErrConversationComplete, http.StatusConflict},
		{"NotReadyToFinalize", service.ErrNotReadyToFinalize, http.StatusConflict},
		{"VersionConflict", repository.ErrVersionConflict, http.StatusConflict},
		{"AlreadyExists", repository.ErrAlreadyExists, http.StatusConflict},
		{"Locked", &service.LockedError{Reason: "Closed (Due date passed)."}, http.StatusLocked},
		{"Overloaded", genai.ErrOverloaded, http.StatusServiceUnavailable},
		{"WrappedOverloaded", fmt.Errorf("after 7 attempts: %w", genai.ErrOverloaded), http.StatusServiceUnavailable},
		{"Unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, mapErr(tt.err))
		})
	}
}

func TestWriteError(t *testing.T) {
	t.Run("LockedReasonIsExposed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		writeError(rec, &service.LockedError{Reason: "Opens Mar 12, 2026 09:30"})

		assert.Equal(t, http.StatusLocked, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Opens Mar 12, 2026 09:30", body["error"])
	})

	t.Run("InternalDetailIsMasked", func(t *testing.T) {
		rec := httptest.NewRecorder()
		writeError(rec, errors.New("pq: connection refused"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, http.StatusText(http.StatusInternalServerError), body["error"])
	})
}
