package service

import (
	"errors"
	"fmt"
)

var (
	ErrPermissionDenied     = errors.New("permission denied")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrNotEnrolled          = errors.New("student is not enrolled in this course")
	ErrEmptyMessage         = errors.New("message is empty")
	ErrNotStarted           = errors.New("conversation has not been started")
	ErrTurnInFlight         = errors.New("a turn is already in flight")
	ErrGreetingInFlight     = errors.New("greeting generation is already in flight")
	ErrConversationComplete = errors.New("conversation already reached the required exchange count")
	ErrNotReadyToFinalize   = errors.New("conversation has not reached the required exchange count")
	ErrAssignmentNotFound   = errors.New("assignment not found")
	ErrSubmissionNotFound   = errors.New("submission not found")
	ErrCharacterNotFound    = errors.New("character not found")
	ErrCourseNotFound       = errors.New("course not found")
)

// LockedError reports that the assignment's availability window excludes
// the current time. Reason is the human-readable string shown to students.
type LockedError struct {
	Reason string
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("assignment is locked: %s", e.Reason)
}

func IsLocked(err error) bool {
	var lockedErr *LockedError
	return errors.As(err, &lockedErr)
}
