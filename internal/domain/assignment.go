package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Assignment struct {
	ID         uuid.UUID
	CourseID   uuid.UUID
	Title      string
	Topic      string
	Scenario   string
	Difficulty Difficulty
	Vocabulary *string
	Grammar    *string
	Exchanges  int
	StartAt    time.Time
	DueAt      *time.Time
	CreatedAt  time.Time
	EditedAt   time.Time
}

type AssignmentFilter struct {
	CourseID uuid.UUID
	DueSoon  time.Duration
}

// Availability reports whether the assignment accepts interaction at the
// given time. The reason is the human-readable string shown to the student.
func (a *Assignment) Availability(now time.Time) (locked bool, reason string) {
	if now.Before(a.StartAt) {
		return true, fmt.Sprintf("Opens %s", a.StartAt.Format("Jan 2, 2006 15:04"))
	}
	if a.DueAt != nil && now.After(*a.DueAt) {
		return true, "Closed (Due date passed)."
	}
	return false, ""
}
