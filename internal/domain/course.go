package domain

import (
	"time"

	"github.com/google/uuid"
)

type Course struct {
	ID          uuid.UUID
	TeacherID   uuid.UUID
	Title       string
	Description *string
	Language    string
	Level       string
	CourseCode  string
	CreatedAt   time.Time
	EditedAt    time.Time
}

// Enrollment links a student to a course. CharacterMemories holds the
// personality notes generated at finalization, keyed by character id, so a
// character can recall the student in later assignments.
type Enrollment struct {
	CourseID          uuid.UUID
	StudentID         uuid.UUID
	FirstName         string
	LastName          string
	VocabList         []string
	CharacterMemories map[string][]string
	CreatedAt         time.Time
}
