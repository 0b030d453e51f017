package httpapi

import (
	"time"

	"github.com/google/uuid"

	"chat_practice_service/internal/domain"
	"chat_practice_service/internal/service"
)

type courseResponse struct {
	ID          uuid.UUID `json:"id"`
	TeacherID   uuid.UUID `json:"teacher_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Language    string    `json:"language"`
	Level       string    `json:"level"`
	CourseCode  string    `json:"course_code"`
	CreatedAt   time.Time `json:"created_at"`
}

func toCourseResponse(course *domain.Course) courseResponse {
	return courseResponse{
		ID:          course.ID,
		TeacherID:   course.TeacherID,
		Title:       course.Title,
		Description: course.Description,
		Language:    course.Language,
		Level:       course.Level,
		CourseCode:  course.CourseCode,
		CreatedAt:   course.CreatedAt,
	}
}

func toCourseResponses(courses []*domain.Course) []courseResponse {
	result := make([]courseResponse, 0, len(courses))
	for _, course := range courses {
		result = append(result, toCourseResponse(course))
	}
	return result
}

type enrollmentResponse struct {
	CourseID  uuid.UUID `json:"course_id"`
	StudentID uuid.UUID `json:"student_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	VocabList []string  `json:"vocab_list"`
	CreatedAt time.Time `json:"created_at"`
}

func toEnrollmentResponse(enrollment *domain.Enrollment) enrollmentResponse {
	return enrollmentResponse{
		CourseID:  enrollment.CourseID,
		StudentID: enrollment.StudentID,
		FirstName: enrollment.FirstName,
		LastName:  enrollment.LastName,
		VocabList: enrollment.VocabList,
		CreatedAt: enrollment.CreatedAt,
	}
}

type assignmentResponse struct {
	ID         uuid.UUID  `json:"id"`
	CourseID   uuid.UUID  `json:"course_id"`
	Title      string     `json:"title"`
	Topic      string     `json:"topic"`
	Scenario   string     `json:"scenario"`
	Difficulty string     `json:"difficulty"`
	Vocabulary *string    `json:"vocabulary,omitempty"`
	Grammar    *string    `json:"grammar,omitempty"`
	Exchanges  int        `json:"exchanges"`
	StartAt    time.Time  `json:"start_at"`
	DueAt      *time.Time `json:"due_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func toAssignmentResponse(assignment *domain.Assignment) assignmentResponse {
	return assignmentResponse{
		ID:         assignment.ID,
		CourseID:   assignment.CourseID,
		Title:      assignment.Title,
		Topic:      assignment.Topic,
		Scenario:   assignment.Scenario,
		Difficulty: string(assignment.Difficulty),
		Vocabulary: assignment.Vocabulary,
		Grammar:    assignment.Grammar,
		Exchanges:  assignment.Exchanges,
		StartAt:    assignment.StartAt,
		DueAt:      assignment.DueAt,
		CreatedAt:  assignment.CreatedAt,
	}
}

type studentAssignmentResponse struct {
	assignmentResponse
	Locked     bool                `json:"locked"`
	LockReason string              `json:"lock_reason,omitempty"`
	Submission *submissionResponse `json:"submission,omitempty"`
}

type submissionResponse struct {
	ID                   uuid.UUID     `json:"id"`
	AssignmentID         uuid.UUID     `json:"assignment_id"`
	StudentID            uuid.UUID     `json:"student_id"`
	CharacterID          string        `json:"character_id"`
	Status               string        `json:"status"`
	ChatHistory          []domain.Turn `json:"chat_history"`
	CurrentExchangeCount int           `json:"current_exchange_count"`
	PosFeedback          []string      `json:"pos_feedback,omitempty"`
	NegFeedback          []string      `json:"neg_feedback,omitempty"`
	SubmittedAt          *time.Time    `json:"submitted_at,omitempty"`
	Version              int           `json:"version"`
}

func toSubmissionResponse(submission *domain.Submission) *submissionResponse {
	if submission == nil {
		return nil
	}
	return &submissionResponse{
		ID:                   submission.ID,
		AssignmentID:         submission.AssignmentID,
		StudentID:            submission.StudentID,
		CharacterID:          submission.CharacterID,
		Status:               string(submission.Status),
		ChatHistory:          submission.ChatHistory,
		CurrentExchangeCount: submission.CurrentExchangeCount,
		PosFeedback:          submission.PosFeedback,
		NegFeedback:          submission.NegFeedback,
		SubmittedAt:          submission.SubmittedAt,
		Version:              submission.Version,
	}
}

type sessionResponse struct {
	State      string              `json:"state"`
	LockReason string              `json:"lock_reason,omitempty"`
	Progress   float64             `json:"progress"`
	Submission *submissionResponse `json:"submission,omitempty"`
}

func toSessionResponse(view *service.SessionView) sessionResponse {
	return sessionResponse{
		State:      string(view.State),
		LockReason: view.LockReason,
		Progress:   view.Progress,
		Submission: toSubmissionResponse(view.Submission),
	}
}

type turnResponse struct {
	Reply      string              `json:"reply"`
	State      string              `json:"state"`
	Submission *submissionResponse `json:"submission"`
}

type characterResponse struct {
	CharacterID string `json:"character_id"`
	Language    string `json:"language"`
	Description string `json:"description"`
}

func toCharacterResponses(characters []*domain.Character) []characterResponse {
	result := make([]characterResponse, 0, len(characters))
	for _, character := range characters {
		result = append(result, characterResponse{
			CharacterID: character.CharacterID,
			Language:    character.Language,
			Description: character.PublicDescription,
		})
	}
	return result
}

type overviewResponse struct {
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

func toOverviewResponse(overview *domain.CohortOverview) overviewResponse {
	return overviewResponse{
		Strengths:  overview.Strengths,
		Weaknesses: overview.Weaknesses,
	}
}
