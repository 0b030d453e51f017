package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"chat_practice_service/internal/domain"
	"chat_practice_service/internal/genai"
)

// ConversationAI is the tagged boundary to the text-completion provider.
// Implementations translate these operations to whatever wire shape the
// provider needs.
type ConversationAI interface {
	Greet(ctx context.Context, p genai.PromptContext) (string, error)
	Reply(ctx context.Context, p genai.PromptContext, history []domain.Turn, message string) (string, error)
	Summarize(ctx context.Context, p genai.PromptContext, history []domain.Turn) (*domain.FeedbackSummary, error)
	AssignmentOverview(ctx context.Context, feedback []genai.StudentFeedback) (*domain.CohortOverview, error)
	StudentOverview(ctx context.Context, feedback []genai.StudentFeedback) (*domain.CohortOverview, error)
}

type EventProducer interface {
	Send(ctx context.Context, topic string, message interface{}) error
}

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

type SubmissionRepo interface {
	Upsert(ctx context.Context, submission *domain.Submission) (*domain.Submission, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Submission, error)
	GetByPair(ctx context.Context, studentID, assignmentID uuid.UUID) (*domain.Submission, error)
	ListByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]*domain.Submission, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.Submission, error)
	UpdateProgress(ctx context.Context, id uuid.UUID, expectedVersion int, history []domain.Turn, exchangeCount int, status domain.SubmissionStatus) (*domain.Submission, error)
	SetFeedback(ctx context.Context, id uuid.UUID, expectedVersion int, posFeedback, negFeedback []string, submittedAt time.Time) (*domain.Submission, error)
	Reset(ctx context.Context, id uuid.UUID) (*domain.Submission, error)
}

type AssignmentRepo interface {
	Create(ctx context.Context, assignment *domain.Assignment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Assignment, error)
	ListByCourse(ctx context.Context, courseID uuid.UUID) ([]*domain.Assignment, error)
	FindAssignmentsDueSoon(ctx context.Context, window time.Duration) ([]*domain.Assignment, error)
	Update(ctx context.Context, assignment *domain.Assignment) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type CourseRepo interface {
	Create(ctx context.Context, course *domain.Course) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error)
	GetByCode(ctx context.Context, code string) (*domain.Course, error)
	ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*domain.Course, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.Course, error)
	Enroll(ctx context.Context, enrollment *domain.Enrollment) error
	GetEnrollment(ctx context.Context, courseID, studentID uuid.UUID) (*domain.Enrollment, error)
	ListEnrollments(ctx context.Context, courseID uuid.UUID) ([]*domain.Enrollment, error)
	AddVocabWord(ctx context.Context, courseID, studentID uuid.UUID, word string) error
	SetCharacterMemory(ctx context.Context, courseID, studentID uuid.UUID, characterID string, traits []string) error
}

type CharacterRepo interface {
	Get(ctx context.Context, characterID, language string) (*domain.Character, error)
	ListByLanguage(ctx context.Context, language string) ([]*domain.Character, error)
}
