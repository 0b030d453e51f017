package service_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"chat_practice_service/internal/domain"
	"chat_practice_service/internal/genai"
)

type MockSubmissionRepo struct {
	mock.Mock
}

func (m *MockSubmissionRepo) Upsert(ctx context.Context, submission *domain.Submission) (*domain.Submission, error) {
	args := m.Called(ctx, submission)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Submission), args.Error(1)
}

func (m *MockSubmissionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Submission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Submission), args.Error(1)
}

func (m *MockSubmissionRepo) GetByPair(ctx context.Context, studentID, assignmentID uuid.UUID) (*domain.Submission, error) {
	args := m.Called(ctx, studentID, assignmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Submission), args.Error(1)
}

func (m *MockSubmissionRepo) ListByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]*domain.Submission, error) {
	args := m.Called(ctx, assignmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Submission), args.Error(1)
}

func (m *MockSubmissionRepo) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.Submission, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Submission), args.Error(1)
}

func (m *MockSubmissionRepo) UpdateProgress(ctx context.Context, id uuid.UUID, expectedVersion int, history []domain.Turn, exchangeCount int, status domain.SubmissionStatus) (*domain.Submission, error) {
	args := m.Called(ctx, id, expectedVersion, history, exchangeCount, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Submission), args.Error(1)
}

func (m *MockSubmissionRepo) SetFeedback(ctx context.Context, id uuid.UUID, expectedVersion int, posFeedback, negFeedback []string, submittedAt time.Time) (*domain.Submission, error) {
	args := m.Called(ctx, id, expectedVersion, posFeedback, negFeedback, submittedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Submission), args.Error(1)
}

func (m *MockSubmissionRepo) Reset(ctx context.Context, id uuid.UUID) (*domain.Submission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Submission), args.Error(1)
}

type MockAssignmentRepo struct {
	mock.Mock
}

func (m *MockAssignmentRepo) Create(ctx context.Context, assignment *domain.Assignment) error {
	args := m.Called(ctx, assignment)
	return args.Error(0)
}

func (m *MockAssignmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Assignment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Assignment), args.Error(1)
}

func (m *MockAssignmentRepo) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]*domain.Assignment, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Assignment), args.Error(1)
}

func (m *MockAssignmentRepo) FindAssignmentsDueSoon(ctx context.Context, window time.Duration) ([]*domain.Assignment, error) {
	args := m.Called(ctx, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Assignment), args.Error(1)
}

func (m *MockAssignmentRepo) Update(ctx context.Context, assignment *domain.Assignment) error {
	args := m.Called(ctx, assignment)
	return args.Error(0)
}

func (m *MockAssignmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockCourseRepo struct {
	mock.Mock
}

func (m *MockCourseRepo) Create(ctx context.Context, course *domain.Course) error {
	args := m.Called(ctx, course)
	return args.Error(0)
}

func (m *MockCourseRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Course), args.Error(1)
}

func (m *MockCourseRepo) GetByCode(ctx context.Context, code string) (*domain.Course, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Course), args.Error(1)
}

func (m *MockCourseRepo) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*domain.Course, error) {
	args := m.Called(ctx, teacherID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Course), args.Error(1)
}

func (m *MockCourseRepo) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.Course, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Course), args.Error(1)
}

func (m *MockCourseRepo) Enroll(ctx context.Context, enrollment *domain.Enrollment) error {
	args := m.Called(ctx, enrollment)
	return args.Error(0)
}

func (m *MockCourseRepo) GetEnrollment(ctx context.Context, courseID, studentID uuid.UUID) (*domain.Enrollment, error) {
	args := m.Called(ctx, courseID, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Enrollment), args.Error(1)
}

func (m *MockCourseRepo) ListEnrollments(ctx context.Context, courseID uuid.UUID) ([]*domain.Enrollment, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Enrollment), args.Error(1)
}

func (m *MockCourseRepo) AddVocabWord(ctx context.Context, courseID, studentID uuid.UUID, word string) error {
	args := m.Called(ctx, courseID, studentID, word)
	return args.Error(0)
}

func (m *MockCourseRepo) SetCharacterMemory(ctx context.Context, courseID, studentID uuid.UUID, characterID string, traits []string) error {
	args := m.Called(ctx, courseID, studentID, characterID, traits)
	return args.Error(0)
}

type MockCharacterRepo struct {
	mock.Mock
}

func (m *MockCharacterRepo) Get(ctx context.Context, characterID, language string) (*domain.Character, error) {
	args := m.Called(ctx, characterID, language)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Character), args.Error(1)
}

func (m *MockCharacterRepo) ListByLanguage(ctx context.Context, language string) ([]*domain.Character, error) {
	args := m.Called(ctx, language)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Character), args.Error(1)
}

type MockConversationAI struct {
	mock.Mock
}

func (m *MockConversationAI) Greet(ctx context.Context, p genai.PromptContext) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

func (m *MockConversationAI) Reply(ctx context.Context, p genai.PromptContext, history []domain.Turn, message string) (string, error) {
	args := m.Called(ctx, p, history, message)
	return args.String(0), args.Error(1)
}

func (m *MockConversationAI) Summarize(ctx context.Context, p genai.PromptContext, history []domain.Turn) (*domain.FeedbackSummary, error) {
	args := m.Called(ctx, p, history)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeedbackSummary), args.Error(1)
}

func (m *MockConversationAI) AssignmentOverview(ctx context.Context, feedback []genai.StudentFeedback) (*domain.CohortOverview, error) {
	args := m.Called(ctx, feedback)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CohortOverview), args.Error(1)
}

func (m *MockConversationAI) StudentOverview(ctx context.Context, feedback []genai.StudentFeedback) (*domain.CohortOverview, error) {
	args := m.Called(ctx, feedback)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CohortOverview), args.Error(1)
}

type MockEventProducer struct {
	mock.Mock
}

func (m *MockEventProducer) Send(ctx context.Context, topic string, message interface{}) error {
	args := m.Called(ctx, topic, message)
	return args.Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, bool) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).([]byte), args.Bool(1)
}

func (m *MockCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	m.Called(ctx, key, data, ttl)
}

func (m *MockCache) Delete(ctx context.Context, key string) {
	m.Called(ctx, key)
}
