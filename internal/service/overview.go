package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chat_practice_service/internal/domain"
	"chat_practice_service/internal/genai"
	"chat_practice_service/internal/repository"
	"chat_practice_service/pkg/logger"
)

const overviewCacheTTL = time.Hour

// ErrNoFeedback means no finalized submission exists to analyze yet.
var ErrNoFeedback = errors.New("no feedback available yet")

func assignmentOverviewCacheKey(assignmentID uuid.UUID) string {
	return "overview:assignment:" + assignmentID.String()
}

func studentOverviewCacheKey(studentID uuid.UUID) string {
	return "overview:student:" + studentID.String()
}

// OverviewService produces the aggregated feedback analyses for teachers
// and students. Results are cached because they are expensive to produce
// and change only when new feedback lands.
type OverviewService struct {
	submissionRepo SubmissionRepo
	assignmentRepo AssignmentRepo
	courseRepo     CourseRepo
	ai             ConversationAI
	cache          Cache
	logger         *logger.Logger
}

func NewOverviewService(
	submissionRepo SubmissionRepo,
	assignmentRepo AssignmentRepo,
	courseRepo CourseRepo,
	ai ConversationAI,
	cache Cache,
	log *logger.Logger,
) *OverviewService {
	return &OverviewService{
		submissionRepo: submissionRepo,
		assignmentRepo: assignmentRepo,
		courseRepo:     courseRepo,
		ai:             ai,
		cache:          cache,
		logger:         log,
	}
}

// AssignmentOverview analyzes all finalized feedback on one assignment.
// Owning teacher only.
func (s *OverviewService) AssignmentOverview(ctx context.Context, assignmentID uuid.UUID) (*domain.CohortOverview, error) {
	teacherID, err := requireTeacher(ctx)
	if err != nil {
		return nil, err
	}

	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	course, err := s.courseRepo.GetByID(ctx, assignment.CourseID)
	if err != nil {
		return nil, err
	}
	if course.TeacherID != teacherID {
		return nil, ErrPermissionDenied
	}

	key := assignmentOverviewCacheKey(assignmentID)
	if overview, ok := s.cachedOverview(ctx, key); ok {
		return overview, nil
	}

	submissions, err := s.submissionRepo.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	var feedback []genai.StudentFeedback
	for _, submission := range submissions {
		if !submission.HasFeedback() {
			continue
		}
		name := ""
		enrollment, err := s.courseRepo.GetEnrollment(ctx, course.ID, submission.StudentID)
		if err == nil {
			name = enrollment.FirstName
		}
		feedback = append(feedback, genai.StudentFeedback{
			Student:      name,
			Strengths:    submission.PosFeedback,
			Improvements: submission.NegFeedback,
		})
	}
	if len(feedback) == 0 {
		return nil, ErrNoFeedback
	}

	overview, err := s.ai.AssignmentOverview(ctx, feedback)
	if err != nil {
		return nil, err
	}

	s.storeOverview(ctx, key, overview)
	return overview, nil
}

// StudentOverview analyzes the authenticated student's feedback across all
// their finished assignments.
func (s *OverviewService) StudentOverview(ctx context.Context) (*domain.CohortOverview, error) {
	studentID, err := requireStudent(ctx)
	if err != nil {
		return nil, err
	}

	key := studentOverviewCacheKey(studentID)
	if overview, ok := s.cachedOverview(ctx, key); ok {
		return overview, nil
	}

	submissions, err := s.submissionRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	var feedback []genai.StudentFeedback
	for _, submission := range submissions {
		if !submission.HasFeedback() {
			continue
		}
		title := ""
		assignment, err := s.assignmentRepo.GetByID(ctx, submission.AssignmentID)
		if err == nil {
			title = assignment.Title
		}
		feedback = append(feedback, genai.StudentFeedback{
			Assignment:   title,
			Strengths:    submission.PosFeedback,
			Improvements: submission.NegFeedback,
		})
	}
	if len(feedback) == 0 {
		return nil, ErrNoFeedback
	}

	overview, err := s.ai.StudentOverview(ctx, feedback)
	if err != nil {
		return nil, err
	}

	s.storeOverview(ctx, key, overview)
	return overview, nil
}

func (s *OverviewService) cachedOverview(ctx context.Context, key string) (*domain.CohortOverview, bool) {
	data, ok := s.cache.Get(ctx, key)
	if !ok {
		return nil, false
	}

	var overview domain.CohortOverview
	if err := json.Unmarshal(data, &overview); err != nil {
		s.logger.Warn(ctx, "failed to decode cached overview", zap.String("key", key), zap.Error(err))
		s.cache.Delete(ctx, key)
		return nil, false
	}
	return &overview, true
}

func (s *OverviewService) storeOverview(ctx context.Context, key string, overview *domain.CohortOverview) {
	data, err := json.Marshal(overview)
	if err != nil {
		s.logger.Warn(ctx, "failed to encode overview for cache", zap.String("key", key), zap.Error(err))
		return
	}
	s.cache.Set(ctx, key, data, overviewCacheTTL)
}
