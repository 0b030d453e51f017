package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"chat_practice_service/internal/domain"
	"chat_practice_service/internal/repository"
	"chat_practice_service/pkg/logger"
)

const maxExchanges = 50

type AssignmentInput struct {
	CourseID   uuid.UUID
	Title      string
	Topic      string
	Scenario   string
	Difficulty string
	Vocabulary *string
	Grammar    *string
	Exchanges  int
	StartAt    time.Time
	DueAt      *time.Time
}

// StudentAssignment pairs an assignment with its availability and the
// student's own submission, if any.
type StudentAssignment struct {
	Assignment *domain.Assignment
	Submission *domain.Submission
	Locked     bool
	LockReason string
}

type AssignmentService struct {
	assignmentRepo AssignmentRepo
	submissionRepo SubmissionRepo
	courseRepo     CourseRepo
	cache          Cache
	logger         *logger.Logger

	now func() time.Time
}

func NewAssignmentService(
	assignmentRepo AssignmentRepo,
	submissionRepo SubmissionRepo,
	courseRepo CourseRepo,
	cache Cache,
	log *logger.Logger,
) *AssignmentService {
	return &AssignmentService{
		assignmentRepo: assignmentRepo,
		submissionRepo: submissionRepo,
		courseRepo:     courseRepo,
		cache:          cache,
		logger:         log,
		now:            time.Now,
	}
}

func (s *AssignmentService) CreateAssignment(ctx context.Context, input AssignmentInput) (*domain.Assignment, error) {
	if _, err := s.requireCourseOwner(ctx, input.CourseID); err != nil {
		return nil, err
	}
	if err := validateAssignmentInput(input); err != nil {
		return nil, err
	}

	assignment := assignmentFromInput(input)
	if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

func (s *AssignmentService) GetAssignment(ctx context.Context, assignmentID uuid.UUID) (*domain.Assignment, error) {
	userID, role, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	assignment, err := s.getAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	if err := s.requireCourseMembership(ctx, assignment.CourseID, userID, role); err != nil {
		return nil, err
	}
	return assignment, nil
}

func (s *AssignmentService) ListAssignments(ctx context.Context, courseID uuid.UUID) ([]*domain.Assignment, error) {
	userID, role, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.requireCourseMembership(ctx, courseID, userID, role); err != nil {
		return nil, err
	}
	return s.assignmentRepo.ListByCourse(ctx, courseID)
}

// ListStudentAssignments returns the course's assignments annotated with
// the lock status and the student's own submission.
func (s *AssignmentService) ListStudentAssignments(ctx context.Context, courseID uuid.UUID) ([]*StudentAssignment, error) {
	studentID, err := requireStudent(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.requireCourseMembership(ctx, courseID, studentID, domain.UserRoleStudent); err != nil {
		return nil, err
	}

	assignments, err := s.assignmentRepo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	result := make([]*StudentAssignment, 0, len(assignments))
	for _, assignment := range assignments {
		item := &StudentAssignment{Assignment: assignment}
		item.Locked, item.LockReason = assignment.Availability(now)

		submission, err := s.submissionRepo.GetByPair(ctx, studentID, assignment.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		item.Submission = submission

		result = append(result, item)
	}
	return result, nil
}

func (s *AssignmentService) UpdateAssignment(ctx context.Context, assignmentID uuid.UUID, input AssignmentInput) (*domain.Assignment, error) {
	assignment, err := s.getAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireCourseOwner(ctx, assignment.CourseID); err != nil {
		return nil, err
	}

	input.CourseID = assignment.CourseID
	if err := validateAssignmentInput(input); err != nil {
		return nil, err
	}

	updated := assignmentFromInput(input)
	updated.ID = assignment.ID
	updated.CreatedAt = assignment.CreatedAt
	if err := s.assignmentRepo.Update(ctx, updated); err != nil {
		return nil, err
	}

	s.cache.Delete(ctx, assignmentOverviewCacheKey(assignmentID))
	return updated, nil
}

func (s *AssignmentService) DeleteAssignment(ctx context.Context, assignmentID uuid.UUID) error {
	assignment, err := s.getAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}
	if _, err := s.requireCourseOwner(ctx, assignment.CourseID); err != nil {
		return err
	}

	if err := s.assignmentRepo.Delete(ctx, assignmentID); err != nil {
		return err
	}

	s.cache.Delete(ctx, assignmentOverviewCacheKey(assignmentID))
	return nil
}

// ListSubmissions returns every submission for the assignment. Owning
// teacher only.
func (s *AssignmentService) ListSubmissions(ctx context.Context, assignmentID uuid.UUID) ([]*domain.Submission, error) {
	assignment, err := s.getAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireCourseOwner(ctx, assignment.CourseID); err != nil {
		return nil, err
	}
	return s.submissionRepo.ListByAssignment(ctx, assignmentID)
}

func (s *AssignmentService) getAssignment(ctx context.Context, assignmentID uuid.UUID) (*domain.Assignment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	return assignment, nil
}

func (s *AssignmentService) requireCourseOwner(ctx context.Context, courseID uuid.UUID) (*domain.Course, error) {
	teacherID, err := requireTeacher(ctx)
	if err != nil {
		return nil, err
	}

	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	if course.TeacherID != teacherID {
		return nil, ErrPermissionDenied
	}
	return course, nil
}

func (s *AssignmentService) requireCourseMembership(ctx context.Context, courseID, userID uuid.UUID, role domain.UserRole) error {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCourseNotFound
		}
		return err
	}

	if role == domain.UserRoleTeacher {
		if course.TeacherID != userID {
			return ErrPermissionDenied
		}
		return nil
	}

	if _, err := s.courseRepo.GetEnrollment(ctx, courseID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotEnrolled
		}
		return err
	}
	return nil
}

func validateAssignmentInput(input AssignmentInput) error {
	if strings.TrimSpace(input.Title) == "" ||
		strings.TrimSpace(input.Topic) == "" ||
		strings.TrimSpace(input.Scenario) == "" {
		return ErrInvalidArgument
	}
	if input.Exchanges < 1 || input.Exchanges > maxExchanges {
		return ErrInvalidArgument
	}
	if !input.StartAt.IsZero() && input.DueAt != nil && !input.StartAt.Before(*input.DueAt) {
		return ErrInvalidArgument
	}
	return nil
}

func assignmentFromInput(input AssignmentInput) *domain.Assignment {
	return &domain.Assignment{
		CourseID:   input.CourseID,
		Title:      strings.TrimSpace(input.Title),
		Topic:      strings.TrimSpace(input.Topic),
		Scenario:   strings.TrimSpace(input.Scenario),
		Difficulty: domain.ToDifficulty(input.Difficulty),
		Vocabulary: input.Vocabulary,
		Grammar:    input.Grammar,
		Exchanges:  input.Exchanges,
		StartAt:    input.StartAt,
		DueAt:      input.DueAt,
	}
}
