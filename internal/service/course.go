package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"

	"chat_practice_service/internal/domain"
	"chat_practice_service/internal/repository"
	"chat_practice_service/pkg/logger"
)

const (
	courseCodeLength  = 6
	courseCodeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	courseCodeRetries = 5
)

type CreateCourseInput struct {
	Title       string
	Description *string
	Language    string
	Level       string
}

type JoinCourseInput struct {
	CourseCode string
	FirstName  string
	LastName   string
}

type CourseService struct {
	courseRepo CourseRepo
	logger     *logger.Logger
}

func NewCourseService(courseRepo CourseRepo, log *logger.Logger) *CourseService {
	return &CourseService{courseRepo: courseRepo, logger: log}
}

func (s *CourseService) CreateCourse(ctx context.Context, input CreateCourseInput) (*domain.Course, error) {
	teacherID, err := requireTeacher(ctx)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.Title) == "" ||
		strings.TrimSpace(input.Language) == "" ||
		strings.TrimSpace(input.Level) == "" {
		return nil, ErrInvalidArgument
	}

	course := &domain.Course{
		TeacherID:   teacherID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Language:    input.Language,
		Level:       input.Level,
	}

	// Regenerate on a code collision rather than failing the request.
	for attempt := 0; attempt < courseCodeRetries; attempt++ {
		code, err := generateCourseCode()
		if err != nil {
			return nil, err
		}
		course.CourseCode = code

		err = s.courseRepo.Create(ctx, course)
		if err == nil {
			return course, nil
		}
		if !errors.Is(err, repository.ErrAlreadyExists) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("failed to generate a unique course code")
}

func (s *CourseService) GetCourse(ctx context.Context, courseID uuid.UUID) (*domain.Course, error) {
	userID, role, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	course, err := s.getCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if err := s.requireMembership(ctx, course, userID, role); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) ListTeacherCourses(ctx context.Context) ([]*domain.Course, error) {
	teacherID, err := requireTeacher(ctx)
	if err != nil {
		return nil, err
	}
	return s.courseRepo.ListByTeacher(ctx, teacherID)
}

func (s *CourseService) ListStudentCourses(ctx context.Context) ([]*domain.Course, error) {
	studentID, err := requireStudent(ctx)
	if err != nil {
		return nil, err
	}
	return s.courseRepo.ListByStudent(ctx, studentID)
}

// JoinCourse enrolls the authenticated student into the course matching
// the given code. Joining a course twice is not an error.
func (s *CourseService) JoinCourse(ctx context.Context, input JoinCourseInput) (*domain.Course, error) {
	studentID, err := requireStudent(ctx)
	if err != nil {
		return nil, err
	}

	code := strings.ToUpper(strings.TrimSpace(input.CourseCode))
	if code == "" || strings.TrimSpace(input.FirstName) == "" {
		return nil, ErrInvalidArgument
	}

	course, err := s.courseRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	err = s.courseRepo.Enroll(ctx, &domain.Enrollment{
		CourseID:  course.ID,
		StudentID: studentID,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
	})
	if err != nil && !errors.Is(err, repository.ErrAlreadyExists) {
		return nil, err
	}

	return course, nil
}

// Roster returns the course's enrollments. Owning teacher only.
func (s *CourseService) Roster(ctx context.Context, courseID uuid.UUID) ([]*domain.Enrollment, error) {
	teacherID, err := requireTeacher(ctx)
	if err != nil {
		return nil, err
	}

	course, err := s.getCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.TeacherID != teacherID {
		return nil, ErrPermissionDenied
	}

	return s.courseRepo.ListEnrollments(ctx, courseID)
}

func (s *CourseService) GetEnrollment(ctx context.Context, courseID, studentID uuid.UUID) (*domain.Enrollment, error) {
	userID, role, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	course, err := s.getCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	// A student may read their own enrollment; the owning teacher any.
	if role == domain.UserRoleStudent && userID != studentID {
		return nil, ErrPermissionDenied
	}
	if role == domain.UserRoleTeacher && course.TeacherID != userID {
		return nil, ErrPermissionDenied
	}

	enrollment, err := s.courseRepo.GetEnrollment(ctx, courseID, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotEnrolled
		}
		return nil, err
	}
	return enrollment, nil
}

// SaveVocabWord appends a word to the student's saved vocabulary for the
// course. Duplicates are silently ignored.
func (s *CourseService) SaveVocabWord(ctx context.Context, courseID uuid.UUID, word string) error {
	studentID, err := requireStudent(ctx)
	if err != nil {
		return err
	}

	word = strings.TrimSpace(word)
	if word == "" {
		return ErrInvalidArgument
	}

	if _, err := s.courseRepo.GetEnrollment(ctx, courseID, studentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotEnrolled
		}
		return err
	}

	return s.courseRepo.AddVocabWord(ctx, courseID, studentID, word)
}

func (s *CourseService) getCourse(ctx context.Context, courseID uuid.UUID) (*domain.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return course, nil
}

func (s *CourseService) requireMembership(ctx context.Context, course *domain.Course, userID uuid.UUID, role domain.UserRole) error {
	if role == domain.UserRoleTeacher {
		if course.TeacherID != userID {
			return ErrPermissionDenied
		}
		return nil
	}

	if _, err := s.courseRepo.GetEnrollment(ctx, course.ID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotEnrolled
		}
		return err
	}
	return nil
}

func generateCourseCode() (string, error) {
	code := make([]byte, courseCodeLength)
	max := big.NewInt(int64(len(courseCodeCharset)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate course code: %w", err)
		}
		code[i] = courseCodeCharset[n.Int64()]
	}
	return string(code), nil
}
