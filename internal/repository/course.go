package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"chat_practice_service/internal/domain"
)

const uniqueViolation = "23505"

type CourseRepository struct {
	db *sql.DB
}

func NewCourseRepository(db *sql.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `
	id, teacher_id, title, description, language, level, course_code,
	created_at, edited_at
`

func (r *CourseRepository) Create(ctx context.Context, course *domain.Course) error {
	query := `
		INSERT INTO courses
			(id, teacher_id, title, description, language, level, course_code,
			 created_at, edited_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate UUID: %w", err)
	}

	now := time.Now()
	_, err = r.db.ExecContext(ctx, query,
		id,
		course.TeacherID,
		course.Title,
		course.Description,
		course.Language,
		course.Level,
		course.CourseCode,
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create course: %w", err)
	}

	course.ID = id
	return nil
}

func (r *CourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	return scanCourse(r.db.QueryRowContext(ctx, query, id))
}

func (r *CourseRepository) GetByCode(ctx context.Context, code string) (*domain.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE course_code = $1`
	return scanCourse(r.db.QueryRowContext(ctx, query, code))
}

func (r *CourseRepository) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*domain.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE teacher_id = $1 ORDER BY created_at`
	return r.queryCourses(ctx, query, teacherID)
}

func (r *CourseRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.Course, error) {
	query := `
		SELECT c.id, c.teacher_id, c.title, c.description, c.language, c.level,
		       c.course_code, c.created_at, c.edited_at
		FROM courses c
		JOIN course_enrollments e ON e.course_id = c.id
		WHERE e.student_id = $1
		ORDER BY c.created_at
	`
	return r.queryCourses(ctx, query, studentID)
}

func (r *CourseRepository) queryCourses(ctx context.Context, query string, args ...interface{}) ([]*domain.Course, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var courses []*domain.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return courses, nil
}

// Enroll adds a student to a course. ErrAlreadyExists if the student is
// already enrolled.
func (r *CourseRepository) Enroll(ctx context.Context, enrollment *domain.Enrollment) error {
	query := `
		INSERT INTO course_enrollments
			(course_id, student_id, first_name, last_name, vocab_list,
			 character_memories, created_at)
		VALUES ($1, $2, $3, $4, '[]'::jsonb, '{}'::jsonb, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		enrollment.CourseID,
		enrollment.StudentID,
		enrollment.FirstName,
		enrollment.LastName,
		time.Now(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to enroll student: %w", err)
	}

	return nil
}

func (r *CourseRepository) GetEnrollment(ctx context.Context, courseID, studentID uuid.UUID) (*domain.Enrollment, error) {
	query := `
		SELECT course_id, student_id, first_name, last_name, vocab_list,
		       character_memories, created_at
		FROM course_enrollments
		WHERE course_id = $1 AND student_id = $2
	`

	var (
		enrollment   domain.Enrollment
		vocabJSON    []byte
		memoriesJSON []byte
	)
	err := r.db.QueryRowContext(ctx, query, courseID, studentID).Scan(
		&enrollment.CourseID,
		&enrollment.StudentID,
		&enrollment.FirstName,
		&enrollment.LastName,
		&vocabJSON,
		&memoriesJSON,
		&enrollment.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if len(vocabJSON) > 0 {
		if err := json.Unmarshal(vocabJSON, &enrollment.VocabList); err != nil {
			return nil, fmt.Errorf("failed to unmarshal vocab list: %w", err)
		}
	}
	if len(memoriesJSON) > 0 {
		if err := json.Unmarshal(memoriesJSON, &enrollment.CharacterMemories); err != nil {
			return nil, fmt.Errorf("failed to unmarshal character memories: %w", err)
		}
	}

	return &enrollment, nil
}

// ListEnrollments returns the course roster ordered by student name.
func (r *CourseRepository) ListEnrollments(ctx context.Context, courseID uuid.UUID) ([]*domain.Enrollment, error) {
	query := `
		SELECT course_id, student_id, first_name, last_name, vocab_list,
		       character_memories, created_at
		FROM course_enrollments
		WHERE course_id = $1
		ORDER BY last_name, first_name
	`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []*domain.Enrollment
	for rows.Next() {
		var (
			enrollment   domain.Enrollment
			vocabJSON    []byte
			memoriesJSON []byte
		)
		err := rows.Scan(
			&enrollment.CourseID,
			&enrollment.StudentID,
			&enrollment.FirstName,
			&enrollment.LastName,
			&vocabJSON,
			&memoriesJSON,
			&enrollment.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		if len(vocabJSON) > 0 {
			if err := json.Unmarshal(vocabJSON, &enrollment.VocabList); err != nil {
				return nil, fmt.Errorf("failed to unmarshal vocab list: %w", err)
			}
		}
		if len(memoriesJSON) > 0 {
			if err := json.Unmarshal(memoriesJSON, &enrollment.CharacterMemories); err != nil {
				return nil, fmt.Errorf("failed to unmarshal character memories: %w", err)
			}
		}
		enrollments = append(enrollments, &enrollment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return enrollments, nil
}

// AddVocabWord appends a word to the enrollment's saved vocabulary unless
// it is already present.
func (r *CourseRepository) AddVocabWord(ctx context.Context, courseID, studentID uuid.UUID, word string) error {
	query := `
		UPDATE course_enrollments
		SET vocab_list = vocab_list || to_jsonb($3::text)
		WHERE course_id = $1 AND student_id = $2
		  AND NOT vocab_list @> to_jsonb($3::text)
	`

	_, err := r.db.ExecContext(ctx, query, courseID, studentID, word)
	if err != nil {
		return fmt.Errorf("failed to save vocab word: %w", err)
	}
	return nil
}

// SetCharacterMemory stores the personality traits generated at
// finalization under the character's key.
func (r *CourseRepository) SetCharacterMemory(ctx context.Context, courseID, studentID uuid.UUID, characterID string, traits []string) error {
	traitsJSON, err := json.Marshal(traits)
	if err != nil {
		return fmt.Errorf("failed to marshal traits: %w", err)
	}

	query := `
		UPDATE course_enrollments
		SET character_memories = jsonb_set(character_memories, ARRAY[$3], $4::jsonb)
		WHERE course_id = $1 AND student_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, courseID, studentID, characterID, traitsJSON)
	if err != nil {
		return fmt.Errorf("failed to store character memory: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func scanCourse(row rowScanner) (*domain.Course, error) {
	var course domain.Course
	err := row.Scan(
		&course.ID,
		&course.TeacherID,
		&course.Title,
		&course.Description,
		&course.Language,
		&course.Level,
		&course.CourseCode,
		&course.CreatedAt,
		&course.EditedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &course, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
