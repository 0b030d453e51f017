package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"chat_practice_service/internal/domain"
)

type AssignmentRepository struct {
	db *sql.DB
}

func NewAssignmentRepository(db *sql.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentColumns = `
	id, course_id, title, topic, scenario, difficulty, vocabulary, grammar,
	exchanges, start_at, due_at, created_at, edited_at
`

func (r *AssignmentRepository) Create(ctx context.Context, assignment *domain.Assignment) error {
	query := `
		INSERT INTO assignments
			(id, course_id, title, topic, scenario, difficulty, vocabulary,
			 grammar, exchanges, start_at, due_at, created_at, edited_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate UUID: %w", err)
	}

	now := time.Now()
	_, err = r.db.ExecContext(ctx, query,
		id,
		assignment.CourseID,
		assignment.Title,
		assignment.Topic,
		assignment.Scenario,
		assignment.Difficulty,
		assignment.Vocabulary,
		assignment.Grammar,
		assignment.Exchanges,
		assignment.StartAt,
		assignment.DueAt,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}

	assignment.ID = id
	return nil
}

func (r *AssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = $1`

	assignment, err := scanAssignment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return assignment, nil
}

func (r *AssignmentRepository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE course_id = $1 ORDER BY start_at`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var assignments []*domain.Assignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, assignment)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return assignments, nil
}

// FindAssignmentsDueSoon returns assignments whose due date falls within
// the given window and that still have submissions short of completion.
func (r *AssignmentRepository) FindAssignmentsDueSoon(ctx context.Context, window time.Duration) ([]*domain.Assignment, error) {
	query := `
		SELECT DISTINCT ` + assignmentColumns + `
		FROM assignments a
		WHERE a.due_at IS NOT NULL
		  AND a.due_at BETWEEN NOW() AND $1
		  AND EXISTS (
			SELECT 1 FROM submissions s
			WHERE s.assignment_id = a.id AND s.status <> 'completed'
		  )
	`

	deadline := time.Now().Add(window)
	rows, err := r.db.QueryContext(ctx, query, deadline)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var assignments []*domain.Assignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, assignment)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return assignments, nil
}

func (r *AssignmentRepository) Update(ctx context.Context, assignment *domain.Assignment) error {
	query := `
		UPDATE assignments
		SET title = $1, topic = $2, scenario = $3, difficulty = $4,
		    vocabulary = $5, grammar = $6, exchanges = $7, start_at = $8,
		    due_at = $9, edited_at = $10
		WHERE id = $11
	`

	result, err := r.db.ExecContext(ctx, query,
		assignment.Title,
		assignment.Topic,
		assignment.Scenario,
		assignment.Difficulty,
		assignment.Vocabulary,
		assignment.Grammar,
		assignment.Exchanges,
		assignment.StartAt,
		assignment.DueAt,
		time.Now(),
		assignment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update assignment: %w", err)
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

func (r *AssignmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM assignments WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
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

func scanAssignment(row rowScanner) (*domain.Assignment, error) {
	var assignment domain.Assignment
	err := row.Scan(
		&assignment.ID,
		&assignment.CourseID,
		&assignment.Title,
		&assignment.Topic,
		&assignment.Scenario,
		&assignment.Difficulty,
		&assignment.Vocabulary,
		&assignment.Grammar,
		&assignment.Exchanges,
		&assignment.StartAt,
		&assignment.DueAt,
		&assignment.CreatedAt,
		&assignment.EditedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}
