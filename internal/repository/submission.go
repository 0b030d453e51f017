package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"chat_practice_service/internal/domain"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrVersionConflict = errors.New("submission version conflict")
)

type SubmissionRepository struct {
	db *sql.DB
}

func NewSubmissionRepository(db *sql.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

const submissionColumns = `
	id, assignment_id, student_id, character_id, status, chat_history,
	current_exchange_count, pos_feedback, neg_feedback, submitted_at,
	version, created_at, edited_at
`

// Upsert inserts a submission for the (student, assignment) pair or, if one
// already exists, rewrites it to a fresh start with the given character.
// One submission per pair is enforced by the unique constraint the conflict
// target names.
func (r *SubmissionRepository) Upsert(ctx context.Context, submission *domain.Submission) (*domain.Submission, error) {
	query := `
		INSERT INTO submissions
			(id, assignment_id, student_id, character_id, status, chat_history,
			 current_exchange_count, pos_feedback, neg_feedback, submitted_at,
			 version, created_at, edited_at)
		VALUES ($1, $2, $3, $4, $5, '[]'::jsonb, 0, NULL, NULL, NULL, 1, $6, $6)
		ON CONFLICT (student_id, assignment_id) DO UPDATE SET
			character_id = EXCLUDED.character_id,
			status = EXCLUDED.status,
			chat_history = '[]'::jsonb,
			current_exchange_count = 0,
			pos_feedback = NULL,
			neg_feedback = NULL,
			submitted_at = NULL,
			version = submissions.version + 1,
			edited_at = EXCLUDED.edited_at
		RETURNING ` + submissionColumns

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate UUID: %w", err)
	}

	row := r.db.QueryRowContext(ctx, query,
		id,
		submission.AssignmentID,
		submission.StudentID,
		submission.CharacterID,
		submission.Status,
		time.Now(),
	)

	return scanSubmission(row)
}

func (r *SubmissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	return scanSubmission(r.db.QueryRowContext(ctx, query, id))
}

func (r *SubmissionRepository) GetByPair(ctx context.Context, studentID, assignmentID uuid.UUID) (*domain.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE student_id = $1 AND assignment_id = $2`
	return scanSubmission(r.db.QueryRowContext(ctx, query, studentID, assignmentID))
}

func (r *SubmissionRepository) ListByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]*domain.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE assignment_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, assignmentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var submissions []*domain.Submission
	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, submission)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return submissions, nil
}

// ListByStudent returns the student's submissions across every assignment,
// newest first.
func (r *SubmissionRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE student_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var submissions []*domain.Submission
	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, submission)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return submissions, nil
}

// UpdateProgress persists history, counter and status in a single write.
// The expected version rejects writes racing another client on the same
// submission; the version column advances on success.
func (r *SubmissionRepository) UpdateProgress(
	ctx context.Context,
	id uuid.UUID,
	expectedVersion int,
	history []domain.Turn,
	exchangeCount int,
	status domain.SubmissionStatus,
) (*domain.Submission, error) {
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat history: %w", err)
	}

	query := `
		UPDATE submissions
		SET chat_history = $1, current_exchange_count = $2, status = $3,
		    version = version + 1, edited_at = $4
		WHERE id = $5 AND version = $6
		RETURNING ` + submissionColumns

	row := r.db.QueryRowContext(ctx, query, historyJSON, exchangeCount, status, time.Now(), id, expectedVersion)
	submission, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, r.classifyMissingRow(ctx, id)
		}
		return nil, err
	}
	return submission, nil
}

// SetFeedback stores the finalization result. Same versioning rules as
// UpdateProgress.
func (r *SubmissionRepository) SetFeedback(
	ctx context.Context,
	id uuid.UUID,
	expectedVersion int,
	posFeedback, negFeedback []string,
	submittedAt time.Time,
) (*domain.Submission, error) {
	posJSON, err := json.Marshal(posFeedback)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal feedback: %w", err)
	}
	negJSON, err := json.Marshal(negFeedback)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal feedback: %w", err)
	}

	query := `
		UPDATE submissions
		SET pos_feedback = $1, neg_feedback = $2, status = $3,
		    submitted_at = $4, version = version + 1, edited_at = $5
		WHERE id = $6 AND version = $7
		RETURNING ` + submissionColumns

	row := r.db.QueryRowContext(ctx, query,
		posJSON, negJSON, domain.SubmissionStatusCompleted, submittedAt, time.Now(), id, expectedVersion,
	)
	submission, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, r.classifyMissingRow(ctx, id)
		}
		return nil, err
	}
	return submission, nil
}

// Reset blanks the submission in place: history and feedback cleared,
// counter zeroed, status back to not_started. The row survives so
// referential history does.
func (r *SubmissionRepository) Reset(ctx context.Context, id uuid.UUID) (*domain.Submission, error) {
	query := `
		UPDATE submissions
		SET chat_history = '[]'::jsonb, current_exchange_count = 0,
		    status = $1, pos_feedback = NULL, neg_feedback = NULL,
		    submitted_at = NULL, version = version + 1, edited_at = $2
		WHERE id = $3
		RETURNING ` + submissionColumns

	return scanSubmission(r.db.QueryRowContext(ctx, query, domain.SubmissionStatusNotStarted, time.Now(), id))
}

func (r *SubmissionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM submissions WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete submission: %w", err)
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

// classifyMissingRow distinguishes a stale version from a deleted row after
// a guarded update matched nothing.
func (r *SubmissionRepository) classifyMissingRow(ctx context.Context, id uuid.UUID) error {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM submissions WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return ErrVersionConflict
	}
	return ErrNotFound
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(row rowScanner) (*domain.Submission, error) {
	var (
		submission  domain.Submission
		historyJSON []byte
		posJSON     []byte
		negJSON     []byte
	)

	err := row.Scan(
		&submission.ID,
		&submission.AssignmentID,
		&submission.StudentID,
		&submission.CharacterID,
		&submission.Status,
		&historyJSON,
		&submission.CurrentExchangeCount,
		&posJSON,
		&negJSON,
		&submission.SubmittedAt,
		&submission.Version,
		&submission.CreatedAt,
		&submission.EditedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if len(historyJSON) > 0 {
		if err := json.Unmarshal(historyJSON, &submission.ChatHistory); err != nil {
			return nil, fmt.Errorf("failed to unmarshal chat history: %w", err)
		}
	}
	if len(posJSON) > 0 {
		if err := json.Unmarshal(posJSON, &submission.PosFeedback); err != nil {
			return nil, fmt.Errorf("failed to unmarshal feedback: %w", err)
		}
	}
	if len(negJSON) > 0 {
		if err := json.Unmarshal(negJSON, &submission.NegFeedback); err != nil {
			return nil, fmt.Errorf("failed to unmarshal feedback: %w", err)
		}
	}

	return &submission, nil
}
