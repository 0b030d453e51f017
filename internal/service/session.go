package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chat_practice_service/internal/domain"
	"chat_practice_service/internal/genai"
	"chat_practice_service/internal/repository"
	"chat_practice_service/pkg/ctxdata"
	"chat_practice_service/pkg/logger"
)

type SessionState string

const (
	StateUninitialized        SessionState = "uninitialized"
	StateGreeting             SessionState = "greeting"
	StateAwaitingInput        SessionState = "awaiting_input"
	StateProcessingTurn       SessionState = "processing_turn"
	StateAwaitingFinalization SessionState = "awaiting_finalization"
	StateFinalized            SessionState = "finalized"
	StateLocked               SessionState = "locked"
)

const submissionCompletedTopic = "submission-completed"

// session is the per-(student, assignment) conversation state. The
// transient states (greeting, processing_turn) double as the in-flight
// guards: a second operation arriving while one is outstanding is rejected,
// not queued. Guards are per process, not distributed; cross-tab safety
// comes from the submission version check at the repository.
type session struct {
	mu         sync.Mutex
	state      SessionState
	lockReason string

	submission *domain.Submission
	assignment *domain.Assignment
	course     *domain.Course
	character  *domain.Character
	enrollment *domain.Enrollment
}

type sessionKey struct {
	studentID    uuid.UUID
	assignmentID uuid.UUID
}

// SessionView is the caller-facing snapshot of a session.
type SessionView struct {
	State      SessionState
	LockReason string
	Submission *domain.Submission
	Assignment *domain.Assignment
	Progress   float64
}

// TurnResult is the outcome of one completed exchange.
type TurnResult struct {
	Reply      string
	State      SessionState
	Submission *domain.Submission
}

type SessionService struct {
	mu       sync.Mutex
	sessions map[sessionKey]*session

	submissionRepo SubmissionRepo
	assignmentRepo AssignmentRepo
	courseRepo     CourseRepo
	characterRepo  CharacterRepo
	ai             ConversationAI
	producer       EventProducer
	logger         *logger.Logger

	now func() time.Time
}

func NewSessionService(
	submissionRepo SubmissionRepo,
	assignmentRepo AssignmentRepo,
	courseRepo CourseRepo,
	characterRepo CharacterRepo,
	ai ConversationAI,
	producer EventProducer,
	log *logger.Logger,
) *SessionService {
	return &SessionService{
		sessions:       make(map[sessionKey]*session),
		submissionRepo: submissionRepo,
		assignmentRepo: assignmentRepo,
		courseRepo:     courseRepo,
		characterRepo:  characterRepo,
		ai:             ai,
		producer:       producer,
		logger:         log,
		now:            time.Now,
	}
}

// Start creates (or resets to fresh) the submission for the pair and runs
// the one-time greeting. If a submission with history already exists the
// session resumes it untouched.
func (s *SessionService) Start(ctx context.Context, studentID, assignmentID uuid.UUID, characterID string) (*SessionView, error) {
	if err := s.authorizeStudent(ctx, studentID); err != nil {
		return nil, err
	}

	sess, err := s.loadSession(ctx, studentID, assignmentID, true)
	if err != nil {
		return nil, err
	}

	if locked, reason := sess.assignment.Availability(s.now()); locked {
		sess.mu.Lock()
		sess.state = StateLocked
		sess.lockReason = reason
		sess.mu.Unlock()
		return nil, &LockedError{Reason: reason}
	}

	sess.mu.Lock()
	if sess.state == StateGreeting {
		sess.mu.Unlock()
		return nil, ErrGreetingInFlight
	}
	if sess.submission != nil && len(sess.submission.ChatHistory) > 0 {
		// Resume: the greeting already happened for this submission.
		view := s.viewLocked(sess)
		sess.mu.Unlock()
		return view, nil
	}
	sess.state = StateGreeting
	sess.mu.Unlock()

	view, err := s.startFresh(ctx, sess, studentID, assignmentID, characterID)
	if err != nil {
		sess.mu.Lock()
		sess.state = StateUninitialized
		sess.mu.Unlock()
		return nil, err
	}
	return view, nil
}

func (s *SessionService) startFresh(ctx context.Context, sess *session, studentID, assignmentID uuid.UUID, characterID string) (*SessionView, error) {
	if characterID == "" {
		return nil, ErrCharacterNotFound
	}

	character, err := s.characterRepo.Get(ctx, characterID, sess.course.Language)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCharacterNotFound
		}
		return nil, err
	}

	submission, err := s.submissionRepo.Upsert(ctx, &domain.Submission{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		CharacterID:  characterID,
		Status:       domain.SubmissionStatusInProgress,
	})
	if err != nil {
		return nil, err
	}

	greeting, err := s.ai.Greet(ctx, s.promptContext(sess.assignment, sess.course, character, sess.enrollment, 0))
	if err != nil {
		return nil, err
	}

	history := []domain.Turn{{Role: domain.TurnRoleAssistant, Text: greeting}}
	submission, err = s.submissionRepo.UpdateProgress(
		ctx, submission.ID, submission.Version, history, 0, domain.SubmissionStatusInProgress,
	)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	sess.submission = submission
	sess.character = character
	sess.state = StateAwaitingInput
	view := s.viewLocked(sess)
	sess.mu.Unlock()
	return view, nil
}

// SendMessage runs one exchange: the user turn is persisted before the
// completion request, and the assistant turn plus the counter increment
// are persisted together afterwards.
func (s *SessionService) SendMessage(ctx context.Context, studentID, assignmentID uuid.UUID, text string) (*TurnResult, error) {
	if err := s.authorizeStudent(ctx, studentID); err != nil {
		return nil, err
	}

	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	sess, err := s.loadSession(ctx, studentID, assignmentID, false)
	if err != nil {
		return nil, err
	}

	if locked, reason := sess.assignment.Availability(s.now()); locked {
		sess.mu.Lock()
		sess.state = StateLocked
		sess.lockReason = reason
		sess.mu.Unlock()
		return nil, &LockedError{Reason: reason}
	}

	sess.mu.Lock()
	switch sess.state {
	case StateGreeting:
		sess.mu.Unlock()
		return nil, ErrGreetingInFlight
	case StateProcessingTurn:
		sess.mu.Unlock()
		return nil, ErrTurnInFlight
	case StateFinalized:
		sess.mu.Unlock()
		return nil, ErrConversationComplete
	}
	if sess.submission == nil || len(sess.submission.ChatHistory) == 0 {
		sess.mu.Unlock()
		return nil, ErrNotStarted
	}
	if sess.submission.CurrentExchangeCount >= sess.assignment.Exchanges {
		sess.mu.Unlock()
		return nil, ErrConversationComplete
	}
	prevState := sess.state
	sess.state = StateProcessingTurn
	submission := sess.submission
	sess.mu.Unlock()

	result, err := s.processTurn(ctx, sess, submission, text)
	if err != nil {
		sess.mu.Lock()
		sess.state = prevState
		sess.mu.Unlock()
		return nil, err
	}
	return result, nil
}

func (s *SessionService) processTurn(ctx context.Context, sess *session, submission *domain.Submission, text string) (*TurnResult, error) {
	historyWithUser := append(append([]domain.Turn{}, submission.ChatHistory...), domain.Turn{
		Role: domain.TurnRoleUser,
		Text: text,
	})

	// The user's input survives even if the completion request fails.
	submission, err := s.submissionRepo.UpdateProgress(
		ctx, submission.ID, submission.Version,
		historyWithUser, submission.CurrentExchangeCount, domain.SubmissionStatusInProgress,
	)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	sess.submission = submission
	sess.mu.Unlock()

	pc := s.promptContext(sess.assignment, sess.course, sess.character, sess.enrollment, submission.CurrentExchangeCount)
	reply, err := s.ai.Reply(ctx, pc, historyWithUser, text)
	if err != nil {
		return nil, err
	}

	fullHistory := append(historyWithUser, domain.Turn{Role: domain.TurnRoleAssistant, Text: reply})
	newCount := submission.CurrentExchangeCount + 1
	status := domain.SubmissionStatusInProgress
	if newCount >= sess.assignment.Exchanges {
		status = domain.SubmissionStatusCompleted
	}

	submission, err = s.submissionRepo.UpdateProgress(ctx, submission.ID, submission.Version, fullHistory, newCount, status)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	sess.submission = submission
	if newCount >= sess.assignment.Exchanges {
		sess.state = StateAwaitingFinalization
	} else {
		sess.state = StateAwaitingInput
	}
	state := sess.state
	sess.mu.Unlock()

	return &TurnResult{Reply: reply, State: state, Submission: submission}, nil
}

// Finalize converts the finished transcript into stored feedback. Calling
// it again after success is a no-op returning the stored submission.
func (s *SessionService) Finalize(ctx context.Context, studentID, assignmentID uuid.UUID) (*domain.Submission, error) {
	if err := s.authorizeStudent(ctx, studentID); err != nil {
		return nil, err
	}

	sess, err := s.loadSession(ctx, studentID, assignmentID, false)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	if sess.state == StateProcessingTurn || sess.state == StateGreeting {
		sess.mu.Unlock()
		return nil, ErrTurnInFlight
	}
	submission := sess.submission
	if submission == nil {
		sess.mu.Unlock()
		return nil, ErrSubmissionNotFound
	}
	if submission.SubmittedAt != nil && submission.HasFeedback() {
		sess.state = StateFinalized
		sess.mu.Unlock()
		return submission, nil
	}
	if submission.CurrentExchangeCount < sess.assignment.Exchanges {
		sess.mu.Unlock()
		return nil, ErrNotReadyToFinalize
	}
	sess.state = StateProcessingTurn
	sess.mu.Unlock()

	submission, err = s.finalize(ctx, sess, submission)

	sess.mu.Lock()
	if err != nil {
		sess.state = StateAwaitingFinalization
	} else {
		sess.submission = submission
		sess.state = StateFinalized
	}
	sess.mu.Unlock()

	return submission, err
}

func (s *SessionService) finalize(ctx context.Context, sess *session, submission *domain.Submission) (*domain.Submission, error) {
	pc := s.promptContext(sess.assignment, sess.course, sess.character, sess.enrollment, submission.CurrentExchangeCount)
	summary, err := s.ai.Summarize(ctx, pc, submission.ChatHistory)
	if err != nil {
		return nil, err
	}

	updated, err := s.submissionRepo.SetFeedback(
		ctx, submission.ID, submission.Version,
		summary.Strengths, summary.Improvements, s.now(),
	)
	if err != nil {
		return nil, err
	}

	// Character memory is best effort: its failure never fails finalization.
	if len(summary.PersonalityTraits) > 0 {
		err := s.courseRepo.SetCharacterMemory(ctx, sess.course.ID, submission.StudentID, submission.CharacterID, summary.PersonalityTraits)
		if err != nil {
			s.logger.Warn(ctx, "failed to store character memory",
				zap.String("submission_id", submission.ID.String()),
				zap.Error(err),
			)
		}
	}

	if err := s.producer.Send(ctx, submissionCompletedTopic, map[string]interface{}{
		"submission_id":  updated.ID,
		"assignment_id":  updated.AssignmentID,
		"student_id":     updated.StudentID,
		"exchange_count": updated.CurrentExchangeCount,
		"submitted_at":   updated.SubmittedAt,
	}); err != nil {
		s.logger.Warn(ctx, "failed to publish submission-completed event",
			zap.String("submission_id", updated.ID.String()),
			zap.Error(err),
		)
	}

	return updated, nil
}

// Restart blanks the submission in place and returns the session to its
// initial state. Allowed from any state except locked.
func (s *SessionService) Restart(ctx context.Context, studentID, assignmentID uuid.UUID) (*domain.Submission, error) {
	if err := s.authorizeStudent(ctx, studentID); err != nil {
		return nil, err
	}

	sess, err := s.loadSession(ctx, studentID, assignmentID, false)
	if err != nil {
		return nil, err
	}

	if locked, reason := sess.assignment.Availability(s.now()); locked {
		return nil, &LockedError{Reason: reason}
	}

	sess.mu.Lock()
	if sess.state == StateProcessingTurn || sess.state == StateGreeting {
		sess.mu.Unlock()
		return nil, ErrTurnInFlight
	}
	submission := sess.submission
	sess.mu.Unlock()

	if submission == nil {
		return nil, ErrSubmissionNotFound
	}

	reset, err := s.submissionRepo.Reset(ctx, submission.ID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	sess.submission = reset
	sess.state = StateUninitialized
	sess.lockReason = ""
	sess.mu.Unlock()

	return reset, nil
}

// View reports the current session snapshot, restoring state from storage
// when the session is not yet resident.
func (s *SessionService) View(ctx context.Context, studentID, assignmentID uuid.UUID) (*SessionView, error) {
	if err := s.authorizeStudent(ctx, studentID); err != nil {
		return nil, err
	}

	sess, err := s.loadSession(ctx, studentID, assignmentID, false)
	if err != nil {
		return nil, err
	}

	if locked, reason := sess.assignment.Availability(s.now()); locked {
		sess.mu.Lock()
		sess.state = StateLocked
		sess.lockReason = reason
		view := s.viewLocked(sess)
		sess.mu.Unlock()
		return view, nil
	}

	sess.mu.Lock()
	view := s.viewLocked(sess)
	sess.mu.Unlock()
	return view, nil
}

// Submission returns the caller's own submission for the assignment.
func (s *SessionService) Submission(ctx context.Context, studentID, assignmentID uuid.UUID) (*domain.Submission, error) {
	if err := s.authorizeStudent(ctx, studentID); err != nil {
		return nil, err
	}

	submission, err := s.submissionRepo.GetByPair(ctx, studentID, assignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return submission, nil
}

// loadSession returns the resident session for the pair, creating it from
// storage when absent. createIfMissing controls whether a missing
// submission row is acceptable (it is for Start, which will upsert one).
func (s *SessionService) loadSession(ctx context.Context, studentID, assignmentID uuid.UUID, createIfMissing bool) (*session, error) {
	key := sessionKey{studentID: studentID, assignmentID: assignmentID}

	s.mu.Lock()
	sess, ok := s.sessions[key]
	if !ok {
		sess = &session{state: StateUninitialized}
		s.sessions[key] = sess
	}
	s.mu.Unlock()

	sess.mu.Lock()
	needsContext := sess.assignment == nil
	needsSubmission := sess.submission == nil
	sess.mu.Unlock()

	if needsContext {
		assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrAssignmentNotFound
			}
			return nil, err
		}
		course, err := s.courseRepo.GetByID(ctx, assignment.CourseID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrCourseNotFound
			}
			return nil, err
		}
		enrollment, err := s.courseRepo.GetEnrollment(ctx, course.ID, studentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrNotEnrolled
			}
			return nil, err
		}

		sess.mu.Lock()
		sess.assignment = assignment
		sess.course = course
		sess.enrollment = enrollment
		sess.mu.Unlock()
	}

	if needsSubmission {
		submission, err := s.submissionRepo.GetByPair(ctx, studentID, assignmentID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if submission == nil && !createIfMissing {
			return nil, ErrSubmissionNotFound
		}

		var character *domain.Character
		if submission != nil && submission.CharacterID != "" {
			sess.mu.Lock()
			language := sess.course.Language
			sess.mu.Unlock()
			character, err = s.characterRepo.Get(ctx, submission.CharacterID, language)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
		}

		sess.mu.Lock()
		if sess.submission == nil && submission != nil {
			sess.submission = submission
			sess.character = character
			sess.state = deriveState(submission, sess.assignment)
		}
		sess.mu.Unlock()
	}

	return sess, nil
}

// deriveState restores the machine position from a persisted submission.
func deriveState(submission *domain.Submission, assignment *domain.Assignment) SessionState {
	switch {
	case len(submission.ChatHistory) == 0:
		return StateUninitialized
	case submission.SubmittedAt != nil && submission.HasFeedback():
		return StateFinalized
	case submission.CurrentExchangeCount >= assignment.Exchanges:
		return StateAwaitingFinalization
	default:
		return StateAwaitingInput
	}
}

func (s *SessionService) viewLocked(sess *session) *SessionView {
	view := &SessionView{
		State:      sess.state,
		LockReason: sess.lockReason,
		Submission: sess.submission,
		Assignment: sess.assignment,
	}
	if sess.submission != nil && sess.assignment != nil {
		view.Progress = sess.submission.Progress(sess.assignment.Exchanges)
	}
	return view
}

func (s *SessionService) promptContext(
	assignment *domain.Assignment,
	course *domain.Course,
	character *domain.Character,
	enrollment *domain.Enrollment,
	currentExchangeCount int,
) genai.PromptContext {
	pc := genai.PromptContext{
		Language:             course.Language,
		Level:                course.Level,
		Topic:                assignment.Topic,
		Scenario:             assignment.Scenario,
		Difficulty:           assignment.Difficulty,
		Exchanges:            assignment.Exchanges,
		CurrentExchangeCount: currentExchangeCount,
	}
	if assignment.Vocabulary != nil {
		pc.Vocabulary = *assignment.Vocabulary
	}
	if assignment.Grammar != nil {
		pc.Grammar = *assignment.Grammar
	}
	if character != nil {
		pc.CharacterID = character.CharacterID
		pc.CharacterDescription = character.Description
	}
	if enrollment != nil {
		pc.StudentName = enrollment.FirstName
		if character != nil {
			pc.Memory = enrollment.CharacterMemories[character.CharacterID]
		}
	}
	return pc
}

func (s *SessionService) authorizeStudent(ctx context.Context, studentID uuid.UUID) error {
	userID, ok := ctxdata.GetUserID(ctx)
	if !ok || userID != studentID.String() {
		return ErrPermissionDenied
	}
	return nil
}
