package domain

import (
	"time"

	"github.com/google/uuid"
)

type TurnRole string

const (
	TurnRoleUser      TurnRole = "user"
	TurnRoleAssistant TurnRole = "assistant"
)

// Turn is one entry of a submission's chat history. The sequence is
// append-only and is the only context the completion client receives.
type Turn struct {
	Role TurnRole `json:"role"`
	Text string   `json:"text"`
}

type Submission struct {
	ID                   uuid.UUID
	AssignmentID         uuid.UUID
	StudentID            uuid.UUID
	CharacterID          string
	Status               SubmissionStatus
	ChatHistory          []Turn
	CurrentExchangeCount int
	PosFeedback          []string
	NegFeedback          []string
	SubmittedAt          *time.Time
	Version              int
	CreatedAt            time.Time
	EditedAt             time.Time
}

// Progress is the display fraction, clamped to [0, 1]. The underlying
// counter is never clamped and may exceed the required total.
func (s *Submission) Progress(requiredExchanges int) float64 {
	if requiredExchanges <= 0 {
		return 0
	}
	p := float64(s.CurrentExchangeCount) / float64(requiredExchanges)
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}

func (s *Submission) HasFeedback() bool {
	return len(s.PosFeedback) > 0 || len(s.NegFeedback) > 0
}
