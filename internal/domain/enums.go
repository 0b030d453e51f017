package domain

type UserRole string

const (
	UserRoleStudent UserRole = "student"
	UserRoleTeacher UserRole = "teacher"
)

type SubmissionStatus string

const (
	SubmissionStatusNotStarted SubmissionStatus = "not_started"
	SubmissionStatusInProgress SubmissionStatus = "in_progress"
	SubmissionStatusCompleted  SubmissionStatus = "completed"
)

func (s SubmissionStatus) IsValid() bool {
	switch s {
	case SubmissionStatusNotStarted, SubmissionStatusInProgress, SubmissionStatusCompleted:
		return true
	default:
		return false
	}
}

type Difficulty string

const (
	DifficultyStandard    Difficulty = "Standard"
	DifficultyChallenging Difficulty = "Challenging"
)

func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyStandard, DifficultyChallenging:
		return true
	default:
		return false
	}
}

func ToDifficulty(s string) Difficulty {
	switch s {
	case "Challenging":
		return DifficultyChallenging
	default:
		return DifficultyStandard
	}
}
