package domain

// FeedbackSummary is the structured result of finalizing a conversation:
// exactly three strengths, three improvements, and optionally three
// personality traits used as character memory.
type FeedbackSummary struct {
	Strengths         []string `json:"strengths"`
	Improvements      []string `json:"improvements"`
	PersonalityTraits []string `json:"personality_traits,omitempty"`
}

// CohortOverview is the teacher-facing analysis across many students'
// feedback for one assignment, or across one student's assignments.
type CohortOverview struct {
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}
