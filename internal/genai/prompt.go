package genai

import (
	"encoding/json"
	"fmt"
	"strings"

	"chat_practice_service/internal/domain"
)

// PromptContext carries the assignment and student context the system
// instruction is built from.
type PromptContext struct {
	Language             string
	Level                string
	Topic                string
	Scenario             string
	CharacterID          string
	CharacterDescription string
	Grammar              string
	Vocabulary           string
	Difficulty           domain.Difficulty
	Exchanges            int
	CurrentExchangeCount int
	StudentName          string
	Memory               []string
}

func (p PromptContext) systemInstruction() string {
	var b strings.Builder

	studentName := p.StudentName
	if studentName == "" {
		studentName = "a student"
	}

	fmt.Fprintf(&b, "You are %s (a speaker of %s). You are currently in a conversation with %s, with the goal of improving their %s speaking skills.\n\n",
		p.CharacterID, p.Language, studentName, p.Language)

	b.WriteString("STUDENT PROFILE:\n")
	if p.StudentName != "" {
		fmt.Fprintf(&b, "- Name: %s\n", p.StudentName)
	}
	fmt.Fprintf(&b, "- Proficiency: %s\n", p.Level)
	if p.Difficulty == domain.DifficultyChallenging {
		b.WriteString("- Current Mode: Challenge Mode (Speak slightly above their level)\n")
	} else {
		b.WriteString("Do NOT use vocabulary or grammar above the student's level.\n")
	}
	if len(p.Memory) > 0 {
		fmt.Fprintf(&b, "- Personality from past conversations: %s\n", strings.Join(p.Memory, ", "))
	}

	b.WriteString("\nYOUR CHARACTER & SETTING:\n")
	fmt.Fprintf(&b, "- Character: %s (%s)\n", p.CharacterID, p.CharacterDescription)
	fmt.Fprintf(&b, "- TOPIC (Stay on this): %s\n", p.Topic)
	fmt.Fprintf(&b, "- SCENARIO (STRICTLY discuss this only): %s\n", p.Scenario)

	b.WriteString("\nCONVERSATION CONSTRAINTS:\n")
	fmt.Fprintf(&b, "- Length: Exactly %d exchanges.\n", p.Exchanges)
	if p.Vocabulary != "" {
		fmt.Fprintf(&b, "- You MUST include this vocabulary: %s (don't bold these words)\n", p.Vocabulary)
	}
	if p.Grammar != "" {
		fmt.Fprintf(&b, "- You MUST use these grammar(s): %s (don't bold these words)\n", p.Grammar)
	}

	b.WriteString("\nSTRICT RULES:\n")
	fmt.Fprintf(&b, "* INTERNALIZE THE CHARACTER: You are NOT an AI tutor. You are %s in the scenario.\n", p.CharacterID)
	fmt.Fprintf(&b, "* LANGUAGE: Speak ONLY in %s. No English.\n", p.Language)
	fmt.Fprintf(&b, "* RESPONSE LENGTH: %s\n", responseLength(p.Level))
	b.WriteString("* DRIVE THE CONVERSATION: Make sure the conversation always stays on the given topic and scenario. DO NOT discuss anything else!\n")
	fmt.Fprintf(&b, "* NO DRIFTING: If the student tries to change the topic or gives a short answer, pull them back into the %s scenario immediately.\n", p.Topic)
	b.WriteString("* NO REPEATING GREETINGS: Do not greet the student again if the conversation has already started.\n")
	if p.CurrentExchangeCount == p.Exchanges-1 {
		b.WriteString("THE CONVERSATION IS OVER. Wrap up and say goodbye. Do NOT ask a follow-up question.\n")
	}

	return strings.TrimSpace(b.String())
}

func responseLength(level string) string {
	switch {
	case strings.Contains(level, "Beginner"):
		return "1-2 sentences max."
	case strings.Contains(level, "Intermediate"):
		return "2-3 sentences max."
	default:
		return "3-5 sentences max."
	}
}

func (p PromptContext) feedbackPrompt(history []domain.Turn) string {
	historyJSON, _ := json.Marshal(history)

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert language tutor. In English, analyze this conversation history between a student and an AI:\n%s\n\n", historyJSON)
	fmt.Fprintf(&b, "Task: Provide 3 specific strengths and 3 specific areas for improvement for a %s student. Be specific, concise and constructive. Be informal but focused in your tone.\n", p.Level)
	b.WriteString("Also, provide 3 key SPECIFIC characteristics/personality traits of the student based on the conversation, NOT RELATED TO THE SPECIFIC TOPIC/THEME ITSELF. This will help tailor future conversations about other topics. Each one can be up to a sentence long. Refer to student in third person.\n")
	b.WriteString("Do NOT include slashes or markdown formatting in your response.\n\n")

	fmt.Fprintf(&b, "Student Language Level: %s\n", p.Level)
	if p.Difficulty == domain.DifficultyChallenging {
		b.WriteString("Difficulty level: Challenging\n")
	}
	fmt.Fprintf(&b, "Language: %s\n", p.Language)
	fmt.Fprintf(&b, "Topic: %s\n", p.Topic)
	if p.Grammar != "" {
		fmt.Fprintf(&b, "Grammar needed to have been used: %s\n", p.Grammar)
	}
	if p.Vocabulary != "" {
		fmt.Fprintf(&b, "Vocabulary needed to have been used: %s\n", p.Vocabulary)
	}

	b.WriteString("\nOther than specific quotes from the conversation, all text in the JSON object should be in English.\n\n")
	b.WriteString("IMPORTANT: Return ONLY a JSON object with this structure:\n")
	b.WriteString(`{
  "strengths": ["string", "string", "string"],
  "improvements": ["string", "string", "string"],
  "personality_traits": ["string", "string", "string"]
}`)

	return b.String()
}

// StudentFeedback is one student's stored feedback, the unit of the
// teacher-facing overview analyses.
type StudentFeedback struct {
	Student      string   `json:"student,omitempty"`
	Assignment   string   `json:"assignment,omitempty"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

func assignmentOverviewPrompt(feedback []StudentFeedback) string {
	feedbackJSON, _ := json.Marshal(feedback)

	var b strings.Builder
	b.WriteString("Analyze this feedback across all students for a foreign language learning assignment.\n")
	b.WriteString("Identify 3 common strengths and 3 common weaknesses across all students.\n\n")
	fmt.Fprintf(&b, "Data: %s\n\n", feedbackJSON)
	b.WriteString("Return ONLY a plain JSON object. Do not include markdown formatting.\n")
	b.WriteString(`Structure:
{
  "strengths": ["string", "string", "string"],
  "weaknesses": ["string", "string", "string"]
}`)
	return b.String()
}

func studentOverviewPrompt(feedback []StudentFeedback) string {
	feedbackJSON, _ := json.Marshal(feedback)

	var b strings.Builder
	b.WriteString("You are an expert foreign language tutor. Analyze this student's feedback across multiple assignments:\n")
	fmt.Fprintf(&b, "%s\n\n", feedbackJSON)
	b.WriteString("Based on this data, provide:\n1. Exactly 3 high-level strengths.\n2. Exactly 3 high-level areas for growth.\n\n")
	b.WriteString(`Format the output as a JSON object strictly like this:
{
  "strengths": ["string", "string", "string"],
  "weaknesses": ["string", "string", "string"]
}`)
	return b.String()
}
