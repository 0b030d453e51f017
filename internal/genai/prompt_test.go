package genai

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"chat_practice_service/internal/domain"
)

func TestSystemInstruction(t *testing.T) {
	base := PromptContext{
		Language:             "French",
		Level:                "Beginner",
		Topic:                "Food",
		Scenario:             "Ordering at a bakery",
		CharacterID:          "marie",
		CharacterDescription: "a friendly baker",
		Exchanges:            5,
		StudentName:          "Alice",
	}

	t.Run("WrapUpOnlyOnFinalExchange", func(t *testing.T) {
		p := base
		p.CurrentExchangeCount = 2
		assert.NotContains(t, p.systemInstruction(), "THE CONVERSATION IS OVER")

		p.CurrentExchangeCount = 4
		assert.Contains(t, p.systemInstruction(), "THE CONVERSATION IS OVER")
	})

	t.Run("ChallengeMode", func(t *testing.T) {
		p := base
		p.Difficulty = domain.DifficultyChallenging
		assert.Contains(t, p.systemInstruction(), "Challenge Mode")

		p.Difficulty = domain.DifficultyStandard
		assert.NotContains(t, p.systemInstruction(), "Challenge Mode")
	})

	t.Run("IncludesCharacterMemory", func(t *testing.T) {
		p := base
		p.Memory = []string{"curious", "polite"}
		assert.Contains(t, p.systemInstruction(), "curious, polite")
	})

	t.Run("VocabularyAndGrammarConstraints", func(t *testing.T) {
		p := base
		p.Vocabulary = "croissant, baguette"
		p.Grammar = "passe compose"
		instruction := p.systemInstruction()
		assert.Contains(t, instruction, "croissant, baguette")
		assert.Contains(t, instruction, "passe compose")
	})
}

func TestResponseLength(t *testing.T) {
	assert.Equal(t, "1-2 sentences max.", responseLength("Beginner"))
	assert.Equal(t, "2-3 sentences max.", responseLength("Intermediate (B1)"))
	assert.Equal(t, "3-5 sentences max.", responseLength("Advanced"))
}
