package service

import (
	"context"
	"errors"
	"strings"

	"chat_practice_service/internal/domain"
	"chat_practice_service/internal/repository"
)

type CharacterService struct {
	characterRepo CharacterRepo
}

func NewCharacterService(characterRepo CharacterRepo) *CharacterService {
	return &CharacterService{characterRepo: characterRepo}
}

// ListCharacters returns the roster of conversation partners for a
// language, in display order.
func (s *CharacterService) ListCharacters(ctx context.Context, language string) ([]*domain.Character, error) {
	if strings.TrimSpace(language) == "" {
		return nil, ErrInvalidArgument
	}
	return s.characterRepo.ListByLanguage(ctx, language)
}

func (s *CharacterService) GetCharacter(ctx context.Context, characterID, language string) (*domain.Character, error) {
	character, err := s.characterRepo.Get(ctx, characterID, language)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCharacterNotFound
		}
		return nil, err
	}
	return character, nil
}
