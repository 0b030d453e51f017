package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"chat_practice_service/internal/domain"
)

type CharacterRepository struct {
	db *sql.DB
}

func NewCharacterRepository(db *sql.DB) *CharacterRepository {
	return &CharacterRepository{db: db}
}

func (r *CharacterRepository) Get(ctx context.Context, characterID, language string) (*domain.Character, error) {
	query := `
		SELECT character_id, language, description, public_description, ord
		FROM characters
		WHERE character_id = $1 AND language = $2
	`

	var character domain.Character
	err := r.db.QueryRowContext(ctx, query, characterID, language).Scan(
		&character.CharacterID,
		&character.Language,
		&character.Description,
		&character.PublicDescription,
		&character.Ord,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &character, nil
}

func (r *CharacterRepository) ListByLanguage(ctx context.Context, language string) ([]*domain.Character, error) {
	query := `
		SELECT character_id, language, description, public_description, ord
		FROM characters
		WHERE language = $1
		ORDER BY ord
	`

	rows, err := r.db.QueryContext(ctx, query, language)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var characters []*domain.Character
	for rows.Next() {
		var character domain.Character
		err := rows.Scan(
			&character.CharacterID,
			&character.Language,
			&character.Description,
			&character.PublicDescription,
			&character.Ord,
		)
		if err != nil {
			return nil, err
		}
		characters = append(characters, &character)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return characters, nil
}
