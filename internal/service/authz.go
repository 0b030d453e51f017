package service

import (
	"context"

	"github.com/google/uuid"

	"chat_practice_service/internal/domain"
	"chat_practice_service/pkg/ctxdata"
)

// currentUser extracts the authenticated user from the request context.
func currentUser(ctx context.Context) (uuid.UUID, domain.UserRole, error) {
	rawID, ok := ctxdata.GetUserID(ctx)
	if !ok {
		return uuid.Nil, "", ErrPermissionDenied
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, "", ErrPermissionDenied
	}
	role, _ := ctxdata.GetUserRole(ctx)
	return id, domain.UserRole(role), nil
}

func requireTeacher(ctx context.Context) (uuid.UUID, error) {
	id, role, err := currentUser(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if role != domain.UserRoleTeacher {
		return uuid.Nil, ErrPermissionDenied
	}
	return id, nil
}

func requireStudent(ctx context.Context) (uuid.UUID, error) {
	id, role, err := currentUser(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if role != domain.UserRoleStudent {
		return uuid.Nil, ErrPermissionDenied
	}
	return id, nil
}
