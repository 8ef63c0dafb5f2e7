package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/AdamBeresnev/op-bracket/internal/store"
	users "github.com/AdamBeresnev/op-bracket/internal/user"
	"github.com/google/uuid"
)

// AdminUserID is the built-in organiser account used for the guest login
var AdminUserID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

type UserService struct {
	store *store.UserStore
}

func NewUserService(store *store.UserStore) *UserService {
	return &UserService{store: store}
}

func (s *UserService) EnsureAdminUser(ctx context.Context) (*users.User, error) {
	user, err := s.store.GetUser(ctx, AdminUserID)
	if err == nil {
		return user, nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		admin := &users.User{
			ID:       AdminUserID,
			Email:    "admin@op-bracket.app",
			Username: "Tournament Admin",
			Role:     users.RoleAdmin,
		}
		if err := s.store.CreateUser(ctx, admin); err != nil {
			return nil, persistence("failed to create admin user", err)
		}
		return admin, nil
	}
	return nil, persistence("failed to get admin user", err)
}
