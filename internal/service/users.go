package service

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"foxpos/backend/internal/domain"
)

// User management. Passwords are bcrypt-hashed before they reach the
// store; the store enforces the last-admin delete guard.

func (s *Service) CreateUser(ctx context.Context, username, password, role string) (*domain.UserAccount, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	username = strings.ToLower(strings.TrimSpace(username))
	if len(username) < 4 || strings.ContainsAny(username, " \t\r\n") {
		return nil, domain.E(domain.CodeValidation, "username must be at least 4 characters with no spaces")
	}
	if len(password) < 6 {
		return nil, domain.E(domain.CodeValidation, "password must be at least 6 characters")
	}
	if role != domain.RoleAdmin && role != domain.RoleCashier {
		return nil, domain.E(domain.CodeValidation, "unknown role: %s", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := domain.UserAccount{
		Username:  username,
		Password:  string(hash),
		Role:      role,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) DeleteUser(ctx context.Context, username string) error {
	actor, err := s.requireAdmin(ctx)
	if err != nil {
		return err
	}
	if actor.Username == username {
		return domain.E(domain.CodeBusinessRule, "cannot delete your own account")
	}
	return s.repo.DeleteUser(ctx, username)
}

func (s *Service) ChangePassword(ctx context.Context, username, password string) error {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return err
	}
	if actor.Username != username && !actor.IsAdmin() {
		return domain.E(domain.CodeForbidden, "cannot change another user's password")
	}
	if len(password) < 6 {
		return domain.E(domain.CodeValidation, "password must be at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdateUserPassword(ctx, username, string(hash))
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListUsers(ctx)
}
