package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/floorreports/apiserver/internal/store"
	"github.com/floorreports/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for any failed credential check. The
// caller cannot distinguish a missing user from a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrUsernameTaken is returned when creating a user with an existing username.
var ErrUsernameTaken = errors.New("username already exists")

// ErrLastAdmin is returned when an operation would leave the system with no
// administrator.
var ErrLastAdmin = errors.New("at least one administrator must remain")

// ErrSelfDelete is returned when a user tries to remove their own account.
var ErrSelfDelete = errors.New("cannot remove your own account")

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	List(ctx context.Context) ([]types.User, error)
	CountByRole(ctx context.Context, role string) (int, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	Delete(ctx context.Context, id int) error
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

func (s *UserService) List(ctx context.Context) ([]types.User, error) {
	return s.repo.List(ctx)
}

// Authenticate verifies a username/password pair. Any failure maps to
// ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (types.User, error) {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Create registers a new account with a bcrypt-hashed password.
func (s *UserService) Create(ctx context.Context, username, name, role, password string) (types.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return types.User{}, fmt.Errorf("%w: username and password are required", ErrValidation)
	}
	if !types.ValidRole(role) {
		return types.User{}, fmt.Errorf("%w: invalid role %q", ErrValidation, role)
	}

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return types.User{}, ErrUsernameTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, err
	}

	return s.repo.Create(ctx, types.User{
		Username:     username,
		Name:         strings.TrimSpace(name),
		Role:         role,
		PasswordHash: string(hashed),
	})
}

// ChangeRole updates a user's role. Demoting the last remaining admin is
// rejected.
func (s *UserService) ChangeRole(ctx context.Context, id int, role string) (types.User, error) {
	if !types.ValidRole(role) {
		return types.User{}, fmt.Errorf("%w: invalid role %q", ErrValidation, role)
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}

	if user.Role == types.RoleAdmin && role != types.RoleAdmin {
		admins, err := s.repo.CountByRole(ctx, types.RoleAdmin)
		if err != nil {
			return types.User{}, err
		}
		if admins <= 1 {
			return types.User{}, ErrLastAdmin
		}
	}

	user.Role = role
	return s.repo.Update(ctx, user)
}

// Delete removes a user account. The caller's own account and the last
// remaining admin are protected.
func (s *UserService) Delete(ctx context.Context, id, requestedBy int) error {
	if id == requestedBy {
		return ErrSelfDelete
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if user.Role == types.RoleAdmin {
		admins, err := s.repo.CountByRole(ctx, types.RoleAdmin)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}

	return s.repo.Delete(ctx, id)
}

// EnsureDefaultAdmin creates the bootstrap admin account if no account with
// that username exists yet.
func (s *UserService) EnsureDefaultAdmin(ctx context.Context, username, password string) (types.User, bool, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, false, err
	}

	created, err := s.Create(ctx, username, "Default Administrator", types.RoleAdmin, password)
	if err != nil {
		return types.User{}, false, err
	}
	return created, true, nil
}
