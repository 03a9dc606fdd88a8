package services

import (
	"context"
	"errors"
	"strings"

	"github.com/lecturehub/apiserver/internal/apperr"
	"github.com/lecturehub/apiserver/internal/auth"
	"github.com/lecturehub/apiserver/internal/store"
	"github.com/lecturehub/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	ExistsOther(ctx context.Context, excludeID int, username, email string) (bool, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(user types.User) (string, error)
}

// UserService encapsulates account use-cases.
type UserService struct {
	repo       UserRepository
	tokens     TokenIssuer
	bcryptCost int
}

func NewUserService(repo UserRepository, tokens TokenIssuer) *UserService {
	return &UserService{
		repo:       repo,
		tokens:     tokens,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// Register creates a user with the default role.
func (s *UserService) Register(ctx context.Context, username, email, password string) (types.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return types.User{}, apperr.Validation("Username, email and password are required")
	}

	taken, err := s.repo.ExistsOther(ctx, 0, username, email)
	if err != nil {
		return types.User{}, apperr.StoreFailure("Server error", err)
	}
	if taken {
		return types.User{}, apperr.New(apperr.ErrConflict, "User already exists")
	}

	hashed, err := s.hash(password)
	if err != nil {
		return types.User{}, err
	}

	user, err := s.repo.Create(ctx, types.User{
		Username:     username,
		Email:        email,
		Role:         types.RoleUser,
		PasswordHash: hashed,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.User{}, apperr.New(apperr.ErrConflict, "User already exists")
		}
		return types.User{}, apperr.StoreFailure("Server error", err)
	}
	return user, nil
}

// Login checks credentials and returns a signed session token.
func (s *UserService) Login(ctx context.Context, username, password string) (string, types.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", types.User{}, apperr.New(apperr.ErrInvalidCredentials, "Invalid credentials")
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", types.User{}, apperr.New(apperr.ErrInvalidCredentials, "Invalid credentials")
		}
		return "", types.User{}, apperr.StoreFailure("Server error", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", types.User{}, apperr.New(apperr.ErrInvalidCredentials, "Invalid credentials")
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", types.User{}, apperr.Wrap(apperr.ErrStoreFailure, "Failed to create token", err)
	}
	return token, user, nil
}

// Profile returns the public profile of the caller.
func (s *UserService) Profile(ctx context.Context, caller auth.Identity) (types.Profile, error) {
	user, err := s.current(ctx, caller)
	if err != nil {
		return types.Profile{}, err
	}
	return types.Profile{Username: user.Username, Email: user.Email}, nil
}

// UpdateProfile changes the caller's username and/or email. Empty values
// leave the field unchanged.
func (s *UserService) UpdateProfile(ctx context.Context, caller auth.Identity, username, email string) (types.Profile, error) {
	user, err := s.current(ctx, caller)
	if err != nil {
		return types.Profile{}, err
	}

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	taken, err := s.repo.ExistsOther(ctx, user.ID, username, email)
	if err != nil {
		return types.Profile{}, apperr.StoreFailure("Server error", err)
	}
	if taken {
		return types.Profile{}, apperr.New(apperr.ErrConflict, "Username or email already in use")
	}

	if username != "" {
		user.Username = username
	}
	if email != "" {
		user.Email = email
	}

	updated, err := s.save(ctx, user)
	if err != nil {
		return types.Profile{}, err
	}
	return types.Profile{Username: updated.Username, Email: updated.Email}, nil
}

// ChangePassword replaces the caller's password after checking the
// current one. A wrong current password leaves the stored hash untouched.
func (s *UserService) ChangePassword(ctx context.Context, caller auth.Identity, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return apperr.Validation("Please provide both current and new passwords")
	}
	user, err := s.current(ctx, caller)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return apperr.Validation("Current password is incorrect")
	}

	hashed, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hashed
	_, err = s.save(ctx, user)
	return err
}

// ResetPassword sets a new password for the account registered under
// email. The caller does not prove ownership of the address.
func (s *UserService) ResetPassword(ctx context.Context, email, newPassword string) error {
	email = strings.TrimSpace(email)
	if email == "" || newPassword == "" {
		return apperr.Validation("Email and new password are required")
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.New(apperr.ErrNotFound, "User not found")
		}
		return apperr.StoreFailure("Server error", err)
	}

	hashed, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hashed
	_, err = s.save(ctx, user)
	return err
}

func (s *UserService) current(ctx context.Context, caller auth.Identity) (types.User, error) {
	if !caller.Authenticated() {
		return types.User{}, apperr.New(apperr.ErrUnauthenticated, "Unauthorized")
	}
	user, err := s.repo.GetByID(ctx, caller.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, apperr.New(apperr.ErrNotFound, "User not found")
		}
		return types.User{}, apperr.StoreFailure("Server error", err)
	}
	return user, nil
}

func (s *UserService) save(ctx context.Context, user types.User) (types.User, error) {
	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			return types.User{}, apperr.New(apperr.ErrConflict, "Username or email already in use")
		case errors.Is(err, store.ErrNotFound):
			return types.User{}, apperr.New(apperr.ErrNotFound, "User not found")
		}
		return types.User{}, apperr.StoreFailure("Server error", err)
	}
	return updated, nil
}

func (s *UserService) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperr.Validation("Password is too long")
		}
		return "", apperr.Wrap(apperr.ErrStoreFailure, "Server error", err)
	}
	return string(hashed), nil
}
