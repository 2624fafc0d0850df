package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	models "memorludo/internal/models"
	store "memorludo/internal/store"
	util "memorludo/internal/util"
)

var ErrBadCredentials = errors.New("email or password is wrong")

// Service owns user records and session issuance. Passwords are stored as
// bcrypt hashes only.
type Service struct {
	dir    store.Directory
	tokens *TokenManager
}

func NewService(dir store.Directory, tokens *TokenManager) *Service {
	return &Service{dir: dir, tokens: tokens}
}

// Register creates a user and signs them in, returning the session token.
func (s *Service) Register(ctx context.Context, email, password, displayName string) (*models.User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        normalizeEmail(email),
		PasswordHash: string(hash),
		DisplayName:  displayName,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.dir.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}
	util.LogInfo("Registered user %s", user.ID)

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies the password and returns a fresh session token. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.dir.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", ErrBadCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrBadCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *Service) Profile(ctx context.Context, userID string) (*models.User, error) {
	return s.dir.GetUser(ctx, userID)
}

func (s *Service) UpdateProfile(ctx context.Context, userID, displayName string) (*models.User, error) {
	user, err := s.dir.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.DisplayName = displayName
	if err := s.dir.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
