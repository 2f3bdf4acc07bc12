package services

import (
	"context"
	"errors"
	"log"
	"time"

	"chat-relay/config"
	"chat-relay/models"
	"chat-relay/repository"
	"chat-relay/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrUnknownUser        = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type AuthService struct {
	users  repository.UserRepository
	config *config.Config
}

func NewAuthService(userRepo repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{users: userRepo, config: cfg}
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	if len(username) < 3 || len(username) > 20 {
		return nil, errors.New("username must be between 3 and 20 characters")
	}
	if email == "" {
		return nil, errors.New("email is required")
	}
	if len(password) < 6 || len(password) > 100 {
		return nil, errors.New("password must be between 6 and 100 characters")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.users.Create(ctx, username, email, string(hashed))
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}
	if err := s.users.UpdateLastSeen(ctx, u.ID); err != nil {
		log.Printf("Could not update last seen for %s: %v", u.Username, err)
	}
	token, err := s.CreateToken(u)
	return token, u, err
}

func (s *AuthService) CreateToken(u *models.User) (string, error) {
	expiry := time.Duration(s.config.JWTExpiry) * time.Hour
	return utils.GenerateJWT(s.config.JWTSecret, u.ID.Hex(), u.Username, expiry)
}

// Authenticate resolves a bearer token to a full user record. A token that
// parses but names a user the store does not know is rejected the same as a
// bad signature.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	uidHex, _, err := utils.ParseJWT(s.config.JWTSecret, token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	uid, err := primitive.ObjectIDFromHex(uidHex)
	if err != nil {
		return nil, ErrInvalidToken
	}
	u, err := s.users.FindByID(ctx, uid)
	if err != nil {
		return nil, ErrUnknownUser
	}
	return u, nil
}

// TouchLastSeen is fire-and-forget; a failure is logged, never surfaced.
func (s *AuthService) TouchLastSeen(ctx context.Context, id primitive.ObjectID) {
	if err := s.users.UpdateLastSeen(ctx, id); err != nil {
		log.Printf("Could not update last seen for user %s: %v", id.Hex(), err)
	}
}
