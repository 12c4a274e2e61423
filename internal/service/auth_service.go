package service

import (
	"context"
	"fmt"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mansoorceksport/examcore/internal/config"
	"github.com/mansoorceksport/examcore/internal/domain"
)

// FirebaseAuthClient defines the interface for Firebase Auth operations
// This allows mocking for tests
type FirebaseAuthClient interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthService handles authentication and user registration
type AuthService struct {
	userRepo   domain.UserRepository
	authClient FirebaseAuthClient
	jwtConfig  config.JWTConfig
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo domain.UserRepository, authClient FirebaseAuthClient, jwtConfig config.JWTConfig) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		authClient: authClient,
		jwtConfig:  jwtConfig,
	}
}

// LoginOrRegisterResponse contains the user, the service token and whether
// the user was newly created
type LoginOrRegisterResponse struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	IsNewUser bool         `json:"is_new_user"`
}

// LoginOrRegister verifies an identity-provider token and exchanges it for
// a service JWT. Staff accounts (teachers, admins) are pre-provisioned by
// email and linked on first login; unknown users are created as students.
func (s *AuthService) LoginOrRegister(ctx context.Context, firebaseToken string) (*LoginOrRegisterResponse, error) {
	token, err := s.authClient.VerifyIDToken(ctx, firebaseToken)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	firebaseUID := token.UID
	email, _ := token.Claims["email"].(string)
	name, _ := token.Claims["name"].(string)
	if name == "" {
		name = email
	}

	existingUser, err := s.userRepo.GetByFirebaseUID(ctx, firebaseUID)

	// Not found by uid: try email, which covers pre-provisioned accounts.
	if err == domain.ErrUserNotFound {
		emailUser, emailErr := s.userRepo.GetByEmail(ctx, email)
		if emailErr == nil && emailUser != nil {
			if emailUser.FirebaseUID == "" {
				if updateErr := s.userRepo.UpdateFirebaseUID(ctx, emailUser.ID, firebaseUID); updateErr != nil {
					return nil, fmt.Errorf("failed to link firebase account: %w", updateErr)
				}
				emailUser.FirebaseUID = firebaseUID
				existingUser = emailUser
				err = nil
			} else {
				return nil, fmt.Errorf("email already linked to different account")
			}
		}
	}

	if err == nil && existingUser != nil {
		serviceToken, err := s.GenerateToken(existingUser)
		if err != nil {
			return nil, fmt.Errorf("failed to generate token: %w", err)
		}
		return &LoginOrRegisterResponse{
			User:      existingUser,
			Token:     serviceToken,
			IsNewUser: false,
		}, nil
	}

	// New user: always a student. Teacher and admin accounts are only
	// created through provisioning, never through self-registration.
	if err == domain.ErrUserNotFound {
		newUser := &domain.User{
			ID:          newULID(),
			FirebaseUID: firebaseUID,
			Email:       email,
			Name:        name,
			Role:        domain.RoleStudent,
		}

		if err := s.userRepo.Create(ctx, newUser); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}

		serviceToken, err := s.GenerateToken(newUser)
		if err != nil {
			return nil, fmt.Errorf("failed to generate token: %w", err)
		}
		return &LoginOrRegisterResponse{
			User:      newUser,
			Token:     serviceToken,
			IsNewUser: true,
		}, nil
	}

	return nil, fmt.Errorf("failed to fetch user: %w", err)
}

// GetUser loads the account behind a verified token
func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// GenerateToken mints a signed service JWT for a user
func (s *AuthService) GenerateToken(user *domain.User) (string, error) {
	claims := domain.ExamCoreClaims{
		UserID: user.ID,
		Role:   user.Role,
		Name:   user.Name,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.jwtConfig.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtConfig.Secret))
}
