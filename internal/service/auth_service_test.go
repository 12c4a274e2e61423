package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mansoorceksport/examcore/internal/config"
	"github.com/mansoorceksport/examcore/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	users map[string]*domain.User // by id
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	for _, u := range r.users {
		if u.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) GetByFirebaseUID(ctx context.Context, uid string) (*domain.User, error) {
	for _, u := range r.users {
		if u.FirebaseUID == uid {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) UpdateFirebaseUID(ctx context.Context, userID string, firebaseUID string) error {
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.FirebaseUID = firebaseUID
	return nil
}

type stubAuthClient struct {
	tokens map[string]*auth.Token
}

func (s *stubAuthClient) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if tok, ok := s.tokens[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("invalid token")
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", AccessTokenExpiry: time.Hour}
}

func firebaseToken(uid, email, name string) *auth.Token {
	return &auth.Token{
		UID: uid,
		Claims: map[string]interface{}{
			"email": email,
			"name":  name,
		},
	}
}

func TestLoginOrRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown user is registered as student", func(t *testing.T) {
		repo := newFakeUserRepo()
		client := &stubAuthClient{tokens: map[string]*auth.Token{
			"tok": firebaseToken("fb-1", "new@student.test", "New Student"),
		}}
		svc := NewAuthService(repo, client, testJWTConfig())

		resp, err := svc.LoginOrRegister(ctx, "tok")
		require.NoError(t, err)

		assert.True(t, resp.IsNewUser)
		assert.Equal(t, domain.RoleStudent, resp.User.Role)
		assert.Equal(t, "fb-1", resp.User.FirebaseUID)
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("pre-provisioned teacher is linked by email", func(t *testing.T) {
		repo := newFakeUserRepo(&domain.User{
			ID:    "U1",
			Email: "teacher@school.test",
			Name:  "Ms Teacher",
			Role:  domain.RoleInternalTeacher,
		})
		client := &stubAuthClient{tokens: map[string]*auth.Token{
			"tok": firebaseToken("fb-t", "teacher@school.test", "Ms Teacher"),
		}}
		svc := NewAuthService(repo, client, testJWTConfig())

		resp, err := svc.LoginOrRegister(ctx, "tok")
		require.NoError(t, err)

		assert.False(t, resp.IsNewUser)
		assert.Equal(t, domain.RoleInternalTeacher, resp.User.Role)
		assert.Equal(t, "fb-t", repo.users["U1"].FirebaseUID)
	})

	t.Run("email already linked to different uid", func(t *testing.T) {
		repo := newFakeUserRepo(&domain.User{
			ID:          "U1",
			Email:       "taken@school.test",
			FirebaseUID: "fb-original",
			Role:        domain.RoleInternalTeacher,
		})
		client := &stubAuthClient{tokens: map[string]*auth.Token{
			"tok": firebaseToken("fb-imposter", "taken@school.test", "Imposter"),
		}}
		svc := NewAuthService(repo, client, testJWTConfig())

		_, err := svc.LoginOrRegister(ctx, "tok")
		assert.Error(t, err)
	})

	t.Run("invalid provider token", func(t *testing.T) {
		svc := NewAuthService(newFakeUserRepo(), &stubAuthClient{}, testJWTConfig())
		_, err := svc.LoginOrRegister(ctx, "bogus")
		assert.Error(t, err)
	})

	t.Run("returning user keeps their role", func(t *testing.T) {
		repo := newFakeUserRepo(&domain.User{
			ID:          "U9",
			Email:       "admin@school.test",
			FirebaseUID: "fb-admin",
			Role:        domain.RoleAdmin,
		})
		client := &stubAuthClient{tokens: map[string]*auth.Token{
			"tok": firebaseToken("fb-admin", "admin@school.test", "Admin"),
		}}
		svc := NewAuthService(repo, client, testJWTConfig())

		resp, err := svc.LoginOrRegister(ctx, "tok")
		require.NoError(t, err)
		assert.False(t, resp.IsNewUser)
		assert.Equal(t, domain.RoleAdmin, resp.User.Role)
	})
}

func TestGetUser(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo(&domain.User{ID: "U1", Email: "teacher@school.test", Role: domain.RoleInternalTeacher})
	svc := NewAuthService(repo, &stubAuthClient{}, testJWTConfig())

	user, err := svc.GetUser(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleInternalTeacher, user.Role)

	_, err = svc.GetUser(ctx, "U404")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestGenerateToken(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(), &stubAuthClient{}, testJWTConfig())

	signed, err := svc.GenerateToken(&domain.User{
		ID:    "U1",
		Role:  domain.RoleInternalTeacher,
		Name:  "Ms Teacher",
		Email: "teacher@school.test",
	})
	require.NoError(t, err)

	claims := &domain.ExamCoreClaims{}
	_, err = jwt.ParseWithClaims(signed, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)

	assert.Equal(t, "U1", claims.UserID)
	assert.Equal(t, domain.RoleInternalTeacher, claims.Role)
}
