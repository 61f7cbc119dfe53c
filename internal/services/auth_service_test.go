package services

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"consult-system/internal/dto"
	"consult-system/internal/entities"
	apperrors "consult-system/pkg/errors"
	"consult-system/pkg/service"
)

type fakeUserRepo struct {
	byID    map[uint64]*entities.User
	byEmail map[string]*entities.User
}

func (f *fakeUserRepo) FindUser(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeUserRepo) FindUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeUserRepo) FindHeadByDepartmentID(ctx context.Context, departmentID uint64) (*entities.User, error) {
	return nil, apperrors.ErrNotFound
}

func (f *fakeUserRepo) GetAssignableUsers(ctx context.Context, departmentID uint64) ([]entities.User, error) {
	return nil, nil
}

func newAuthFixture(t *testing.T) (AuthServiceInterface, service.JWTService) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &entities.User{ID: 42, Email: "doctor@test.local", Password: string(hash), IsActive: true}
	inactive := &entities.User{ID: 43, Email: "fired@test.local", Password: string(hash), IsActive: false}
	repo := &fakeUserRepo{
		byID:    map[uint64]*entities.User{42: user, 43: inactive},
		byEmail: map[string]*entities.User{user.Email: user, inactive.Email: inactive},
	}

	jwtService := service.NewJWTService("test-secret", time.Minute, time.Hour)
	return NewAuthService(repo, jwtService, zap.NewNop()), jwtService
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	authService, jwtService := newAuthFixture(t)

	t.Run("успешный вход выдаёт валидную пару токенов", func(t *testing.T) {
		tokens, err := authService.Login(ctx, dto.LoginDTO{Email: "doctor@test.local", Password: "correct-password"})
		require.NoError(t, err)

		claims, err := jwtService.ValidateToken(tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, uint64(42), claims.UserID)
		assert.False(t, claims.IsRefreshToken)

		claims, err = jwtService.ValidateToken(tokens.RefreshToken)
		require.NoError(t, err)
		assert.True(t, claims.IsRefreshToken)
	})

	t.Run("неверный пароль и несуществующий email неразличимы", func(t *testing.T) {
		_, err := authService.Login(ctx, dto.LoginDTO{Email: "doctor@test.local", Password: "wrong"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

		_, err = authService.Login(ctx, dto.LoginDTO{Email: "nobody@test.local", Password: "wrong"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("неактивный пользователь не входит", func(t *testing.T) {
		_, err := authService.Login(ctx, dto.LoginDTO{Email: "fired@test.local", Password: "correct-password"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})
}

func TestRefreshToken(t *testing.T) {
	ctx := context.Background()
	authService, _ := newAuthFixture(t)

	tokens, err := authService.Login(ctx, dto.LoginDTO{Email: "doctor@test.local", Password: "correct-password"})
	require.NoError(t, err)

	t.Run("refresh-токен обновляет пару", func(t *testing.T) {
		refreshed, err := authService.RefreshToken(ctx, dto.RefreshTokenDTO{RefreshToken: tokens.RefreshToken})
		require.NoError(t, err)
		assert.NotEmpty(t, refreshed.AccessToken)
	})

	t.Run("access-токен вместо refresh отклоняется", func(t *testing.T) {
		_, err := authService.RefreshToken(ctx, dto.RefreshTokenDTO{RefreshToken: tokens.AccessToken})
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})
}
