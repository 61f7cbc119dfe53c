package services

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"consult-system/internal/dto"
	"consult-system/internal/repositories"
	apperrors "consult-system/pkg/errors"
	"consult-system/pkg/service"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, d dto.LoginDTO) (*dto.TokenResponseDTO, error)
	RefreshToken(ctx context.Context, d dto.RefreshTokenDTO) (*dto.TokenResponseDTO, error)
}

type AuthService struct {
	userRepo   repositories.UserRepositoryInterface
	jwtService service.JWTService
	logger     *zap.Logger
}

func NewAuthService(userRepo repositories.UserRepositoryInterface, jwtService service.JWTService, logger *zap.Logger) AuthServiceInterface {
	return &AuthService{userRepo: userRepo, jwtService: jwtService, logger: logger}
}

// Login сверяет пароль и выдаёт пару токенов. "Пользователь не найден" и
// "неверный пароль" снаружи неразличимы.
func (s *AuthService) Login(ctx context.Context, d dto.LoginDTO) (*dto.TokenResponseDTO, error) {
	user, err := s.userRepo.FindUserByEmail(ctx, d.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(d.Password)); err != nil {
		s.logger.Warn("неудачная попытка входа", zap.String("email", d.Email))
		return nil, apperrors.ErrInvalidCredentials
	}

	accessToken, refreshToken, err := s.jwtService.GenerateTokens(user.ID)
	if err != nil {
		return nil, err
	}
	return &dto.TokenResponseDTO{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *AuthService) RefreshToken(ctx context.Context, d dto.RefreshTokenDTO) (*dto.TokenResponseDTO, error) {
	claims, err := s.jwtService.ValidateToken(d.RefreshToken)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefreshToken {
		return nil, apperrors.ErrInvalidToken
	}

	user, err := s.userRepo.FindUser(ctx, nil, claims.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.ErrInvalidCredentials
	}

	accessToken, refreshToken, err := s.jwtService.GenerateTokens(user.ID)
	if err != nil {
		return nil, err
	}
	return &dto.TokenResponseDTO{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
