package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/malamapl09/Picker-Scheduler/config"
	"github.com/malamapl09/Picker-Scheduler/internal/dto"
	"github.com/malamapl09/Picker-Scheduler/internal/model"
	"github.com/malamapl09/Picker-Scheduler/internal/repository"
	"github.com/malamapl09/Picker-Scheduler/pkg/jwt"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrTokenRevoked        = errors.New("token has been revoked")
)

// TokenBlacklist revoked token ids. Implemented by the Redis client.
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// AuthService login and token lifecycle.
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	// Refresh rotates the pair; the presented refresh token is revoked.
	Refresh(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, access *jwt.Claims, req *dto.LogoutRequest) error
	Me(ctx context.Context, caller jwt.Identity) (*dto.UserResponse, error)
	// EnsureAdmin creates the configured bootstrap admin when missing.
	EnsureAdmin(ctx context.Context) error
}

type authService struct {
	cfg       *config.Config
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService creates an AuthService. blacklist may be nil, in which case
// logout only ends the client session.
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:       cfg,
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. user
	user, err := s.repo.User.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("load user failed", zap.Error(err))
		return nil, err
	}

	// 2. password (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. token pair
	return s.issue(ctx, user)
}

func (s *authService) Refresh(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(req.RefreshToken)
	if err != nil || claims.TokenType != jwt.TokenRefresh {
		return nil, ErrInvalidRefreshToken
	}
	if s.revoked(ctx, claims.ID) {
		return nil, ErrTokenRevoked
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		s.logger.Error("load user failed", zap.String("user_id", claims.UserID), zap.Error(err))
		return nil, err
	}

	resp, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	s.revoke(ctx, claims)
	return resp, nil
}

func (s *authService) Logout(ctx context.Context, access *jwt.Claims, req *dto.LogoutRequest) error {
	if access != nil {
		s.revoke(ctx, access)
	}
	if req != nil && req.RefreshToken != "" {
		if claims, err := s.jwtMgr.ParseToken(req.RefreshToken); err == nil && claims.TokenType == jwt.TokenRefresh {
			s.revoke(ctx, claims)
		}
	}
	return nil
}

func (s *authService) Me(ctx context.Context, caller jwt.Identity) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("load user failed", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, err
	}
	emp, err := s.employeeOf(ctx, user)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user, emp)
	return &resp, nil
}

// ── Internal ──

func (s *authService) issue(ctx context.Context, user *model.User) (*dto.TokenResponse, error) {
	emp, err := s.employeeOf(ctx, user)
	if err != nil {
		return nil, err
	}

	id := jwt.Identity{UserID: user.UserID, Role: user.Role}
	if user.StoreID != nil {
		id.StoreID = *user.StoreID
	}
	if emp != nil {
		id.EmployeeID = emp.EmployeeID
		if id.StoreID == "" {
			id.StoreID = emp.StoreID
		}
	}

	accessToken, err := s.jwtMgr.GenerateAccessToken(id)
	if err != nil {
		s.logger.Error("sign access token failed", zap.Error(err))
		return nil, err
	}
	refreshToken, err := s.jwtMgr.GenerateRefreshToken(id)
	if err != nil {
		s.logger.Error("sign refresh token failed", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.cfg.Auth.AccessTokenTTL.Seconds()),
		User:         toUserResponse(user, emp),
	}, nil
}

// employeeOf the linked picker profile; nil for accounts without one.
func (s *authService) employeeOf(ctx context.Context, user *model.User) (*model.Employee, error) {
	emp, err := s.repo.Employee.GetByUserID(ctx, user.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.logger.Error("load employee profile failed", zap.String("user_id", user.UserID), zap.Error(err))
		return nil, err
	}
	return emp, nil
}

// revoke blacklists the token for the rest of its lifetime.
func (s *authService) revoke(ctx context.Context, claims *jwt.Claims) {
	if s.blacklist == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.blacklist.BlacklistToken(ctx, claims.ID, ttl); err != nil {
		s.logger.Warn("blacklist token failed", zap.String("jti", claims.ID), zap.Error(err))
	}
}

func (s *authService) revoked(ctx context.Context, jti string) bool {
	if s.blacklist == nil || jti == "" {
		return false
	}
	ok, err := s.blacklist.IsBlacklisted(ctx, jti)
	if err != nil {
		s.logger.Warn("blacklist lookup failed", zap.String("jti", jti), zap.Error(err))
		return false
	}
	return ok
}

func toUserResponse(user *model.User, emp *model.Employee) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.UserID,
		Email:     user.Email,
		Role:      user.Role,
		StoreID:   user.StoreID,
		Employee:  toEmployeeBrief(emp),
		CreatedAt: formatTimestamp(user.CreatedAt),
	}
}

func (s *authService) EnsureAdmin(ctx context.Context) error {
	email := normalizeEmail(s.cfg.Auth.BootstrapAdminEmail)
	if email == "" {
		return nil
	}

	_, err := s.repo.User.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.cfg.Auth.BootstrapAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user := &model.User{Email: email, PasswordHash: string(hash), Role: model.RoleAdmin}
	if err := s.repo.User.Create(ctx, user); err != nil {
		return err
	}

	s.logger.Info("bootstrap admin created", zap.String("user_id", user.UserID), zap.String("email", email))
	return nil
}
