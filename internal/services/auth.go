package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/codehivehq/codehive/backend/internal/apperr"
	"github.com/codehivehq/codehive/backend/internal/config"
	"github.com/codehivehq/codehive/backend/internal/models"
	"github.com/codehivehq/codehive/backend/internal/utils"
	"github.com/codehivehq/codehive/backend/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

type AuthService struct {
	db        *gorm.DB
	users     *UserService
	jwtConfig *config.JWTConfig
	scheduler *cron.Cron
}

func NewAuthService(db *gorm.DB, users *UserService, jwtCfg *config.JWTConfig) *AuthService {
	return &AuthService{
		db:        db,
		users:     users,
		jwtConfig: jwtCfg,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResult struct {
	AccessToken     string
	AccessExpireAt  time.Time
	RefreshToken    string
	RefreshExpireAt time.Time
	User            *models.User
}

// Login verifies credentials and issues an access token plus a persisted,
// hashed refresh token.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest, clientIP string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	if !utils.CheckPassword(req.Password, user.Password) {
		return nil, apperr.Unauthorized("invalid email or password")
	}

	result, err := s.issueTokens(ctx, user, clientIP)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user.LastLogin = &now
	s.db.WithContext(ctx).Save(user)

	return result, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// access/refresh pair is issued.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, clientIP string) (*LoginResult, error) {
	hash := hashRefreshToken(refreshToken)

	var record models.RefreshToken
	err := s.db.WithContext(ctx).Where("token_hash = ?", hash).First(&record).Error
	if err != nil {
		return nil, apperr.Unauthorized("invalid refresh token")
	}
	if record.RevokedAt != nil || time.Now().After(record.ExpiresAt) {
		return nil, apperr.Unauthorized("refresh token expired or revoked")
	}

	user, err := s.users.FindByID(ctx, record.UserID)
	if err != nil {
		return nil, apperr.Unauthorized("invalid refresh token")
	}

	now := time.Now()
	record.RevokedAt = &now
	if err := s.db.WithContext(ctx).Save(&record).Error; err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user, clientIP)
}

// Logout revokes the presented refresh token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	now := time.Now()
	return s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked_at IS NULL", hashRefreshToken(refreshToken)).
		Update("revoked_at", &now).Error
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User, clientIP string) (*LoginResult, error) {
	accessToken, err := utils.GenerateToken(user.ID, user.Email, user.Name, s.jwtConfig.ExpireHour)
	if err != nil {
		return nil, err
	}

	refreshToken, refreshHash, err := generateRefreshToken()
	if err != nil {
		return nil, err
	}

	refreshExpireAt := time.Now().Add(time.Duration(s.jwtConfig.RefreshExpireHour) * time.Hour)
	record := models.RefreshToken{
		UserID:      user.ID,
		TokenHash:   refreshHash,
		ExpiresAt:   refreshExpireAt,
		CreatedByIP: clientIP,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:     accessToken,
		AccessExpireAt:  time.Now().Add(time.Duration(s.jwtConfig.ExpireHour) * time.Hour),
		RefreshToken:    refreshToken,
		RefreshExpireAt: refreshExpireAt,
		User:            user,
	}, nil
}

// generateRefreshToken returns a random token and its SHA-256 hex hash.
func generateRefreshToken() (string, string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	token := hex.EncodeToString(buf)
	return token, hashRefreshToken(token), nil
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// StartCleanupScheduler purges expired and revoked refresh tokens nightly.
func (s *AuthService) StartCleanupScheduler() {
	if s.scheduler != nil {
		return
	}
	s.scheduler = cron.New()
	_, err := s.scheduler.AddFunc("0 3 * * *", func() {
		if err := s.CleanupRefreshTokens(context.Background()); err != nil {
			logger.Error().Err(err).Msg("refresh token cleanup failed")
		}
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to schedule refresh token cleanup")
		return
	}
	s.scheduler.Start()
}

// StopCleanupScheduler stops the background cleanup job.
func (s *AuthService) StopCleanupScheduler() {
	if s.scheduler != nil {
		s.scheduler.Stop()
		s.scheduler = nil
	}
}

// CleanupRefreshTokens deletes tokens that expired or were revoked more than
// a day ago.
func (s *AuthService) CleanupRefreshTokens(ctx context.Context) error {
	cutoff := time.Now().Add(-24 * time.Hour)
	return s.db.WithContext(ctx).
		Where("expires_at < ? OR revoked_at < ?", cutoff, cutoff).
		Delete(&models.RefreshToken{}).Error
}
