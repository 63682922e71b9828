package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/codehivehq/codehive/backend/internal/apperr"
	"github.com/codehivehq/codehive/backend/internal/models"
	"github.com/codehivehq/codehive/backend/internal/utils"
	"gorm.io/gorm"
)

// UserService owns account registration and the user directory consumed by
// the project service when validating member candidates.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Register creates a new account with a bcrypt-hashed password. Emails are
// stored lowercased and must be unique.
func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if !emailPattern.MatchString(email) {
		return nil, apperr.Validation("invalid email format")
	}
	if len(req.Password) < 6 {
		return nil, apperr.Validation("password must be at least 6 characters")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperr.EmailConflict()
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:     name,
		Email:    email,
		Password: hash,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.EmailConflict()
		}
		return nil, err
	}

	return &user, nil
}

// FindByID resolves a single user.
func (s *UserService) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user")
		}
		return nil, err
	}
	return &user, nil
}

// FindByEmail resolves a user by normalized email.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user")
		}
		return nil, err
	}
	return &user, nil
}

// FindManyByIDs returns the users matching the given IDs. Callers compare the
// result length against the request to detect unknown users.
func (s *UserService) FindManyByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// List returns every user except the caller, for the add-members picker.
func (s *UserService) List(ctx context.Context, excludeUserID uint) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Where("id != ?", excludeUserID).Order("name ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
