package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/codehivehq/codehive/backend/internal/apperr"
	"github.com/codehivehq/codehive/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// testDB opens a fresh in-memory sqlite database. The named shared-cache DSN
// keeps every pooled connection on the same database while isolating tests
// from each other.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Project{}, &models.ProjectMember{}, &models.RefreshToken{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name, email string) *models.User {
	t.Helper()

	users := NewUserService(db)
	user, err := users.Register(context.Background(), &RegisterRequest{
		Name:     name,
		Email:    email,
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return user
}

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected error of kind %s, got nil", kind)
	}
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperr.Error of kind %s, got %T (%v)", kind, err, err)
	}
	if appErr.Kind != kind {
		t.Fatalf("error kind = %s, expected %s", appErr.Kind, kind)
	}
}
