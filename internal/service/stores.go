package service

import (
	"context"
	"errors"
	"time"

	"github.com/Payphone-Digital/account-service/internal/model"
	"github.com/Payphone-Digital/account-service/internal/repository"
	"gorm.io/gorm"
)

// UserStore is the persistence the user and auth services depend on.
type UserStore interface {
	FindUser(ctx context.Context, f repository.UserFilter) (*model.User, error)
	ListUsers(ctx context.Context, f repository.UserFilter) ([]model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
	UpdateUser(ctx context.Context, id uint, u repository.UserUpdate) error
	SoftDelete(ctx context.Context, id uint) error
}

type SessionStore interface {
	FindSession(ctx context.Context, f repository.SessionFilter) (*model.Session, error)
	CreateSession(ctx context.Context, session *model.Session) error
	UpdateSession(ctx context.Context, id uint, expiration time.Time) error
}

var (
	_ UserStore    = (*repository.UserRepository)(nil)
	_ SessionStore = (*repository.SessionRepository)(nil)
)

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func activeStatus() *model.UserStatus {
	s := model.UserStatusActive
	return &s
}

func utcNow() time.Time {
	return time.Now().UTC()
}
