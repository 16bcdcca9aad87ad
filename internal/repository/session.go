package repository

import (
	"context"
	"time"

	"github.com/Payphone-Digital/account-service/internal/model"
	ctxutil "github.com/Payphone-Digital/account-service/pkg/context"
	"github.com/Payphone-Digital/account-service/pkg/logger"
	"gorm.io/gorm"
)

// SessionFilter selects sessions by token or user and, when LiveAt is set,
// only those still valid at that instant.
type SessionFilter struct {
	Token  string
	UserID uint
	LiveAt *time.Time
}

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// FindSession returns the newest session matching f, or gorm.ErrRecordNotFound.
// A filter without Token or UserID matches nothing.
func (r *SessionRepository) FindSession(ctx context.Context, f SessionFilter) (*model.Session, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "FindSession")

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Token == "" && f.UserID == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	query := r.db.WithContext(ctx)
	if f.Token != "" {
		query = query.Where("token = ?", f.Token)
	}
	if f.UserID != 0 {
		query = query.Where("id_user = ?", f.UserID)
	}
	if f.LiveAt != nil {
		query = query.Where("expiration > ?", *f.LiveAt)
	}

	var session model.Session
	if err := query.Order("id DESC").Take(&session).Error; err != nil {
		logger.DebugWithContext(ctx, "Session lookup returned no row").
			Uint("user_id", f.UserID).
			Err(err).
			Log()
		return nil, err
	}

	return &session, nil
}

func (r *SessionRepository) CreateSession(ctx context.Context, session *model.Session) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "CreateSession")

	start := time.Now()
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to create session").
			Uint("user_id", session.UserID).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return err
	}

	logger.InfoWithContext(ctx, "Session created").
		Uint("user_id", session.UserID).
		Time("expiration", session.Expiration).
		Duration(time.Since(start)).
		Log()

	return nil
}

// UpdateSession sets the expiration of session id. A missing row yields
// gorm.ErrRecordNotFound.
func (r *SessionRepository) UpdateSession(ctx context.Context, id uint, expiration time.Time) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "UpdateSession")

	result := r.db.WithContext(ctx).Model(&model.Session{}).Where("id = ?", id).Update("expiration", expiration)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update session").
			Uint("session_id", id).
			Err(result.Error).
			Log()
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.InfoWithContext(ctx, "Session expiration updated").
		Uint("session_id", id).
		Time("expiration", expiration).
		Log()

	return nil
}
