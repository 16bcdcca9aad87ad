package repository

import (
	"context"
	"strings"
	"time"

	"github.com/Payphone-Digital/account-service/internal/model"
	ctxutil "github.com/Payphone-Digital/account-service/pkg/context"
	"github.com/Payphone-Digital/account-service/pkg/logger"
	"gorm.io/gorm"
)

// UserFilter is a conjunction of optional predicates. Zero fields are ignored,
// except that FindUser needs ID or Email to be set.
type UserFilter struct {
	ID           uint
	Email        string
	Status       *model.UserStatus
	NameContains string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
}

// UserUpdate lists the columns to overwrite. Nil fields are left as stored.
type UserUpdate struct {
	Name      *string
	Password  *string
	Cellphone *string
	Status    *model.UserStatus
}

func (f UserFilter) hasKey() bool {
	return f.ID != 0 || f.Email != ""
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// containsPattern matches s literally anywhere in a lowercased column.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

func (u UserUpdate) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if u.Name != nil {
		cols["name"] = *u.Name
	}
	if u.Password != nil {
		cols["password"] = *u.Password
	}
	if u.Cellphone != nil {
		cols["cellphone"] = *u.Cellphone
	}
	if u.Status != nil {
		cols["status"] = *u.Status
	}
	return cols
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) applyFilter(query *gorm.DB, f UserFilter) *gorm.DB {
	if f.ID != 0 {
		query = query.Where("id = ?", f.ID)
	}
	if f.Email != "" {
		query = query.Where("email = ?", f.Email)
	}
	if f.Status != nil {
		query = query.Where("status = ?", *f.Status)
	}
	if f.NameContains != "" {
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\'`, containsPattern(f.NameContains))
	}
	if f.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		query = query.Where("created_at <= ?", *f.CreatedTo)
	}
	return query
}

// FindUser returns the first user matching f, or gorm.ErrRecordNotFound. A
// filter without ID or Email matches nothing.
func (r *UserRepository) FindUser(ctx context.Context, f UserFilter) (*model.User, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "FindUser")

	if !f.hasKey() {
		return nil, gorm.ErrRecordNotFound
	}

	if err := ctx.Err(); err != nil {
		logger.WarnWithContext(ctx, "Context cancelled before query").
			Err(err).
			Log()
		return nil, err
	}

	start := time.Now()
	var user model.User

	result := r.applyFilter(r.db.WithContext(ctx), f).First(&user)
	duration := time.Since(start)

	if result.Error != nil {
		logger.DebugWithContext(ctx, "User lookup returned no row").
			Uint("user_id", f.ID).
			String("email", f.Email).
			Duration(duration).
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	logger.DebugWithContext(ctx, "User retrieved successfully").
		Uint("user_id", user.ID).
		Duration(duration).
		Log()

	return &user, nil
}

// ListUsers returns every user matching f ordered by id.
func (r *UserRepository) ListUsers(ctx context.Context, f UserFilter) ([]model.User, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "ListUsers")

	if err := ctx.Err(); err != nil {
		logger.WarnWithContext(ctx, "Context cancelled before query").
			Err(err).
			Log()
		return nil, err
	}

	start := time.Now()
	users := make([]model.User, 0)

	if err := r.applyFilter(r.db.WithContext(ctx).Model(&model.User{}), f).Order("id").Find(&users).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to fetch users").
			String("name", f.NameContains).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return nil, err
	}

	logger.DebugWithContext(ctx, "Users retrieved successfully").
		Int("returned_count", len(users)).
		Duration(time.Since(start)).
		Log()

	return users, nil
}

// CreateUser inserts user and fills its ID and timestamps.
func (r *UserRepository) CreateUser(ctx context.Context, user *model.User) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "CreateUser")

	start := time.Now()
	result := r.db.WithContext(ctx).Create(user)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to create user").
			String("email", user.Email).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	logger.InfoWithContext(ctx, "User created successfully").
		Uint("user_id", user.ID).
		Duration(duration).
		Log()

	return nil
}

// UpdateUser overwrites the supplied columns of the active row with id. A
// missing or deleted row yields gorm.ErrRecordNotFound.
func (r *UserRepository) UpdateUser(ctx context.Context, id uint, u UserUpdate) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "UpdateUser")

	cols := u.columns()
	if len(cols) == 0 {
		return nil
	}

	start := time.Now()
	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND status = ?", id, model.UserStatusActive).
		Updates(cols)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update user").
			Uint("user_id", id).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.InfoWithContext(ctx, "User updated successfully").
		Uint("user_id", id).
		Int("fields", len(cols)).
		Duration(duration).
		Log()

	return nil
}

// SoftDelete moves the user to the deleted state. The row is kept.
func (r *UserRepository) SoftDelete(ctx context.Context, id uint) error {
	deleted := model.UserStatusDeleted
	return r.UpdateUser(ctx, id, UserUpdate{Status: &deleted})
}
