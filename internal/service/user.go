package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Payphone-Digital/account-service/internal/constants"
	"github.com/Payphone-Digital/account-service/internal/dto"
	apperrors "github.com/Payphone-Digital/account-service/internal/errors"
	"github.com/Payphone-Digital/account-service/internal/model"
	"github.com/Payphone-Digital/account-service/internal/repository"
	ctxutil "github.com/Payphone-Digital/account-service/pkg/context"
	"github.com/Payphone-Digital/account-service/pkg/logger"
	"github.com/Payphone-Digital/account-service/pkg/validation"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

type UserService struct {
	users    UserStore
	hasher   PasswordHasher
	validate *validator.Validate
}

func NewUserService(users UserStore, hasher PasswordHasher) *UserService {
	return &UserService{
		users:    users,
		hasher:   hasher,
		validate: validation.New(),
	}
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Cellphone: u.Cellphone,
		Status:    string(u.Status),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toUserResponses(users []model.User) []dto.UserResponse {
	res := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		res = append(res, toUserResponse(&users[i]))
	}
	return res
}

// CreateUser registers a new active user.
func (s *UserService) CreateUser(ctx context.Context, req dto.CreateUserRequest) (*dto.CreateUserResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "CreateUser")

	user, err := s.createOne(ctx, req)
	if err != nil {
		logger.WarnWithContext(ctx, "User not created").
			String("email", req.Email).
			Err(err).
			Log()
		return nil, err
	}

	return &dto.CreateUserResponse{
		ID:      user.ID,
		Message: fmt.Sprintf(constants.MsgUserCreatedFmt, user.ID),
	}, nil
}

func (s *UserService) createOne(ctx context.Context, req dto.CreateUserRequest) (*model.User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInvalidInput, err)
	}

	if req.Password != req.PasswordSecond {
		return nil, apperrors.ErrPasswordMismatch
	}

	_, err := s.users.FindUser(ctx, repository.UserFilter{Email: req.Email, Status: activeStatus()})
	switch {
	case err == nil:
		return nil, apperrors.ErrEmailExists
	case !isNotFound(err):
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	user := &model.User{
		Name:      req.Name,
		Email:     req.Email,
		Password:  hashed,
		Cellphone: req.Cellphone,
		Status:    model.UserStatusActive,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent insert of the same email.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrEmailExists
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	return user, nil
}

func (s *UserService) findActive(ctx context.Context, id uint) (*model.User, error) {
	if id == 0 {
		return nil, apperrors.ErrUserNotFound
	}
	user, err := s.users.FindUser(ctx, repository.UserFilter{ID: id, Status: activeStatus()})
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*dto.UserResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "GetUserByID")

	user, err := s.findActive(ctx, id)
	if err != nil {
		return nil, err
	}

	res := toUserResponse(user)
	return &res, nil
}

// UpdateUser overlays the supplied fields on an active user. Empty strings
// count as not supplied. A new password is hashed before storing.
func (s *UserService) UpdateUser(ctx context.Context, id uint, req dto.UpdateUserRequest) error {
	ctx = ctxutil.WithFunction(ctx, "service", "UpdateUser")

	if err := s.validate.Struct(req); err != nil {
		return apperrors.WrapError(apperrors.ErrInvalidInput, err)
	}

	if _, err := s.findActive(ctx, id); err != nil {
		return err
	}

	var update repository.UserUpdate
	if req.Name != nil && *req.Name != "" {
		update.Name = req.Name
	}
	if req.Cellphone != nil && *req.Cellphone != "" {
		update.Cellphone = req.Cellphone
	}
	if req.Password != nil && *req.Password != "" {
		hashed, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return apperrors.WrapError(apperrors.ErrInternal, err)
		}
		update.Password = &hashed
	}

	if err := s.users.UpdateUser(ctx, id, update); err != nil {
		if isNotFound(err) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "User updated").Uint("user_id", id).Log()
	return nil
}

// DeleteUser soft-deletes an active user.
func (s *UserService) DeleteUser(ctx context.Context, id uint) error {
	ctx = ctxutil.WithFunction(ctx, "service", "DeleteUser")

	if _, err := s.findActive(ctx, id); err != nil {
		return err
	}

	if err := s.users.SoftDelete(ctx, id); err != nil {
		if isNotFound(err) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "User deleted").Uint("user_id", id).Log()
	return nil
}

// ListUsers returns every active user.
func (s *UserService) ListUsers(ctx context.Context) ([]dto.UserResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "ListUsers")

	users, err := s.users.ListUsers(ctx, repository.UserFilter{Status: activeStatus()})
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return toUserResponses(users), nil
}

// SearchUsers applies every supplied criterion of q at once.
func (s *UserService) SearchUsers(ctx context.Context, q dto.UserSearchQuery) ([]dto.UserResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "SearchUsers")

	filter, err := searchFilter(q)
	if err != nil {
		return nil, err
	}

	users, err := s.users.ListUsers(ctx, filter)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.DebugWithContext(ctx, "Users searched").
		String("name", q.Name).
		Int("returned_count", len(users)).
		Log()

	return toUserResponses(users), nil
}

func searchFilter(q dto.UserSearchQuery) (repository.UserFilter, error) {
	f := repository.UserFilter{NameContains: strings.TrimSpace(q.Name)}

	if q.Deleted != nil {
		status := model.UserStatusActive
		if *q.Deleted == "true" {
			status = model.UserStatusDeleted
		}
		f.Status = &status
	}

	if q.LoginAntes != "" {
		to, err := parseSearchDate(q.LoginAntes)
		if err != nil {
			return f, err
		}
		f.CreatedTo = &to
	}
	if q.LoginDespues != "" {
		from, err := parseSearchDate(q.LoginDespues)
		if err != nil {
			return f, err
		}
		f.CreatedFrom = &from
	}

	return f, nil
}

func parseSearchDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(constants.DateLayoutDay, v)
	if err != nil {
		return time.Time{}, apperrors.WrapError(apperrors.ErrInvalidInput, fmt.Errorf("unparsable date %q", v))
	}
	return t, nil
}

// BulkCreateUsers creates each entry in order. A failing entry is counted
// and skipped, it never stops the batch.
func (s *UserService) BulkCreateUsers(ctx context.Context, reqs []dto.CreateUserRequest) *dto.BulkCreateResponse {
	ctx = ctxutil.WithFunction(ctx, "service", "BulkCreateUsers")

	results := make([]dto.BulkItemResult, 0, len(reqs))
	for i, req := range reqs {
		item := dto.BulkItemResult{Index: i, Email: req.Email}
		user, err := s.createOne(ctx, req)
		if err != nil {
			item.Err = err
			logger.WarnWithContext(ctx, "Bulk entry rejected").
				Int("index", i).
				String("email", req.Email).
				Err(err).
				Log()
		} else {
			item.ID = user.ID
		}
		results = append(results, item)
	}

	return summarizeBulk(results)
}

func summarizeBulk(results []dto.BulkItemResult) *dto.BulkCreateResponse {
	var ok, failed int
	for _, r := range results {
		if r.OK() {
			ok++
		} else {
			failed++
		}
	}
	return &dto.BulkCreateResponse{
		Message: fmt.Sprintf(constants.MsgBulkResultFmt, ok, failed),
		Success: ok,
		Failure: failed,
	}
}
