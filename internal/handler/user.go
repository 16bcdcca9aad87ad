package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Payphone-Digital/account-service/internal/constants"
	"github.com/Payphone-Digital/account-service/internal/dto"
	apperrors "github.com/Payphone-Digital/account-service/internal/errors"
	"github.com/Payphone-Digital/account-service/internal/service"
	ctxutil "github.com/Payphone-Digital/account-service/pkg/context"
	"github.com/Payphone-Digital/account-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(service *service.UserService) *UserHandler {
	return &UserHandler{userService: service}
}

// FetchAllUsers lists every active user.
func (h *UserHandler) FetchAllUsers(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "FetchAllUsers")

	users, err := h.userService.ListUsers(ctx)
	if err != nil {
		respondError(ctx, c, err)
		return
	}

	logger.InfoWithContext(ctx, "Users fetched successfully").
		Int("returned_count", len(users)).
		Log()

	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) SearchUsers(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "SearchUsers")

	var q dto.UserSearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(ctx, c, apperrors.WrapError(apperrors.ErrInvalidInput, err))
		return
	}

	users, err := h.userService.SearchUsers(ctx, q)
	if err != nil {
		respondError(ctx, c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) AddUser(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "AddUser")

	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid request body for user creation").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(constants.MsgBadRequest, nil))
		return
	}

	res, err := h.userService.CreateUser(ctx, req)
	if err != nil {
		respondError(ctx, c, err)
		return
	}

	logger.InfoWithContext(ctx, "User created successfully").
		Uint("user_id", res.ID).
		Log()

	c.JSON(http.StatusOK, res)
}

// MassAddUsers creates every entry of a JSON array. Entries are validated one
// by one so a bad entry only counts as a failure.
func (h *UserHandler) MassAddUsers(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "MassAddUsers")

	var reqs []dto.CreateUserRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&reqs); err != nil {
		logger.WarnWithContext(ctx, "Invalid request body for bulk creation").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(constants.MsgBadRequest, nil))
		return
	}

	res := h.userService.BulkCreateUsers(ctx, reqs)

	logger.InfoWithContext(ctx, "Bulk creation finished").
		Int("success", res.Success).
		Int("failure", res.Failure).
		Log()

	c.JSON(http.StatusOK, res)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "GetUser")

	id, err := pathID(c)
	if err != nil {
		respondError(ctx, c, err)
		return
	}

	user, err := h.userService.GetUserByID(ctx, id)
	if err != nil {
		respondError(ctx, c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "UpdateUser")

	id, err := pathID(c)
	if err != nil {
		respondError(ctx, c, err)
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid request body for user update").
			Uint("user_id", id).
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(constants.MsgBadRequest, nil))
		return
	}

	if err := h.userService.UpdateUser(ctx, id, req); err != nil {
		respondError(ctx, c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgUserUpdated))
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "DeleteUser")

	id, err := pathID(c)
	if err != nil {
		respondError(ctx, c, err)
		return
	}

	if err := h.userService.DeleteUser(ctx, id); err != nil {
		respondError(ctx, c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgUserDeleted))
}
