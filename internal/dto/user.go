package dto

import "time"

type CreateUserRequest struct {
	Name           string `json:"name" binding:"required,max=100"`
	Email          string `json:"email" binding:"required,email,max=255"`
	Password       string `json:"password" binding:"required,min=6,max=72"`
	PasswordSecond string `json:"password_second" binding:"required"`
	Cellphone      string `json:"cellphone" binding:"omitempty,max=20"`
}

// UpdateUserRequest carries only the fields being changed; nil means keep.
type UpdateUserRequest struct {
	Name      *string `json:"name" binding:"omitempty,max=100"`
	Password  *string `json:"password" binding:"omitempty,min=6,max=72"`
	Cellphone *string `json:"cellphone" binding:"omitempty,max=20"`
}

type UserResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Cellphone string    `json:"cellphone,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateUserResponse struct {
	ID      uint   `json:"id"`
	Message string `json:"message"`
}

// UserSearchQuery mirrors the /searchUsers query string.
type UserSearchQuery struct {
	Name         string  `form:"name"`
	Deleted      *string `form:"deleted"`
	LoginAntes   string  `form:"loginAntes"`
	LoginDespues string  `form:"loginDespues"`
}

// BulkItemResult is the outcome of one entry of a bulk creation.
type BulkItemResult struct {
	Index int    `json:"index"`
	Email string `json:"email"`
	ID    uint   `json:"id,omitempty"`
	Err   error  `json:"-"`
}

func (r BulkItemResult) OK() bool {
	return r.Err == nil
}

type BulkCreateResponse struct {
	Message string `json:"message"`
	Success int    `json:"success"`
	Failure int    `json:"failure"`
}
