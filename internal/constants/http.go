package constants

// HTTP Header Names
const (
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"
)

const BearerScheme = "Bearer"

// Common HTTP Error Messages
const (
	MsgUnauthorized     = "Unauthorized access"
	MsgForbidden        = "Access forbidden"
	MsgNotFound         = "Resource not found"
	MsgBadRequest       = "Invalid request format"
	MsgValidationFailed = "Validation failed"
	MsgInternalError    = "Internal server error"
	MsgIDRequired       = "ID is required"
	MsgIDNotNumeric     = "ID must be a number"
	MsgRateLimited      = "Rate limit exceeded"
	MsgLoggedOut        = "Logged out successfully"
	MsgTokenRequired    = "Token is required"
	MsgUserUpdated      = "User successfully updated"
	MsgUserDeleted      = "User successfully deleted"
	MsgUserCreatedFmt   = "User successfully created with ID: %d"
	MsgBulkResultFmt    = "Successfully created users: %d, Failed to create users: %d"
)
