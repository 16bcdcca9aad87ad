package constants

// Field Length Limits
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72 // bcrypt input limit
	MaxNameLength     = 100
	MaxPhoneLength    = 20
	MaxEmailLength    = 255
)

// Accepted layouts for search date bounds.
const (
	DateLayoutDay = "2006-01-02"
)
