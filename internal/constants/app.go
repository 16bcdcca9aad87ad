package constants

// Application Information
const (
	AppName    = "Account Service"
	AppVersion = "1.0.0"
)

// Environment Types
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Cache Key Prefixes
const (
	CacheKeyPrefix  = "acct:"
	CacheKeySession = CacheKeyPrefix + "session:"
)

// Roles carried by every issued session.
const (
	RoleUser = "User"
)

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)
