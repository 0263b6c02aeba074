package constants

import "time"

// Context keys
const (
	ContextKeyUserID    = "user_id"
	ContextKeyUserRole  = "user_role"
	ContextKeyTask      = "task"
	ContextKeyRequestID = "request_id"
)

// Session
const (
	SessionCookieName = "task_session"
	SessionKeyToken   = "auth_token"
	SessionMaxAge     = 86400 * 7
)

// Headers
const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"
	BearerPrefix        = "Bearer"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Validation limits
const (
	MinPasswordLength   = 8
	MaxBulkTaskIDs      = 100
	MaxAIGeneratedTasks = 20
)

// DefaultTokenTTL is used when no JWT lifetime is configured.
const DefaultTokenTTL = 7 * 24 * time.Hour
