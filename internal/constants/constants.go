package constants

// Session / context keys
const (
	SessionCookieName = "konbon_session"
	ContextKeyUserID  = "user_id"
	ContextKeyBoard   = "board"
	ContextKeyMember  = "board_member"
	ContextKeyTask    = "task"
)

// Auth limits
const (
	MinPasswordLength = 8
)

// Pagination limits
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)
