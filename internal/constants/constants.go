package constants

import "time"

// Session / context keys
const (
	ContextKeyUserID  = "user_id"
	SessionCookieName = "reliefhub_session"
)

// Auth
const MinPasswordLength = 8

// Input validation
const (
	MinProjectNameLength        = 3
	MinProjectDescriptionLength = 10
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// BPM engine coordination. A freshly instantiated case needs a moment before
// its first human task shows up, so callers poll a bounded number of times.
const (
	HumanTaskPollAttempts = 5
	HumanTaskPollInterval = 700 * time.Millisecond
)

// MaxSuggestedTasks caps how many draft tasks the AI helper may return.
const MaxSuggestedTasks = 20
