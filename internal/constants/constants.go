package constants

import "time"

const (
	// ContextKeyUserID is the gin context key holding the authenticated user's ID.
	ContextKeyUserID = "user_id"
	// ContextKeyPrincipal is the gin context key holding the resolved principal.
	ContextKeyPrincipal = "principal"
	// ContextKeyRequestID is the gin context key holding the request correlation ID.
	ContextKeyRequestID = "request_id"

	// SessionCookieName is the cookie used by the browser session store.
	SessionCookieName = "projectdesk_session"
	// SessionKeyToken is the key under which the bearer token is kept in the cookie session.
	SessionKeyToken = "token"

	HeaderRequestID = "X-Request-ID"

	MinPasswordLength = 8
	MaxUsernameLength = 50

	DefaultSessionTTL = 24 * time.Hour

	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	MaxSuggestedTasks = 20
)
