package google

// DefaultOAuthScopes are the Google OAuth scopes required for scheduling.
// These scopes are used consistently across the application for OAuth configurations.
//
// The scopes provide access to:
//   - Google Calendar: full access (read busy times, create/update/delete events)
//   - User info: identify the authenticated organizer
var DefaultOAuthScopes = []string{
	// OpenID Connect scopes (required for user info)
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",

	// Google Calendar scope
	"https://www.googleapis.com/auth/calendar",
}

// ReadOnlyOAuthScopes are the scopes sufficient for availability lookups
// without booking capability.
var ReadOnlyOAuthScopes = []string{
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/calendar.readonly",
}
