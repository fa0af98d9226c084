// Package google provides OAuth2 authentication and token management for Google APIs.
//
// Credentials are resolved through an ordered list of strategies: a bare
// access token from the environment (read-only, no refresh), a refresh token
// plus client credentials from the environment, and finally a cached token
// file saved by the auth flow. The first strategy that applies wins.
//
// The TokenProvider interface allows different token sources to be plugged in
// behind the calendar client.
package google
