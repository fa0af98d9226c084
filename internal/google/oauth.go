package google

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Environment variables consulted for credentials.
const (
	EnvClientID     = "GOOGLE_CLIENT_ID"
	EnvClientSecret = "GOOGLE_CLIENT_SECRET"
	EnvAccessToken  = "GOOGLE_ACCESS_TOKEN"
	EnvRefreshToken = "GOOGLE_REFRESH_TOKEN"
	EnvRedirectURL  = "GOOGLE_REDIRECT_URL"
)

// cacheDirName is the subdirectory under the user cache dir holding token files.
const cacheDirName = "meetfinder"

var accountNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// validateAccountName ensures the account name is safe to use in a file path.
func validateAccountName(account string) error {
	if account == "" {
		return fmt.Errorf("account name must not be empty")
	}
	if !accountNameRe.MatchString(account) {
		return fmt.Errorf("invalid account name %q: only letters, digits, hyphen and underscore are allowed", account)
	}
	return nil
}

// getTokenFilePath returns the token file path for the given account.
func getTokenFilePath(account string) string {
	return filepath.Join(userCacheDir(), cacheDirName, fmt.Sprintf("google-%s.token", account))
}

// Credentials holds a resolved token source along with how it was obtained.
//
// ReadOnly is true when the credentials cannot be refreshed (access token
// only). Booking, update and delete operations must be refused in that mode.
type Credentials struct {
	TokenSource oauth2.TokenSource

	// Source names the strategy that produced the credentials
	// ("access_token", "refresh_token", "token_file").
	Source string

	// ReadOnly indicates the credentials have no refresh capability.
	ReadOnly bool
}

// credentialStrategy resolves credentials for an account. Strategies are
// tried in a fixed order; a strategy returns (nil, nil) when it does not
// apply so the next one can be tried.
type credentialStrategy interface {
	Name() string
	Resolve(ctx context.Context, account string) (*Credentials, error)
}

// accessTokenStrategy uses a bare access token from the environment.
// No refresh is possible, so the resulting credentials are read-only.
type accessTokenStrategy struct{}

func (accessTokenStrategy) Name() string { return "access_token" }

func (accessTokenStrategy) Resolve(_ context.Context, _ string) (*Credentials, error) {
	accessToken := os.Getenv(EnvAccessToken)
	if accessToken == "" {
		return nil, nil
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	})

	return &Credentials{
		TokenSource: ts,
		Source:      "access_token",
		ReadOnly:    true,
	}, nil
}

// refreshTokenStrategy uses a refresh token plus client credentials from the
// environment. The token source mints fresh access tokens as needed.
type refreshTokenStrategy struct{}

func (refreshTokenStrategy) Name() string { return "refresh_token" }

func (refreshTokenStrategy) Resolve(ctx context.Context, _ string) (*Credentials, error) {
	refreshToken := os.Getenv(EnvRefreshToken)
	if refreshToken == "" {
		return nil, nil
	}

	conf, err := getOAuthConfig()
	if err != nil {
		return nil, fmt.Errorf("refresh token set but client credentials missing: %w", err)
	}

	ts := conf.TokenSource(ctx, &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Unix(1, 0),
	})

	return &Credentials{
		TokenSource: ts,
		Source:      "refresh_token",
	}, nil
}

// fileTokenStrategy reads a cached token pair saved by a prior auth flow.
type fileTokenStrategy struct{}

func (fileTokenStrategy) Name() string { return "token_file" }

func (fileTokenStrategy) Resolve(ctx context.Context, account string) (*Credentials, error) {
	if err := validateAccountName(account); err != nil {
		return nil, err
	}

	slurp, err := os.ReadFile(getTokenFilePath(account))
	if err != nil {
		return nil, nil
	}

	f := strings.Fields(strings.TrimSpace(string(slurp)))
	if len(f) != 2 {
		return nil, fmt.Errorf("invalid token file format for account %q", account)
	}

	conf, err := getOAuthConfig()
	if err != nil {
		return nil, err
	}

	ts := conf.TokenSource(ctx, &oauth2.Token{
		AccessToken:  f[0],
		TokenType:    "Bearer",
		RefreshToken: f[1],
		Expiry:       time.Unix(1, 0),
	})

	return &Credentials{
		TokenSource: ts,
		Source:      "token_file",
	}, nil
}

// strategies are tried in order: a bare access token wins over a refresh
// token, which wins over the cached token file.
var strategies = []credentialStrategy{
	accessTokenStrategy{},
	refreshTokenStrategy{},
	fileTokenStrategy{},
}

// ResolveCredentials walks the credential strategies in order and returns the
// first match. Returns an error when no strategy yields credentials.
func ResolveCredentials(ctx context.Context, account string) (*Credentials, error) {
	for _, s := range strategies {
		creds, err := s.Resolve(ctx, account)
		if err != nil {
			return nil, fmt.Errorf("credential strategy %s failed: %w", s.Name(), err)
		}
		if creds != nil {
			return creds, nil
		}
	}
	return nil, fmt.Errorf("no Google credentials found: set %s or %s, or run the auth flow", EnvAccessToken, EnvRefreshToken)
}

// HasToken checks if credentials are available for the default account.
func HasToken() bool {
	return HasTokenForAccount("default")
}

// HasTokenForAccount checks if any credential strategy would apply for the account.
func HasTokenForAccount(account string) bool {
	if os.Getenv(EnvAccessToken) != "" || os.Getenv(EnvRefreshToken) != "" {
		return true
	}
	if err := validateAccountName(account); err != nil {
		return false
	}
	_, err := os.ReadFile(getTokenFilePath(account))
	return err == nil
}

// GetAuthURL returns the OAuth URL for user authorization.
func GetAuthURL() (string, error) {
	conf, err := getOAuthConfig()
	if err != nil {
		return "", err
	}
	return conf.AuthCodeURL("state", oauth2.AccessTypeOffline), nil
}

// SaveTokenForAccount exchanges an authorization code for tokens and saves
// them under the user cache dir.
func SaveTokenForAccount(ctx context.Context, account, authCode string) error {
	if err := validateAccountName(account); err != nil {
		return err
	}

	conf, err := getOAuthConfig()
	if err != nil {
		return err
	}

	t, err := conf.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}

	tokenFile := getTokenFilePath(account)
	if err := os.MkdirAll(filepath.Dir(tokenFile), 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tokenData := t.AccessToken + " " + t.RefreshToken
	if err := os.WriteFile(tokenFile, []byte(tokenData), 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// getOAuthConfig returns the OAuth2 configuration from the environment.
func getOAuthConfig() (*oauth2.Config, error) {
	clientID := os.Getenv(EnvClientID)
	clientSecret := os.Getenv(EnvClientSecret)
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("%s and %s must be set", EnvClientID, EnvClientSecret)
	}

	redirectURL := os.Getenv(EnvRedirectURL)
	if redirectURL == "" {
		redirectURL = "urn:ietf:wg:oauth:2.0:oob"
	}

	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirectURL,
		Scopes:       DefaultOAuthScopes,
	}, nil
}

// GetTokenSourceForAccount returns an OAuth2 token source for the account.
func GetTokenSourceForAccount(ctx context.Context, account string) (oauth2.TokenSource, error) {
	creds, err := ResolveCredentials(ctx, account)
	if err != nil {
		return nil, err
	}
	return creds.TokenSource, nil
}

// GetHTTPClient returns an HTTP client configured with OAuth2 authentication.
// The client is configured to use HTTP/1.1 to avoid HTTP/2 protocol errors.
func GetHTTPClient(ctx context.Context, account string) (*http.Client, error) {
	ts, err := GetTokenSourceForAccount(ctx, account)
	if err != nil {
		return nil, err
	}

	client := oauth2.NewClient(ctx, ts)

	// Force HTTP/1.1 by disabling HTTP/2
	if transport, ok := client.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{
			ForceAttemptHTTP2: false,
		}
	}

	return client, nil
}

func userCacheDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Caches")
	case "windows":
		for _, ev := range []string{"TEMP", "TMP"} {
			if v := os.Getenv(ev); v != "" {
				return v
			}
		}
		panic("No Windows TEMP or TMP environment variables found")
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return xdg
	}
	return filepath.Join(homeDir(), ".cache")
}

func homeDir() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
	}
	return os.Getenv("HOME")
}
