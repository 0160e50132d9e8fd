package iracing

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/pitwall/internal/config"
	"github.com/yourusername/pitwall/internal/datasource"
	"github.com/yourusername/pitwall/internal/models"
)

const (
	grantTypePasswordLimited = "password_limited"
	tokenScope               = "iracing.auth"
	tokenRefreshMargin       = 60 * time.Second
)

// MaskSecret derives the masked credential the token endpoint expects:
// base64(sha256(secret + lowercase(trimmed identifier))).
func MaskSecret(secret, identifier string) string {
	sum := sha256.Sum256([]byte(secret + strings.ToLower(strings.TrimSpace(identifier))))
	return base64.StdEncoding.EncodeToString(sum[:])
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// AuthService exchanges the credential quadruple for a bearer token and caches it
// until shortly before expiry.
type AuthService struct {
	httpClient *datasource.RateLimitedHTTPClient
	cfg        config.IRacingConfig
	logger     logrus.FieldLogger
	now        func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(cfg config.IRacingConfig, httpClient *datasource.RateLimitedHTTPClient, logger logrus.FieldLogger) *AuthService {
	return &AuthService{
		httpClient: httpClient,
		cfg:        cfg,
		logger:     logger.WithField("component", "iracing_auth"),
		now:        time.Now,
	}
}

// Token returns a cached access token, or performs a fresh exchange when the cached
// one is missing or within a minute of expiry.
func (a *AuthService) Token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && a.now().Before(a.expiry.Add(-tokenRefreshMargin)) {
		return a.token, nil
	}

	resp, err := a.exchange(ctx)
	if err != nil {
		a.token = ""
		return "", err
	}

	a.token = resp.AccessToken
	a.expiry = a.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	a.logger.WithField("expires_in", resp.ExpiresIn).Debug("Obtained access token")
	return a.token, nil
}

// Invalidate drops the cached token so the next call re-authenticates.
func (a *AuthService) Invalidate() {
	a.mu.Lock()
	a.token = ""
	a.expiry = time.Time{}
	a.mu.Unlock()
}

func (a *AuthService) exchange(ctx context.Context) (*tokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", grantTypePasswordLimited)
	form.Set("client_id", a.cfg.ClientID)
	form.Set("client_secret", MaskSecret(a.cfg.ClientSecret, a.cfg.ClientID))
	form.Set("username", a.cfg.Username)
	form.Set("password", MaskSecret(a.cfg.Password, a.cfg.Username))
	form.Set("scope", tokenScope)

	resp, err := a.httpClient.PostForm(ctx, a.cfg.AuthURL, form)
	if err != nil {
		return nil, models.NewAuthenticationError("token request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.NewAuthenticationError("failed to read token response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, models.NewAuthenticationError(
			fmt.Sprintf("token endpoint returned %d: %s", resp.StatusCode, truncate(string(body), 200)), nil)
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, models.NewAuthenticationError("failed to decode token response", err)
	}
	if token.AccessToken == "" {
		return nil, models.NewAuthenticationError("no access token in response", nil)
	}

	return &token, nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
