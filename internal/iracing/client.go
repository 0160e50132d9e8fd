// Package iracing implements the upstream provider client for the iRacing data API.
package iracing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/pitwall/internal/config"
	"github.com/yourusername/pitwall/internal/datasource"
	"github.com/yourusername/pitwall/internal/logger"
	"github.com/yourusername/pitwall/internal/models"
	"github.com/yourusername/pitwall/internal/transform"
)

const (
	providerName = "iracing"

	seasonsPath   = "/data/series/seasons"
	carClassPath  = "/data/carclass/get"
	memberGetPath = "/data/member/get"
)

// Client implements datasource.Provider against the iRacing data API
type Client struct {
	httpClient  *datasource.RateLimitedHTTPClient
	auth        *AuthService
	config      config.IRacingConfig
	apiURL      string
	development bool
	validate    *validator.Validate
	logger      logrus.FieldLogger
	syncLogger  *logger.SyncLogger
}

var _ datasource.Provider = (*Client)(nil)

// NewClient creates a new iRacing API client. In development the client serves
// mock data when credentials are missing instead of failing.
func NewClient(
	cfg config.IRacingConfig,
	httpClient *datasource.RateLimitedHTTPClient,
	development bool,
	log logrus.FieldLogger,
) *Client {
	if log == nil {
		log = logger.Discard()
	}

	return &Client{
		httpClient:  httpClient,
		auth:        NewAuthService(cfg, httpClient, log),
		config:      cfg,
		apiURL:      strings.TrimRight(cfg.APIURL, "/"),
		development: development,
		validate:    validator.New(),
		logger:      log.WithField("component", "iracing_client"),
		syncLogger:  logger.NewSyncLogger(log),
	}
}

// Name returns the name of the provider
func (c *Client) Name() string {
	return providerName
}

// FetchSpecialEvents fetches the season catalog and transforms it into team events
// within the sync window.
func (c *Client) FetchSpecialEvents(ctx context.Context, now time.Time) ([]models.NormalizedEvent, error) {
	if !c.config.HasCredentials() {
		if c.development {
			c.syncLogger.LogMockFallback("fetch_special_events", "missing credentials")
			return transform.SeasonsToEvents(MockSeasons(now), now), nil
		}
		return nil, missingCredentialsError()
	}

	body, err := c.getData(ctx, seasonsPath, url.Values{"include_series": {"true"}})
	if err != nil {
		return nil, err
	}

	if c.config.DebugDump {
		c.dumpSeasons(body)
	}

	seasons, skipped, err := decodeSeasons(body, c.validate)
	if err != nil {
		return nil, models.NewRequestError(seasonsPath, 0, "malformed season payload", err)
	}
	if skipped > 0 {
		c.logger.WithField("skipped", skipped).Warn("Dropped invalid seasons from catalog")
	}

	events := transform.SeasonsToEvents(seasons, now)
	c.logger.WithFields(logrus.Fields{
		"seasons": len(seasons),
		"events":  len(events),
	}).Info("Fetched special events")

	return events, nil
}

// FetchCarClasses returns the provider's car class reference data.
func (c *Client) FetchCarClasses(ctx context.Context) ([]models.CarClass, error) {
	if !c.config.HasCredentials() {
		if c.development {
			c.syncLogger.LogMockFallback("fetch_car_classes", "missing credentials")
			return MockCarClasses(), nil
		}
		return nil, missingCredentialsError()
	}

	body, err := c.getData(ctx, carClassPath, nil)
	if err != nil {
		return nil, err
	}

	classes, err := decodeCarClasses(body, c.validate)
	if err != nil {
		return nil, models.NewRequestError(carClassPath, 0, "malformed car class payload", err)
	}
	return classes, nil
}

// FetchDriverStats returns license data for one customer id. A nil result with nil
// error means the provider knows no such member.
func (c *Client) FetchDriverStats(ctx context.Context, customerID string) (*models.MemberInfo, error) {
	if !c.config.HasCredentials() {
		if c.development {
			c.syncLogger.LogMockFallback("fetch_driver_stats", "missing credentials")
			return MockMemberInfo(customerID), nil
		}
		return nil, missingCredentialsError()
	}

	body, err := c.getData(ctx, memberGetPath, url.Values{
		"cust_ids":         {customerID},
		"include_licenses": {"true"},
	})
	if err != nil {
		if models.IsAuthenticationError(err) && c.development {
			c.syncLogger.LogMockFallback("fetch_driver_stats", err.Error())
			return MockMemberInfo(customerID), nil
		}
		return nil, err
	}

	member, err := decodeMember(body, c.validate)
	if err != nil {
		return nil, models.NewRequestError(memberGetPath, 0, "malformed member payload", err)
	}
	return member, nil
}

// getData performs an authenticated GET against the data API and follows the link
// indirection when the response carries one.
func (c *Client) getData(ctx context.Context, path string, query url.Values) ([]byte, error) {
	token, err := c.auth.Token(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := c.apiURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	header.Set("Accept", "application/json")

	c.logger.WithField("path", path).Debug("Making iRacing API request")

	body, err := c.read(ctx, path, endpoint, header)
	if err != nil {
		return nil, err
	}

	var envelope linkEnvelope
	if json.Unmarshal(body, &envelope) != nil || envelope.Link == "" {
		return body, nil
	}

	return c.read(ctx, path, envelope.Link, nil)
}

func (c *Client) read(ctx context.Context, path, endpoint string, header http.Header) ([]byte, error) {
	resp, err := c.httpClient.Get(ctx, endpoint, header)
	if err != nil {
		return nil, models.NewRequestError(path, 0, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.NewRequestError(path, resp.StatusCode, "failed to read response", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.auth.Invalidate()
		return nil, models.NewAuthenticationError(
			fmt.Sprintf("%s rejected access token with %d", path, resp.StatusCode), nil)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, models.NewRequestError(path, resp.StatusCode, truncate(string(body), 200), nil)
	}

	return body, nil
}

func (c *Client) dumpSeasons(body []byte) {
	path := c.config.DebugDumpPath
	if err := os.WriteFile(path, body, 0o600); err != nil {
		c.logger.WithError(err).WithField("path", path).Warn("Failed to write season debug dump")
		return
	}
	c.logger.WithField("path", path).Info("Wrote season debug dump")
}

func missingCredentialsError() error {
	return models.NewConfigurationError(
		"iRacing credentials are not configured (client_id, client_secret, username, password)", nil)
}
