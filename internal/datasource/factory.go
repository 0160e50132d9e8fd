package datasource

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/pitwall/internal/config"
)

// HTTPClientConfigFrom maps provider settings onto transport settings.
func HTTPClientConfigFrom(cfg config.IRacingConfig) HTTPClientConfig {
	out := DefaultHTTPClientConfig()
	out.Name = "iracing"
	if cfg.TimeoutSeconds > 0 {
		out.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	out.MaxRetries = cfg.MaxRetries
	if cfg.RateLimit > 0 {
		out.RateLimit = cfg.RateLimit
	}
	return out
}

// NewHTTPClientFromConfig creates the shared provider transport from application config
func NewHTTPClientFromConfig(cfg config.IRacingConfig, logger logrus.FieldLogger) *RateLimitedHTTPClient {
	return NewRateLimitedHTTPClient(HTTPClientConfigFrom(cfg), logger)
}
