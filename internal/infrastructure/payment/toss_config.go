package payment

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/storefront/backend/internal/infrastructure/config"
)

const (
	tossAPIBaseURL     = "https://api.tosspayments.com"
	tossDefaultTimeout = 30 * time.Second
)

// TossConfig contains configuration for the Toss Payments API
type TossConfig struct {
	// SecretKey is the merchant secret key, sent as the Basic auth user name
	SecretKey string
	// BaseURL overrides the API host, e.g. for a sandbox or test server
	BaseURL string
	// Timeout bounds each gateway call
	Timeout time.Duration
}

// Errors for configuration validation
var (
	ErrTossMissingSecretKey = errors.New("toss: missing secret key")
	ErrTossInvalidBaseURL   = errors.New("toss: invalid base URL")
)

// TossConfigFromAppConfig maps the payment section of the app config
func TossConfigFromAppConfig(cfg *config.PaymentConfig) *TossConfig {
	return &TossConfig{
		SecretKey: cfg.SecretKey,
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
	}
}

// Validate validates the configuration and fills defaults
func (c *TossConfig) Validate() error {
	if strings.TrimSpace(c.SecretKey) == "" {
		return ErrTossMissingSecretKey
	}
	if c.BaseURL == "" {
		c.BaseURL = tossAPIBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrTossInvalidBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = tossDefaultTimeout
	}
	return nil
}
