// Package revocation implements an OAuth 2.0 token revocation client
// (RFC 7009).
package revocation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-retryablehttp"
	sdkhttp "github.com/jkabonick-ft/oidc-client/sdk/http"
)

const (
	// DefaultRetryMax is the number of times a failed request is retried.
	DefaultRetryMax = 2

	// DefaultTimeout bounds a revocation, including its retries.
	DefaultTimeout = 30 * time.Second

	// maxErrorBody limits how much of an error response is read.
	maxErrorBody = 4096
)

// Client revokes tokens at a single revocation endpoint.  Connection errors
// and 5xx responses are retried.
type Client struct {
	endpoint     string
	clientID     string
	clientSecret string
	client       *retryablehttp.Client
	logger       hclog.Logger
}

// NewClient creates a Client for the revocation endpoint URL and client id.
//
// Supported options:
//
//	WithClientSecret
//	WithProviderCA
//	WithHTTPClient
//	WithRetryMax
//	WithLogger
func NewClient(endpoint, clientID string, opt ...Option) (*Client, error) {
	const op = "revocation.NewClient"
	u, err := url.Parse(endpoint)
	switch {
	case endpoint == "":
		return nil, fmt.Errorf("%s: endpoint is empty: %w", op, ErrInvalidParameter)
	case err != nil || !u.IsAbs():
		return nil, fmt.Errorf("%s: endpoint %q is not an absolute URL: %w", op, endpoint, ErrInvalidParameter)
	case clientID == "":
		return nil, fmt.Errorf("%s: client id is empty: %w", op, ErrInvalidParameter)
	}
	opts := getOpts(opt...)
	logger := opts.withLogger.Named("revocation")

	hc := opts.withHTTPClient
	if hc == nil {
		hc, err = sdkhttp.NewClient(opts.withProviderCA)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", op, err, ErrInvalidCACert)
		}
		hc.Timeout = DefaultTimeout
	}
	rc := retryablehttp.NewClient()
	rc.HTTPClient = hc
	rc.RetryMax = opts.withRetryMax
	rc.RetryWaitMin = opts.withRetryWaitMin
	rc.RetryWaitMax = opts.withRetryWaitMax
	rc.Logger = retryablehttp.LeveledLogger(logger)
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		endpoint:     endpoint,
		clientID:     clientID,
		clientSecret: opts.withClientSecret,
		client:       rc,
		logger:       logger,
	}, nil
}

// Revoke the access token.  An unknown or already revoked token is not an
// error; the endpoint answers 200 for both.
func (c *Client) Revoke(ctx context.Context, token string) error {
	const op = "Client.Revoke"
	if token == "" {
		return fmt.Errorf("%s: token is empty: %w", op, ErrInvalidParameter)
	}
	form := url.Values{}
	form.Set("token", token)
	form.Set("token_type_hint", "access_token")
	if c.clientSecret == "" {
		form.Set("client_id", c.clientID)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%s: unable to create request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if c.clientSecret != "" {
		req.SetBasicAuth(url.QueryEscape(c.clientID), url.QueryEscape(c.clientSecret))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.Debug("token revoked")
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var errResp struct {
		Code        string `json:"error"`
		Description string `json:"error_description"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Code != "" {
		if errResp.Description != "" {
			return fmt.Errorf("%s: %s: %s: %w", op, errResp.Code, errResp.Description, ErrRevocationFailed)
		}
		return fmt.Errorf("%s: %s: %w", op, errResp.Code, ErrRevocationFailed)
	}
	return fmt.Errorf("%s: unexpected status %d: %w", op, resp.StatusCode, ErrRevocationFailed)
}
