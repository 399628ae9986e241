// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/publicsuffix"

	"github.com/jeranaias/ckyc-assist/internal/logging"
	"github.com/jeranaias/ckyc-assist/internal/telemetry"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 1 << 20

// Header names sent on every request.
const (
	HeaderRequestID     = "X-Request-ID"
	HeaderClientSession = "X-Client-Session"
)

// Operation names, used in errors, logs and metrics.
const (
	OpSetLanguage    = "setLanguage"
	OpTranslations   = "getTranslations"
	OpSetUserType    = "setUserType"
	OpChat           = "chat"
	OpCheckStatus    = "checkStatus"
	OpWalletInquiry  = "walletInquiry"
	OpMismatchCheck  = "mismatchCheck"
	OpSubmitFeedback = "submitFeedback"
	OpResetSession   = "resetSession"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// Config holds configuration options for the client.
type Config struct {
	// BaseURL is the backend base URL (default: http://127.0.0.1:5000).
	BaseURL string

	// Timeout bounds each request (default: 15s).
	Timeout time.Duration

	// UserAgent is sent on every request (default: "ckyc-assist").
	UserAgent string

	// HTTPClient overrides the transport. Its Jar is replaced when nil.
	HTTPClient *http.Client

	// Metrics receives per-call measurements (default: telemetry.Default()).
	Metrics *telemetry.Metrics

	// Logger receives per-call debug entries.
	Logger *logrus.Entry
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:   "http://127.0.0.1:5000",
		Timeout:   15 * time.Second,
		UserAgent: "ckyc-assist",
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the CKYC support backend.
//
// The Client is safe for concurrent use, but the backend session is a single
// cookie, so callers that care about ordering must serialize their calls.
type Client struct {
	baseURL    *url.URL
	userAgent  string
	httpClient *http.Client
	metrics    *telemetry.Metrics
	log        *logrus.Entry

	mu        sync.RWMutex
	sessionID string
}

// NewClient creates a client with the default configuration.
func NewClient() (*Client, error) {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a client, filling defaults for zero values.
func NewClientWithConfig(cfg Config) (*Client, error) {
	defaults := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Component("gateway")
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		httpClient.Jar = jar
	}

	return &Client{
		baseURL:    base,
		userAgent:  cfg.UserAgent,
		httpClient: httpClient,
		metrics:    cfg.Metrics,
		log:        cfg.Logger,
	}, nil
}

// SetSessionID sets the correlation id sent as X-Client-Session.
func (c *Client) SetSessionID(id string) {
	c.mu.Lock()
	c.sessionID = id
	c.mu.Unlock()
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// =============================================================================
// OPERATIONS
// =============================================================================

// SetLanguage stores the chosen language in the backend session.
func (c *Client) SetLanguage(ctx context.Context, code string) error {
	return c.do(ctx, OpSetLanguage, http.MethodPost, "/api/set-language", nil, languageRequest{Language: code}, nil)
}

// Translations fetches the key→string map for a language.
func (c *Client) Translations(ctx context.Context, code string) (map[string]string, error) {
	var out map[string]string
	query := url.Values{"lang": {code}}
	if err := c.do(ctx, OpTranslations, http.MethodGet, "/api/translations", query, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]string{}
	}
	return out, nil
}

// SetUserType stores the user type in the backend session.
func (c *Client) SetUserType(ctx context.Context, t UserType) error {
	return c.do(ctx, OpSetUserType, http.MethodPost, "/api/set-user-type", nil, userTypeRequest{UserType: t}, nil)
}

// Chat sends one chat message.
func (c *Client) Chat(ctx context.Context, message string) (ChatReply, error) {
	var out ChatReply
	err := c.do(ctx, OpChat, http.MethodPost, "/api/chat", nil, chatRequest{Message: message}, &out)
	return out, err
}

// CheckStatus looks up a registration/acknowledgment number.
func (c *Client) CheckStatus(ctx context.Context, regNumber string) (LookupReply, error) {
	var out LookupReply
	err := c.do(ctx, OpCheckStatus, http.MethodPost, "/api/check-status", nil, statusRequest{RegNumber: regNumber}, &out)
	return out, err
}

// WalletInquiry looks up one wallet figure (option 1-4) for an RE number.
func (c *Client) WalletInquiry(ctx context.Context, reNumber string, option int) (LookupReply, error) {
	var out LookupReply
	err := c.do(ctx, OpWalletInquiry, http.MethodPost, "/api/wallet-inquiry", nil,
		walletRequest{RENumber: reNumber, Option: option}, &out)
	return out, err
}

// MismatchCheck looks up the record for a CKYC number.
func (c *Client) MismatchCheck(ctx context.Context, ckycNumber string) (LookupReply, error) {
	var out LookupReply
	err := c.do(ctx, OpMismatchCheck, http.MethodPost, "/api/mismatch-check", nil,
		mismatchRequest{CKYCNumber: ckycNumber}, &out)
	return out, err
}

// SubmitFeedback sends a rating and optional free text.
func (c *Client) SubmitFeedback(ctx context.Context, fb Feedback) (FeedbackReply, error) {
	var out FeedbackReply
	err := c.do(ctx, OpSubmitFeedback, http.MethodPost, "/api/feedback", nil, fb, &out)
	return out, err
}

// ResetSession asks the backend to start a fresh session.
func (c *Client) ResetSession(ctx context.Context) error {
	return c.do(ctx, OpResetSession, http.MethodPost, "/api/reset", nil, struct{}{}, nil)
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// do performs one exchange. body is JSON-encoded when non-nil; out, when
// non-nil, receives the decoded 2xx body.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) (err error) {
	start := time.Now()
	requestID := uuid.NewString()
	status := 0

	defer func() {
		outcome := telemetry.StatusOK
		switch {
		case IsTransport(err):
			outcome = telemetry.StatusTransport
		case err != nil:
			outcome = telemetry.StatusBackend
		}
		elapsed := time.Since(start)
		c.metrics.RecordGatewayCall(ctx, op, outcome, elapsed)

		entry := c.log.WithFields(logrus.Fields{
			"op":          op,
			"request_id":  requestID,
			"status":      status,
			"duration_ms": elapsed.Milliseconds(),
		})
		if err != nil {
			entry.WithError(err).Debug("backend call failed")
		} else {
			entry.Debug("backend call")
		}
	}()

	u := c.baseURL.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return transportError(op, "failed to marshal request", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return transportError(op, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(HeaderRequestID, requestID)
	c.mu.RLock()
	if c.sessionID != "" {
		req.Header.Set(HeaderClientSession, c.sessionID)
	}
	c.mu.RUnlock()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(op, "request failed", err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return transportError(op, "failed to read response", err)
	}

	success := status >= 200 && status <= 299

	// A structured error wins over the status code. A successful translation
	// map is data, so an "error" key in it is just another label.
	var env errorEnvelope
	if (op != OpTranslations || !success) && len(bytes.TrimSpace(data)) > 0 && json.Unmarshal(data, &env) == nil {
		if msg, ok := env.message(); ok {
			return &ClientError{Type: ErrTypeBackend, Op: op, Status: status, Message: msg, Remote: true}
		}
	}

	if !success {
		return &ClientError{Type: ErrTypeBackend, Op: op, Status: status, Message: "unexpected status " + resp.Status}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return transportError(op, "failed to decode response", err)
		}
	}
	return nil
}
