// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/jeranaias/ckyc-assist/internal/telemetry"
)

// recorded is one request seen by the test server.
type recorded struct {
	Method  string
	Path    string
	Query   string
	Body    map[string]any
	Headers http.Header
	Cookie  string
}

type testServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []recorded
}

// newTestServer serves handler and records every request. It sets a session
// cookie on the first response, the way the backend does.
func newTestServer(t *testing.T, handler http.HandlerFunc) *testServer {
	t.Helper()
	ts := &testServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Headers: r.Header.Clone()}
		if c, err := r.Cookie("session"); err == nil {
			rec.Cookie = c.Value
		} else {
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
		}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &rec.Body)
		}
		ts.mu.Lock()
		ts.requests = append(ts.requests, rec)
		ts.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *testServer) last() recorded {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.requests[len(ts.requests)-1]
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func newTestClient(t *testing.T, url string) (*Client, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := telemetry.NewMetrics(mp)
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	c, err := NewClientWithConfig(Config{
		BaseURL: url,
		Timeout: 2 * time.Second,
		Metrics: metrics,
		Logger:  logrus.NewEntry(logger),
	})
	require.NoError(t, err)
	return c, reader
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

func TestNewClientWithConfig_Defaults(t *testing.T) {
	c, err := NewClient()
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:5000", c.BaseURL())
	assert.Equal(t, "ckyc-assist", c.userAgent)
	assert.NotNil(t, c.httpClient.Jar)
}

func TestNewClientWithConfig_RejectsBadURL(t *testing.T) {
	for _, u := range []string{"not a url", "/relative", "http://"} {
		_, err := NewClientWithConfig(Config{BaseURL: u})
		assert.Error(t, err, u)
	}
}

func TestNewClientWithConfig_TrimsTrailingSlash(t *testing.T) {
	c, err := NewClientWithConfig(Config{BaseURL: "http://example.test:5000/"})
	require.NoError(t, err)
	assert.Equal(t, "http://example.test:5000", c.BaseURL())
}

// =============================================================================
// OPERATIONS
// =============================================================================

func TestOperations_WireFormat(t *testing.T) {
	ts := newTestServer(t, jsonHandler(http.StatusOK, `{"success": true, "response": "ok"}`))
	c, _ := newTestClient(t, ts.URL)
	ctx := context.Background()

	tests := []struct {
		name   string
		call   func() error
		method string
		path   string
		body   map[string]any
	}{
		{"set language", func() error { return c.SetLanguage(ctx, "hi") },
			http.MethodPost, "/api/set-language", map[string]any{"language": "hi"}},
		{"set user type", func() error { return c.SetUserType(ctx, UserTypeEntity) },
			http.MethodPost, "/api/set-user-type", map[string]any{"user_type": "re"}},
		{"chat", func() error { _, err := c.Chat(ctx, "hello"); return err },
			http.MethodPost, "/api/chat", map[string]any{"message": "hello"}},
		{"check status", func() error { _, err := c.CheckStatus(ctx, "ACK1"); return err },
			http.MethodPost, "/api/check-status", map[string]any{"reg_number": "ACK1"}},
		{"wallet", func() error { _, err := c.WalletInquiry(ctx, "123", 3); return err },
			http.MethodPost, "/api/wallet-inquiry", map[string]any{"re_number": "123", "option": float64(3)}},
		{"mismatch", func() error { _, err := c.MismatchCheck(ctx, "12345678901234"); return err },
			http.MethodPost, "/api/mismatch-check", map[string]any{"ckyc_number": "12345678901234"}},
		{"feedback", func() error {
			_, err := c.SubmitFeedback(ctx, Feedback{Rating: "Bad", RatingValue: 2, FeedbackText: "slow"})
			return err
		}, http.MethodPost, "/api/feedback", map[string]any{"rating": "Bad", "rating_value": float64(2), "feedback_text": "slow"}},
		{"reset", func() error { return c.ResetSession(ctx) },
			http.MethodPost, "/api/reset", map[string]any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.call())
			got := ts.last()
			assert.Equal(t, tt.method, got.Method)
			assert.Equal(t, tt.path, got.Path)
			assert.Equal(t, tt.body, got.Body)
			assert.Equal(t, "application/json", got.Headers.Get("Content-Type"))
		})
	}
}

func TestTranslations(t *testing.T) {
	ts := newTestServer(t, jsonHandler(http.StatusOK, `{"menu": "मेनू", "send": "भेजें"}`))
	c, _ := newTestClient(t, ts.URL)

	m, err := c.Translations(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"menu": "मेनू", "send": "भेजें"}, m)

	got := ts.last()
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/api/translations", got.Path)
	assert.Equal(t, "lang=hi", got.Query)
}

func TestTranslations_ErrorKeyIsALabel(t *testing.T) {
	ts := newTestServer(t, jsonHandler(http.StatusOK, `{"error": "Something went wrong", "menu": "Menu"}`))
	c, _ := newTestClient(t, ts.URL)

	m, err := c.Translations(context.Background(), "en")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"error": "Something went wrong", "menu": "Menu"}, m)
}

func TestTranslations_ErrorStatusStillReadsEnvelope(t *testing.T) {
	ts := newTestServer(t, jsonHandler(http.StatusBadRequest, `{"error": "Unsupported language"}`))
	c, _ := newTestClient(t, ts.URL)

	_, err := c.Translations(context.Background(), "fr")
	msg, ok := BackendMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "Unsupported language", msg)
}

func TestTranslations_NullBodyIsEmptyMap(t *testing.T) {
	ts := newTestServer(t, jsonHandler(http.StatusOK, `null`))
	c, _ := newTestClient(t, ts.URL)

	m, err := c.Translations(context.Background(), "en")
	require.NoError(t, err)
	assert.NotNil(t, m)
	assert.Empty(t, m)
}

func TestChat_DecodesReply(t *testing.T) {
	ts := newTestServer(t, jsonHandler(http.StatusOK, `{"response": "please call", "matched": false, "show_redirect": true}`))
	c, _ := newTestClient(t, ts.URL)

	reply, err := c.Chat(context.Background(), "xyz")
	require.NoError(t, err)
	assert.Equal(t, "please call", reply.Response)
	assert.True(t, reply.ShowRedirect)
	assert.True(t, reply.Unmatched())
}

func TestChat_MatchedAbsent(t *testing.T) {
	ts := newTestServer(t, jsonHandler(http.StatusOK, `{"response": "Hi there"}`))
	c, _ := newTestClient(t, ts.URL)

	reply, err := c.Chat(context.Background(), "hello")
	require.NoError(t, err)
	assert.Nil(t, reply.Matched)
	assert.False(t, reply.Unmatched())
	assert.False(t, reply.ShowRedirect)
}

// =============================================================================
// HEADERS AND SESSION
// =============================================================================

func TestRequests_CarryHeadersAndCookie(t *testing.T) {
	ts := newTestServer(t, jsonHandler(http.StatusOK, `{}`))
	c, _ := newTestClient(t, ts.URL)
	c.SetSessionID("session-7")
	ctx := context.Background()

	require.NoError(t, c.SetLanguage(ctx, "en"))
	first := ts.last()
	require.NoError(t, c.SetUserType(ctx, UserTypeClient))
	second := ts.last()

	assert.Equal(t, "session-7", first.Headers.Get(HeaderClientSession))
	assert.Equal(t, "ckyc-assist", first.Headers.Get("User-Agent"))
	assert.NotEmpty(t, first.Headers.Get(HeaderRequestID))
	assert.NotEqual(t, first.Headers.Get(HeaderRequestID), second.Headers.Get(HeaderRequestID))

	assert.Empty(t, first.Cookie)
	assert.Equal(t, "abc", second.Cookie, "the session cookie is sent back")
}

// =============================================================================
// ERRORS
// =============================================================================

func TestErrors_StructuredErrorIsRemote(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusBadRequest, http.StatusInternalServerError} {
		ts := newTestServer(t, jsonHandler(status, `{"error": "Registration number is required"}`))
		c, _ := newTestClient(t, ts.URL)

		_, err := c.CheckStatus(context.Background(), "")
		require.Error(t, err)
		assert.True(t, IsBackend(err), "status %d", status)
		msg, ok := BackendMessage(err)
		assert.True(t, ok)
		assert.Equal(t, "Registration number is required", msg)
	}
}

func TestErrors_NonStringErrorField(t *testing.T) {
	ts := newTestServer(t, jsonHandler(http.StatusBadRequest, `{"error": {"code": 7}}`))
	c, _ := newTestClient(t, ts.URL)

	_, err := c.CheckStatus(context.Background(), "x")
	msg, ok := BackendMessage(err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"code": 7}`, msg)
}

func TestErrors_BareStatusHasNoMessage(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	c, _ := newTestClient(t, ts.URL)

	_, err := c.Chat(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, IsBackend(err))
	_, ok := BackendMessage(err)
	assert.False(t, ok)

	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusBadGateway, ce.Status)
	assert.Equal(t, OpChat, ce.Op)
}

func TestErrors_NullErrorFieldIsNotAnError(t *testing.T) {
	ts := newTestServer(t, jsonHandler(http.StatusOK, `{"error": null, "response": "fine"}`))
	c, _ := newTestClient(t, ts.URL)

	reply, err := c.CheckStatus(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "fine", reply.Response)
}

func TestErrors_Transport(t *testing.T) {
	ts := newTestServer(t, jsonHandler(http.StatusOK, `{}`))
	url := ts.URL
	ts.Close()

	c, _ := newTestClient(t, url)
	_, err := c.Chat(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.False(t, IsBackend(err))
	_, ok := BackendMessage(err)
	assert.False(t, ok)
}

func TestErrors_UndecodableBodyIsTransport(t *testing.T) {
	ts := newTestServer(t, jsonHandler(http.StatusOK, `<html>oops</html>`))
	c, _ := newTestClient(t, ts.URL)

	_, err := c.Chat(context.Background(), "hello")
	assert.True(t, IsTransport(err))
}

func TestErrors_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)
	c, _ := newTestClient(t, ts.URL)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := c.Chat(ctx, "hello")
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClientError_Message(t *testing.T) {
	err := transportError(OpChat, "request failed", io.ErrUnexpectedEOF)
	assert.Equal(t, "chat: request failed: unexpected EOF", err.Error())
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, "transport", ErrTypeTransport.String())
	assert.Equal(t, "backend", ErrTypeBackend.String())
	assert.Equal(t, "unknown", ErrTypeUnknown.String())
}

// =============================================================================
// METRICS
// =============================================================================

func TestCalls_AreMeasured(t *testing.T) {
	ok := newTestServer(t, jsonHandler(http.StatusOK, `{"response": "x"}`))
	c, reader := newTestClient(t, ok.URL)

	_, _ = c.Chat(context.Background(), "a")
	_, _ = c.Chat(context.Background(), "b")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var requests int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "ckyc.gateway.requests" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				op, _ := dp.Attributes.Value("op")
				status, _ := dp.Attributes.Value("status")
				if op.AsString() == OpChat && status.AsString() == telemetry.StatusOK {
					requests += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(2), requests)
}
