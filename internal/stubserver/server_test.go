// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stubserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/jeranaias/ckyc-assist/internal/gateway"
	"github.com/jeranaias/ckyc-assist/internal/i18n"
	"github.com/jeranaias/ckyc-assist/internal/telemetry"
)

type stub struct {
	srv    *Server
	http   *httptest.Server
	client *gateway.Client
	hook   *test.Hook
	reader *sdkmetric.ManualReader
}

func newStub(t *testing.T, origins ...string) *stub {
	t.Helper()

	logger, hook := test.NewNullLogger()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := telemetry.NewMetrics(mp)
	require.NoError(t, err)

	var ids atomic.Int64
	srv, err := New(Config{
		AllowedOrigins: origins,
		Logger:         logrus.NewEntry(logger),
		Metrics:        metrics,
		Rand:           func(n int) int { return 1 },
		Now:            func() time.Time { return wednesday },
		NewID: func() string {
			return fmt.Sprintf("sid-%d", ids.Add(1))
		},
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Shutdown(context.Background())
	})

	client, err := gateway.NewClientWithConfig(gateway.Config{
		BaseURL: ts.URL,
		Timeout: 5 * time.Second,
		Metrics: metrics,
		Logger:  logrus.NewEntry(logger),
	})
	require.NoError(t, err)

	return &stub{srv: srv, http: ts, client: client, hook: hook, reader: reader}
}

func (s *stub) get(t *testing.T, path string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(s.http.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func (s *stub) post(t *testing.T, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(s.http.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

// sessionView is a copy of the fields of a server session.
type sessionView struct {
	id, language, userType string
	wrongCount             int
}

// session returns the only server session.
func (s *stub) session(t *testing.T) sessionView {
	t.Helper()
	s.srv.sessions.mu.Lock()
	defer s.srv.sessions.mu.Unlock()
	require.Len(t, s.srv.sessions.byKey, 1)
	for _, sess := range s.srv.sessions.byKey {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		return sessionView{id: sess.id, language: sess.language, userType: sess.userType, wrongCount: sess.wrongCount}
	}
	return sessionView{}
}

// =============================================================================
// SESSIONS
// =============================================================================

func TestServer_Health(t *testing.T) {
	s := newStub(t)

	var body map[string]any
	resp := s.get(t, "/api/health", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 20, body["faqs"])
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
}

func TestServer_SessionCookie(t *testing.T) {
	s := newStub(t)

	resp, err := http.Get(s.http.URL + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)

	req, _ := http.NewRequest(http.MethodGet, s.http.URL+"/api/health", nil)
	req.AddCookie(cookie)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Cookies(), "known session must not be reissued")
	assert.Equal(t, 1, s.srv.sessions.len())
}

func TestSessionStore_EvictsOldestHalf(t *testing.T) {
	st := newSessionStore(nil)
	_, first := st.get("")
	for i := 1; i < maxSessions; i++ {
		st.get("")
	}
	require.Equal(t, maxSessions, st.len())

	_, last := st.get("")
	assert.Equal(t, maxSessions/2+1, st.len())

	_, again := st.get(first)
	assert.NotEqual(t, first, again, "evicted key gets a new session")
	_, same := st.get(last)
	assert.Equal(t, last, same)
}

func TestServer_SetLanguage(t *testing.T) {
	s := newStub(t)
	ctx := context.Background()

	require.NoError(t, s.client.SetLanguage(ctx, "hi"))
	assert.Equal(t, i18n.Hindi, s.session(t).language)

	err := s.client.SetLanguage(ctx, "fr")
	require.Error(t, err)
	msg, ok := gateway.BackendMessage(err)
	require.True(t, ok)
	assert.Equal(t, "Unsupported language", msg)
	assert.Equal(t, i18n.Hindi, s.session(t).language)
}

func TestServer_Translations(t *testing.T) {
	s := newStub(t)
	ctx := context.Background()

	hi, err := s.client.Translations(ctx, "hi")
	require.NoError(t, err)
	assert.Equal(t, i18n.Catalog(i18n.Hindi), hi)

	fallback, err := s.client.Translations(ctx, "xx")
	require.NoError(t, err)
	assert.Equal(t, i18n.Catalog(i18n.English), fallback)
}

func TestServer_SetUserType(t *testing.T) {
	s := newStub(t)
	ctx := context.Background()

	require.NoError(t, s.client.SetUserType(ctx, gateway.UserTypeEntity))
	assert.Equal(t, "re", s.session(t).userType)

	resp, body := s.post(t, "/api/set-user-type", `{"user_type":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Unknown user type", body["error"])
}

func TestServer_ResetKeepsCookieWithNewSession(t *testing.T) {
	s := newStub(t)
	ctx := context.Background()

	require.NoError(t, s.client.SetLanguage(ctx, "hi"))
	before := s.session(t).id

	require.NoError(t, s.client.ResetSession(ctx))
	sess := s.session(t)
	assert.NotEqual(t, before, sess.id)
	assert.Equal(t, i18n.DefaultLanguage, sess.language)
	assert.Equal(t, 1, s.srv.sessions.len())
}

// =============================================================================
// CHAT
// =============================================================================

func TestServer_ChatGreetingAndFAQ(t *testing.T) {
	s := newStub(t)
	ctx := context.Background()

	reply, err := s.client.Chat(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, i18n.Builtin(i18n.English, "hello_response"), reply.Response)
	require.NotNil(t, reply.Matched)
	assert.True(t, *reply.Matched)

	reply, err = s.client.Chat(ctx, "what is my wallet balance")
	require.NoError(t, err)
	assert.True(t, *reply.Matched)
	assert.False(t, reply.ShowRedirect)
	assert.NotEqual(t, i18n.Builtin(i18n.English, "not_understood"), reply.Response)

	require.NoError(t, s.client.SetLanguage(ctx, "hi"))
	reply, err = s.client.Chat(ctx, "namaste")
	require.NoError(t, err)
	assert.Equal(t, i18n.Builtin(i18n.Hindi, "hello_response"), reply.Response)
}

func TestServer_ChatRedirectsAfterThreeMisses(t *testing.T) {
	s := newStub(t)
	ctx := context.Background()

	for i := 1; i < RedirectAfter; i++ {
		reply, err := s.client.Chat(ctx, "qwerty")
		require.NoError(t, err)
		assert.True(t, reply.Unmatched())
		assert.False(t, reply.ShowRedirect)
		assert.Equal(t, i18n.Builtin(i18n.English, "not_understood"), reply.Response)
	}

	reply, err := s.client.Chat(ctx, "qwerty")
	require.NoError(t, err)
	assert.True(t, reply.ShowRedirect)
	assert.Equal(t, i18n.Builtin(i18n.English, "redirect_msg"), reply.Response)
	assert.Zero(t, s.session(t).wrongCount)
}

func TestServer_ChatMatchResetsMissCount(t *testing.T) {
	s := newStub(t)
	ctx := context.Background()

	for _, msg := range []string{"qwerty", "qwerty", "hello", "qwerty", "qwerty"} {
		reply, err := s.client.Chat(ctx, msg)
		require.NoError(t, err)
		assert.False(t, reply.ShowRedirect, msg)
	}
	assert.Equal(t, 2, s.session(t).wrongCount)
}

func TestServer_ChatRejectsEmpty(t *testing.T) {
	s := newStub(t)
	_, err := s.client.Chat(context.Background(), "   ")
	msg, ok := gateway.BackendMessage(err)
	require.True(t, ok)
	assert.Equal(t, "Empty message", msg)
}

// =============================================================================
// LOOKUPS
// =============================================================================

func TestServer_CheckStatus(t *testing.T) {
	s := newStub(t)
	ctx := context.Background()

	reply, err := s.client.CheckStatus(ctx, "REG123")
	require.NoError(t, err)
	assert.Contains(t, reply.Response, "REG123")
	assert.Contains(t, reply.Response, "Accepted")

	_, err = s.client.CheckStatus(ctx, " ")
	assert.True(t, gateway.IsBackend(err))
}

func TestServer_WalletInquiry(t *testing.T) {
	s := newStub(t)
	ctx := context.Background()

	tests := []struct {
		option int
		want   string
	}{
		{1, "Available Balance"},
		{2, "TDS on Hold"},
		{3, "Threshold Limit"},
		{4, "Minimum Balance Limit"},
		{9, "Available Balance"},
	}
	for _, tt := range tests {
		reply, err := s.client.WalletInquiry(ctx, "12345", tt.option)
		require.NoError(t, err)
		assert.Contains(t, reply.Response, tt.want)
		assert.Contains(t, reply.Response, "12345")
	}

	require.NoError(t, s.client.SetLanguage(ctx, "hi"))
	reply, err := s.client.WalletInquiry(ctx, "12345", 2)
	require.NoError(t, err)
	assert.Contains(t, reply.Response, "होल्ड पर TDS")
}

func TestServer_MismatchCheck(t *testing.T) {
	s := newStub(t)
	ctx := context.Background()

	reply, err := s.client.MismatchCheck(ctx, "12345678901234")
	require.NoError(t, err)
	assert.Contains(t, reply.Response, "12345678901234")
	assert.Contains(t, reply.Response, "State Bank of India")

	for _, bad := range []string{"1234", "1234567890123X", "123456789012345"} {
		_, err := s.client.MismatchCheck(ctx, bad)
		msg, ok := gateway.BackendMessage(err)
		require.True(t, ok, bad)
		assert.Equal(t, "Please enter a valid 14-digit CKYC number.", msg)
	}
}

// =============================================================================
// FEEDBACK AND REPORTS
// =============================================================================

func TestServer_Feedback(t *testing.T) {
	s := newStub(t)
	ctx := context.Background()

	reply, err := s.client.SubmitFeedback(ctx, gateway.Feedback{Rating: "Bad", RatingValue: 2, FeedbackText: "slow"})
	require.NoError(t, err)
	assert.Equal(t, i18n.Builtin(i18n.English, "feedback_bad"), reply.Response)

	reply, err = s.client.SubmitFeedback(ctx, gateway.Feedback{Rating: "Custom", RatingValue: 5})
	require.NoError(t, err)
	assert.Equal(t, i18n.Builtin(i18n.English, "feedback_good"), reply.Response)

	_, body := s.post(t, "/api/feedback", `{"rating":"Custom"}`)
	assert.Equal(t, i18n.Builtin(i18n.English, "feedback_good"), body["response"])
}

func TestServer_EndChat(t *testing.T) {
	s := newStub(t)
	resp, body := s.post(t, "/api/end-chat", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, i18n.Builtin(i18n.English, "thank_you"), body["response"])
}

func TestServer_Report(t *testing.T) {
	s := newStub(t)
	ctx := context.Background()

	_, err := s.client.Chat(ctx, "hello")
	require.NoError(t, err)
	_, err = s.client.Chat(ctx, "qwerty")
	require.NoError(t, err)
	_, err = s.client.WalletInquiry(ctx, "123", 2)
	require.NoError(t, err)
	_, err = s.client.SubmitFeedback(ctx, gateway.Feedback{Rating: "Custom", RatingValue: 4})
	require.NoError(t, err)

	var rep Report
	resp := s.get(t, "/api/report", &rep)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "today", rep.Period)
	assert.Equal(t, 2, rep.TotalQueries)
	assert.Equal(t, 1, rep.Answered)
	assert.Equal(t, []TypeCount{{Type: "wallet_inquiry_2", Count: 1}}, rep.APIQueries)
	assert.Equal(t, []RatingCount{{Rating: "Custom", Count: 1}}, rep.Feedback)

	resp = s.get(t, "/api/report?type=custom&start_date=2020-01-01&end_date=2020-01-02", &rep)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, rep.TotalQueries)
}

func TestServer_StoreFailureStillReplies(t *testing.T) {
	s := newStub(t)
	require.NoError(t, s.srv.store.Close())

	reply, err := s.client.Chat(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, i18n.Builtin(i18n.English, "hello_response"), reply.Response)

	var warned bool
	for _, e := range s.hook.AllEntries() {
		if e.Message == "failed to log interaction" && e.Level == logrus.WarnLevel {
			warned = true
			assert.Equal(t, "query", e.Data["table"])
		}
	}
	assert.True(t, warned)
}

// =============================================================================
// REQUEST HANDLING
// =============================================================================

func TestServer_BadRequests(t *testing.T) {
	s := newStub(t)

	resp, body := s.post(t, "/api/chat", "{not json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid request format", body["error"])

	big := `{"message":"` + strings.Repeat("a", MaxRequestBodySize) + `"}`
	resp, body = s.post(t, "/api/chat", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, "Request body too large", body["error"])

	resp, body = s.post(t, "/api/nope", "{}")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not found", body["error"])

	var out map[string]any
	resp = s.get(t, "/api/chat", &out)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServer_CORSPreflight(t *testing.T) {
	const origin = "http://widget.example"
	s := newStub(t, origin)

	req, _ := http.NewRequest(http.MethodOptions, s.http.URL+"/api/chat", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, origin, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestRecoveryMiddleware(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := RecoveryMiddleware(logrus.NewEntry(logger))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "panic recovered", hook.LastEntry().Message)
	assert.Equal(t, "boom", hook.LastEntry().Data["panic"])
}

func TestServer_RecordsRouteMetrics(t *testing.T) {
	s := newStub(t)
	_, err := s.client.Chat(context.Background(), "hello")
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, s.reader.Collect(context.Background(), &rm))

	var count uint64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "ckyc.http.request.duration" {
				continue
			}
			hist, ok := m.Data.(metricdata.Histogram[float64])
			require.True(t, ok)
			for _, dp := range hist.DataPoints {
				route, _ := dp.Attributes.Value(attribute.Key("route"))
				status, _ := dp.Attributes.Value(attribute.Key("status"))
				if route.AsString() == "/api/chat" && status.AsInt64() == http.StatusOK {
					count += dp.Count
				}
			}
		}
	}
	assert.Equal(t, uint64(1), count)
}

func TestServer_ServeAndShutdown(t *testing.T) {
	srv, err := New(Config{Addr: "127.0.0.1:0", Logger: logrus.NewEntry(logrus.New())})
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(l) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + l.Addr().String() + "/api/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.NoError(t, <-done)
}
