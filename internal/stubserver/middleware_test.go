// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stubserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// RATE LIMIT
// =============================================================================

func TestRateLimitMiddleware(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := RateLimitMiddleware(1, 2, logrus.NewEntry(logger))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, do("10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusNoContent, do("10.0.0.1:1001").Code, "burst allows a second request")

	rec := do("10.0.0.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code, "the port does not make a new client")
	assert.JSONEq(t, `{"error":"Too many requests"}`, rec.Body.String())
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "10.0.0.1", hook.LastEntry().Data["client"])

	assert.Equal(t, http.StatusNoContent, do("10.0.0.2:1000").Code, "other clients have their own bucket")
}

func TestServer_RateLimitCanBeDisabled(t *testing.T) {
	logger, _ := test.NewNullLogger()
	srv, err := New(Config{RateLimit: -1, Logger: logrus.NewEntry(logger)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	for i := 0; i < DefaultRateBurst+10; i++ {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}
}

// =============================================================================
// FAQ FILE
// =============================================================================

const oneFAQ = `{
  "greetings": ["hello"],
  "faqs": [
    {"id": "f1", "keywords": ["kiosk"], "answer": {"en": "Kiosks open at nine."}}
  ]
}`

const twoFAQs = `{
  "greetings": ["hello"],
  "faqs": [
    {"id": "f1", "keywords": ["kiosk"], "answer": {"en": "Kiosks open at nine."}},
    {"id": "f2", "keywords": ["parking"], "answer": {"en": "Parking is free."}}
  ]
}`

func TestNew_LoadsFAQPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faqs.json")
	require.NoError(t, os.WriteFile(path, []byte(oneFAQ), 0o600))

	logger, _ := test.NewNullLogger()
	srv, err := New(Config{FAQPath: path, Logger: logrus.NewEntry(logger)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	assert.Equal(t, 1, srv.faqs().Len())
	assert.Equal(t, "Kiosks open at nine.", srv.faqs().Match("where is the kiosk").FAQ.AnswerIn("en"))

	_, err = New(Config{FAQPath: filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)
}

func TestWatchFAQ_ReloadsAndKeepsLastGood(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faqs.json")
	require.NoError(t, os.WriteFile(path, []byte(oneFAQ), 0o600))

	logger, hook := test.NewNullLogger()
	srv, err := New(Config{FAQPath: path, Logger: logrus.NewEntry(logger)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.WatchFAQ(ctx) }()

	require.Eventually(t, func() bool {
		for _, e := range hook.AllEntries() {
			if e.Message == "watching FAQ file" {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte(twoFAQs), 0o600))
	require.Eventually(t, func() bool { return srv.faqs().Len() == 2 }, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	require.Eventually(t, func() bool {
		for _, e := range hook.AllEntries() {
			if e.Message == "FAQ reload failed, keeping previous FAQs" {
				return true
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, 2, srv.faqs().Len())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchFAQ_NoPathIsNoop(t *testing.T) {
	logger, _ := test.NewNullLogger()
	srv, err := New(Config{Logger: logrus.NewEntry(logger)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	assert.NoError(t, srv.WatchFAQ(context.Background()))
}
