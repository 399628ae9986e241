// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stubserver

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/jeranaias/ckyc-assist/internal/i18n"
)

// CookieName is the name of the session cookie.
const CookieName = "ckyc_session"

// maxSessions bounds the in-memory session table. The oldest half is
// dropped when it is full.
const maxSessions = 10000

// session is the server side of one browser or widget session. The cookie
// only carries an opaque key; a reset replaces the fields but keeps the key.
type session struct {
	mu         sync.Mutex
	id         string
	language   string
	userType   string
	wrongCount int
	seq        uint64
}

// reset starts a fresh conversation under a new id.
func (s *session) reset(id string) {
	s.id = id
	s.language = i18n.DefaultLanguage
	s.userType = ""
	s.wrongCount = 0
}

type sessionStore struct {
	mu    sync.Mutex
	byKey map[string]*session
	seq   uint64
	newID func() string
}

func newSessionStore(newID func() string) *sessionStore {
	if newID == nil {
		newID = uuid.NewString
	}
	return &sessionStore{byKey: make(map[string]*session), newID: newID}
}

// get returns the session for key, creating one when key is unknown. The
// returned key differs from the argument when a session was created.
func (st *sessionStore) get(key string) (*session, string) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if s, ok := st.byKey[key]; ok && key != "" {
		return s, key
	}
	if len(st.byKey) >= maxSessions {
		st.evictLocked()
	}
	st.seq++
	s := &session{seq: st.seq}
	s.reset(st.newID())
	key = uuid.NewString()
	st.byKey[key] = s
	return s, key
}

func (st *sessionStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.byKey)
}

// evictLocked drops the older half of the sessions.
func (st *sessionStore) evictLocked() {
	cutoff := st.seq - uint64(len(st.byKey)/2)
	for k, s := range st.byKey {
		if s.seq <= cutoff {
			delete(st.byKey, k)
		}
	}
}

type sessionKey struct{}

// sessionFrom returns the session attached by SessionMiddleware.
func sessionFrom(ctx context.Context) *session {
	s, _ := ctx.Value(sessionKey{}).(*session)
	return s
}

// SessionMiddleware attaches the cookie session to every request, issuing a
// cookie for new clients.
func SessionMiddleware(st *sessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var key string
			if c, err := r.Cookie(CookieName); err == nil {
				key = c.Value
			}
			s, issued := st.get(key)
			if issued != key {
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    issued,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, s)))
		})
	}
}
