// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stubserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/jeranaias/ckyc-assist/internal/gateway"
	"github.com/jeranaias/ckyc-assist/internal/i18n"
	"github.com/jeranaias/ckyc-assist/internal/util"
)

// MaxRequestBodySize bounds request bodies.
const MaxRequestBodySize = 64 * 1024

// RedirectAfter is the number of consecutive unmatched messages after which
// the chat reply asks the widget to redirect.
const RedirectAfter = 3

// ckycNumberLength is the length of a CKYC number.
const ckycNumberLength = 14

// ============================================================================
// REQUEST AND RESPONSE TYPES
// ============================================================================

type languageRequest struct {
	Language string `json:"language"`
}

type userTypeRequest struct {
	UserType string `json:"user_type"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type statusRequest struct {
	RegNumber string `json:"reg_number"`
}

type walletRequest struct {
	RENumber string `json:"re_number"`
	Option   *int   `json:"option"`
}

type mismatchRequest struct {
	CKYCNumber string `json:"ckyc_number"`
}

type feedbackRequest struct {
	Rating       string `json:"rating"`
	RatingValue  *int   `json:"rating_value"`
	FeedbackText string `json:"feedback_text"`
}

// ChatResponse is the reply to /api/chat.
type ChatResponse struct {
	Response     string `json:"response"`
	Matched      bool   `json:"matched"`
	ShowRedirect bool   `json:"show_redirect"`
}

type textResponse struct {
	Response string `json:"response"`
}

// ============================================================================
// SESSION HANDLERS
// ============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"faqs":     s.faqs().Len(),
		"sessions": s.sessions.len(),
	})
}

// handleSetLanguage handles POST /api/set-language.
func (s *Server) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if !decode(w, r, &req) {
		return
	}
	lang := i18n.DefaultLanguage
	if req.Language != "" {
		code, err := i18n.Normalize(req.Language)
		if err != nil || !i18n.IsSupported(code) {
			writeError(w, http.StatusBadRequest, "Unsupported language")
			return
		}
		lang = code
	}

	sess := sessionFrom(r.Context())
	sess.mu.Lock()
	sess.language = lang
	sess.wrongCount = 0
	sess.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "language": lang})
}

// handleSetUserType handles POST /api/set-user-type.
func (s *Server) handleSetUserType(w http.ResponseWriter, r *http.Request) {
	var req userTypeRequest
	if !decode(w, r, &req) {
		return
	}
	userType := gateway.UserType(req.UserType)
	switch userType {
	case "":
		userType = gateway.UserTypeClient
	case gateway.UserTypeClient, gateway.UserTypeEntity:
	default:
		writeError(w, http.StatusBadRequest, "Unknown user type")
		return
	}

	sess := sessionFrom(r.Context())
	sess.mu.Lock()
	sess.userType = string(userType)
	id, lang := sess.id, sess.language
	sess.mu.Unlock()

	if err := s.store.LogSession(r.Context(), id, lang, string(userType)); err != nil {
		s.storeFailed(err, "session")
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "user_type": string(userType)})
}

// handleReset handles POST /api/reset.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	sess.mu.Lock()
	sess.reset(s.sessions.newID())
	sess.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleEndChat handles POST /api/end-chat. It returns the closing text and
// clears the unmatched counter.
func (s *Server) handleEndChat(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	sess.mu.Lock()
	sess.wrongCount = 0
	lang := sess.language
	sess.mu.Unlock()

	writeJSON(w, http.StatusOK, textResponse{Response: i18n.Builtin(lang, "thank_you")})
}

// handleTranslations handles GET /api/translations?lang=. Unknown languages
// get the English strings.
func (s *Server) handleTranslations(w http.ResponseWriter, r *http.Request) {
	lang, err := i18n.Normalize(r.URL.Query().Get("lang"))
	if err != nil || !i18n.IsSupported(lang) {
		lang = i18n.English
	}
	writeJSON(w, http.StatusOK, i18n.Catalog(lang))
}

// ============================================================================
// CHAT
// ============================================================================

// handleChat handles POST /api/chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decode(w, r, &req) {
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeError(w, http.StatusBadRequest, "Empty message")
		return
	}

	sess := sessionFrom(r.Context())
	sess.mu.Lock()
	lang := sess.language
	match := s.faqs().Match(message)

	rec := QueryRecord{SessionID: sess.id, UserMessage: message, Answered: match.Matched()}
	var resp ChatResponse
	switch {
	case match.Greeting:
		sess.wrongCount = 0
		resp = ChatResponse{Response: i18n.Builtin(lang, "hello_response"), Matched: true}
		rec.Category = "Greeting"
	case match.FAQ != nil:
		sess.wrongCount = 0
		resp = ChatResponse{Response: match.FAQ.AnswerIn(lang), Matched: true}
		rec.Category, rec.MatchedFAQID = match.FAQ.Category, match.FAQ.ID
	default:
		sess.wrongCount++
		if sess.wrongCount >= RedirectAfter {
			sess.wrongCount = 0
			resp = ChatResponse{Response: i18n.Builtin(lang, "redirect_msg"), ShowRedirect: true}
		} else {
			resp = ChatResponse{Response: i18n.Builtin(lang, "not_understood")}
		}
	}
	sess.mu.Unlock()

	rec.BotResponse = resp.Response
	if err := s.store.LogQuery(r.Context(), rec); err != nil {
		s.storeFailed(err, "query")
	}
	writeJSON(w, http.StatusOK, resp)
}

// ============================================================================
// LOOKUPS
// ============================================================================

// handleCheckStatus handles POST /api/check-status.
func (s *Server) handleCheckStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decode(w, r, &req) {
		return
	}
	reg := strings.TrimSpace(req.RegNumber)
	if reg == "" {
		writeError(w, http.StatusBadRequest, "Registration number is required")
		return
	}

	id, lang := s.sessionInfo(r)
	texts := statusTexts(lang, reg)
	text := texts[s.pick(len(texts))]
	s.logLookup(r, id, "status_check", reg, text)
	writeJSON(w, http.StatusOK, textResponse{Response: text})
}

// handleWalletInquiry handles POST /api/wallet-inquiry.
func (s *Server) handleWalletInquiry(w http.ResponseWriter, r *http.Request) {
	var req walletRequest
	if !decode(w, r, &req) {
		return
	}
	re := strings.TrimSpace(req.RENumber)
	if re == "" {
		writeError(w, http.StatusBadRequest, "RE registration number is required")
		return
	}
	option := 1
	if req.Option != nil {
		option = *req.Option
	}

	id, lang := s.sessionInfo(r)
	text := walletText(lang, re, option)
	s.logLookup(r, id, "wallet_inquiry_"+strconv.Itoa(option), re, text)
	writeJSON(w, http.StatusOK, textResponse{Response: text})
}

// handleMismatchCheck handles POST /api/mismatch-check.
func (s *Server) handleMismatchCheck(w http.ResponseWriter, r *http.Request) {
	var req mismatchRequest
	if !decode(w, r, &req) {
		return
	}
	ckyc := strings.TrimSpace(req.CKYCNumber)
	if ckyc == "" {
		writeError(w, http.StatusBadRequest, "CKYC number is required")
		return
	}

	id, lang := s.sessionInfo(r)
	if len(ckyc) != ckycNumberLength || !util.IsDigits(ckyc) {
		writeError(w, http.StatusBadRequest, invalidCKYCText(lang))
		return
	}

	text := mismatchText(lang, ckyc)
	s.logLookup(r, id, "mismatch_check", ckyc, text)
	writeJSON(w, http.StatusOK, textResponse{Response: text})
}

// ============================================================================
// FEEDBACK AND REPORTS
// ============================================================================

// handleFeedback handles POST /api/feedback. A missing rating value counts
// as 3.
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if !decode(w, r, &req) {
		return
	}
	value := 3
	if req.RatingValue != nil {
		value = *req.RatingValue
	}

	id, lang := s.sessionInfo(r)
	if err := s.store.LogFeedback(r.Context(), id, req.Rating, value, req.FeedbackText); err != nil {
		s.storeFailed(err, "feedback")
	}

	key := "feedback_good"
	if value <= 2 {
		key = "feedback_bad"
	}
	writeJSON(w, http.StatusOK, textResponse{Response: i18n.Builtin(lang, key)})
}

// handleReport handles GET /api/report?type=&start_date=&end_date=.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period := q.Get("type")
	if period == "" {
		period = "today"
	}
	rep, err := s.store.Report(r.Context(), period, q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		s.log.WithError(err).Error("report failed")
		writeError(w, http.StatusInternalServerError, "Report unavailable")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// ============================================================================
// HELPERS
// ============================================================================

func (s *Server) sessionInfo(r *http.Request) (id, lang string) {
	sess := sessionFrom(r.Context())
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.id, sess.language
}

func (s *Server) logLookup(r *http.Request, id, kind, input, result string) {
	if err := s.store.LogAPIQuery(r.Context(), id, kind, input, result); err != nil {
		s.storeFailed(err, "api_query")
	}
}

// storeFailed logs a failed interaction write. The reply is still sent.
func (s *Server) storeFailed(err error, table string) {
	s.log.WithError(err).WithField("table", table).Warn("failed to log interaction")
}

// decode reads a JSON body into v. An empty body leaves v untouched. It
// writes the error response and returns false on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return false
	}
	writeError(w, http.StatusBadRequest, "Invalid request format")
	return false
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a {"error": message} response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
