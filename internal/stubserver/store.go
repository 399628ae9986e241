// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stubserver

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// timeLayout is how timestamps are stored and compared.
const timeLayout = "2006-01-02 15:04:05"

// recentLimit bounds the recent queries of a report.
const recentLimit = 50

const schema = `
CREATE TABLE IF NOT EXISTS chat_sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	language TEXT DEFAULT 'en',
	user_type TEXT,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS queries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	user_message TEXT NOT NULL,
	bot_response TEXT,
	category TEXT,
	matched_faq_id TEXT,
	was_answered INTEGER DEFAULT 0,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS api_queries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	query_type TEXT NOT NULL,
	input_value TEXT,
	result TEXT,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS feedback (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	rating TEXT NOT NULL,
	rating_value INTEGER NOT NULL,
	feedback_text TEXT,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_queries_created ON queries(created_at);
CREATE INDEX IF NOT EXISTS idx_api_queries_created ON api_queries(created_at);
CREATE INDEX IF NOT EXISTS idx_feedback_created ON feedback(created_at);
`

// =============================================================================
// STORE
// =============================================================================

// Store logs stub backend interactions to SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// OpenStore opens (creating if needed) the database at path. An empty path
// uses a private in-memory database.
func OpenStore(path string, now func() time.Time) (*Store, error) {
	if path == "" {
		path = ":memory:"
	}
	if now == nil {
		now = time.Now
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps an in-memory database alive and serializes
	// writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db, now: now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) stamp() string {
	return s.now().Format(timeLayout)
}

// QueryRecord is one answered or unanswered chat message.
type QueryRecord struct {
	SessionID    string
	UserMessage  string
	BotResponse  string
	Category     string
	MatchedFAQID string
	Answered     bool
}

// LogSession records a user type selection.
func (s *Store) LogSession(ctx context.Context, sessionID, language, userType string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (session_id, language, user_type, created_at) VALUES (?, ?, ?, ?)`,
		sessionID, language, userType, s.stamp())
	return err
}

// LogQuery records one chat exchange.
func (s *Store) LogQuery(ctx context.Context, q QueryRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO queries (session_id, user_message, bot_response, category, matched_faq_id, was_answered, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.SessionID, q.UserMessage, q.BotResponse, nullString(q.Category), nullString(q.MatchedFAQID),
		boolInt(q.Answered), s.stamp())
	return err
}

// LogAPIQuery records one lookup.
func (s *Store) LogAPIQuery(ctx context.Context, sessionID, queryType, input, result string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO api_queries (session_id, query_type, input_value, result, created_at) VALUES (?, ?, ?, ?, ?)`,
		sessionID, queryType, input, result, s.stamp())
	return err
}

// LogFeedback records one feedback submission.
func (s *Store) LogFeedback(ctx context.Context, sessionID, rating string, value int, text string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (session_id, rating, rating_value, feedback_text, created_at) VALUES (?, ?, ?, ?, ?)`,
		sessionID, rating, value, text, s.stamp())
	return err
}

// =============================================================================
// REPORTS
// =============================================================================

// Report summarizes the interactions of a period.
type Report struct {
	Period        string          `json:"period"`
	Start         string          `json:"start"`
	End           string          `json:"end"`
	TotalQueries  int             `json:"total_queries"`
	Answered      int             `json:"answered"`
	NotAnswered   int             `json:"not_answered"`
	Categories    []CategoryCount `json:"categories"`
	Feedback      []RatingCount   `json:"feedback"`
	APIQueries    []TypeCount     `json:"api_queries"`
	RecentQueries []RecentQuery   `json:"recent_queries"`
}

// CategoryCount is the number of queries in one FAQ category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// RatingCount is the number of feedback submissions with one rating.
type RatingCount struct {
	Rating string `json:"rating"`
	Count  int    `json:"count"`
}

// TypeCount is the number of lookups of one type.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// RecentQuery is one row of the recent queries list.
type RecentQuery struct {
	UserMessage string `json:"user_message"`
	BotResponse string `json:"bot_response"`
	Category    string `json:"category"`
	WasAnswered int    `json:"was_answered"`
	CreatedAt   string `json:"created_at"`
}

// PeriodBounds returns the inclusive start and end of a report period:
// today, week (from Monday), month, year, or custom between two
// YYYY-MM-DD dates. Anything else covers everything up to today.
func PeriodBounds(period, startDate, endDate string, now time.Time) (string, string) {
	day := func(t time.Time) string { return t.Format("2006-01-02") }
	end := day(now) + " 23:59:59"

	switch period {
	case "today":
		return day(now) + " 00:00:00", end
	case "week":
		offset := (int(now.Weekday()) + 6) % 7
		return day(now.AddDate(0, 0, -offset)) + " 00:00:00", end
	case "month":
		return now.Format("2006-01") + "-01 00:00:00", end
	case "year":
		return now.Format("2006") + "-01-01 00:00:00", end
	case "custom":
		if startDate != "" && endDate != "" {
			return startDate + " 00:00:00", endDate + " 23:59:59"
		}
	}
	return "2000-01-01 00:00:00", end
}

// Report builds the report of a period.
func (s *Store) Report(ctx context.Context, period, startDate, endDate string) (Report, error) {
	start, end := PeriodBounds(period, startDate, endDate, s.now())
	rep := Report{
		Period:        period,
		Start:         start,
		End:           end,
		Categories:    []CategoryCount{},
		Feedback:      []RatingCount{},
		APIQueries:    []TypeCount{},
		RecentQueries: []RecentQuery{},
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN was_answered = 1 THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN was_answered = 0 THEN 1 ELSE 0 END), 0)
		 FROM queries WHERE created_at BETWEEN ? AND ?`,
		start, end).Scan(&rep.TotalQueries, &rep.Answered, &rep.NotAnswered); err != nil {
		return Report{}, fmt.Errorf("count queries: %w", err)
	}

	err := s.each(ctx, func(rows *sql.Rows) error {
		var c CategoryCount
		var cat sql.NullString
		if err := rows.Scan(&cat, &c.Count); err != nil {
			return err
		}
		c.Category = cat.String
		if !cat.Valid || c.Category == "" {
			c.Category = "Uncategorized"
		}
		rep.Categories = append(rep.Categories, c)
		return nil
	}, `SELECT category, COUNT(*) AS cnt FROM queries WHERE created_at BETWEEN ? AND ?
	    GROUP BY category ORDER BY cnt DESC`, start, end)
	if err != nil {
		return Report{}, fmt.Errorf("category breakdown: %w", err)
	}

	err = s.each(ctx, func(rows *sql.Rows) error {
		var c RatingCount
		if err := rows.Scan(&c.Rating, &c.Count); err != nil {
			return err
		}
		rep.Feedback = append(rep.Feedback, c)
		return nil
	}, `SELECT rating, COUNT(*) AS cnt FROM feedback WHERE created_at BETWEEN ? AND ?
	    GROUP BY rating ORDER BY cnt DESC`, start, end)
	if err != nil {
		return Report{}, fmt.Errorf("feedback summary: %w", err)
	}

	err = s.each(ctx, func(rows *sql.Rows) error {
		var c TypeCount
		if err := rows.Scan(&c.Type, &c.Count); err != nil {
			return err
		}
		rep.APIQueries = append(rep.APIQueries, c)
		return nil
	}, `SELECT query_type, COUNT(*) AS cnt FROM api_queries WHERE created_at BETWEEN ? AND ?
	    GROUP BY query_type ORDER BY cnt DESC`, start, end)
	if err != nil {
		return Report{}, fmt.Errorf("api query stats: %w", err)
	}

	err = s.each(ctx, func(rows *sql.Rows) error {
		var q RecentQuery
		var resp, cat sql.NullString
		if err := rows.Scan(&q.UserMessage, &resp, &cat, &q.WasAnswered, &q.CreatedAt); err != nil {
			return err
		}
		q.BotResponse, q.Category = resp.String, cat.String
		rep.RecentQueries = append(rep.RecentQueries, q)
		return nil
	}, `SELECT user_message, bot_response, category, was_answered, created_at FROM queries
	    WHERE created_at BETWEEN ? AND ? ORDER BY created_at DESC, id DESC LIMIT ?`, start, end, recentLimit)
	if err != nil {
		return Report{}, fmt.Errorf("recent queries: %w", err)
	}

	return rep, nil
}

// each runs query and calls scan for every row.
func (s *Store) each(ctx context.Context, scan func(*sql.Rows) error, query string, args ...any) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
