package handlers

import (
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"gramqa/internal/db"
	"gramqa/internal/geo"
	"gramqa/internal/middleware"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	sqlDB, err := db.ConnectDB(filepath.Join(t.TempDir(), "gramqa_test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	return sqlDB
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	middleware.Setup(e, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return e
}

func newTestHandler(t *testing.T) (*handler, *sql.DB) {
	t.Helper()

	sqlDB := setupTestDB(t)
	return NewHandler(db.NewStorage(sqlDB), geo.NewResolver(sqlDB), 10, 5*time.Second), sqlDB
}

// invoke runs a handler the way the echo pipeline would, including the
// error-envelope handler, with optional verified claims on the context.
func invoke(e *echo.Echo, h echo.HandlerFunc, req *http.Request, claims *JWTClaims, paramNames, paramValues []string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if paramNames != nil {
		c.SetParamNames(paramNames...)
		c.SetParamValues(paramValues...)
	}
	if claims != nil {
		c.Set("user", jwt.NewWithClaims(jwt.SigningMethodHS256, claims))
	}
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v. Body: %s", err, rec.Body.String())
	}
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rec.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, rec.Code, rec.Body.String())
	}
}

func insertEntry(t *testing.T, sqlDB *sql.DB, uniqueID any, username, location string, count int, village, taluka, district string) {
	t.Helper()

	_, err := sqlDB.Exec(`
		INSERT INTO leaderboard (unique_id, username, location_code, record_count, village_code, taluka_code, district_code)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uniqueID, username, location, count, village, taluka, district,
	)
	if err != nil {
		t.Fatalf("Failed to insert leaderboard entry: %v", err)
	}
}

func insertQuestion(t *testing.T, sqlDB *sql.DB, id, userID, sessionID, channel string, question, answer, ets *string, createdAt time.Time) {
	t.Helper()

	_, err := sqlDB.Exec(`
		INSERT INTO questions (id, user_id, session_id, channel, question, answer, ets, group_id, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, NULL, NULL, ?)`,
		id, userID, sessionID, channel, question, answer, ets, createdAt,
	)
	if err != nil {
		t.Fatalf("Failed to insert question: %v", err)
	}
}

func insertVillage(t *testing.T, sqlDB *sql.DB, code, name, talukaCode, talukaName, districtCode, districtName string) {
	t.Helper()

	_, err := sqlDB.Exec(`
		INSERT INTO villages (village_code, village_name, taluka_code, taluka_name, district_code, district_name)
		VALUES (?, ?, ?, ?, ?, ?)`,
		code, name, talukaCode, talukaName, districtCode, districtName,
	)
	if err != nil {
		t.Fatalf("Failed to insert village: %v", err)
	}
}

func strPtr(s string) *string { return &s }
