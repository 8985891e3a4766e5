package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

type questionListBody struct {
	Success    bool `json:"success"`
	Data       []struct {
		ID            string  `json:"id"`
		UserID        *string `json:"userId"`
		Question      *string `json:"question"`
		Answer        *string `json:"answer"`
		DateAsked     *string `json:"dateAsked"`
		HasVoiceInput bool    `json:"hasVoiceInput"`
		Reaction      string  `json:"reaction"`
	} `json:"data"`
	Pagination struct {
		Page            int  `json:"page"`
		Limit           int  `json:"limit"`
		Total           int  `json:"total"`
		TotalPages      int  `json:"totalPages"`
		HasNextPage     bool `json:"hasNextPage"`
		HasPreviousPage bool `json:"hasPreviousPage"`
		NextPage        *int `json:"nextPage"`
		PreviousPage    *int `json:"previousPage"`
	} `json:"pagination"`
	Filters struct {
		Search    string `json:"search"`
		UserID    string `json:"userId"`
		SessionID string `json:"sessionId"`
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	} `json:"filters"`
}

type errorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func TestListQuestionsEndpoint(t *testing.T) {
	h, sqlDB := newTestHandler(t)
	e := newTestEcho()

	base := time.Date(2023, 11, 1, 8, 0, 0, 0, time.UTC)
	insertQuestion(t, sqlDB, "q1", "u1", "s1", "web", strPtr("soil advice"), strPtr("test your pH"), strPtr("1700000000000"), base)
	insertQuestion(t, sqlDB, "q2", "u2", "s2", "ivr", strPtr("seed rates"), strPtr("40kg per acre"), strPtr("junk-ets"), base.Add(time.Hour))
	insertQuestion(t, sqlDB, "q3", "u3", "s3", "web", strPtr("market price"), strPtr("2100 per quintal"), nil, base.Add(2*time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/questions?limit=2", nil)
	rec := invoke(e, h.ListQuestions, req, nil, nil, nil)

	assertStatus(t, rec, http.StatusOK)

	var body questionListBody
	decodeJSON(t, rec, &body)

	if !body.Success {
		t.Error("Expected success true")
	}
	if len(body.Data) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(body.Data))
	}
	if body.Pagination.Total != 3 || body.Pagination.TotalPages != 2 {
		t.Errorf("Expected total=3 totalPages=2, got total=%d totalPages=%d", body.Pagination.Total, body.Pagination.TotalPages)
	}
	if !body.Pagination.HasNextPage || body.Pagination.NextPage == nil || *body.Pagination.NextPage != 2 {
		t.Errorf("Expected next page 2, got %+v", body.Pagination)
	}
	for _, row := range body.Data {
		if row.HasVoiceInput {
			t.Errorf("Expected hasVoiceInput false on %s", row.ID)
		}
		if row.Reaction != "neutral" {
			t.Errorf("Expected reaction neutral on %s, got %q", row.ID, row.Reaction)
		}
	}
}

func TestListQuestionsDerivesDateAsked(t *testing.T) {
	h, sqlDB := newTestHandler(t)
	e := newTestEcho()

	now := time.Now().UTC()
	insertQuestion(t, sqlDB, "q-epoch", "u1", "s1", "web", strPtr("a"), strPtr("b"), strPtr("1700000000000"), now)
	insertQuestion(t, sqlDB, "q-junk", "u1", "s1", "web", strPtr("c"), strPtr("d"), strPtr("not-a-number-or-date"), now)

	req := httptest.NewRequest(http.MethodGet, "/questions", nil)
	rec := invoke(e, h.ListQuestions, req, nil, nil, nil)
	assertStatus(t, rec, http.StatusOK)

	var body questionListBody
	decodeJSON(t, rec, &body)

	byID := map[string]*string{}
	for _, row := range body.Data {
		byID[row.ID] = row.DateAsked
	}

	if got := byID["q-epoch"]; got == nil || *got != "2023-11-14T22:13:20" {
		t.Errorf("Expected dateAsked 2023-11-14T22:13:20 for q-epoch, got %v", got)
	}
	if got := byID["q-junk"]; got != nil {
		t.Errorf("Expected nil dateAsked for q-junk, got %q", *got)
	}
}

func TestListQuestionsParamValidation(t *testing.T) {
	h, _ := newTestHandler(t)
	e := newTestEcho()

	tests := []struct {
		name  string
		query string
	}{
		{"page zero", "page=0"},
		{"page not a number", "page=abc"},
		{"limit zero", "limit=0"},
		{"limit too large", "limit=101"},
		{"limit not a number", "limit=ten"},
		{"search too long", "search=" + strings.Repeat("x", 1001)},
		{"bad start date", "startDate=definitely-not-a-date"},
		{"bad end date", "endDate=definitely-not-a-date"},
		{"start after end", "startDate=1700000000000&endDate=1600000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/questions?"+tt.query, nil)
			rec := invoke(e, h.ListQuestions, req, nil, nil, nil)

			assertStatus(t, rec, http.StatusBadRequest)

			var body errorEnvelope
			decodeJSON(t, rec, &body)
			if body.Success {
				t.Error("Expected success false in error envelope")
			}
			if body.Message == "" {
				t.Error("Expected a descriptive message")
			}
		})
	}
}

func TestListQuestionsDateRangeFilter(t *testing.T) {
	h, sqlDB := newTestHandler(t)
	e := newTestEcho()

	now := time.Now().UTC()
	insertQuestion(t, sqlDB, "q-old", "u1", "s1", "web", strPtr("old"), strPtr("a"), strPtr("1600000000000"), now)
	insertQuestion(t, sqlDB, "q-new", "u1", "s1", "web", strPtr("new"), strPtr("b"), strPtr("1700000000000"), now)

	req := httptest.NewRequest(http.MethodGet, "/questions?startDate=1650000000000", nil)
	rec := invoke(e, h.ListQuestions, req, nil, nil, nil)
	assertStatus(t, rec, http.StatusOK)

	var body questionListBody
	decodeJSON(t, rec, &body)
	if body.Pagination.Total != 1 || body.Data[0].ID != "q-new" {
		t.Errorf("Expected only q-new past the start bound, got %+v", body.Data)
	}
	if body.Filters.StartDate != "1650000000000" {
		t.Errorf("Expected startDate echoed in filters, got %q", body.Filters.StartDate)
	}
}

func TestGetQuestionByIDRejectsInvalidUUID(t *testing.T) {
	// A nil storage proves rejection happens before any query runs.
	h := NewHandler(nil, nil, 10, time.Second)
	e := newTestEcho()

	tests := []struct {
		name string
		id   string
	}{
		{"not a uuid", "hello"},
		{"numeric", "12345"},
		{"nil uuid has version zero", "00000000-0000-0000-0000-000000000000"},
		{"no hyphens", "d94e49666f144f279a267c0d387590f1"},
		{"bad variant", "aaaaaaaa-aaaa-4aaa-caaa-aaaaaaaaaaaa"},
		{"version out of range", "aaaaaaaa-aaaa-7aaa-9aaa-aaaaaaaaaaaa"},
		{"sql fragment", "1';DROP TABLE questions;--"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/questions/"+url.PathEscape(tt.id), nil)
			rec := invoke(e, h.GetQuestionByID, req, nil, []string{"id"}, []string{tt.id})
			assertStatus(t, rec, http.StatusBadRequest)
		})
	}
}

func TestGetQuestionByID(t *testing.T) {
	h, sqlDB := newTestHandler(t)
	e := newTestEcho()

	const id = "d94e4966-6f14-4f27-9a26-7c0d387590f1"
	// Missing answer: invisible to listings, still reachable by id.
	insertQuestion(t, sqlDB, id, "u1", "s1", "web", strPtr("pending question"), nil, strPtr("1700000000000"), time.Now().UTC())

	req := httptest.NewRequest(http.MethodGet, "/questions/"+id, nil)
	rec := invoke(e, h.GetQuestionByID, req, nil, []string{"id"}, []string{id})
	assertStatus(t, rec, http.StatusOK)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			ID     string  `json:"id"`
			Answer *string `json:"answer"`
		} `json:"data"`
	}
	decodeJSON(t, rec, &body)

	if !body.Success || body.Data.ID != id {
		t.Errorf("Expected the stored row, got %+v", body)
	}
	if body.Data.Answer != nil {
		t.Errorf("Expected null answer, got %q", *body.Data.Answer)
	}
}

func TestGetQuestionByIDNotFound(t *testing.T) {
	h, _ := newTestHandler(t)
	e := newTestEcho()

	const id = "11111111-2222-4333-8444-555555555555"
	req := httptest.NewRequest(http.MethodGet, "/questions/"+id, nil)
	rec := invoke(e, h.GetQuestionByID, req, nil, []string{"id"}, []string{id})
	assertStatus(t, rec, http.StatusNotFound)
}

func TestQuestionsByUserEndpoint(t *testing.T) {
	h, sqlDB := newTestHandler(t)
	e := newTestEcho()

	now := time.Now().UTC()
	insertQuestion(t, sqlDB, "q1", "u1", "s1", "web", strPtr("one"), strPtr("a"), nil, now)
	insertQuestion(t, sqlDB, "q2", "u1", "s2", "web", strPtr("two"), strPtr("b"), nil, now)
	insertQuestion(t, sqlDB, "q3", "u2", "s1", "web", strPtr("three"), strPtr("c"), nil, now)

	req := httptest.NewRequest(http.MethodGet, "/users/u1/questions", nil)
	rec := invoke(e, h.QuestionsByUser, req, nil, []string{"userId"}, []string{"u1"})
	assertStatus(t, rec, http.StatusOK)

	var body questionListBody
	decodeJSON(t, rec, &body)

	if body.Pagination.Total != 2 {
		t.Errorf("Expected 2 rows for u1, got %d", body.Pagination.Total)
	}
	if body.Filters.UserID != "u1" {
		t.Errorf("Expected userId echoed in filters, got %q", body.Filters.UserID)
	}

	rec = invoke(e, h.QuestionsByUser, httptest.NewRequest(http.MethodGet, "/users//questions", nil), nil, []string{"userId"}, []string{" "})
	assertStatus(t, rec, http.StatusBadRequest)
}

func TestQuestionsBySessionEndpoint(t *testing.T) {
	h, sqlDB := newTestHandler(t)
	e := newTestEcho()

	now := time.Now().UTC()
	insertQuestion(t, sqlDB, "q1", "u1", "s1", "web", strPtr("one"), strPtr("a"), nil, now)
	insertQuestion(t, sqlDB, "q2", "u2", "s1", "web", strPtr("two"), strPtr("b"), nil, now)
	insertQuestion(t, sqlDB, "q3", "u1", "s9", "web", strPtr("three"), strPtr("c"), nil, now)

	req := httptest.NewRequest(http.MethodGet, "/sessions/s1/questions", nil)
	rec := invoke(e, h.QuestionsBySession, req, nil, []string{"sessionId"}, []string{"s1"})
	assertStatus(t, rec, http.StatusOK)

	var body questionListBody
	decodeJSON(t, rec, &body)

	if body.Pagination.Total != 2 {
		t.Errorf("Expected 2 rows for s1, got %d", body.Pagination.Total)
	}
	if body.Filters.SessionID != "s1" {
		t.Errorf("Expected sessionId echoed in filters, got %q", body.Filters.SessionID)
	}
}
