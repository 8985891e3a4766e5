package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"gramqa/internal/db"
)

type questionListResponse struct {
	Success    bool                `json:"success"`
	Data       []formattedQuestion `json:"data"`
	Pagination pagination          `json:"pagination"`
	Filters    appliedFilters      `json:"filters"`
}

type questionResponse struct {
	Success bool              `json:"success"`
	Data    formattedQuestion `json:"data"`
}

// appliedFilters echoes back the filters a listing request ran with.
type appliedFilters struct {
	Search    string `json:"search,omitempty"`
	UserID    string `json:"userId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

// questionQuery is the typed form of the listing query parameters; it is
// validated before any query runs.
type questionQuery struct {
	Page   int    `validate:"min=1"`
	Limit  int    `validate:"min=1,max=100"`
	Search string `validate:"max=1000"`

	startMS, endMS   *int64
	startRaw, endRaw string
}

func (h *handler) parseQuestionQuery(c echo.Context) (*questionQuery, error) {
	q := &questionQuery{Page: 1, Limit: 10}

	if v := c.QueryParam("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid page query parameter")
		}
		q.Page = n
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid limit query parameter")
		}
		q.Limit = n
	}
	q.Search = strings.TrimSpace(c.QueryParam("search"))

	if err := h.validate.Struct(q); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters: page must be >= 1, limit must be 1-100, search must be at most 1000 characters")
	}

	q.startRaw = strings.TrimSpace(c.QueryParam("startDate"))
	if q.startRaw != "" {
		t, err := parseFlexibleDate(q.startRaw)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid startDate format")
		}
		ms := t.UnixMilli()
		q.startMS = &ms
	}

	q.endRaw = strings.TrimSpace(c.QueryParam("endDate"))
	if q.endRaw != "" {
		t, err := parseFlexibleDate(q.endRaw)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid endDate format")
		}
		ms := t.UnixMilli()
		q.endMS = &ms
	}

	if q.startMS != nil && q.endMS != nil && *q.startMS > *q.endMS {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "startDate must not be after endDate")
	}

	return q, nil
}

func (h *handler) ListQuestions(c echo.Context) error {
	q, err := h.parseQuestionQuery(c)
	if err != nil {
		return err
	}

	filter := db.QuestionFilter{
		Search:  q.Search,
		StartMS: q.startMS,
		EndMS:   q.endMS,
	}
	return h.respondQuestionPage(c, filter, q)
}

func (h *handler) QuestionsByUser(c echo.Context) error {
	userID := strings.TrimSpace(c.Param("userId"))
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "userId is required")
	}

	q, err := h.parseQuestionQuery(c)
	if err != nil {
		return err
	}

	filter := db.QuestionFilter{
		UserID:  userID,
		StartMS: q.startMS,
		EndMS:   q.endMS,
	}
	return h.respondQuestionPage(c, filter, q)
}

func (h *handler) QuestionsBySession(c echo.Context) error {
	sessionID := strings.TrimSpace(c.Param("sessionId"))
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "sessionId is required")
	}

	q, err := h.parseQuestionQuery(c)
	if err != nil {
		return err
	}

	filter := db.QuestionFilter{
		SessionID: sessionID,
		StartMS:   q.startMS,
		EndMS:     q.endMS,
	}
	return h.respondQuestionPage(c, filter, q)
}

func (h *handler) GetQuestionByID(c echo.Context) error {
	id := c.Param("id")
	if !isCanonicalUUID(id) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid question id")
	}

	ctx, cancel := h.queryContext(c)
	defer cancel()

	question, err := h.db.GetQuestionByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "question not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "error getting question").SetInternal(err)
	}

	return c.JSON(http.StatusOK, questionResponse{Success: true, Data: formatQuestion(question)})
}

func (h *handler) respondQuestionPage(c echo.Context, filter db.QuestionFilter, q *questionQuery) error {
	ctx, cancel := h.queryContext(c)
	defer cancel()

	total, rows, err := h.db.ListQuestions(ctx, filter, q.Page, q.Limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "error fetching questions").SetInternal(err)
	}

	data := make([]formattedQuestion, 0, len(rows))
	for _, row := range rows {
		data = append(data, formatQuestion(row))
	}

	return c.JSON(http.StatusOK, questionListResponse{
		Success:    true,
		Data:       data,
		Pagination: buildPagination(q.Page, q.Limit, total),
		Filters: appliedFilters{
			Search:    filter.Search,
			UserID:    filter.UserID,
			SessionID: filter.SessionID,
			StartDate: q.startRaw,
			EndDate:   q.endRaw,
		},
	})
}

// isCanonicalUUID accepts only the hyphenated 8-4-4-4-12 form with a
// version of 1-5 and the RFC 4122 variant. Anything else is rejected
// before the database is consulted.
func isCanonicalUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	v := u.Version()
	return v >= 1 && v <= 5 && u.Variant() == uuid.RFC4122
}
