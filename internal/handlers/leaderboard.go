package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"gramqa/internal/db"
	"gramqa/internal/geo"
)

const topLimit = 10

type topEntriesResponse struct {
	Success      bool                  `json:"success"`
	Count        int                   `json:"count"`
	Data         []db.LeaderboardEntry `json:"data"`
	TalukaInfo   *geo.TalukaInfo       `json:"taluka_info,omitempty"`
	DistrictInfo *geo.DistrictInfo     `json:"district_info,omitempty"`
}

type pagedUsersResponse struct {
	Success    bool                  `json:"success"`
	Page       int                   `json:"page"`
	PerPage    int                   `json:"per_page"`
	Total      int                   `json:"total"`
	TotalPages int                   `json:"total_pages"`
	Count      int                   `json:"count"`
	Data       []db.LeaderboardEntry `json:"data"`
}

func (h *handler) TopByState(c echo.Context) error {
	if _, err := h.locationCode(c); err != nil {
		return err
	}

	ctx, cancel := h.queryContext(c)
	defer cancel()

	entries, err := h.db.TopEntries(ctx, nil, topLimit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "error getting state leaderboard").SetInternal(err)
	}

	return c.JSON(http.StatusOK, topEntriesResponse{
		Success: true,
		Count:   len(entries),
		Data:    entries,
	})
}

func (h *handler) TopByTaluka(c echo.Context) error {
	code, err := h.locationCode(c)
	if err != nil {
		return err
	}

	ctx, cancel := h.queryContext(c)
	defer cancel()

	info, err := h.geo.ResolveTaluka(ctx, code)
	if err != nil {
		if errors.Is(err, geo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "taluka not found for registered location")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "error resolving taluka").SetInternal(err)
	}

	entries, err := h.db.TopEntries(ctx, info.VillageCodes, topLimit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "error getting taluka leaderboard").SetInternal(err)
	}

	return c.JSON(http.StatusOK, topEntriesResponse{
		Success:    true,
		Count:      len(entries),
		Data:       entries,
		TalukaInfo: info,
	})
}

func (h *handler) TopByDistrict(c echo.Context) error {
	code, err := h.locationCode(c)
	if err != nil {
		return err
	}

	ctx, cancel := h.queryContext(c)
	defer cancel()

	info, err := h.geo.ResolveDistrict(ctx, code)
	if err != nil {
		if errors.Is(err, geo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "district not found for registered location")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "error resolving district").SetInternal(err)
	}

	entries, err := h.db.TopEntries(ctx, info.VillageCodes, topLimit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "error getting district leaderboard").SetInternal(err)
	}

	return c.JSON(http.StatusOK, topEntriesResponse{
		Success:      true,
		Count:        len(entries),
		Data:         entries,
		DistrictInfo: info,
	})
}

// LeaderboardUsers serves the paginated listing for whichever scope
// parameter the caller supplied: district_code, taluka_code or village_code.
func (h *handler) LeaderboardUsers(c echo.Context) error {
	scope, raw := pickScope(c)
	codes := splitCodes(raw)
	if len(codes) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "district_code, taluka_code or village_code is required")
	}

	page := 1
	if v := c.QueryParam("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid page query parameter")
		}
		page = n
	}

	ctx, cancel := h.queryContext(c)
	defer cancel()

	total, entries, err := h.db.UsersByScope(ctx, scope, codes, page, h.pageSize)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "error getting leaderboard users").SetInternal(err)
	}

	totalPages := (total + h.pageSize - 1) / h.pageSize

	return c.JSON(http.StatusOK, pagedUsersResponse{
		Success:    true,
		Page:       page,
		PerPage:    h.pageSize,
		Total:      total,
		TotalPages: totalPages,
		Count:      len(entries),
		Data:       entries,
	})
}

func pickScope(c echo.Context) (db.Scope, string) {
	if v := c.QueryParam("district_code"); v != "" {
		return db.ScopeDistrict, v
	}
	if v := c.QueryParam("taluka_code"); v != "" {
		return db.ScopeTaluka, v
	}
	return db.ScopeVillage, c.QueryParam("village_code")
}

func splitCodes(raw string) []string {
	parts := strings.Split(raw, ",")
	codes := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			codes = append(codes, p)
		}
	}
	return codes
}
