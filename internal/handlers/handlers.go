package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"gramqa/internal/db"
	"gramqa/internal/geo"
)

type Storager interface {
	TopEntries(ctx context.Context, locationCodes []string, limit int) ([]db.LeaderboardEntry, error)
	UsersByScope(ctx context.Context, scope db.Scope, codes []string, page, perPage int) (int, []db.LeaderboardEntry, error)
	ListQuestions(ctx context.Context, f db.QuestionFilter, page, limit int) (int, []db.Question, error)
	GetQuestionByID(ctx context.Context, id string) (db.Question, error)
	Health() (db.HealthStats, error)
}

type GeoResolver interface {
	ResolveTaluka(ctx context.Context, code string) (*geo.TalukaInfo, error)
	ResolveDistrict(ctx context.Context, code string) (*geo.DistrictInfo, error)
}

type JWTClaims struct {
	jwt.RegisteredClaims
	UID          string `json:"uid,omitempty"`
	LocationCode string `json:"location_code,omitempty"`
}

type handler struct {
	db           Storager
	geo          GeoResolver
	validate     *validator.Validate
	pageSize     int
	queryTimeout time.Duration
}

func NewHandler(storage Storager, resolver GeoResolver, pageSize int, queryTimeout time.Duration) *handler {
	if pageSize <= 0 {
		pageSize = 10
	}
	if queryTimeout <= 0 {
		queryTimeout = 5 * time.Second
	}
	return &handler{
		db:           storage,
		geo:          resolver,
		validate:     validator.New(),
		pageSize:     pageSize,
		queryTimeout: queryTimeout,
	}
}

// queryContext caps every database round-trip of a request and propagates
// client disconnects to the driver.
func (h *handler) queryContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), h.queryTimeout)
}

// locationCode pulls the caller's registered location from the verified JWT
// claims the auth middleware placed on the context.
func (h *handler) locationCode(c echo.Context) (string, error) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return "", echo.NewHTTPError(http.StatusBadRequest, "registered location not found")
	}
	claims, ok := token.Claims.(*JWTClaims)
	if !ok || claims.LocationCode == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "registered location not found")
	}
	return claims.LocationCode, nil
}

func (h *handler) Health(c echo.Context) error {
	stats, err := h.db.Health()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, stats)
	}
	return c.JSON(http.StatusOK, stats)
}
