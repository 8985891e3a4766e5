package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"

	"gramqa/internal/db"
	"gramqa/internal/geo"
	"gramqa/internal/handlers"
	"gramqa/internal/middleware"
)

type Config struct {
	Host                string `yaml:"host"`
	Port                int    `yaml:"port" validate:"required"`
	DBPath              string `yaml:"db_path" validate:"required"`
	JWTSecretKey        string `yaml:"jwt_secret_key" validate:"required"`
	PageSize            int    `yaml:"page_size"`
	QueryTimeoutSeconds int    `yaml:"query_timeout_seconds"`
}

func ReadConfig(filePath string) (*Config, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	var cfg Config
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	if cfg.PageSize == 0 {
		cfg.PageSize = 10
	}
	if cfg.QueryTimeoutSeconds == 0 {
		cfg.QueryTimeoutSeconds = 5
	}

	return &cfg, nil
}

func ValidateConfig(cfg *Config) error {
	validate := validator.New()
	return validate.Struct(cfg)
}

func getAuthConfig(secret string) echojwt.Config {
	return echojwt.Config{
		NewClaimsFunc: func(_ echo.Context) jwt.Claims {
			return new(handlers.JWTClaims)
		},
		SigningKey: []byte(secret),
	}
}

func main() {
	configFilePath := "config.yml"
	configFilePathEnv := os.Getenv("CONFIG_FILE_PATH")
	if configFilePathEnv != "" {
		configFilePath = configFilePathEnv
	}

	cfg, err := ReadConfig(configFilePath)
	if err != nil {
		log.Fatalf("error reading configuration: %v", err)
	}

	if err := ValidateConfig(cfg); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	sqlDB, err := db.ConnectDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer sqlDB.Close()

	storage := db.NewStorage(sqlDB)
	resolver := geo.NewResolver(sqlDB)

	handler := handlers.NewHandler(storage, resolver, cfg.PageSize, time.Duration(cfg.QueryTimeoutSeconds)*time.Second)

	e := echo.New()

	logr := slog.New(slog.NewTextHandler(os.Stdout, nil))

	middleware.Setup(e, logr)

	e.GET("/health", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	authCfg := getAuthConfig(cfg.JWTSecretKey)
	api := e.Group("", echojwt.WithConfig(authCfg))

	api.GET("/top10/state", handler.TopByState)
	api.GET("/top10/taluka", handler.TopByTaluka)
	api.GET("/top10/district", handler.TopByDistrict)
	api.GET("/leaderboard/users", handler.LeaderboardUsers)

	api.GET("/questions", handler.ListQuestions)
	api.GET("/questions/:id", handler.GetQuestionByID)
	api.GET("/users/:userId/questions", handler.QuestionsByUser)
	api.GET("/sessions/:sessionId/questions", handler.QuestionsBySession)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	log.Printf("Starting server on %s", addr)
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
