package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	_ "github.com/mattn/go-sqlite3"
)

var ErrNotFound = errors.New("not found")

type HealthStats struct {
	Status            string `json:"status"`
	Error             string `json:"error,omitempty"`
	Message           string `json:"message"`
	OpenConnections   int    `json:"open_connections"`
	InUse             int    `json:"in_use"`
	Idle              int    `json:"idle"`
	WaitCount         int64  `json:"wait_count"`
	WaitDuration      string `json:"wait_duration"`
	MaxIdleClosed     int64  `json:"max_idle_closed"`
	MaxLifetimeClosed int64  `json:"max_lifetime_closed"`
}

type storage struct {
	db *sql.DB
}

func init() {
	// Registers the sqlite3 driver with a ConnectHook so that we can
	// initialize the default PRAGMAs.
	//
	// Note 1: we don't define the PRAGMA as part of the dsn string
	// because not all pragmas are available.
	//
	// Note 2: the busy_timeout pragma must be first because
	// the connection needs to be set to block on busy before WAL mode
	// is set in case it hasn't been already set by another connection.
	sql.Register("sqlite",
		&sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				_, err := conn.Exec(`
					PRAGMA busy_timeout       = 10000;
					PRAGMA journal_mode       = WAL;
					PRAGMA journal_size_limit = 200000000;
					PRAGMA synchronous        = NORMAL;
					PRAGMA foreign_keys       = ON;
					PRAGMA temp_store         = MEMORY;
					PRAGMA cache_size         = -16000;
				`, nil)

				return err
			},
		},
	)
}

// ConnectDB opens the database, verifies the connection and bootstraps
// the schema. The returned *sql.DB is shared between the storage layer
// and the geographic resolver.
func ConnectDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	schema := `
	   CREATE TABLE IF NOT EXISTS leaderboard (
	       unique_id TEXT,
	       username TEXT,
	       location_code TEXT,
	       record_count INTEGER DEFAULT 0,
	       village_code TEXT,
	       taluka_code TEXT,
	       district_code TEXT
	   );
	   CREATE TABLE IF NOT EXISTS questions (
			id TEXT PRIMARY KEY,
			user_id TEXT,
			session_id TEXT,
			channel TEXT,
			question TEXT,
			answer TEXT,
			ets TEXT,
			group_id TEXT,
			source TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	   );
		CREATE TABLE IF NOT EXISTS villages (
			village_code TEXT PRIMARY KEY,
			village_name TEXT,
			taluka_code TEXT,
			taluka_name TEXT,
			district_code TEXT,
			district_name TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_leaderboard_location ON leaderboard(location_code);
		CREATE INDEX IF NOT EXISTS idx_questions_user ON questions(user_id);
		CREATE INDEX IF NOT EXISTS idx_questions_session ON questions(session_id);
		CREATE INDEX IF NOT EXISTS idx_villages_taluka ON villages(taluka_code);
		CREATE INDEX IF NOT EXISTS idx_villages_district ON villages(district_code);
		`

	_, err = db.Exec(schema)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func NewStorage(db *sql.DB) *storage {
	return &storage{
		db: db,
	}
}

func (s *storage) Health() (HealthStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := HealthStats{}

	err := s.db.PingContext(ctx)
	if err != nil {
		stats.Status = "down"
		stats.Error = fmt.Sprintf("db down: %v", err)
		return stats, fmt.Errorf("db down: %w", err)
	}

	stats.Status = "up"
	stats.Message = "It's healthy"

	dbStats := s.db.Stats()
	stats.OpenConnections = dbStats.OpenConnections
	stats.InUse = dbStats.InUse
	stats.Idle = dbStats.Idle
	stats.WaitCount = dbStats.WaitCount
	stats.WaitDuration = dbStats.WaitDuration.String()
	stats.MaxIdleClosed = dbStats.MaxIdleClosed
	stats.MaxLifetimeClosed = dbStats.MaxLifetimeClosed

	if dbStats.WaitCount > 1000 {
		stats.Message = "The database has a high number of wait events, indicating potential bottlenecks."
	}

	return stats, nil
}

func (s *storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
