package db

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Scope names the geographic column a leaderboard listing is filtered on.
type Scope string

const (
	ScopeVillage  Scope = "village_code"
	ScopeTaluka   Scope = "taluka_code"
	ScopeDistrict Scope = "district_code"
)

func (sc Scope) IsValid() bool {
	switch sc {
	case ScopeVillage, ScopeTaluka, ScopeDistrict:
		return true
	default:
		return false
	}
}

type LeaderboardEntry struct {
	UniqueID     *string `db:"unique_id" json:"unique_id"`
	Username     *string `db:"username" json:"username"`
	LocationCode *string `db:"location_code" json:"location_code"`
	RecordCount  int     `db:"record_count" json:"record_count"`
	VillageCode  *string `db:"village_code" json:"village_code"`
	TalukaCode   *string `db:"taluka_code" json:"taluka_code"`
	DistrictCode *string `db:"district_code" json:"district_code"`
}

const leaderboardColumns = `unique_id, username, location_code, record_count, village_code, taluka_code, district_code`

// TopEntries returns the highest-ranked entries by record count, descending.
// A nil code set means no geographic restriction (state-wide). Rows without
// a unique identifier never rank.
func (s *storage) TopEntries(ctx context.Context, locationCodes []string, limit int) ([]LeaderboardEntry, error) {
	wb := &whereBuilder{}
	wb.add("unique_id IS NOT NULL AND unique_id != ''")
	if locationCodes != nil {
		wb.in("location_code", locationCodes)
	}

	query := `SELECT ` + leaderboardColumns + ` FROM leaderboard` + wb.where() +
		` ORDER BY record_count DESC LIMIT ` + wb.bind(limit)

	rows, err := s.db.QueryContext(ctx, query, wb.args...)
	if err != nil {
		return nil, fmt.Errorf("error querying top entries: %w", err)
	}
	defer rows.Close()

	return scanLeaderboardRows(rows, limit)
}

// UsersByScope returns the total number of entries matching the scope filter
// together with one page of them, ranked by record count descending. Count
// and page are fetched concurrently over the identical predicate.
func (s *storage) UsersByScope(ctx context.Context, scope Scope, codes []string, page, perPage int) (int, []LeaderboardEntry, error) {
	if !scope.IsValid() {
		return 0, nil, fmt.Errorf("invalid leaderboard scope: %s", scope)
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * perPage

	var (
		total   int
		entries []LeaderboardEntry
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		wb := &whereBuilder{}
		wb.in(string(scope), codes)
		query := `SELECT COUNT(*) FROM leaderboard` + wb.where()
		if err := s.db.QueryRowContext(ctx, query, wb.args...).Scan(&total); err != nil {
			return fmt.Errorf("error counting leaderboard users: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		wb := &whereBuilder{}
		wb.in(string(scope), codes)
		query := `SELECT ` + leaderboardColumns + ` FROM leaderboard` + wb.where() +
			` ORDER BY record_count DESC LIMIT ` + wb.bind(perPage) + ` OFFSET ` + wb.bind(offset)

		rows, err := s.db.QueryContext(ctx, query, wb.args...)
		if err != nil {
			return fmt.Errorf("error querying leaderboard users: %w", err)
		}
		defer rows.Close()

		entries, err = scanLeaderboardRows(rows, perPage)
		return err
	})

	if err := g.Wait(); err != nil {
		return 0, nil, err
	}

	return total, entries, nil
}

func scanLeaderboardRows(rows *sql.Rows, capacity int) ([]LeaderboardEntry, error) {
	entries := make([]LeaderboardEntry, 0, capacity)
	for rows.Next() {
		var entry LeaderboardEntry
		if err := rows.Scan(
			&entry.UniqueID,
			&entry.Username,
			&entry.LocationCode,
			&entry.RecordCount,
			&entry.VillageCode,
			&entry.TalukaCode,
			&entry.DistrictCode,
		); err != nil {
			return nil, fmt.Errorf("error scanning leaderboard entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard rows: %w", err)
	}

	return entries, nil
}
