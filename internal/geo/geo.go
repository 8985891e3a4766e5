// Package geo resolves a registered location code to its enclosing taluka
// or district and the member village codes of that scope.
package geo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("location not found")

type TalukaInfo struct {
	TalukaName    string   `json:"taluka_name"`
	DistrictName  string   `json:"district_name"`
	TotalVillages int      `json:"total_villages"`
	VillageCodes  []string `json:"-"`
}

type DistrictInfo struct {
	DistrictName  string   `json:"district_name"`
	TotalVillages int      `json:"total_villages"`
	VillageCodes  []string `json:"-"`
}

type Resolver struct {
	db *sql.DB
}

func NewResolver(db *sql.DB) *Resolver {
	return &Resolver{db: db}
}

// ResolveTaluka looks up the taluka enclosing the given village code and
// collects the codes of every village in it.
func (r *Resolver) ResolveTaluka(ctx context.Context, code string) (*TalukaInfo, error) {
	var talukaCode string
	info := &TalukaInfo{}

	query := `SELECT taluka_code, taluka_name, district_name FROM villages WHERE village_code = ?`
	err := r.db.QueryRowContext(ctx, query, code).Scan(&talukaCode, &info.TalukaName, &info.DistrictName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error resolving taluka: %w", err)
	}

	info.VillageCodes, err = r.memberVillages(ctx, "taluka_code", talukaCode)
	if err != nil {
		return nil, err
	}
	info.TotalVillages = len(info.VillageCodes)

	return info, nil
}

// ResolveDistrict is the district-level analogue of ResolveTaluka.
func (r *Resolver) ResolveDistrict(ctx context.Context, code string) (*DistrictInfo, error) {
	var districtCode string
	info := &DistrictInfo{}

	query := `SELECT district_code, district_name FROM villages WHERE village_code = ?`
	err := r.db.QueryRowContext(ctx, query, code).Scan(&districtCode, &info.DistrictName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error resolving district: %w", err)
	}

	info.VillageCodes, err = r.memberVillages(ctx, "district_code", districtCode)
	if err != nil {
		return nil, err
	}
	info.TotalVillages = len(info.VillageCodes)

	return info, nil
}

func (r *Resolver) memberVillages(ctx context.Context, column, code string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT village_code FROM villages WHERE `+column+` = ?`, code)
	if err != nil {
		return nil, fmt.Errorf("error querying member villages: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var villageCode string
		if err := rows.Scan(&villageCode); err != nil {
			return nil, fmt.Errorf("error scanning village code: %w", err)
		}
		codes = append(codes, villageCode)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating village rows: %w", err)
	}

	return codes, nil
}
