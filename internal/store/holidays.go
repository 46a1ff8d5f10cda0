package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/almanac/internal/apperr"
)

func holidayKey(year int) string {
	return fmt.Sprintf("holidays-%d", year)
}

// GetHolidays returns the cached payload for year when an entry exists, was
// fetched for country and is younger than HolidayTTL. Anything else is a miss.
func (db *DB) GetHolidays(ctx context.Context, year int, country string) ([]byte, bool, error) {
	var (
		data      string
		cached    string
		createdAt time.Time
	)
	err := db.conn.QueryRowContext(ctx, `
		SELECT data, country, created_at FROM holiday_cache WHERE id = ?
	`, holidayKey(year)).Scan(&data, &cached, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: get holidays %d: %w: %w", year, apperr.ErrStorage, err)
	}
	if cached != country {
		return nil, false, nil
	}
	if db.now().Sub(createdAt) >= HolidayTTL {
		return nil, false, nil
	}
	return []byte(data), true, nil
}

// PutHolidays upserts the entry for year, stamping it with the current time.
func (db *DB) PutHolidays(ctx context.Context, year int, country string, payload []byte) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO holiday_cache (id, year, country, data, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			year       = excluded.year,
			country    = excluded.country,
			data       = excluded.data,
			created_at = excluded.created_at
	`, holidayKey(year), year, country, string(payload), db.now().UTC())
	if err != nil {
		return fmt.Errorf("store: put holidays %d: %w: %w", year, apperr.ErrStorage, err)
	}
	return nil
}

// ClearHolidays drops every cached holiday payload.
func (db *DB) ClearHolidays(ctx context.Context) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM holiday_cache`)
	if err != nil {
		return 0, fmt.Errorf("store: clear holidays: %w: %w", apperr.ErrStorage, err)
	}
	return res.RowsAffected()
}

// CachedYears lists the years that currently have an entry, fresh or not.
func (db *DB) CachedYears(ctx context.Context) ([]int, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT year FROM holiday_cache ORDER BY year`)
	if err != nil {
		return nil, fmt.Errorf("store: cached years: %w: %w", apperr.ErrStorage, err)
	}
	defer rows.Close()
	var out []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, fmt.Errorf("store: cached years: %w: %w", apperr.ErrStorage, err)
		}
		out = append(out, y)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: cached years: %w: %w", apperr.ErrStorage, err)
	}
	return out, nil
}
