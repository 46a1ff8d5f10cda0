package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/almanac/internal/apperr"
	"github.com/starford/almanac/internal/models"
)

var hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidateFields trims f and checks the required and formatted fields.
func ValidateFields(f *models.EventFields) error {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	f.Date = strings.TrimSpace(f.Date)
	f.Time = strings.TrimSpace(f.Time)
	f.Color = strings.TrimSpace(f.Color)

	err := validation.ValidateStruct(f,
		validation.Field(&f.Title, validation.Required, validation.RuneLength(1, 200)),
		validation.Field(&f.Date, validation.Required, validation.Date(models.DateLayout)),
		validation.Field(&f.Time, validation.Required, validation.Date(models.TimeLayout)),
		validation.Field(&f.Color, validation.Match(hexColorRe).Error("must be a hex color")),
	)
	if err != nil {
		return apperr.Validation(err)
	}
	if f.Color == "" {
		f.Color = models.DefaultColor
	}
	return nil
}

func fieldsOf(e models.Event) models.EventFields {
	return models.EventFields{
		Title:       e.Title,
		Description: e.Description,
		Date:        e.Date,
		Time:        e.Time,
		Color:       e.Color,
	}
}

// CreateEvent validates and inserts a new personal event. An empty ID is
// replaced with a random UUID.
func (db *DB) CreateEvent(ctx context.Context, e models.Event) (models.Event, error) {
	f := fieldsOf(e)
	if err := ValidateFields(&f); err != nil {
		return models.Event{}, err
	}
	out := models.Event{
		ID:          strings.TrimSpace(e.ID),
		Title:       f.Title,
		Description: f.Description,
		Date:        f.Date,
		Time:        f.Time,
		Color:       f.Color,
		Scope:       models.ScopePersonal,
	}
	if out.ID == "" {
		out.ID = uuid.NewString()
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO events (id, title, description, date, time, color, scope)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, out.ID, out.Title, out.Description, out.Date, out.Time, out.Color, string(out.Scope))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return models.Event{}, fmt.Errorf("store: insert event %s: %w", out.ID, apperr.ErrConflict)
		}
		return models.Event{}, fmt.Errorf("store: insert event: %w: %w", apperr.ErrStorage, err)
	}
	return out, nil
}

// UpdateEvent replaces the mutable fields of an existing event. The
// identifier and scope are preserved.
func (db *DB) UpdateEvent(ctx context.Context, id string, f models.EventFields) (models.Event, error) {
	if err := ValidateFields(&f); err != nil {
		return models.Event{}, err
	}
	res, err := db.conn.ExecContext(ctx, `
		UPDATE events
		SET title = ?, description = ?, date = ?, time = ?, color = ?
		WHERE id = ?
	`, f.Title, f.Description, f.Date, f.Time, f.Color, id)
	if err != nil {
		return models.Event{}, fmt.Errorf("store: update event: %w: %w", apperr.ErrStorage, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Event{}, fmt.Errorf("store: update event: %w: %w", apperr.ErrStorage, err)
	}
	if n == 0 {
		return models.Event{}, fmt.Errorf("store: event %s: %w", id, apperr.ErrNotFound)
	}
	return db.GetEvent(ctx, id)
}

// DeleteEvent removes an event. Deleting a missing id is not an error.
func (db *DB) DeleteEvent(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: delete event: %w: %w", apperr.ErrStorage, err)
	}
	return nil
}

// GetEvent returns a single event by id.
func (db *DB) GetEvent(ctx context.Context, id string) (models.Event, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, title, description, date, time, color, scope
		FROM events WHERE id = ?
	`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Event{}, fmt.Errorf("store: event %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return models.Event{}, fmt.Errorf("store: get event: %w: %w", apperr.ErrStorage, err)
	}
	return e, nil
}

// ListByScope returns every row with the given scope. An empty scope means
// personal, and rows written before the scope column existed count as
// personal too.
func (db *DB) ListByScope(ctx context.Context, scope models.Scope) ([]models.Event, error) {
	if scope == "" {
		scope = models.ScopePersonal
	}
	query := `
		SELECT id, title, description, date, time, color, scope
		FROM events WHERE scope = ?`
	if scope == models.ScopePersonal {
		query += ` OR scope IS NULL OR scope = ''`
	}
	query += ` ORDER BY date, time, id`

	rows, err := db.conn.QueryContext(ctx, query, string(scope))
	if err != nil {
		return nil, fmt.Errorf("store: list events: %w: %w", apperr.ErrStorage, err)
	}
	defer rows.Close()

	out := []models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan event: %w: %w", apperr.ErrStorage, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list events: %w: %w", apperr.ErrStorage, err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (models.Event, error) {
	var (
		e                         models.Event
		description, color, scope sql.NullString
	)
	if err := s.Scan(&e.ID, &e.Title, &description, &e.Date, &e.Time, &color, &scope); err != nil {
		return models.Event{}, err
	}
	e.Description = description.String
	e.Color = color.String
	if e.Color == "" {
		e.Color = models.DefaultColor
	}
	e.Scope = models.Scope(scope.String)
	if e.Scope == "" {
		e.Scope = models.ScopePersonal
	}
	return e, nil
}
