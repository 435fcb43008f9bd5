package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mr1hm/go-community-alerts/internal/models"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Each connection to ":memory:" is its own database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error while migrating database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			category TEXT NOT NULL,
			location TEXT,
			latitude REAL,
			longitude REAL,
			status TEXT NOT NULL,
			severity TEXT NOT NULL,
			upvotes INTEGER NOT NULL DEFAULT 0 CHECK (upvotes >= 0),
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_alerts_created_at ON alerts(created_at);
		CREATE INDEX IF NOT EXISTS idx_alerts_category ON alerts(category);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func (s *SQLiteDB) AddAlert(ctx context.Context, a *models.Alert) error {
	var lat, lng sql.NullFloat64
	if a.Coordinates != nil {
		lat = sql.NullFloat64{Float64: a.Coordinates.Latitude, Valid: true}
		lng = sql.NullFloat64{Float64: a.Coordinates.Longitude, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, title, description, category, location, latitude, longitude, status, severity, upvotes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.Description, string(a.Category), a.Location, lat, lng,
		string(a.Status), string(a.Severity), a.Upvotes, a.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("error inserting alert %s: %w", a.ID, err)
	}
	return nil
}

func (s *SQLiteDB) GetByID(ctx context.Context, id string) (*models.Alert, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, category, location, latitude, longitude, status, severity, upvotes, created_at
		FROM alerts WHERE id = ?`, id)

	a, err := scanAlert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching alert %s: %w", id, err)
	}
	return a, nil
}

func (s *SQLiteDB) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM alerts WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("error checking alert %s: %w", id, err)
	}
	return n > 0, nil
}

func (s *SQLiteDB) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM alerts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting alerts: %w", err)
	}
	return n, nil
}

// ListAlerts returns archived alerts newest first.
func (s *SQLiteDB) ListAlerts(ctx context.Context, opts Filter) ([]models.Alert, error) {
	var (
		where []string
		args  []any
	)
	if opts.Since != nil {
		where = append(where, "created_at >= ?")
		args = append(args, opts.Since.UnixNano())
	}
	if opts.Category != nil {
		where = append(where, "category = ?")
		args = append(args, string(*opts.Category))
	}
	if opts.Severity != nil {
		where = append(where, "severity = ?")
		args = append(args, string(*opts.Severity))
	}
	if opts.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*opts.Status))
	}

	query := `SELECT id, title, description, category, location, latitude, longitude, status, severity, upvotes, created_at FROM alerts`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = -1 // no limit
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, max(opts.Offset, 0))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]models.Alert, 0)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning alert: %w", err)
		}
		alerts = append(alerts, *a)
	}
	return alerts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAlert(row scanner) (*models.Alert, error) {
	var (
		a         models.Alert
		category  string
		status    string
		severity  string
		location  sql.NullString
		lat, lng  sql.NullFloat64
		createdAt int64
	)
	if err := row.Scan(&a.ID, &a.Title, &a.Description, &category, &location, &lat, &lng, &status, &severity, &a.Upvotes, &createdAt); err != nil {
		return nil, err
	}

	a.Category = models.Category(category)
	a.Status = models.Status(status)
	a.Severity = models.Severity(severity)
	a.Location = location.String
	a.Timestamp = time.Unix(0, createdAt).UTC()
	if lat.Valid && lng.Valid {
		a.Coordinates = &models.Coordinates{Latitude: lat.Float64, Longitude: lng.Float64}
	}
	return &a, nil
}
