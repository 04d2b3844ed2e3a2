// Package storage persists job applications and their résumé files.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tardus/office-planner/internal/domain"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS employees (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  phone TEXT NOT NULL,
  address TEXT NOT NULL,
  office_location TEXT NOT NULL,
  resume_file TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS employees (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  phone TEXT NOT NULL,
  address TEXT NOT NULL,
  office_location TEXT NOT NULL,
  resume_file TEXT,
  created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

const insertApplicant = `INSERT INTO employees (name, email, phone, address, office_location, resume_file, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`

// ApplicantStore writes applicants to the employees table.
type ApplicantStore struct {
	db     *sql.DB
	driver string
}

// Open connects to the database named by driver and dsn.
func Open(driver, dsn string) (*ApplicantStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	switch driver {
	case DriverPostgres:
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		db.SetConnMaxIdleTime(5 * time.Minute)
	case DriverSQLite:
		// SQLite serializes writers; one connection avoids "database is locked".
		db.SetMaxOpenConns(1)
	}

	return NewApplicantStore(db, driver), nil
}

// NewApplicantStore wraps an existing connection pool.
func NewApplicantStore(db *sql.DB, driver string) *ApplicantStore {
	return &ApplicantStore{db: db, driver: driver}
}

// EnsureSchema creates the employees table when it does not exist.
func (s *ApplicantStore) EnsureSchema(ctx context.Context) error {
	ddl := postgresSchema
	if s.driver == DriverSQLite {
		ddl = sqliteSchema
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create employees table: %w", err)
	}
	return nil
}

// Create inserts a, stamping CreatedAt, and returns it with the assigned ID.
func (s *ApplicantStore) Create(ctx context.Context, a domain.Applicant) (domain.Applicant, error) {
	a.CreatedAt = domain.Now().UTC()

	var resume sql.NullString
	if a.ResumeFile != nil {
		resume = sql.NullString{String: *a.ResumeFile, Valid: true}
	}

	err := s.db.QueryRowContext(ctx, insertApplicant,
		a.Name, a.Email, a.Phone, a.Address, a.OfficeLocation, resume, a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		return domain.Applicant{}, fmt.Errorf("insert applicant: %w", err)
	}
	return a, nil
}

// CheckReadiness pings the database.
func (s *ApplicantStore) CheckReadiness(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}
	return nil
}

func (s *ApplicantStore) Close() error {
	return s.db.Close()
}
