package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// queryTimeout bounds every statement issued by the store.
const queryTimeout = 5 * time.Second

// DB abstracts the database operations used by the storage layer.
// Satisfied by *pgxpool.Pool in production and pgxmock in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
}

// Storage defines the persistence operations for form submissions.
// Submissions are append-only: there is no update or delete.
type Storage interface {
	// Init creates the submissions table when it does not exist yet.
	// Safe to call on every start.
	Init(ctx context.Context) error
	// Save inserts sub, fills in its ID and SubmissionDate and returns the ID.
	Save(ctx context.Context, sub *Submission) (int64, error)
	// List returns every submission, newest first.
	List(ctx context.Context) ([]Submission, error)
	// HealthCheck verifies the database is reachable without writing to it.
	HealthCheck(ctx context.Context) error
}

// pgStorage implements the Storage interface using PostgreSQL.
type pgStorage struct {
	db DB
}

// NewInstance creates a new PostgreSQL-backed Storage implementation.
func NewInstance(db *pgxpool.Pool) (Storage, error) {
	if db == nil {
		return nil, fmt.Errorf("repository: db connection cannot be nil")
	}
	return &pgStorage{db: db}, nil
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS form_submissions (
    id                  BIGSERIAL PRIMARY KEY,
    name                TEXT NOT NULL,
    email               TEXT NOT NULL,
    phone_number        TEXT NOT NULL,
    instagram_link      TEXT,
    service_type        TEXT NOT NULL,
    project_description TEXT NOT NULL,
    budget_timeline     TEXT,
    additional_info     TEXT,
    submission_date     TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const createIndexSQL = `
CREATE INDEX IF NOT EXISTS form_submissions_submission_date_idx
    ON form_submissions (submission_date DESC)`

func (r *pgStorage) Init(ctx context.Context) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := r.db.Exec(timeoutCtx, createTableSQL); err != nil {
		return fmt.Errorf("create form_submissions table: %w", err)
	}
	if _, err := r.db.Exec(timeoutCtx, createIndexSQL); err != nil {
		return fmt.Errorf("create submission_date index: %w", err)
	}
	return nil
}

// Save relies on the BIGSERIAL sequence for ID assignment, so concurrent
// inserts never need coordination on our side.
func (r *pgStorage) Save(ctx context.Context, sub *Submission) (int64, error) {
	if sub == nil {
		return 0, fmt.Errorf("save submission: nil submission")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := r.db.QueryRow(timeoutCtx, `
        INSERT INTO form_submissions
            (name, email, phone_number, instagram_link, service_type,
             project_description, budget_timeline, additional_info)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, submission_date`,
		sub.Name,
		sub.Email,
		sub.PhoneNumber,
		nullIfEmpty(sub.InstagramLink),
		sub.ServiceType,
		sub.ProjectDescription,
		nullIfEmpty(sub.BudgetTimeline),
		nullIfEmpty(sub.AdditionalInfo),
	).Scan(&sub.ID, &sub.SubmissionDate)
	if err != nil {
		return 0, fmt.Errorf("insert submission: %w", err)
	}

	return sub.ID, nil
}

func (r *pgStorage) List(ctx context.Context) ([]Submission, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.Query(timeoutCtx, `
        SELECT id, name, email, phone_number, instagram_link, service_type,
               project_description, budget_timeline, additional_info, submission_date
        FROM form_submissions
        ORDER BY submission_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	subs := []Submission{}
	for rows.Next() {
		var s Submission
		var instagram, budget, additionalInfo *string
		err := rows.Scan(
			&s.ID,
			&s.Name,
			&s.Email,
			&s.PhoneNumber,
			&instagram,
			&s.ServiceType,
			&s.ProjectDescription,
			&budget,
			&additionalInfo,
			&s.SubmissionDate,
		)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		s.InstagramLink = deref(instagram)
		s.BudgetTimeline = deref(budget)
		s.AdditionalInfo = deref(additionalInfo)
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}

	return subs, nil
}

func (r *pgStorage) HealthCheck(ctx context.Context) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if err := r.db.Ping(timeoutCtx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// nullIfEmpty stores absent optional fields as NULL.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
