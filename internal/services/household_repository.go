package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/AnshRaj112/canteen-backend/internal/models"
)

// HouseholdRepository stores household records and their revision counters.
type HouseholdRepository interface {
	Create(ctx context.Context, name, inviteCode string) (*models.Household, error)
	Get(ctx context.Context, id string) (*models.Household, error)
	FindByCode(ctx context.Context, code string) (*models.Household, error)
	Rename(ctx context.Context, id, name string) (*models.Household, error)
	BumpRevision(ctx context.Context, id string) (int64, error)
	CodeExists(ctx context.Context, code string) (bool, error)
}

// PostgresHouseholds is the households table.
type PostgresHouseholds struct {
	db *sql.DB
}

func NewPostgresHouseholds(db *sql.DB) *PostgresHouseholds {
	return &PostgresHouseholds{db: db}
}

const householdColumns = `id, name, invite_code, revision, created_at, updated_at`

func scanHousehold(row interface{ Scan(...any) error }) (*models.Household, error) {
	var h models.Household
	err := row.Scan(&h.ID, &h.Name, &h.InviteCode, &h.Revision, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrHouseholdNotFound
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *PostgresHouseholds) Create(ctx context.Context, name, inviteCode string) (*models.Household, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO households (name, invite_code)
		VALUES ($1, $2)
		RETURNING `+householdColumns, name, inviteCode)
	h, err := scanHousehold(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, fmt.Errorf("invite code %s already taken: %w", inviteCode, err)
		}
		return nil, fmt.Errorf("failed to create household: %w", err)
	}
	return h, nil
}

func (r *PostgresHouseholds) Get(ctx context.Context, id string) (*models.Household, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+householdColumns+` FROM households WHERE id = $1`, id)
	h, err := scanHousehold(row)
	if err != nil && !errors.Is(err, ErrHouseholdNotFound) {
		var pqErr *pq.Error
		// invalid_text_representation: the id is not a UUID, so no household can match.
		if errors.As(err, &pqErr) && pqErr.Code == "22P02" {
			return nil, ErrHouseholdNotFound
		}
		return nil, fmt.Errorf("failed to load household: %w", err)
	}
	return h, err
}

func (r *PostgresHouseholds) FindByCode(ctx context.Context, code string) (*models.Household, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+householdColumns+` FROM households WHERE invite_code = $1`, strings.ToUpper(code))
	h, err := scanHousehold(row)
	if err != nil && !errors.Is(err, ErrHouseholdNotFound) {
		return nil, fmt.Errorf("failed to look up invite code: %w", err)
	}
	return h, err
}

// Rename updates the name and bumps the revision in one statement.
func (r *PostgresHouseholds) Rename(ctx context.Context, id, name string) (*models.Household, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE households
		SET name = $2, revision = revision + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING `+householdColumns, id, name)
	h, err := scanHousehold(row)
	if err != nil && !errors.Is(err, ErrHouseholdNotFound) {
		return nil, fmt.Errorf("failed to rename household: %w", err)
	}
	return h, err
}

func (r *PostgresHouseholds) BumpRevision(ctx context.Context, id string) (int64, error) {
	var rev int64
	err := r.db.QueryRowContext(ctx, `
		UPDATE households
		SET revision = revision + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING revision`, id).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrHouseholdNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to bump revision: %w", err)
	}
	return rev, nil
}

func (r *PostgresHouseholds) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM households WHERE invite_code = $1)
	`, code).Scan(&exists)
	return exists, err
}
