package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores accounts in Postgres.
type PostgresRepository struct {
	db rowQuerier
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("accounts: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithDB(db rowQuerier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `id, username, email, password_hash, first_name, last_name, phone, age, gender, address, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, a *Account) error {
	query := `
		INSERT INTO accounts (id, username, email, password_hash, first_name, last_name, phone, age, gender, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		a.ID, a.Username, a.Email, a.PasswordHash, a.FirstName, a.LastName, a.Phone, nullableAge(a.Age), a.Gender, a.Address,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateAccount
		}
		return fmt.Errorf("accounts: insert: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE lower(email) = lower($1)`, email)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*Account, error) {
	var a Account
	var age pgtype.Int4
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName,
		&a.Phone, &age, &a.Gender, &a.Address, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("accounts: select: %w", err)
	}
	if age.Valid {
		a.Age = int(age.Int32)
	}
	return &a, nil
}

func (r *PostgresRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE username = $1)`, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("accounts: username exists: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) Update(ctx context.Context, a *Account) error {
	query := `
		UPDATE accounts SET first_name = $2, last_name = $3, phone = $4, age = $5, gender = $6, address = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	if err := r.db.QueryRow(ctx, query,
		a.ID, a.FirstName, a.LastName, a.Phone, nullableAge(a.Age), a.Gender, a.Address,
	).Scan(&a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("accounts: update: %w", err)
	}
	return nil
}

func nullableAge(age int) pgtype.Int4 {
	if age <= 0 {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: int32(age), Valid: true}
}
