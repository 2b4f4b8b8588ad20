package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/healthcare-booking/internal/money"
)

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository reads services from the relational database.
type PostgresRepository struct {
	db queryer
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("catalog: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithDB(db queryer) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const serviceColumns = `id, name, description, duration_minutes, price_minor, is_active, requires_prescription, created_at, updated_at`

func (r *PostgresRepository) ListActive(ctx context.Context) ([]*Service, error) {
	rows, err := r.db.Query(ctx, `SELECT `+serviceColumns+` FROM services WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list active: %w", err)
	}
	defer rows.Close()

	var out []*Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog: scan: %w", err)
		}
		out = append(out, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list active: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*Service, error) {
	svc, err := scanService(r.db.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("catalog: get %d: %w", id, err)
	}
	return svc, nil
}

func scanService(row pgx.Row) (*Service, error) {
	var svc Service
	var price int64
	if err := row.Scan(
		&svc.ID,
		&svc.Name,
		&svc.Description,
		&svc.DurationMinutes,
		&price,
		&svc.IsActive,
		&svc.RequiresPrescription,
		&svc.CreatedAt,
		&svc.UpdatedAt,
	); err != nil {
		return nil, err
	}
	svc.Price = money.FromMinor(price)
	return &svc, nil
}
