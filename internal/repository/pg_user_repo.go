package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ricirt/consent-sync/internal/domain"
)

type pgUserRepository struct {
	pool *pgxpool.Pool
}

// NewPgUserRepository returns a UserRepository backed by PostgreSQL.
func NewPgUserRepository(pool *pgxpool.Pool) UserRepository {
	return &pgUserRepository{pool: pool}
}

func (r *pgUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, email FROM users WHERE id = $1`, id).Scan(&u.ID, &u.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (r *pgUserRepository) GetFlag(ctx context.Context, userID int64) (domain.Flag, error) {
	var value *string
	err := r.pool.QueryRow(ctx, `
		SELECT meta_value FROM usermeta
		WHERE user_id = $1 AND meta_key = $2`,
		userID, domain.SubscribedMetaKey).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && value == nil) {
		return domain.FlagUnset, nil
	}
	if err != nil {
		return "", fmt.Errorf("get subscription flag: %w", err)
	}
	return domain.Flag(*value), nil
}

func (r *pgUserRepository) SetFlag(ctx context.Context, userID int64, flag domain.Flag) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO usermeta (user_id, meta_key, meta_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, meta_key) DO UPDATE SET meta_value = EXCLUDED.meta_value`,
		userID, domain.SubscribedMetaKey, string(flag))
	if err != nil {
		return fmt.Errorf("set subscription flag: %w", err)
	}
	return nil
}

// FindEligible keeps the explicit IN ('0','') branch next to the missing-row
// branch; rows holding '' or '0' are eligible just like absent ones.
func (r *pgUserRepository) FindEligible(ctx context.Context, lastID int64, limit int) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id
		FROM users u
		LEFT JOIN usermeta m
		  ON m.user_id = u.id
		 AND m.meta_key = $1
		WHERE u.email <> ''
		  AND u.id > $2
		  AND (
				m.umeta_id IS NULL
			 OR m.meta_value IN ('0', '')
		  )
		ORDER BY u.id ASC
		LIMIT $3`,
		domain.SubscribedMetaKey, lastID, limit)
	if err != nil {
		return nil, fmt.Errorf("find eligible users: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scan eligible users: %w", err)
	}
	return ids, nil
}
