package repository

import (
	"context"
	"errors"

	"hostelhub-backend/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, username, email, passwordHash string, isHost bool) (*model.User, error) {
	u := &model.User{}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, is_host)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING
		RETURNING id, username, email, password_hash, is_host, last_login_at, created_at, updated_at
	`, username, email, passwordHash, isHost).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsHost, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.Invalidf("username or email already taken")
		}
		return nil, model.Storagef("insert user", err)
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.get(ctx, `WHERE id = $1`, id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.get(ctx, `WHERE username = $1`, username)
}

func (r *UserRepository) get(ctx context.Context, where string, arg any) (*model.User, error) {
	u := &model.User{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, username, email, password_hash, is_host, last_login_at, created_at, updated_at
		FROM users `+where,
		arg,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsHost, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, model.Storagef("get user", err)
	}
	return u, nil
}

func (r *UserRepository) UpdateLoginTime(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	return err
}
