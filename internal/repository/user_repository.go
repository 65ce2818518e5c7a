package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/review-feed/internal/domain"
)

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	// CreateWithProfile inserts the user and its profile in one
	// transaction. The profile must never exist without the user or
	// the other way around.
	CreateWithProfile(ctx context.Context, user *domain.User) (*domain.Profile, error)
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// SearchByUsernamePrefix returns users whose username starts with
	// prefix (case-insensitive), excluding excludeID, ordered by
	// username, at most limit rows. The prefix is matched literally:
	// "%" and "_" are plain characters, never wildcards. In-memory
	// test doubles must honor the same literal-prefix contract.
	SearchByUsernamePrefix(ctx context.Context, prefix, excludeID string, limit int) ([]domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) CreateWithProfile(ctx context.Context, user *domain.User) (*domain.Profile, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertUser = `
        INSERT INTO users (username, password_hash)
        VALUES ($1, $2)
        RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, insertUser,
		user.Username,
		user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, err
	}

	profile := &domain.Profile{UserID: user.ID, Username: user.Username}
	const insertProfile = `
        INSERT INTO profiles (user_id)
        VALUES ($1)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insertProfile, user.ID).Scan(&profile.ID, &profile.CreatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return profile, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET username=$1, password_hash=$2, updated_at=NOW()
        WHERE id=$3`

	cmd, err := r.pool.Exec(ctx, query,
		user.Username,
		user.PasswordHash,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT id, username, password_hash, created_at, updated_at
        FROM users WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	const query = `
        SELECT id, username, password_hash, created_at, updated_at
        FROM users WHERE username=$1`
	return r.fetchSingle(ctx, query, username)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

// likeEscaper neutralizes LIKE metacharacters so the prefix matches
// literally; a bare "%" must not match everyone.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *userRepository) SearchByUsernamePrefix(ctx context.Context, prefix, excludeID string, limit int) ([]domain.User, error) {
	const query = `
        SELECT id, username, password_hash, created_at, updated_at
        FROM users
        WHERE LOWER(username) LIKE LOWER($1) || '%' ESCAPE '\' AND id != $2
        ORDER BY username ASC
        LIMIT $3`

	rows, err := r.pool.Query(ctx, query, likeEscaper.Replace(prefix), excludeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.PasswordHash,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}
