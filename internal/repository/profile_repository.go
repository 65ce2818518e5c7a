package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/review-feed/internal/domain"
)

// ProfileRepository manages the directed follow and block adjacency
// relations between profiles. Edge writes are idempotent at this layer;
// business guards (self-edges, duplicate follows) belong to the services.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*domain.Profile, error)
	Follow(ctx context.Context, profileID, targetProfileID string) error
	Unfollow(ctx context.Context, profileID, targetProfileID string) error
	// Block adds the block edge and removes any follow edge from the
	// blocker to the target in one transaction.
	Block(ctx context.Context, profileID, targetProfileID string) error
	Unblock(ctx context.Context, profileID, targetProfileID string) error
	IsFollowing(ctx context.Context, profileID, targetProfileID string) (bool, error)
	ListFollowing(ctx context.Context, profileID string) ([]domain.Profile, error)
	ListFollowers(ctx context.Context, profileID string) ([]domain.Profile, error)
	ListBlocked(ctx context.Context, profileID string) ([]domain.Profile, error)
	ListBlockedBy(ctx context.Context, profileID string) ([]domain.Profile, error)
}

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository returns a Postgres-backed implementation.
func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	const query = `
        SELECT p.id, p.user_id, u.username, p.created_at
        FROM profiles p JOIN users u ON u.id = p.user_id
        WHERE p.user_id=$1`

	var profile domain.Profile
	if err := r.pool.QueryRow(ctx, query, userID).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.Username,
		&profile.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) Follow(ctx context.Context, profileID, targetProfileID string) error {
	const query = `
        INSERT INTO profile_follows (profile_id, followed_profile_id)
        VALUES ($1, $2)
        ON CONFLICT DO NOTHING`
	_, err := r.pool.Exec(ctx, query, profileID, targetProfileID)
	return err
}

func (r *profileRepository) Unfollow(ctx context.Context, profileID, targetProfileID string) error {
	const query = `
        DELETE FROM profile_follows
        WHERE profile_id=$1 AND followed_profile_id=$2`
	_, err := r.pool.Exec(ctx, query, profileID, targetProfileID)
	return err
}

func (r *profileRepository) Block(ctx context.Context, profileID, targetProfileID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertBlock = `
        INSERT INTO profile_blocks (profile_id, blocked_profile_id)
        VALUES ($1, $2)
        ON CONFLICT DO NOTHING`
	if _, err := tx.Exec(ctx, insertBlock, profileID, targetProfileID); err != nil {
		return err
	}

	const dropFollow = `
        DELETE FROM profile_follows
        WHERE profile_id=$1 AND followed_profile_id=$2`
	if _, err := tx.Exec(ctx, dropFollow, profileID, targetProfileID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *profileRepository) Unblock(ctx context.Context, profileID, targetProfileID string) error {
	const query = `
        DELETE FROM profile_blocks
        WHERE profile_id=$1 AND blocked_profile_id=$2`
	_, err := r.pool.Exec(ctx, query, profileID, targetProfileID)
	return err
}

func (r *profileRepository) IsFollowing(ctx context.Context, profileID, targetProfileID string) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM profile_follows
            WHERE profile_id=$1 AND followed_profile_id=$2
        )`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, profileID, targetProfileID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *profileRepository) ListFollowing(ctx context.Context, profileID string) ([]domain.Profile, error) {
	const query = `
        SELECT p.id, p.user_id, u.username, p.created_at
        FROM profile_follows f
        JOIN profiles p ON p.id = f.followed_profile_id
        JOIN users u ON u.id = p.user_id
        WHERE f.profile_id=$1
        ORDER BY u.username ASC`
	return r.listProfiles(ctx, query, profileID)
}

func (r *profileRepository) ListFollowers(ctx context.Context, profileID string) ([]domain.Profile, error) {
	const query = `
        SELECT p.id, p.user_id, u.username, p.created_at
        FROM profile_follows f
        JOIN profiles p ON p.id = f.profile_id
        JOIN users u ON u.id = p.user_id
        WHERE f.followed_profile_id=$1
        ORDER BY u.username ASC`
	return r.listProfiles(ctx, query, profileID)
}

func (r *profileRepository) ListBlocked(ctx context.Context, profileID string) ([]domain.Profile, error) {
	const query = `
        SELECT p.id, p.user_id, u.username, p.created_at
        FROM profile_blocks b
        JOIN profiles p ON p.id = b.blocked_profile_id
        JOIN users u ON u.id = p.user_id
        WHERE b.profile_id=$1
        ORDER BY u.username ASC`
	return r.listProfiles(ctx, query, profileID)
}

func (r *profileRepository) ListBlockedBy(ctx context.Context, profileID string) ([]domain.Profile, error) {
	const query = `
        SELECT p.id, p.user_id, u.username, p.created_at
        FROM profile_blocks b
        JOIN profiles p ON p.id = b.profile_id
        JOIN users u ON u.id = p.user_id
        WHERE b.blocked_profile_id=$1
        ORDER BY u.username ASC`
	return r.listProfiles(ctx, query, profileID)
}

func (r *profileRepository) listProfiles(ctx context.Context, query string, arg any) ([]domain.Profile, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProfiles(rows)
}

func scanProfiles(rows pgx.Rows) ([]domain.Profile, error) {
	var result []domain.Profile
	for rows.Next() {
		var profile domain.Profile
		if err := rows.Scan(
			&profile.ID,
			&profile.UserID,
			&profile.Username,
			&profile.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, profile)
	}
	return result, rows.Err()
}
