package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/review-feed/internal/domain"
)

// ReviewRepository encapsulates review persistence.
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	Update(ctx context.Context, review *domain.Review) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Review, error)
	// ListByOwners returns reviews authored by any of the given users,
	// newest first.
	ListByOwners(ctx context.Context, ownerIDs []string) ([]domain.Review, error)
	// ListByTicketOwners returns reviews attached to tickets owned by
	// any of the given users, newest first.
	ListByTicketOwners(ctx context.Context, ticketOwnerIDs []string) ([]domain.Review, error)
	// ReviewedTicketIDs returns the ids of tickets that already carry a
	// review authored by any of the given users.
	ReviewedTicketIDs(ctx context.Context, reviewerIDs []string) ([]string, error)
	// CreateStandalone inserts the ticket and its review in one
	// transaction. A failed review insert never leaves the ticket
	// behind.
	CreateStandalone(ctx context.Context, ticket *domain.Ticket, review *domain.Review) error
}

type reviewRepository struct {
	pool *pgxpool.Pool
}

// NewReviewRepository instantiates repository.
func NewReviewRepository(pool *pgxpool.Pool) ReviewRepository {
	return &reviewRepository{pool: pool}
}

func (r *reviewRepository) Create(ctx context.Context, review *domain.Review) error {
	const query = `
        INSERT INTO reviews (ticket_id, owner_user_id, headline, rating, body)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		review.TicketID,
		review.OwnerID,
		review.Headline,
		review.Rating,
		review.Body,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
}

func (r *reviewRepository) Update(ctx context.Context, review *domain.Review) error {
	const query = `
        UPDATE reviews SET headline=$1, rating=$2, body=$3, updated_at=NOW()
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query,
		review.Headline,
		review.Rating,
		review.Body,
		review.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *reviewRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *reviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	const query = `
        SELECT id, ticket_id, owner_user_id, headline, rating, body, created_at, updated_at
        FROM reviews WHERE id=$1`

	var review domain.Review
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&review.ID,
		&review.TicketID,
		&review.OwnerID,
		&review.Headline,
		&review.Rating,
		&review.Body,
		&review.CreatedAt,
		&review.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) ListByOwners(ctx context.Context, ownerIDs []string) ([]domain.Review, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}
	const query = `
        SELECT r.id, r.ticket_id, r.owner_user_id, r.headline, r.rating, r.body, r.created_at, r.updated_at,
               t.owner_user_id
        FROM reviews r
        JOIN tickets t ON t.id = r.ticket_id
        WHERE r.owner_user_id = ANY($1)
        ORDER BY r.created_at DESC, r.id`
	return r.list(ctx, query, ownerIDs)
}

func (r *reviewRepository) ListByTicketOwners(ctx context.Context, ticketOwnerIDs []string) ([]domain.Review, error) {
	if len(ticketOwnerIDs) == 0 {
		return nil, nil
	}
	const query = `
        SELECT r.id, r.ticket_id, r.owner_user_id, r.headline, r.rating, r.body, r.created_at, r.updated_at,
               t.owner_user_id
        FROM reviews r
        JOIN tickets t ON t.id = r.ticket_id
        WHERE t.owner_user_id = ANY($1)
        ORDER BY r.created_at DESC, r.id`
	return r.list(ctx, query, ticketOwnerIDs)
}

func (r *reviewRepository) ReviewedTicketIDs(ctx context.Context, reviewerIDs []string) ([]string, error) {
	if len(reviewerIDs) == 0 {
		return nil, nil
	}
	const query = `
        SELECT DISTINCT ticket_id FROM reviews
        WHERE owner_user_id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, reviewerIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *reviewRepository) CreateStandalone(ctx context.Context, ticket *domain.Ticket, review *domain.Review) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertTicket = `
        INSERT INTO tickets (owner_user_id, title, description, image_path)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, insertTicket,
		ticket.OwnerID,
		ticket.Title,
		ticket.Description,
		ticket.ImagePath,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt); err != nil {
		return err
	}

	review.TicketID = ticket.ID
	const insertReview = `
        INSERT INTO reviews (ticket_id, owner_user_id, headline, rating, body)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, insertReview,
		review.TicketID,
		review.OwnerID,
		review.Headline,
		review.Rating,
		review.Body,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *reviewRepository) list(ctx context.Context, query string, arg any) ([]domain.Review, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReviews(rows)
}

func scanReviews(rows pgx.Rows) ([]domain.Review, error) {
	var result []domain.Review
	for rows.Next() {
		var review domain.Review
		if err := rows.Scan(
			&review.ID,
			&review.TicketID,
			&review.OwnerID,
			&review.Headline,
			&review.Rating,
			&review.Body,
			&review.CreatedAt,
			&review.UpdatedAt,
			&review.TicketOwnerID,
		); err != nil {
			return nil, err
		}
		result = append(result, review)
	}
	return result, rows.Err()
}
