package scylla

import (
	"context"
	"fmt"
	"sort"

	"smartshop_back_end/internal/models"

	"github.com/gocql/gocql"
)

type ReviewRepository struct {
	session *gocql.Session
}

const reviewColumns = `review_id, product_id, user_id, user_name, order_id, rating, comment, images,
	admin_response, admin_response_at, helpful_votes, status, created_at`

func reviewDest(rv *models.Review, status *string) []any {
	return []any{&rv.ID, &rv.ProductID, &rv.UserID, &rv.UserName, &rv.OrderID, &rv.Rating, &rv.Comment, &rv.Images,
		&rv.AdminResponse, &rv.AdminResponseAt, &rv.HelpfulVotes, status, &rv.CreatedAt}
}

func (r *ReviewRepository) write(ctx context.Context, rv *models.Review) error {
	return r.session.Query(`INSERT INTO reviews (`+reviewColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rv.ID, rv.ProductID, rv.UserID, rv.UserName, rv.OrderID, rv.Rating, rv.Comment, rv.Images,
		rv.AdminResponse, rv.AdminResponseAt, rv.HelpfulVotes, string(rv.Status), rv.CreatedAt).WithContext(ctx).Exec()
}

func (r *ReviewRepository) Create(ctx context.Context, rv *models.Review) error {
	batch := r.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`INSERT INTO reviews_by_product (product_id, review_id) VALUES (?, ?)`, rv.ProductID, rv.ID)
	batch.Query(`INSERT INTO reviews_by_user (user_id, review_id) VALUES (?, ?)`, rv.UserID, rv.ID)
	if err := r.session.ExecuteBatch(batch); err != nil {
		return fmt.Errorf("index avis: %w", err)
	}
	return r.write(ctx, rv)
}

func (r *ReviewRepository) Get(ctx context.Context, id gocql.UUID) (*models.Review, error) {
	var (
		rv     models.Review
		status string
	)
	err := r.session.Query(`SELECT `+reviewColumns+` FROM reviews WHERE review_id = ?`, id).
		WithContext(ctx).Scan(reviewDest(&rv, &status)...)
	if err != nil {
		return nil, wrapNotFound(err, "avis", id)
	}
	rv.Status = models.ReviewStatus(status)
	return &rv, nil
}

func (r *ReviewRepository) Update(ctx context.Context, rv *models.Review) error {
	if _, err := r.Get(ctx, rv.ID); err != nil {
		return err
	}
	return r.write(ctx, rv)
}

func (r *ReviewRepository) listFromIndex(ctx context.Context, stmt string, key gocql.UUID) ([]models.Review, error) {
	iter := r.session.Query(stmt, key).WithContext(ctx).Iter()
	var ids []gocql.UUID
	var id gocql.UUID
	for iter.Scan(&id) {
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("index avis: %w", err)
	}

	out := make([]models.Review, 0, len(ids))
	for _, id := range ids {
		rv, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *rv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *ReviewRepository) ListByProduct(ctx context.Context, productID gocql.UUID) ([]models.Review, error) {
	return r.listFromIndex(ctx, `SELECT review_id FROM reviews_by_product WHERE product_id = ?`, productID)
}

func (r *ReviewRepository) ListByUser(ctx context.Context, userID gocql.UUID) ([]models.Review, error) {
	return r.listFromIndex(ctx, `SELECT review_id FROM reviews_by_user WHERE user_id = ?`, userID)
}

// AddHelpfulVote : un vote par utilisateur (LWT), le compteur est recalculé depuis review_votes
func (r *ReviewRepository) AddHelpfulVote(ctx context.Context, reviewID, userID gocql.UUID) (bool, error) {
	if _, err := r.Get(ctx, reviewID); err != nil {
		return false, err
	}

	var existingReview, existingUser gocql.UUID
	applied, err := r.session.Query(`INSERT INTO review_votes (review_id, user_id) VALUES (?, ?) IF NOT EXISTS`,
		reviewID, userID).WithContext(ctx).ScanCAS(&existingReview, &existingUser)
	if err != nil {
		return false, fmt.Errorf("vote avis %s: %w", reviewID, err)
	}
	if !applied {
		return false, nil
	}

	var count int
	if err := r.session.Query(`SELECT COUNT(*) FROM review_votes WHERE review_id = ?`, reviewID).
		WithContext(ctx).Scan(&count); err != nil {
		return true, fmt.Errorf("comptage votes %s: %w", reviewID, err)
	}
	return true, r.session.Query(`UPDATE reviews SET helpful_votes = ? WHERE review_id = ?`, count, reviewID).
		WithContext(ctx).Exec()
}
