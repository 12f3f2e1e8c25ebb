package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"smartshop_back_end/internal/auth"
	"smartshop_back_end/internal/errs"
	"smartshop_back_end/internal/models"
	"smartshop_back_end/internal/utils"

	"github.com/gocql/gocql"
	"github.com/rs/zerolog/log"
)

const (
	reviewCommentMin = 10
	reviewCommentMax = 1000
	reviewImagesMax  = 5
)

type ReviewService struct {
	deps Deps
}

type CreateReviewInput struct {
	ProductID gocql.UUID
	OrderID   *gocql.UUID
	Rating    int
	Comment   string
	Images    []string
}

type reviewKey struct {
	order, product gocql.UUID
}

// eligibleOrders renvoie les commandes livrées ou payées contenant le produit, plus récentes d'abord
func (s *ReviewService) eligibleOrders(ctx context.Context, userID, productID gocql.UUID) ([]models.Order, map[reviewKey]bool, error) {
	orders, err := s.deps.Store.Orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	reviews, err := s.deps.Store.Reviews.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	reviewed := make(map[reviewKey]bool, len(reviews))
	for _, r := range reviews {
		reviewed[reviewKey{r.OrderID, r.ProductID}] = true
	}

	var eligible []models.Order
	for _, o := range orders {
		if o.Reviewable() && o.HasProduct(productID) {
			eligible = append(eligible, o)
		}
	}
	sortNewest(eligible)
	return eligible, reviewed, nil
}

func (s *ReviewService) CanReview(ctx context.Context, productID gocql.UUID) (*models.ReviewEligibility, error) {
	v := auth.FromContext(ctx)
	if v == nil {
		return &models.ReviewEligibility{Reason: models.ReasonNotAuthenticated}, nil
	}
	eligible, reviewed, err := s.eligibleOrders(ctx, v.UserID, productID)
	if err != nil {
		return nil, err
	}
	if len(eligible) == 0 {
		return &models.ReviewEligibility{Reason: models.ReasonNotPurchased}, nil
	}
	for _, o := range eligible {
		if !reviewed[reviewKey{o.ID, productID}] {
			id := o.ID
			return &models.ReviewEligibility{CanReview: true, OrderID: &id}, nil
		}
	}
	return &models.ReviewEligibility{Reason: models.ReasonAlreadyReviewed}, nil
}

// orderFor choisit la commande rattachée à l'avis ; ErrForbidden porte la raison du refus
func (s *ReviewService) orderFor(ctx context.Context, v *auth.Viewer, in CreateReviewInput) (gocql.UUID, error) {
	eligible, reviewed, err := s.eligibleOrders(ctx, v.UserID, in.ProductID)
	if err != nil {
		return gocql.UUID{}, err
	}
	if len(eligible) == 0 {
		return gocql.UUID{}, fmt.Errorf("%w: %s", errs.ErrForbidden, models.ReasonNotPurchased)
	}
	for _, o := range eligible {
		if in.OrderID != nil && o.ID != *in.OrderID {
			continue
		}
		if reviewed[reviewKey{o.ID, in.ProductID}] {
			if in.OrderID != nil {
				break
			}
			continue
		}
		return o.ID, nil
	}
	if in.OrderID != nil && !containsOrder(eligible, *in.OrderID) {
		return gocql.UUID{}, fmt.Errorf("%w: %s", errs.ErrForbidden, models.ReasonNotPurchased)
	}
	return gocql.UUID{}, fmt.Errorf("%w: %s", errs.ErrForbidden, models.ReasonAlreadyReviewed)
}

func containsOrder(orders []models.Order, id gocql.UUID) bool {
	for _, o := range orders {
		if o.ID == id {
			return true
		}
	}
	return false
}

func (s *ReviewService) Create(ctx context.Context, in CreateReviewInput) (*models.Review, error) {
	v, err := auth.Require(ctx)
	if err != nil {
		return nil, err
	}
	comment := strings.TrimSpace(in.Comment)
	switch n := utf8.RuneCountInString(comment); {
	case in.Rating < 1 || in.Rating > 5:
		return nil, invalid("la note doit être comprise entre 1 et 5")
	case n < reviewCommentMin || n > reviewCommentMax:
		return nil, invalid("le commentaire doit faire entre %d et %d caractères", reviewCommentMin, reviewCommentMax)
	case len(in.Images) > reviewImagesMax:
		return nil, invalid("%d images maximum", reviewImagesMax)
	}
	if _, err := s.deps.Store.Products.Get(ctx, in.ProductID); err != nil {
		return nil, err
	}

	orderID, err := s.orderFor(ctx, v, in)
	if err != nil {
		return nil, err
	}

	userName := v.Email
	if u, err := s.deps.Store.Users.GetByID(ctx, v.UserID); err == nil && u.Name != "" {
		userName = u.Name
	}
	images := in.Images
	if images == nil {
		images = []string{}
	}

	r := &models.Review{
		ID:        models.NewID(),
		ProductID: in.ProductID,
		UserID:    v.UserID,
		UserName:  userName,
		OrderID:   orderID,
		Rating:    in.Rating,
		Comment:   comment,
		Images:    images,
		Status:    models.ReviewApproved,
		CreatedAt: s.deps.Now(),
	}
	if err := s.deps.Store.Reviews.Create(ctx, r); err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("product_id", r.ProductID.String()).Int("rating", r.Rating).Msg("⭐ Nouvel avis")
	s.recomputeRating(ctx, r.ProductID)
	return r, nil
}

func sortReviewsNewest(reviews []models.Review) {
	sort.SliceStable(reviews, func(i, j int) bool {
		if reviews[i].CreatedAt.Equal(reviews[j].CreatedAt) {
			return reviews[i].ID.String() < reviews[j].ID.String()
		}
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
}

func approvedOnly(reviews []models.Review) []models.Review {
	out := make([]models.Review, 0, len(reviews))
	for _, r := range reviews {
		if r.Status == models.ReviewApproved {
			out = append(out, r)
		}
	}
	return out
}

// ProductReviews : le résumé porte sur tous les avis approuvés, le filtre de note seulement sur la liste
func (s *ReviewService) ProductReviews(ctx context.Context, productID gocql.UUID, rating *int, limit, offset int) (*models.ReviewPage, error) {
	all, err := s.deps.Store.Reviews.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	approved := approvedOnly(all)
	sortReviewsNewest(approved)

	listed := approved
	if rating != nil {
		listed = make([]models.Review, 0, len(approved))
		for _, r := range approved {
			if r.Rating == *rating {
				listed = append(listed, r)
			}
		}
	}
	return &models.ReviewPage{
		Reviews: paginate(listed, limit, offset),
		Total:   len(listed),
		Summary: models.Summarize(approved),
	}, nil
}

func (s *ReviewService) MyReviews(ctx context.Context) ([]models.Review, error) {
	v, err := auth.Require(ctx)
	if err != nil {
		return nil, err
	}
	reviews, err := s.deps.Store.Reviews.ListByUser(ctx, v.UserID)
	if err != nil {
		return nil, err
	}
	sortReviewsNewest(reviews)
	return reviews, nil
}

// VoteHelpful : un vote par utilisateur, jamais sur son propre avis
func (s *ReviewService) VoteHelpful(ctx context.Context, reviewID gocql.UUID) (*models.Review, error) {
	v, err := auth.Require(ctx)
	if err != nil {
		return nil, err
	}
	r, err := s.deps.Store.Reviews.Get(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if r.UserID == v.UserID {
		return nil, fmt.Errorf("%w: impossible de voter pour son propre avis", errs.ErrForbidden)
	}
	added, err := s.deps.Store.Reviews.AddHelpfulVote(ctx, reviewID, v.UserID)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, fmt.Errorf("%w: vous avez déjà voté pour cet avis", errs.ErrConflict)
	}
	return s.deps.Store.Reviews.Get(ctx, reviewID)
}

func (s *ReviewService) Respond(ctx context.Context, reviewID gocql.UUID, response string) (*models.Review, error) {
	v, err := auth.RequireStaff(ctx)
	if err != nil {
		return nil, err
	}
	response = strings.TrimSpace(response)
	if response == "" || utf8.RuneCountInString(response) > reviewCommentMax {
		return nil, invalid("la réponse doit faire entre 1 et %d caractères", reviewCommentMax)
	}
	r, err := s.deps.Store.Reviews.Get(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	now := s.deps.Now()
	r.AdminResponse = response
	r.AdminResponseAt = &now
	if err := s.deps.Store.Reviews.Update(ctx, r); err != nil {
		return nil, err
	}
	utils.LogAction(ctx, v.Actor(), "respond", "review", r.ID.String(), nil)
	return r, nil
}

func (s *ReviewService) Moderate(ctx context.Context, reviewID gocql.UUID, status models.ReviewStatus) (*models.Review, error) {
	v, err := auth.RequireStaff(ctx)
	if err != nil {
		return nil, err
	}
	if status != models.ReviewPending && status != models.ReviewApproved && status != models.ReviewRejected {
		return nil, invalid("statut d'avis inconnu %q", status)
	}
	r, err := s.deps.Store.Reviews.Get(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	previous := r.Status
	r.Status = status
	if err := s.deps.Store.Reviews.Update(ctx, r); err != nil {
		return nil, err
	}
	s.recomputeRating(ctx, r.ProductID)
	utils.LogAction(ctx, v.Actor(), "moderate", "review", r.ID.String(), map[string]any{"from": previous, "to": status})
	return r, nil
}

// recomputeRating recalcule la note moyenne du produit à partir des avis approuvés
func (s *ReviewService) recomputeRating(ctx context.Context, productID gocql.UUID) {
	all, err := s.deps.Store.Reviews.ListByProduct(ctx, productID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("product_id", productID.String()).Msg("❌ Lecture des avis")
		return
	}
	summary := models.Summarize(approvedOnly(all))
	average := math.Round(summary.Average*10) / 10
	if err := s.deps.Store.Products.UpdateRating(ctx, productID, average, summary.Total); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("product_id", productID.String()).Msg("❌ Mise à jour de la note produit")
	}
}
