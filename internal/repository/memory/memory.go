// Package memory fournit des dépôts en mémoire (mode dev STORAGE_DRIVER=memory et tests).
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"smartshop_back_end/internal/errs"
	"smartshop_back_end/internal/models"
	"smartshop_back_end/internal/repository"

	"github.com/gocql/gocql"
)

type db struct {
	mu         sync.RWMutex
	users      map[gocql.UUID]models.User
	emails     map[string]gocql.UUID
	categories map[gocql.UUID]models.Category
	brands     map[gocql.UUID]models.Brand
	products   map[gocql.UUID]models.Product
	orders     map[gocql.UUID]models.Order
	numbers    map[string]gocql.UUID
	reviews    map[gocql.UUID]models.Review
	votes      map[gocql.UUID]map[gocql.UUID]struct{}
}

// New crée un Store complet en mémoire
func New() *repository.Store {
	d := &db{
		users:      make(map[gocql.UUID]models.User),
		emails:     make(map[string]gocql.UUID),
		categories: make(map[gocql.UUID]models.Category),
		brands:     make(map[gocql.UUID]models.Brand),
		products:   make(map[gocql.UUID]models.Product),
		orders:     make(map[gocql.UUID]models.Order),
		numbers:    make(map[string]gocql.UUID),
		reviews:    make(map[gocql.UUID]models.Review),
		votes:      make(map[gocql.UUID]map[gocql.UUID]struct{}),
	}
	return &repository.Store{
		Users:      &userRepo{d},
		Categories: &categoryRepo{d},
		Brands:     &brandRepo{d},
		Products:   &productRepo{d},
		Orders:     &orderRepo{d},
		Reviews:    &reviewRepo{d},
	}
}

func notFound(kind string, id fmt.Stringer) error {
	return fmt.Errorf("%w: %s %s", errs.ErrNotFound, kind, id)
}

// --- Users ---

type userRepo struct{ *db }

func (r *userRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := strings.ToLower(u.Email)
	if _, exists := r.emails[email]; exists {
		return errs.ErrEmailAlreadyUsed
	}
	r.users[u.ID] = *u
	r.emails[email] = u.ID
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id gocql.UUID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, notFound("utilisateur", id)
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.emails[strings.ToLower(email)]
	if !ok {
		return nil, fmt.Errorf("%w: utilisateur %s", errs.ErrNotFound, email)
	}
	u := r.users[id]
	return &u, nil
}

func (r *userRepo) UpdateRole(_ context.Context, id gocql.UUID, role models.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return notFound("utilisateur", id)
	}
	u.Role = role
	r.users[id] = u
	return nil
}

// --- Categories ---

type categoryRepo struct{ *db }

func (r *categoryRepo) List(_ context.Context) ([]models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, c)
	}
	return out, nil
}

func (r *categoryRepo) Get(_ context.Context, id gocql.UUID) (*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.categories[id]
	if !ok {
		return nil, notFound("catégorie", id)
	}
	return &c, nil
}

func (r *categoryRepo) Create(_ context.Context, c *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[c.ID] = *c
	return nil
}

func (r *categoryRepo) Update(_ context.Context, c *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[c.ID]; !ok {
		return notFound("catégorie", c.ID)
	}
	r.categories[c.ID] = *c
	return nil
}

func (r *categoryRepo) Delete(_ context.Context, id gocql.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[id]; !ok {
		return notFound("catégorie", id)
	}
	delete(r.categories, id)
	return nil
}

// --- Brands ---

type brandRepo struct{ *db }

func (r *brandRepo) List(_ context.Context) ([]models.Brand, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Brand, 0, len(r.brands))
	for _, b := range r.brands {
		out = append(out, b)
	}
	return out, nil
}

func (r *brandRepo) Get(_ context.Context, id gocql.UUID) (*models.Brand, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.brands[id]
	if !ok {
		return nil, notFound("marque", id)
	}
	return &b, nil
}

func (r *brandRepo) Create(_ context.Context, b *models.Brand) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.brands[b.ID] = *b
	return nil
}

func (r *brandRepo) Update(_ context.Context, b *models.Brand) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.brands[b.ID]; !ok {
		return notFound("marque", b.ID)
	}
	r.brands[b.ID] = *b
	return nil
}

func (r *brandRepo) Delete(_ context.Context, id gocql.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.brands[id]; !ok {
		return notFound("marque", id)
	}
	delete(r.brands, id)
	return nil
}

// --- Products ---

type productRepo struct{ *db }

func copyProduct(p models.Product) models.Product {
	p.Images = append([]string(nil), p.Images...)
	return p
}

func (r *productRepo) List(_ context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, copyProduct(p))
	}
	return out, nil
}

func (r *productRepo) Get(_ context.Context, id gocql.UUID) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, notFound("produit", id)
	}
	p = copyProduct(p)
	return &p, nil
}

func (r *productRepo) Create(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = copyProduct(*p)
	return nil
}

// Update ne touche que les champs éditables ; stock, notes et ventes ont leurs propres chemins
func (r *productRepo) Update(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.products[p.ID]
	if !ok {
		return notFound("produit", p.ID)
	}
	current.Name = p.Name
	current.Slug = p.Slug
	current.Description = p.Description
	current.Price = p.Price
	current.OriginalPrice = p.OriginalPrice
	current.CategoryID = p.CategoryID
	current.BrandID = p.BrandID
	current.Images = append([]string(nil), p.Images...)
	current.IsFeatured = p.IsFeatured
	current.IsActive = p.IsActive
	current.UpdatedAt = p.UpdatedAt
	r.products[p.ID] = current
	return nil
}

func (r *productRepo) Delete(_ context.Context, id gocql.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return notFound("produit", id)
	}
	delete(r.products, id)
	return nil
}

func (r *productRepo) AdjustStock(_ context.Context, id gocql.UUID, delta int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return 0, notFound("produit", id)
	}
	if p.Stock+delta < 0 {
		return p.Stock, fmt.Errorf("%w: %s", errs.ErrOutOfStock, p.Name)
	}
	p.Stock += delta
	r.products[id] = p
	return p.Stock, nil
}

func (r *productRepo) UpdateRating(_ context.Context, id gocql.UUID, average float64, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return notFound("produit", id)
	}
	p.RatingAverage = average
	p.ReviewCount = count
	r.products[id] = p
	return nil
}

func (r *productRepo) AddSold(_ context.Context, id gocql.UUID, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return notFound("produit", id)
	}
	p.SoldCount += quantity
	r.products[id] = p
	return nil
}

// --- Orders ---

type orderRepo struct{ *db }

func copyOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	return o
}

func (r *orderRepo) Create(_ context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.numbers[o.OrderNumber]; exists {
		return fmt.Errorf("%w: numéro de commande %s", errs.ErrConflict, o.OrderNumber)
	}
	r.orders[o.ID] = copyOrder(*o)
	r.numbers[o.OrderNumber] = o.ID
	return nil
}

func (r *orderRepo) Get(_ context.Context, id gocql.UUID) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, notFound("commande", id)
	}
	o = copyOrder(o)
	return &o, nil
}

func (r *orderRepo) GetByNumber(_ context.Context, number string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.numbers[number]
	if !ok {
		return nil, fmt.Errorf("%w: commande %s", errs.ErrNotFound, number)
	}
	o := copyOrder(r.orders[id])
	return &o, nil
}

func (r *orderRepo) ListByUser(_ context.Context, userID gocql.UUID) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, copyOrder(o))
		}
	}
	return out, nil
}

func (r *orderRepo) List(_ context.Context) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, copyOrder(o))
	}
	return out, nil
}

func (r *orderRepo) UpdateIf(_ context.Context, o *models.Order, status models.OrderStatus, payment models.PaymentStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.orders[o.ID]
	if !ok {
		return false, notFound("commande", o.ID)
	}
	if current.Status != status || current.PaymentStatus != payment {
		return false, nil
	}
	r.orders[o.ID] = copyOrder(*o)
	return true, nil
}

// --- Reviews ---

type reviewRepo struct{ *db }

func copyReview(rv models.Review) models.Review {
	rv.Images = append([]string(nil), rv.Images...)
	return rv
}

func (r *reviewRepo) Create(_ context.Context, rv *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reviews[rv.ID] = copyReview(*rv)
	return nil
}

func (r *reviewRepo) Get(_ context.Context, id gocql.UUID) (*models.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rv, ok := r.reviews[id]
	if !ok {
		return nil, notFound("avis", id)
	}
	rv = copyReview(rv)
	return &rv, nil
}

func (r *reviewRepo) Update(_ context.Context, rv *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reviews[rv.ID]; !ok {
		return notFound("avis", rv.ID)
	}
	r.reviews[rv.ID] = copyReview(*rv)
	return nil
}

func (r *reviewRepo) ListByProduct(_ context.Context, productID gocql.UUID) ([]models.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Review
	for _, rv := range r.reviews {
		if rv.ProductID == productID {
			out = append(out, copyReview(rv))
		}
	}
	return out, nil
}

func (r *reviewRepo) ListByUser(_ context.Context, userID gocql.UUID) ([]models.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Review
	for _, rv := range r.reviews {
		if rv.UserID == userID {
			out = append(out, copyReview(rv))
		}
	}
	return out, nil
}

func (r *reviewRepo) AddHelpfulVote(_ context.Context, reviewID, userID gocql.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rv, ok := r.reviews[reviewID]
	if !ok {
		return false, notFound("avis", reviewID)
	}
	voters, ok := r.votes[reviewID]
	if !ok {
		voters = make(map[gocql.UUID]struct{})
		r.votes[reviewID] = voters
	}
	if _, voted := voters[userID]; voted {
		return false, nil
	}
	voters[userID] = struct{}{}
	rv.HelpfulVotes++
	r.reviews[reviewID] = rv
	return true, nil
}
