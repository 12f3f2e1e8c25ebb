package repository

import (
	"context"

	"smartshop_back_end/internal/models"

	"github.com/gocql/gocql"
)

// Les implémentations renvoient errs.ErrNotFound quand l'entité n'existe pas.

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id gocql.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateRole(ctx context.Context, id gocql.UUID, role models.Role) error
}

type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	Get(ctx context.Context, id gocql.UUID) (*models.Category, error)
	Create(ctx context.Context, c *models.Category) error
	Update(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, id gocql.UUID) error
}

type BrandRepository interface {
	List(ctx context.Context) ([]models.Brand, error)
	Get(ctx context.Context, id gocql.UUID) (*models.Brand, error)
	Create(ctx context.Context, b *models.Brand) error
	Update(ctx context.Context, b *models.Brand) error
	Delete(ctx context.Context, id gocql.UUID) error
}

type ProductRepository interface {
	List(ctx context.Context) ([]models.Product, error)
	Get(ctx context.Context, id gocql.UUID) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id gocql.UUID) error
	// AdjustStock applique delta au stock ; errs.ErrOutOfStock si le résultat serait négatif
	AdjustStock(ctx context.Context, id gocql.UUID, delta int) (int, error)
	UpdateRating(ctx context.Context, id gocql.UUID, average float64, count int) error
	AddSold(ctx context.Context, id gocql.UUID, quantity int) error
}

type OrderRepository interface {
	Create(ctx context.Context, o *models.Order) error
	Get(ctx context.Context, id gocql.UUID) (*models.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	ListByUser(ctx context.Context, userID gocql.UUID) ([]models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
	// UpdateIf réécrit la commande seulement si son statut et son statut de paiement
	// valent encore status et payment ; false quand un autre écrivain est passé avant
	UpdateIf(ctx context.Context, o *models.Order, status models.OrderStatus, payment models.PaymentStatus) (bool, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, r *models.Review) error
	Get(ctx context.Context, id gocql.UUID) (*models.Review, error)
	Update(ctx context.Context, r *models.Review) error
	ListByProduct(ctx context.Context, productID gocql.UUID) ([]models.Review, error)
	ListByUser(ctx context.Context, userID gocql.UUID) ([]models.Review, error)
	// AddHelpfulVote renvoie false si l'utilisateur a déjà voté
	AddHelpfulVote(ctx context.Context, reviewID, userID gocql.UUID) (bool, error)
}

// Store regroupe les dépôts utilisés par les services
type Store struct {
	Users      UserRepository
	Categories CategoryRepository
	Brands     BrandRepository
	Products   ProductRepository
	Orders     OrderRepository
	Reviews    ReviewRepository
}
