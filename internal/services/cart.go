package services

import (
	"context"
	"errors"
	"fmt"

	"smartshop_back_end/internal/auth"
	"smartshop_back_end/internal/errs"
	"smartshop_back_end/internal/models"

	"github.com/gocql/gocql"
	"github.com/rs/zerolog/log"
)

// MaxCartLines borne la taille d'un panier
const MaxCartLines = 50

type CartService struct {
	deps    Deps
	catalog *CatalogService
}

// MergeItem est une ligne du panier invité (localStorage) fusionnée à la connexion
type MergeItem struct {
	ProductID gocql.UUID
	Quantity  int
}

func (s *CartService) Get(ctx context.Context) (*models.Cart, error) {
	v, err := auth.Require(ctx)
	if err != nil {
		return nil, err
	}
	return s.CartFor(ctx, v.UserID)
}

// CartFor construit la vue enrichie ; les produits supprimés ou désactivés disparaissent
func (s *CartService) CartFor(ctx context.Context, userID gocql.UUID) (*models.Cart, error) {
	items, err := s.deps.Carts.Get(ctx, userID.String())
	if err != nil {
		return nil, err
	}

	cart := &models.Cart{Items: make([]models.CartLine, 0, len(items))}
	for _, it := range items {
		id, err := models.ParseID(it.ProductID)
		if err != nil {
			continue
		}
		p, err := s.deps.Store.Products.Get(ctx, id)
		if errors.Is(err, errs.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !p.IsActive {
			continue
		}
		line := models.CartLine{
			ProductID: p.ID,
			Name:      p.Name,
			Slug:      p.Slug,
			Price:     p.Price,
			Image:     p.FirstImage(),
			Stock:     p.Stock,
			Quantity:  it.Quantity,
			LineTotal: p.Price * int64(it.Quantity),
		}
		cart.Items = append(cart.Items, line)
		cart.TotalQuantity += line.Quantity
		cart.Subtotal += line.LineTotal
	}
	return cart, nil
}

// sellable charge un produit actif ; un produit inactif est traité comme inexistant
func (s *CartService) sellable(ctx context.Context, productID gocql.UUID) (*models.Product, error) {
	p, err := s.deps.Store.Products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, fmt.Errorf("%w: produit %s", errs.ErrNotFound, productID)
	}
	return p, nil
}

func checkStock(p *models.Product, quantity int) error {
	if quantity > p.Stock {
		return fmt.Errorf("%w: %s (disponible: %d)", errs.ErrOutOfStock, p.Name, p.Stock)
	}
	return nil
}

func indexOf(items []models.CartItem, productID gocql.UUID) int {
	key := productID.String()
	for i, it := range items {
		if it.ProductID == key {
			return i
		}
	}
	return -1
}

// mutate charge le panier, applique fn puis sauvegarde
func (s *CartService) mutate(ctx context.Context, fn func(items []models.CartItem) ([]models.CartItem, error)) (*models.Cart, error) {
	v, err := auth.Require(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.deps.Carts.Get(ctx, v.UserID.String())
	if err != nil {
		return nil, err
	}
	if items, err = fn(items); err != nil {
		return nil, err
	}
	if len(items) > MaxCartLines {
		return nil, invalid("le panier est limité à %d produits", MaxCartLines)
	}
	if err := s.deps.Carts.Save(ctx, v.UserID.String(), items); err != nil {
		return nil, err
	}
	return s.CartFor(ctx, v.UserID)
}

func (s *CartService) Add(ctx context.Context, productID gocql.UUID, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, invalid("la quantité doit être au moins 1")
	}
	return s.mutate(ctx, func(items []models.CartItem) ([]models.CartItem, error) {
		p, err := s.sellable(ctx, productID)
		if err != nil {
			return nil, err
		}
		i := indexOf(items, productID)
		if i < 0 {
			if err := checkStock(p, quantity); err != nil {
				return nil, err
			}
			return append(items, models.CartItem{ProductID: productID.String(), Quantity: quantity}), nil
		}
		if err := checkStock(p, items[i].Quantity+quantity); err != nil {
			return nil, err
		}
		items[i].Quantity += quantity
		return items, nil
	})
}

// Update fixe la quantité d'une ligne ; 0 la retire
func (s *CartService) Update(ctx context.Context, productID gocql.UUID, quantity int) (*models.Cart, error) {
	if quantity < 0 {
		return nil, invalid("la quantité ne peut pas être négative")
	}
	if quantity == 0 {
		return s.Remove(ctx, productID)
	}
	return s.mutate(ctx, func(items []models.CartItem) ([]models.CartItem, error) {
		i := indexOf(items, productID)
		if i < 0 {
			return nil, fmt.Errorf("%w: produit %s absent du panier", errs.ErrNotFound, productID)
		}
		p, err := s.sellable(ctx, productID)
		if err != nil {
			return nil, err
		}
		if err := checkStock(p, quantity); err != nil {
			return nil, err
		}
		items[i].Quantity = quantity
		return items, nil
	})
}

func (s *CartService) Remove(ctx context.Context, productID gocql.UUID) (*models.Cart, error) {
	return s.mutate(ctx, func(items []models.CartItem) ([]models.CartItem, error) {
		if i := indexOf(items, productID); i >= 0 {
			items = append(items[:i], items[i+1:]...)
		}
		return items, nil
	})
}

func (s *CartService) Clear(ctx context.Context) (*models.Cart, error) {
	v, err := auth.Require(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Carts.Clear(ctx, v.UserID.String()); err != nil {
		return nil, err
	}
	return &models.Cart{Items: []models.CartLine{}}, nil
}

// Merge additionne le panier invité au panier serveur en plafonnant au stock ; les lignes invalides sont ignorées
func (s *CartService) Merge(ctx context.Context, guest []MergeItem) (*models.Cart, error) {
	return s.mutate(ctx, func(items []models.CartItem) ([]models.CartItem, error) {
		for _, g := range guest {
			if g.Quantity < 1 {
				continue
			}
			p, err := s.sellable(ctx, g.ProductID)
			if errors.Is(err, errs.ErrNotFound) {
				log.Ctx(ctx).Debug().Str("product_id", g.ProductID.String()).Msg("Ligne invité ignorée")
				continue
			}
			if err != nil {
				return nil, err
			}

			i := indexOf(items, g.ProductID)
			if i < 0 {
				items = append(items, models.CartItem{ProductID: g.ProductID.String()})
				i = len(items) - 1
			}
			items[i].Quantity = min(items[i].Quantity+g.Quantity, p.Stock)
		}

		kept := items[:0]
		for _, it := range items {
			if it.Quantity > 0 {
				kept = append(kept, it)
			}
		}
		return kept, nil
	})
}

// clearFor vide le panier après une commande ; un échec est seulement journalisé
func (s *CartService) clearFor(ctx context.Context, userID gocql.UUID) {
	if err := s.deps.Carts.Clear(ctx, userID.String()); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("user_id", userID.String()).Msg("⚠️ Vidage panier après commande")
	}
}

// Watch suit les modifications du panier d'un utilisateur (onglets ouverts)
func (s *CartService) Watch(ctx context.Context, userID gocql.UUID) (<-chan string, func(), error) {
	return s.deps.Carts.Subscribe(ctx, userID.String())
}
