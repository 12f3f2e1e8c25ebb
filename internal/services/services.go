// Package services porte la logique métier de la boutique : catalogue, panier, commandes, paiements, avis.
package services

import (
	"context"
	"time"

	"smartshop_back_end/internal/cache"
	"smartshop_back_end/internal/config"
	"smartshop_back_end/internal/events"
	"smartshop_back_end/internal/models"
	"smartshop_back_end/internal/notify"
	"smartshop_back_end/internal/payment/vnpay"
	"smartshop_back_end/internal/repository"
	"smartshop_back_end/internal/search"
	"smartshop_back_end/internal/storage"

	"github.com/rs/zerolog/log"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	sideEffectTimeout = 10 * time.Second
)

type Deps struct {
	Config   *config.Config
	Store    *repository.Store
	Carts    cache.CartStore
	Cache    cache.JSONCache
	Attempts cache.Attempts // échecs de connexion, inscriptions par IP
	Search   search.Index
	Images   storage.ImageStore
	Events   events.Publisher
	Mailer   notify.Mailer
	VNPay    *vnpay.Client

	// Now et Async sont remplacés dans les tests
	Now   func() time.Time
	Async func(func())
}

type Services struct {
	Auth     *AuthService
	Catalog  *CatalogService
	Cart     *CartService
	Orders   *OrderService
	Payments *PaymentService
	Reviews  *ReviewService
	Images   *ImageService
}

// New complète les dépendances optionnelles puis assemble les services
func New(d Deps) *Services {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Async == nil {
		d.Async = func(f func()) { go f() }
	}
	if d.Carts == nil {
		d.Carts = cache.NewMemoryCartStore()
	}
	if d.Cache == nil {
		d.Cache = cache.NewMemoryJSONCache()
	}
	if d.Attempts == nil {
		d.Attempts = cache.NewMemoryAttempts()
	}
	if d.Search == nil {
		d.Search = search.NoopIndex{}
	}
	if d.Images == nil {
		d.Images = storage.NewMemoryStore()
	}
	if d.Events == nil {
		d.Events = events.NoopPublisher{}
	}
	if d.Mailer == nil {
		d.Mailer = notify.NoopMailer{}
	}
	if d.VNPay == nil {
		d.VNPay = vnpay.New(d.Config.VNPay)
	}

	s := &Services{}
	s.Auth = &AuthService{deps: d}
	s.Catalog = &CatalogService{deps: d}
	s.Cart = &CartService{deps: d, catalog: s.Catalog}
	s.Orders = &OrderService{deps: d, cart: s.Cart}
	s.Payments = &PaymentService{deps: d, orders: s.Orders}
	s.Reviews = &ReviewService{deps: d}
	s.Images = &ImageService{deps: d}
	return s
}

// background lance un effet de bord (email, événement) qui ne doit jamais faire échouer la requête
func (d Deps) background(name string, fn func(ctx context.Context) error) {
	d.Async(func() {
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Warn().Err(err).Str("task", name).Msg("⚠️ Tâche de fond en échec")
		}
	})
}

func (d Deps) publish(eventType string, o *models.Order) {
	event := events.NewOrderEvent(eventType, o, d.Now())
	d.background(eventType, func(ctx context.Context) error {
		return d.Events.Publish(ctx, event)
	})
}

// Page normalise limit/offset
func Page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func paginate[T any](items []T, limit, offset int) []T {
	limit, offset = Page(limit, offset)
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
