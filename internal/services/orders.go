package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"smartshop_back_end/internal/auth"
	"smartshop_back_end/internal/errs"
	"smartshop_back_end/internal/events"
	"smartshop_back_end/internal/models"
	"smartshop_back_end/internal/payment/banktransfer"
	"smartshop_back_end/internal/payment/vnpay"
	"smartshop_back_end/internal/utils"

	"github.com/gocql/gocql"
	"github.com/rs/zerolog/log"
)

const (
	orderNumberAttempts = 5

	CancelReasonPaymentExpired = "payment_expired"
)

type OrderService struct {
	deps Deps
	cart *CartService
}

type OrderLineInput struct {
	ProductID gocql.UUID
	Quantity  int
}

type CustomerInfoInput struct {
	FullName string `validate:"required,max=100"`
	Email    string `validate:"omitempty,email"`
	Phone    string `validate:"required,vnphone"`
	Address  string `validate:"required,max=255"`
	City     string `validate:"max=100"`
	District string `validate:"max=100"`
	Ward     string `validate:"max=100"`
}

func (in CustomerInfoInput) normalize() CustomerInfoInput {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = normalizePhone(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	in.City = strings.TrimSpace(in.City)
	in.District = strings.TrimSpace(in.District)
	in.Ward = strings.TrimSpace(in.Ward)
	return in
}

// CreateOrderInput : sans Items, les lignes viennent du panier serveur
type CreateOrderInput struct {
	Items         []OrderLineInput
	CustomerInfo  CustomerInfoInput
	PaymentMethod models.PaymentMethod
	Notes         string
}

// --- Création ---

func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (*models.CreateOrderResult, error) {
	v, err := auth.Require(ctx)
	if err != nil {
		return nil, err
	}
	if !in.PaymentMethod.Valid() {
		return nil, invalid("mode de paiement inconnu %q", in.PaymentMethod)
	}
	if in.PaymentMethod == models.PaymentVNPay && !s.deps.VNPay.Enabled() {
		return nil, fmt.Errorf("%w: paiement VNPay indisponible", errs.ErrUnavailable)
	}
	customer := in.CustomerInfo.normalize()
	if err := validateStruct(customer); err != nil {
		return nil, err
	}
	if len(in.Notes) > 500 {
		return nil, invalid("la note est limitée à 500 caractères")
	}

	fromCart := len(in.Items) == 0
	lines := in.Items
	if fromCart {
		if lines, err = s.cartLines(ctx, v.UserID); err != nil {
			return nil, err
		}
	}
	lines, err = mergeLines(lines)
	if err != nil {
		return nil, err
	}

	items, err := s.reserve(ctx, lines)
	if err != nil {
		return nil, err
	}

	now := s.deps.Now()
	o := &models.Order{
		ID:     models.NewID(),
		UserID: v.UserID,
		Items:  items,
		CustomerInfo: models.CustomerInfo{
			FullName: customer.FullName,
			Email:    customer.Email,
			Phone:    customer.Phone,
			Address:  customer.Address,
			City:     customer.City,
			District: customer.District,
			Ward:     customer.Ward,
		},
		PaymentMethod: in.PaymentMethod,
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentPending,
		Notes:         strings.TrimSpace(in.Notes),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if o.CustomerInfo.Email == "" {
		o.CustomerInfo.Email = v.Email
	}
	for _, it := range items {
		o.Subtotal += it.LineTotal
	}
	o.ShippingFee = s.shippingFee(o.Subtotal)
	o.Total = o.Subtotal + o.ShippingFee
	if o.PaymentMethod == models.PaymentVNPay {
		expires := now.Add(s.paymentWindow())
		o.PaymentExpiresAt = &expires
	}

	if err := s.insert(ctx, o); err != nil {
		s.release(ctx, items)
		return nil, err
	}
	log.Ctx(ctx).Info().
		Str("order_number", o.OrderNumber).
		Str("payment_method", string(o.PaymentMethod)).
		Int64("total", o.Total).
		Msg("🧾 Commande créée")

	result := &models.CreateOrderResult{Order: o}
	switch o.PaymentMethod {
	case models.PaymentVNPay:
		if result.PaymentURL, err = s.deps.VNPay.BuildPaymentURL(o, auth.ClientIP(ctx), now); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("order_number", o.OrderNumber).Msg("❌ URL VNPay")
		}
	case models.PaymentBankTransfer:
		if result.BankTransfer, err = banktransfer.Instructions(s.deps.Config.BankTransfer, o); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("order_number", o.OrderNumber).Msg("❌ QR virement")
		}
	}

	if fromCart {
		s.cart.clearFor(ctx, v.UserID)
	}
	s.deps.publish(events.OrderCreated, o)
	confirmation := *o
	s.deps.background("order_confirmation_email", func(ctx context.Context) error {
		return s.deps.Mailer.OrderConfirmation(ctx, &confirmation)
	})
	return result, nil
}

func (s *OrderService) cartLines(ctx context.Context, userID gocql.UUID) ([]OrderLineInput, error) {
	items, err := s.deps.Carts.Get(ctx, userID.String())
	if err != nil {
		return nil, err
	}
	lines := make([]OrderLineInput, 0, len(items))
	for _, it := range items {
		id, err := models.ParseID(it.ProductID)
		if err != nil {
			continue
		}
		lines = append(lines, OrderLineInput{ProductID: id, Quantity: it.Quantity})
	}
	return lines, nil
}

// mergeLines regroupe les doublons en conservant l'ordre de première apparition
func mergeLines(lines []OrderLineInput) ([]OrderLineInput, error) {
	if len(lines) == 0 {
		return nil, invalid("la commande ne contient aucun produit")
	}
	merged := make([]OrderLineInput, 0, len(lines))
	pos := make(map[gocql.UUID]int, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 {
			return nil, invalid("quantité invalide pour le produit %s", l.ProductID)
		}
		if i, ok := pos[l.ProductID]; ok {
			merged[i].Quantity += l.Quantity
			continue
		}
		pos[l.ProductID] = len(merged)
		merged = append(merged, l)
	}
	return merged, nil
}

// reserve décrémente le stock ligne par ligne ; en cas d'échec les réservations faites sont rendues
func (s *OrderService) reserve(ctx context.Context, lines []OrderLineInput) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(lines))
	for _, l := range lines {
		p, err := s.cart.sellable(ctx, l.ProductID)
		if err == nil {
			_, err = s.deps.Store.Products.AdjustStock(ctx, l.ProductID, -l.Quantity)
			if errors.Is(err, errs.ErrOutOfStock) {
				err = fmt.Errorf("%w: %s", errs.ErrOutOfStock, p.Name)
			}
		}
		if err != nil {
			s.release(ctx, items)
			return nil, err
		}
		items = append(items, models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.FirstImage(),
			Price:     p.Price,
			Quantity:  l.Quantity,
			LineTotal: p.Price * int64(l.Quantity),
		})
	}
	return items, nil
}

func (s *OrderService) release(ctx context.Context, items []models.OrderItem) {
	for _, it := range items {
		if _, err := s.deps.Store.Products.AdjustStock(ctx, it.ProductID, it.Quantity); err != nil {
			log.Ctx(ctx).Error().Err(err).
				Str("product_id", it.ProductID.String()).
				Int("quantity", it.Quantity).
				Msg("❌ Remise en stock impossible")
		}
	}
}

func (s *OrderService) shippingFee(subtotal int64) int64 {
	shop := s.deps.Config.Shop
	if shop.FreeShippingThreshold > 0 && subtotal >= shop.FreeShippingThreshold {
		return 0
	}
	return shop.ShippingFee
}

func (s *OrderService) paymentWindow() time.Duration {
	minutes := s.deps.Config.VNPay.ExpireMinutes
	if minutes <= 0 {
		minutes = 15
	}
	return time.Duration(minutes) * time.Minute
}

// insert attribue un numéro de commande unique, en réessayant sur collision
func (s *OrderService) insert(ctx context.Context, o *models.Order) error {
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		number, err := newOrderNumber(o.CreatedAt)
		if err != nil {
			return err
		}
		o.OrderNumber = number
		err = s.deps.Store.Orders.Create(ctx, o)
		if !errors.Is(err, errs.ErrConflict) {
			return err
		}
		log.Ctx(ctx).Warn().Str("order_number", number).Msg("⚠️ Numéro de commande déjà pris, nouvel essai")
	}
	return fmt.Errorf("%w: impossible d'attribuer un numéro de commande", errs.ErrConflict)
}

// newOrderNumber : SS + yyMMdd (heure du Vietnam) + 6 chiffres aléatoires
func newOrderNumber(now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("numéro de commande: %w", err)
	}
	return fmt.Sprintf("SS%s%06d", now.In(vnpay.Location).Format("060102"), n.Int64()), nil
}

// --- Lecture ---

func sortNewest(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].OrderNumber > orders[j].OrderNumber
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

func filterStatus(orders []models.Order, status *models.OrderStatus) []models.Order {
	if status == nil {
		return orders
	}
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if o.Status == *status {
			out = append(out, o)
		}
	}
	return out
}

func (s *OrderService) MyOrders(ctx context.Context, status *models.OrderStatus) ([]models.Order, error) {
	v, err := auth.Require(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.deps.Store.Orders.ListByUser(ctx, v.UserID)
	if err != nil {
		return nil, err
	}
	orders = filterStatus(orders, status)
	sortNewest(orders)
	return orders, nil
}

// Get : une commande d'un autre client apparaît comme inexistante
func (s *OrderService) Get(ctx context.Context, id gocql.UUID) (*models.Order, error) {
	v, err := auth.Require(ctx)
	if err != nil {
		return nil, err
	}
	o, err := s.deps.Store.Orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != v.UserID && !v.IsStaff() {
		return nil, fmt.Errorf("%w: commande %s", errs.ErrNotFound, id)
	}
	return o, nil
}

func (s *OrderService) List(ctx context.Context, status *models.OrderStatus, limit, offset int) (*models.OrderPage, error) {
	if _, err := auth.RequireStaff(ctx); err != nil {
		return nil, err
	}
	orders, err := s.deps.Store.Orders.List(ctx)
	if err != nil {
		return nil, err
	}
	orders = filterStatus(orders, status)
	sortNewest(orders)
	return &models.OrderPage{Items: paginate(orders, limit, offset), Total: len(orders)}, nil
}

// --- Changements de statut ---

func (s *OrderService) Cancel(ctx context.Context, id gocql.UUID, reason string) (*models.Order, error) {
	v, err := auth.Require(ctx)
	if err != nil {
		return nil, err
	}
	o, err := s.deps.Store.Orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != v.UserID {
		return nil, fmt.Errorf("%w: commande %s", errs.ErrNotFound, id)
	}
	if !o.Status.CanCustomerCancel() {
		return nil, fmt.Errorf("%w: la commande %s ne peut plus être annulée", errs.ErrInvalidTransition, o.OrderNumber)
	}
	if o.PaymentMethod == models.PaymentVNPay && o.PaymentStatus == models.PaymentPaid {
		return nil, fmt.Errorf("%w: commande déjà payée en ligne, contactez le service client", errs.ErrInvalidTransition)
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "customer_cancelled"
	}
	if err := s.cancel(ctx, o, reason, o.Status, o.PaymentStatus); err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("order_number", o.OrderNumber).Str("reason", reason).Msg("🛑 Commande annulée par le client")
	return o, nil
}

// save écrit o si la commande est toujours dans l'état (status, payment) lu par l'appelant
func (s *OrderService) save(ctx context.Context, o *models.Order, status models.OrderStatus, payment models.PaymentStatus) error {
	applied, err := s.deps.Store.Orders.UpdateIf(ctx, o, status, payment)
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("%w: commande %s modifiée entre-temps", errs.ErrConflict, o.OrderNumber)
	}
	return nil
}

// cancel passe la commande en CANCELLED et rend le stock ; le stock n'est rendu que si l'écriture a eu lieu
func (s *OrderService) cancel(ctx context.Context, o *models.Order, reason string, status models.OrderStatus, payment models.PaymentStatus) error {
	o.Status = models.OrderCancelled
	o.CancelReason = reason
	o.UpdatedAt = s.deps.Now()
	if err := s.save(ctx, o, status, payment); err != nil {
		return err
	}
	s.release(ctx, o.Items)
	s.statusChanged(o)
	return nil
}

func (s *OrderService) statusChanged(o *models.Order) {
	s.deps.publish(events.OrderStatusChanged, o)
	snapshot := *o
	s.deps.background("order_status_email", func(ctx context.Context) error {
		return s.deps.Mailer.OrderStatusChanged(ctx, &snapshot)
	})
}

// UpdateStatus suit le flux PENDING→CONFIRMED→PROCESSING→SHIPPING→DELIVERED
func (s *OrderService) UpdateStatus(ctx context.Context, id gocql.UUID, status models.OrderStatus) (*models.Order, error) {
	v, err := auth.RequireStaff(ctx)
	if err != nil {
		return nil, err
	}
	o, err := s.deps.Store.Orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s -> %s", errs.ErrInvalidTransition, o.Status, status)
	}
	previous, payment := o.Status, o.PaymentStatus

	if status == models.OrderCancelled {
		if err := s.cancel(ctx, o, "admin_cancelled", previous, payment); err != nil {
			return nil, err
		}
	} else {
		now := s.deps.Now()
		o.Status = status
		o.UpdatedAt = now
		if status == models.OrderDelivered && o.PaymentMethod == models.PaymentCOD && o.PaymentStatus != models.PaymentPaid {
			o.PaymentStatus = models.PaymentPaid
			o.PaidAt = &now
		}
		if err := s.save(ctx, o, previous, payment); err != nil {
			return nil, err
		}
		if status == models.OrderDelivered {
			s.recordSold(ctx, o)
		}
		s.statusChanged(o)
	}

	utils.LogAction(ctx, v.Actor(), "update_status", "order", o.ID.String(), map[string]any{
		"from": previous,
		"to":   status,
	})
	return o, nil
}

func (s *OrderService) recordSold(ctx context.Context, o *models.Order) {
	for _, it := range o.Items {
		if err := s.deps.Store.Products.AddSold(ctx, it.ProductID, it.Quantity); err != nil && !errors.Is(err, errs.ErrNotFound) {
			log.Ctx(ctx).Warn().Err(err).Str("product_id", it.ProductID.String()).Msg("⚠️ Mise à jour des ventes")
		}
	}
}

// paymentTransitions liste les changements de paiement autorisés à l'administration
var paymentTransitions = map[models.PaymentStatus][]models.PaymentStatus{
	models.PaymentPending: {models.PaymentPaid, models.PaymentFailed},
	models.PaymentFailed:  {models.PaymentPaid},
	models.PaymentPaid:    {models.PaymentRefunded},
}

func canChangePayment(from, to models.PaymentStatus) bool {
	for _, allowed := range paymentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// UpdatePaymentStatus sert surtout à confirmer un virement à la main
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, id gocql.UUID, status models.PaymentStatus) (*models.Order, error) {
	v, err := auth.RequireStaff(ctx)
	if err != nil {
		return nil, err
	}
	o, err := s.deps.Store.Orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canChangePayment(o.PaymentStatus, status) {
		return nil, fmt.Errorf("%w: paiement %s -> %s", errs.ErrInvalidTransition, o.PaymentStatus, status)
	}
	if status == models.PaymentPaid && o.Status == models.OrderCancelled {
		return nil, fmt.Errorf("%w: commande annulée", errs.ErrInvalidTransition)
	}

	previous := o.PaymentStatus
	now := s.deps.Now()
	o.PaymentStatus = status
	o.UpdatedAt = now
	if status == models.PaymentPaid {
		o.PaidAt = &now
	}
	if err := s.save(ctx, o, o.Status, previous); err != nil {
		return nil, err
	}
	s.deps.publish(events.PaymentUpdated, o)
	utils.LogAction(ctx, v.Actor(), "update_payment_status", "order", o.ID.String(), map[string]any{
		"from": previous,
		"to":   status,
	})
	return o, nil
}

// ExpireUnpaid annule les commandes VNPay dont le délai de paiement est dépassé
func (s *OrderService) ExpireUnpaid(ctx context.Context, now time.Time) (int, error) {
	orders, err := s.deps.Store.Orders.List(ctx)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range orders {
		o := &orders[i]
		if o.PaymentMethod != models.PaymentVNPay || o.Status != models.OrderPending ||
			o.PaymentStatus == models.PaymentPaid || o.PaymentExpiresAt == nil || !o.PaymentExpiresAt.Before(now) {
			continue
		}
		payment := o.PaymentStatus
		o.PaymentStatus = models.PaymentFailed
		err := s.cancel(ctx, o, CancelReasonPaymentExpired, models.OrderPending, payment)
		if errors.Is(err, errs.ErrConflict) {
			// paiement ou annulation arrivé depuis la lecture
			log.Ctx(ctx).Info().Str("order_number", o.OrderNumber).Msg("⏭️ Commande modifiée pendant l'expiration, ignorée")
			continue
		}
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Str("order_number", o.OrderNumber).Msg("❌ Expiration commande")
			continue
		}
		expired++
	}
	if expired > 0 {
		log.Ctx(ctx).Info().Int("count", expired).Msg("⏰ Commandes VNPay expirées annulées")
	}
	return expired, nil
}
