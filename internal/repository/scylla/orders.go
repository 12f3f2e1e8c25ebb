package scylla

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"smartshop_back_end/internal/errs"
	"smartshop_back_end/internal/models"

	"github.com/gocql/gocql"
)

type OrderRepository struct {
	session *gocql.Session
}

const orderColumns = `order_id, order_number, user_id, items, customer_info,
	payment_method, status, payment_status, subtotal, shipping_fee, total,
	notes, cancel_reason, transaction_no, bank_code, paid_at, payment_expires_at,
	created_at, updated_at`

// orderRow : les articles et l'adresse sont stockés en JSON
type orderRow struct {
	models.Order
	items, customer, method, status, paymentStatus string
}

func (row *orderRow) dest() []any {
	o := &row.Order
	return []any{&o.ID, &o.OrderNumber, &o.UserID, &row.items, &row.customer,
		&row.method, &row.status, &row.paymentStatus, &o.Subtotal, &o.ShippingFee, &o.Total,
		&o.Notes, &o.CancelReason, &o.TransactionNo, &o.BankCode, &o.PaidAt, &o.PaymentExpiresAt,
		&o.CreatedAt, &o.UpdatedAt}
}

func (row *orderRow) decode() (*models.Order, error) {
	o := row.Order
	o.PaymentMethod = models.PaymentMethod(row.method)
	o.Status = models.OrderStatus(row.status)
	o.PaymentStatus = models.PaymentStatus(row.paymentStatus)
	if row.items != "" {
		if err := json.Unmarshal([]byte(row.items), &o.Items); err != nil {
			return nil, fmt.Errorf("articles commande %s illisibles: %w", o.ID, err)
		}
	}
	if row.customer != "" {
		if err := json.Unmarshal([]byte(row.customer), &o.CustomerInfo); err != nil {
			return nil, fmt.Errorf("adresse commande %s illisible: %w", o.ID, err)
		}
	}
	return &o, nil
}

func (r *OrderRepository) write(ctx context.Context, o *models.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	customer, err := json.Marshal(o.CustomerInfo)
	if err != nil {
		return err
	}
	return r.session.Query(`INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.OrderNumber, o.UserID, string(items), string(customer),
		string(o.PaymentMethod), string(o.Status), string(o.PaymentStatus), o.Subtotal, o.ShippingFee, o.Total,
		o.Notes, o.CancelReason, o.TransactionNo, o.BankCode, o.PaidAt, o.PaymentExpiresAt,
		o.CreatedAt, o.UpdatedAt).WithContext(ctx).Exec()
}

// Create réserve le numéro de commande (LWT) puis écrit la commande et l'index utilisateur
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	var existing gocql.UUID
	applied, err := r.session.Query(`INSERT INTO orders_by_number (order_number, order_id) VALUES (?, ?) IF NOT EXISTS`,
		o.OrderNumber, o.ID).WithContext(ctx).ScanCAS(nil, &existing)
	if err != nil {
		return fmt.Errorf("réservation numéro %s: %w", o.OrderNumber, err)
	}
	if !applied {
		return fmt.Errorf("%w: numéro de commande %s déjà utilisé", errs.ErrConflict, o.OrderNumber)
	}

	if err := r.write(ctx, o); err != nil {
		return fmt.Errorf("insertion commande: %w", err)
	}
	return r.session.Query(`INSERT INTO orders_by_user (user_id, created_at, order_id) VALUES (?, ?, ?)`,
		o.UserID, o.CreatedAt, o.ID).WithContext(ctx).Exec()
}

func (r *OrderRepository) Get(ctx context.Context, id gocql.UUID) (*models.Order, error) {
	var row orderRow
	err := r.session.Query(`SELECT `+orderColumns+` FROM orders WHERE order_id = ?`, id).
		WithContext(ctx).Scan(row.dest()...)
	if err != nil {
		return nil, wrapNotFound(err, "commande", id)
	}
	return row.decode()
}

func (r *OrderRepository) GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var id gocql.UUID
	err := r.session.Query(`SELECT order_id FROM orders_by_number WHERE order_number = ?`, orderNumber).
		WithContext(ctx).Scan(&id)
	if err != nil {
		return nil, wrapNotFound(err, "commande", orderNumber)
	}
	return r.Get(ctx, id)
}

// ListByUser renvoie les commandes les plus récentes d'abord (ordre de clustering)
func (r *OrderRepository) ListByUser(ctx context.Context, userID gocql.UUID) ([]models.Order, error) {
	iter := r.session.Query(`SELECT order_id FROM orders_by_user WHERE user_id = ?`, userID).WithContext(ctx).Iter()
	var ids []gocql.UUID
	var id gocql.UUID
	for iter.Scan(&id) {
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("index commandes utilisateur: %w", err)
	}

	out := make([]models.Order, 0, len(ids))
	for _, id := range ids {
		o, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, nil
}

func (r *OrderRepository) List(ctx context.Context) ([]models.Order, error) {
	iter := r.session.Query(`SELECT ` + orderColumns + ` FROM orders`).WithContext(ctx).PageSize(500).Iter()
	var out []models.Order
	for {
		var row orderRow
		if !iter.Scan(row.dest()...) {
			break
		}
		o, err := row.decode()
		if err != nil {
			_ = iter.Close()
			return nil, err
		}
		out = append(out, *o)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture commandes: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// UpdateIf : LWT sur (status, payment_status), comme AdjustStock sur le stock
func (r *OrderRepository) UpdateIf(ctx context.Context, o *models.Order, status models.OrderStatus, payment models.PaymentStatus) (bool, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return false, err
	}
	customer, err := json.Marshal(o.CustomerInfo)
	if err != nil {
		return false, err
	}

	var observedStatus, observedPayment string
	applied, err := r.session.Query(`UPDATE orders SET items = ?, customer_info = ?, status = ?, payment_status = ?,
		notes = ?, cancel_reason = ?, transaction_no = ?, bank_code = ?, paid_at = ?, payment_expires_at = ?, updated_at = ?
		WHERE order_id = ? IF status = ? AND payment_status = ?`,
		string(items), string(customer), string(o.Status), string(o.PaymentStatus),
		o.Notes, o.CancelReason, o.TransactionNo, o.BankCode, o.PaidAt, o.PaymentExpiresAt, o.UpdatedAt,
		o.ID, string(status), string(payment)).
		WithContext(ctx).SerialConsistency(gocql.Serial).ScanCAS(&observedStatus, &observedPayment)
	if err != nil {
		return false, fmt.Errorf("mise à jour commande %s: %w", o.ID, err)
	}
	if !applied && observedStatus == "" {
		return false, fmt.Errorf("%w: commande %s", errs.ErrNotFound, o.ID)
	}
	return applied, nil
}
