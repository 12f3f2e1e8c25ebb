package models

import (
	"time"

	"github.com/gocql/gocql"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderConfirmed  OrderStatus = "CONFIRMED"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipping   OrderStatus = "SHIPPING"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

var OrderStatuses = []OrderStatus{OrderPending, OrderConfirmed, OrderProcessing, OrderShipping, OrderDelivered, OrderCancelled}

// step donne la position dans le flux normal (CANCELLED hors flux)
func (s OrderStatus) step() int {
	switch s {
	case OrderPending:
		return 0
	case OrderConfirmed:
		return 1
	case OrderProcessing:
		return 2
	case OrderShipping:
		return 3
	case OrderDelivered:
		return 4
	}
	return -1
}

// CanCustomerCancel : annulation possible par le client en début de commande
func (s OrderStatus) CanCustomerCancel() bool {
	return s == OrderPending || s == OrderConfirmed
}

// CanTransitionTo vérifie une transition demandée par l'administration
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == OrderCancelled || s == OrderDelivered || s == next {
		return false
	}
	if next == OrderCancelled {
		return s == OrderPending || s == OrderConfirmed || s == OrderProcessing
	}
	return next.step() == s.step()+1
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

var PaymentStatuses = []PaymentStatus{PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded}

type PaymentMethod string

const (
	PaymentCOD          PaymentMethod = "COD"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentVNPay        PaymentMethod = "VNPAY"
)

var PaymentMethods = []PaymentMethod{PaymentCOD, PaymentBankTransfer, PaymentVNPay}

func (m PaymentMethod) Valid() bool {
	return m == PaymentCOD || m == PaymentBankTransfer || m == PaymentVNPay
}

type CustomerInfo struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	District string `json:"district"`
	Ward     string `json:"ward"`
}

// OrderItem est un instantané du produit au moment de la commande
type OrderItem struct {
	ProductID gocql.UUID `json:"productId"`
	Name      string     `json:"name"`
	Image     string     `json:"image"`
	Price     int64      `json:"price"`
	Quantity  int        `json:"quantity"`
	LineTotal int64      `json:"lineTotal"`
}

type Order struct {
	ID               gocql.UUID    `json:"id"`
	OrderNumber      string        `json:"orderNumber"`
	UserID           gocql.UUID    `json:"userId"`
	Items            []OrderItem   `json:"items"`
	CustomerInfo     CustomerInfo  `json:"customerInfo"`
	PaymentMethod    PaymentMethod `json:"paymentMethod"`
	Status           OrderStatus   `json:"status"`
	PaymentStatus    PaymentStatus `json:"paymentStatus"`
	Subtotal         int64         `json:"subtotal"`
	ShippingFee      int64         `json:"shippingFee"`
	Total            int64         `json:"total"`
	Notes            string        `json:"notes"`
	CancelReason     string        `json:"cancelReason"`
	TransactionNo    string        `json:"transactionNo"`
	BankCode         string        `json:"bankCode"`
	PaidAt           *time.Time    `json:"paidAt"`
	PaymentExpiresAt *time.Time    `json:"paymentExpiresAt"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

func (o Order) HasProduct(productID gocql.UUID) bool {
	for _, it := range o.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}

// Reviewable : livrée ou payée, ni annulée ni remboursée, la commande ouvre droit à un avis
func (o Order) Reviewable() bool {
	if o.Status == OrderCancelled || o.PaymentStatus == PaymentRefunded {
		return false
	}
	return o.Status == OrderDelivered || o.PaymentStatus == PaymentPaid
}

type OrderPage struct {
	Items []Order `json:"items"`
	Total int     `json:"total"`
}

type BankTransferInfo struct {
	BankName      string `json:"bankName"`
	AccountNumber string `json:"accountNumber"`
	AccountName   string `json:"accountName"`
	Amount        int64  `json:"amount"`
	Content       string `json:"content"`
	QRCode        string `json:"qrCode"`
}

type CreateOrderResult struct {
	Order        *Order            `json:"order"`
	PaymentURL   string            `json:"paymentUrl"`
	BankTransfer *BankTransferInfo `json:"bankTransfer"`
}
