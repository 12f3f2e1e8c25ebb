package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"smartshop_back_end/internal/auth"
	"smartshop_back_end/internal/errs"
	"smartshop_back_end/internal/events"
	"smartshop_back_end/internal/models"
	"smartshop_back_end/internal/payment/vnpay"

	"github.com/gocql/gocql"
	"github.com/rs/zerolog/log"
)

// Codes de réponse IPN attendus par VNPay
const (
	IPNSuccess          = "00"
	IPNOrderNotFound    = "01"
	IPNAlreadyConfirmed = "02"
	IPNInvalidAmount    = "04"
	IPNInvalidSignature = "97"
	IPNUnknownError     = "99"
)

// nombre de relectures quand la commande change pendant un règlement
const settleAttempts = 3

type PaymentService struct {
	deps   Deps
	orders *OrderService
}

type VnpayReturnResult struct {
	Success       bool          `json:"success"`
	Message       string        `json:"message"`
	OrderNumber   string        `json:"orderNumber"`
	Amount        int64         `json:"amount"`
	ResponseCode  string        `json:"responseCode"`
	TransactionNo string        `json:"transactionNo"`
	BankCode      string        `json:"bankCode"`
	PayDate       string        `json:"payDate"`
	Order         *models.Order `json:"order"`
}

type IPNResponse struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

// CreateVnpayPaymentURL relance le paiement d'une commande VNPay encore impayée
func (s *PaymentService) CreateVnpayPaymentURL(ctx context.Context, orderID gocql.UUID) (string, error) {
	v, err := auth.Require(ctx)
	if err != nil {
		return "", err
	}
	o, err := s.deps.Store.Orders.Get(ctx, orderID)
	if err != nil {
		return "", err
	}
	if o.UserID != v.UserID {
		return "", fmt.Errorf("%w: commande %s", errs.ErrNotFound, orderID)
	}
	if o.PaymentMethod != models.PaymentVNPay {
		return "", invalid("la commande %s n'est pas payable par VNPay", o.OrderNumber)
	}
	if o.Status != models.OrderPending || o.PaymentStatus == models.PaymentPaid {
		return "", fmt.Errorf("%w: la commande %s n'attend plus de paiement", errs.ErrInvalidTransition, o.OrderNumber)
	}

	now := s.deps.Now()
	expires := now.Add(s.orders.paymentWindow())
	o.PaymentExpiresAt = &expires
	o.UpdatedAt = now
	if err := s.orders.save(ctx, o, o.Status, o.PaymentStatus); err != nil {
		return "", err
	}
	return s.deps.VNPay.BuildPaymentURL(o, auth.ClientIP(ctx), now)
}

// settlement est le résultat commun au retour navigateur et à l'IPN
type settlement struct {
	ret         vnpay.Return
	order       *models.Order
	alreadyPaid bool
}

// settle vérifie la signature et le montant puis applique le résultat du paiement
func (s *PaymentService) settle(ctx context.Context, values url.Values) (*settlement, error) {
	if !s.deps.VNPay.VerifyReturn(values) {
		return nil, errs.ErrInvalidSignature
	}
	ret, err := vnpay.ParseReturn(values)
	if err != nil {
		return nil, err
	}

	// retour navigateur, IPN et expiration peuvent viser la même commande : on relit en cas de conflit
	for attempt := 0; attempt < settleAttempts; attempt++ {
		st, err := s.apply(ctx, ret)
		if !errors.Is(err, errs.ErrConflict) {
			return st, err
		}
		log.Ctx(ctx).Warn().Str("order_number", ret.OrderNumber).Int("attempt", attempt+1).
			Msg("⚠️ Commande modifiée pendant le règlement VNPay, nouvelle lecture")
	}
	return nil, fmt.Errorf("%w: règlement de %s abandonné", errs.ErrConflict, ret.OrderNumber)
}

func (s *PaymentService) apply(ctx context.Context, ret vnpay.Return) (*settlement, error) {
	o, err := s.deps.Store.Orders.GetByNumber(ctx, ret.OrderNumber)
	if err != nil {
		return nil, err
	}
	if !ret.Matches(o.Total) {
		log.Ctx(ctx).Warn().
			Str("order_number", o.OrderNumber).
			Int64("expected", o.Total*100).
			Int64("received", ret.RawAmount).
			Msg("⚠️ Montant VNPay incohérent")
		return nil, errs.ErrAmountMismatch
	}

	st := &settlement{ret: ret, order: o}
	if o.PaymentStatus == models.PaymentPaid {
		st.alreadyPaid = true
		return st, nil
	}

	fromStatus, fromPayment := o.Status, o.PaymentStatus
	now := s.deps.Now()
	statusChanged := false
	if ret.Success() {
		paidAt := ret.PaidAt()
		if paidAt.IsZero() {
			paidAt = now
		}
		o.PaymentStatus = models.PaymentPaid
		o.PaidAt = &paidAt
		o.TransactionNo = ret.TransactionNo
		o.BankCode = ret.BankCode
		if o.Status == models.OrderPending {
			o.Status = models.OrderConfirmed
			statusChanged = true
		} else {
			log.Ctx(ctx).Warn().Str("order_number", o.OrderNumber).Str("status", string(o.Status)).
				Msg("⚠️ Paiement reçu pour une commande non en attente, remboursement à prévoir")
		}
	} else {
		// la commande reste PENDING pour permettre un nouvel essai
		o.PaymentStatus = models.PaymentFailed
	}
	o.UpdatedAt = now
	if err := s.orders.save(ctx, o, fromStatus, fromPayment); err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().
		Str("order_number", o.OrderNumber).
		Str("response_code", ret.ResponseCode).
		Str("payment_status", string(o.PaymentStatus)).
		Msg("💳 Paiement VNPay traité")
	s.deps.publish(events.PaymentUpdated, o)
	if statusChanged {
		s.orders.statusChanged(o)
	}
	return st, nil
}

// HandleVnpayReturn traite la query string de retour relayée par le navigateur
func (s *PaymentService) HandleVnpayReturn(ctx context.Context, rawQuery string) (*VnpayReturnResult, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	if err != nil {
		return nil, invalid("paramètres de retour illisibles")
	}
	st, err := s.settle(ctx, values)
	if err != nil {
		return nil, err
	}

	res := &VnpayReturnResult{
		OrderNumber:   st.order.OrderNumber,
		Amount:        st.ret.Amount,
		ResponseCode:  st.ret.ResponseCode,
		TransactionNo: st.ret.TransactionNo,
		BankCode:      st.ret.BankCode,
		PayDate:       st.ret.PayDate,
		Order:         st.order,
	}
	if st.alreadyPaid || st.ret.Success() {
		res.Success = true
		res.Message = vnpay.ResponseMessage(vnpay.CodeSuccess)
	} else {
		res.Message = vnpay.ResponseMessage(st.ret.ResponseCode)
	}
	return res, nil
}

// HandleIPN répond au format {RspCode, Message} attendu par VNPay ; ne renvoie jamais d'erreur
func (s *PaymentService) HandleIPN(ctx context.Context, values url.Values) IPNResponse {
	st, err := s.settle(ctx, values)
	switch {
	case err == nil && st.alreadyPaid:
		return IPNResponse{RspCode: IPNAlreadyConfirmed, Message: "Order already confirmed"}
	case err == nil:
		return IPNResponse{RspCode: IPNSuccess, Message: "Confirm Success"}
	case errors.Is(err, errs.ErrInvalidSignature):
		return IPNResponse{RspCode: IPNInvalidSignature, Message: "Invalid signature"}
	case errors.Is(err, errs.ErrNotFound):
		return IPNResponse{RspCode: IPNOrderNotFound, Message: "Order not found"}
	case errors.Is(err, errs.ErrAmountMismatch):
		return IPNResponse{RspCode: IPNInvalidAmount, Message: "Invalid amount"}
	}
	log.Ctx(ctx).Error().Err(err).Msg("❌ IPN VNPay")
	return IPNResponse{RspCode: IPNUnknownError, Message: "Unknown error"}
}
