package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"smartshop_back_end/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

func TestFormatVND(t *testing.T) {
	assert.Equal(t, "0 ₫", FormatVND(0))
	assert.Equal(t, "30.000 ₫", FormatVND(30000))
	assert.Equal(t, "1.250.000 ₫", FormatVND(1250000))
	assert.Equal(t, "-500 ₫", FormatVND(-500))
}

func sampleOrder() *models.Order {
	return &models.Order{
		OrderNumber:   "SS250301000001",
		PaymentMethod: models.PaymentCOD,
		Status:        models.OrderShipping,
		Items:         []models.OrderItem{{Name: "Tai nghe <Pro>", Price: 200000, Quantity: 2, LineTotal: 400000}},
		Subtotal:      400000,
		ShippingFee:   30000,
		Total:         430000,
		CustomerInfo:  models.CustomerInfo{FullName: "Nguyễn Văn A", Email: "a@example.com"},
	}
}

func TestSMTPMailer_OrderConfirmation(t *testing.T) {
	var sent []*mail.Msg
	m := newMailer("noreply@smartshop.vn", "SmartShop", func(_ context.Context, msgs ...*mail.Msg) error {
		sent = append(sent, msgs...)
		return nil
	})

	require.NoError(t, m.OrderConfirmation(context.Background(), sampleOrder()))
	require.Len(t, sent, 1)

	to, err := sent[0].GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com"}, to)
	subject := strings.Join(sent[0].GetGenHeader(mail.HeaderSubject), "")
	assert.Contains(t, subject, "SS250301000001")
}

func TestSMTPMailer_SkipsMissingEmail(t *testing.T) {
	calls := 0
	m := newMailer("noreply@smartshop.vn", "SmartShop", func(context.Context, ...*mail.Msg) error {
		calls++
		return nil
	})
	o := sampleOrder()
	o.CustomerInfo.Email = ""
	require.NoError(t, m.OrderStatusChanged(context.Background(), o))
	assert.Zero(t, calls)
}

func TestSMTPMailer_BreakerOpens(t *testing.T) {
	calls := 0
	m := newMailer("noreply@smartshop.vn", "SmartShop", func(context.Context, ...*mail.Msg) error {
		calls++
		return errors.New("smtp down")
	})
	u := &models.User{Name: "A", Email: "a@example.com"}
	for i := 0; i < 3; i++ {
		assert.Error(t, m.Welcome(context.Background(), u))
	}
	assert.Error(t, m.Welcome(context.Background(), u))
	assert.Equal(t, 3, calls)
}

func TestTemplatesEscapeAndRender(t *testing.T) {
	html, err := render(confirmationTmpl, map[string]any{"Order": sampleOrder(), "Shop": "SmartShop"})
	require.NoError(t, err)
	assert.Contains(t, html, "Tai nghe &lt;Pro&gt;")
	assert.Contains(t, html, "430.000 ₫")
	assert.Contains(t, html, "Thanh toán khi nhận hàng (COD)")

	html, err = render(statusTmpl, map[string]any{"Order": sampleOrder(), "Shop": "SmartShop"})
	require.NoError(t, err)
	assert.Contains(t, html, "Đang giao hàng")
}
