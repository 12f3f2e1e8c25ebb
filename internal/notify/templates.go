package notify

import (
	"bytes"
	"html/template"
	"strconv"
	"strings"

	"smartshop_back_end/internal/models"
)

// FormatVND : 1250000 -> "1.250.000 ₫"
func FormatVND(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)

	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	out := b.String() + " ₫"
	if neg {
		return "-" + out
	}
	return out
}

var statusLabels = map[models.OrderStatus]string{
	models.OrderPending:    "Chờ xác nhận",
	models.OrderConfirmed:  "Đã xác nhận",
	models.OrderProcessing: "Đang xử lý",
	models.OrderShipping:   "Đang giao hàng",
	models.OrderDelivered:  "Đã giao hàng",
	models.OrderCancelled:  "Đã hủy",
}

var paymentLabels = map[models.PaymentMethod]string{
	models.PaymentCOD:          "Thanh toán khi nhận hàng (COD)",
	models.PaymentBankTransfer: "Chuyển khoản ngân hàng",
	models.PaymentVNPay:        "VNPay",
}

var funcs = template.FuncMap{
	"vnd":     FormatVND,
	"status":  func(s models.OrderStatus) string { return statusLabels[s] },
	"payment": func(m models.PaymentMethod) string { return paymentLabels[m] },
}

const layoutHead = `<!DOCTYPE html>
<html lang="vi">
<head><meta charset="UTF-8"><title>{{.Shop}}</title></head>
<body style="margin:0;padding:20px;font-family:Arial,sans-serif;background-color:#f5f5f5;">
<div style="max-width:600px;margin:auto;background-color:#ffffff;padding:24px;border-radius:12px;">`

const layoutFoot = `<p style="margin-top:30px;color:#555;">Trân trọng,<br><strong>{{.Shop}}</strong></p>
</div></body></html>`

var confirmationTmpl = template.Must(template.New("confirmation").Funcs(funcs).Parse(layoutHead + `
<h2 style="color:#333;">Cảm ơn bạn đã đặt hàng!</h2>
<p>Xin chào {{.Order.CustomerInfo.FullName}},</p>
<p>Đơn hàng <strong>{{.Order.OrderNumber}}</strong> đã được ghi nhận.</p>
<table style="width:100%;border-collapse:collapse;margin:20px 0;">
<thead><tr style="background-color:#f0f0f0;">
<th style="padding:8px;text-align:left;border:1px solid #ddd;">Sản phẩm</th>
<th style="padding:8px;border:1px solid #ddd;">SL</th>
<th style="padding:8px;text-align:right;border:1px solid #ddd;">Đơn giá</th>
<th style="padding:8px;text-align:right;border:1px solid #ddd;">Thành tiền</th>
</tr></thead>
<tbody>{{range .Order.Items}}<tr>
<td style="padding:8px;border:1px solid #ddd;">{{.Name}}</td>
<td style="padding:8px;text-align:center;border:1px solid #ddd;">{{.Quantity}}</td>
<td style="padding:8px;text-align:right;border:1px solid #ddd;">{{vnd .Price}}</td>
<td style="padding:8px;text-align:right;border:1px solid #ddd;">{{vnd .LineTotal}}</td>
</tr>{{end}}</tbody>
<tfoot>
<tr><td colspan="3" style="padding:8px;text-align:right;">Tạm tính</td><td style="padding:8px;text-align:right;">{{vnd .Order.Subtotal}}</td></tr>
<tr><td colspan="3" style="padding:8px;text-align:right;">Phí vận chuyển</td><td style="padding:8px;text-align:right;">{{vnd .Order.ShippingFee}}</td></tr>
<tr><td colspan="3" style="padding:8px;text-align:right;font-weight:bold;">Tổng cộng</td><td style="padding:8px;text-align:right;font-weight:bold;">{{vnd .Order.Total}}</td></tr>
</tfoot>
</table>
<p>Phương thức thanh toán : {{payment .Order.PaymentMethod}}</p>
<p>Giao đến : {{.Order.CustomerInfo.Address}}, {{.Order.CustomerInfo.Ward}}, {{.Order.CustomerInfo.District}}, {{.Order.CustomerInfo.City}}</p>
` + layoutFoot))

var statusTmpl = template.Must(template.New("status").Funcs(funcs).Parse(layoutHead + `
<h2 style="color:#333;">Cập nhật đơn hàng {{.Order.OrderNumber}}</h2>
<p>Xin chào {{.Order.CustomerInfo.FullName}},</p>
<p>Trạng thái đơn hàng của bạn : <strong>{{status .Order.Status}}</strong></p>
{{if .Order.CancelReason}}<p>Lý do : {{.Order.CancelReason}}</p>{{end}}
<p>Tổng cộng : {{vnd .Order.Total}}</p>
` + layoutFoot))

var welcomeTmpl = template.Must(template.New("welcome").Funcs(funcs).Parse(layoutHead + `
<h2 style="color:#333;">Chào mừng {{.Name}} đến với {{.Shop}}!</h2>
<p>Tài khoản của bạn đã được tạo thành công.</p>
` + layoutFoot))

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func statusSubject(shop string, s models.OrderStatus) string {
	switch s {
	case models.OrderConfirmed:
		return "✅ Đơn hàng đã được xác nhận - " + shop
	case models.OrderShipping:
		return "📦 Đơn hàng đang được giao - " + shop
	case models.OrderDelivered:
		return "🎉 Đơn hàng đã giao thành công - " + shop
	case models.OrderCancelled:
		return "❌ Đơn hàng đã bị hủy - " + shop
	default:
		return "📋 Cập nhật đơn hàng - " + shop
	}
}
