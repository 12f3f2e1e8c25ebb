// Package vnpay construit les URL de paiement VNPay (v2.1.0) et vérifie les retours signés.
package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"smartshop_back_end/internal/config"
	"smartshop_back_end/internal/errs"
	"smartshop_back_end/internal/models"
)

const (
	Version    = "2.1.0"
	DateLayout = "20060102150405"

	CodeSuccess = "00"
)

// VNPay attend des dates en heure du Vietnam (UTC+7, sans heure d'été)
var Location = time.FixedZone("ICT", 7*60*60)

type Client struct {
	cfg config.VNPayConfig
}

func New(cfg config.VNPayConfig) *Client {
	return &Client{cfg: cfg}
}

func (c *Client) Enabled() bool {
	return c.cfg.TmnCode != "" && c.cfg.HashSecret != ""
}

// BuildPaymentURL signe les paramètres de la commande et renvoie l'URL de redirection
func (c *Client) BuildPaymentURL(o *models.Order, clientIP string, now time.Time) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("%w: VNPay non configuré", errs.ErrUnavailable)
	}
	if clientIP == "" {
		clientIP = "127.0.0.1"
	}

	expires := now.Add(time.Duration(c.cfg.ExpireMinutes) * time.Minute)
	if o.PaymentExpiresAt != nil {
		expires = *o.PaymentExpiresAt
	}

	params := url.Values{}
	params.Set("vnp_Version", Version)
	params.Set("vnp_Command", "pay")
	params.Set("vnp_TmnCode", c.cfg.TmnCode)
	params.Set("vnp_Amount", strconv.FormatInt(o.Total*100, 10))
	params.Set("vnp_CurrCode", "VND")
	params.Set("vnp_TxnRef", o.OrderNumber)
	params.Set("vnp_OrderInfo", "Thanh toan don hang "+o.OrderNumber)
	params.Set("vnp_OrderType", "other")
	params.Set("vnp_Locale", "vn")
	params.Set("vnp_ReturnUrl", c.cfg.ReturnURL)
	params.Set("vnp_IpAddr", clientIP)
	params.Set("vnp_CreateDate", now.In(Location).Format(DateLayout))
	params.Set("vnp_ExpireDate", expires.In(Location).Format(DateLayout))

	query := params.Encode()
	return c.cfg.PayURL + "?" + query + "&vnp_SecureHash=" + c.sign(query), nil
}

// sign : HMAC-SHA512 hexadécimal de la chaîne encodée (clés triées)
func (c *Client) sign(data string) string {
	mac := hmac.New(sha512.New, []byte(c.cfg.HashSecret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyReturn recalcule la signature des paramètres vnp_* reçus
func (c *Client) VerifyReturn(values url.Values) bool {
	received := values.Get("vnp_SecureHash")
	if received == "" {
		return false
	}

	signed := url.Values{}
	for key, v := range values {
		if !strings.HasPrefix(key, "vnp_") || key == "vnp_SecureHash" || key == "vnp_SecureHashType" {
			continue
		}
		if len(v) > 0 && v[0] != "" {
			signed.Set(key, v[0])
		}
	}

	expected := c.sign(signed.Encode())
	return hmac.Equal([]byte(strings.ToLower(received)), []byte(expected))
}

// Return est le résultat décodé d'un retour ou d'une IPN VNPay
type Return struct {
	OrderNumber       string
	Amount            int64 // en VND (vnp_Amount / 100)
	RawAmount         int64 // vnp_Amount tel que reçu
	ResponseCode      string
	TransactionStatus string
	TransactionNo     string
	BankCode          string
	PayDate           string
}

func (r Return) Success() bool {
	if r.TransactionStatus != "" && r.TransactionStatus != CodeSuccess {
		return false
	}
	return r.ResponseCode == CodeSuccess
}

// Matches compare le montant reçu, sans arrondi, au total de la commande
func (r Return) Matches(total int64) bool {
	return r.RawAmount == total*100
}

// PaidAt interprète vnp_PayDate ; zéro si absent ou illisible
func (r Return) PaidAt() time.Time {
	t, err := time.ParseInLocation(DateLayout, r.PayDate, Location)
	if err != nil {
		return time.Time{}
	}
	return t
}

func ParseReturn(values url.Values) (Return, error) {
	r := Return{
		OrderNumber:       values.Get("vnp_TxnRef"),
		ResponseCode:      values.Get("vnp_ResponseCode"),
		TransactionStatus: values.Get("vnp_TransactionStatus"),
		TransactionNo:     values.Get("vnp_TransactionNo"),
		BankCode:          values.Get("vnp_BankCode"),
		PayDate:           values.Get("vnp_PayDate"),
	}
	if r.OrderNumber == "" {
		return r, fmt.Errorf("%w: vnp_TxnRef manquant", errs.ErrInvalidInput)
	}
	amount, err := strconv.ParseInt(values.Get("vnp_Amount"), 10, 64)
	if err != nil {
		return r, fmt.Errorf("%w: vnp_Amount invalide", errs.ErrInvalidInput)
	}
	r.RawAmount = amount
	r.Amount = amount / 100
	return r, nil
}

var responseMessages = map[string]string{
	"00": "Giao dịch thành công",
	"07": "Trừ tiền thành công. Giao dịch bị nghi ngờ (liên quan tới lừa đảo, giao dịch bất thường)",
	"09": "Thẻ/Tài khoản chưa đăng ký dịch vụ InternetBanking tại ngân hàng",
	"10": "Xác thực thông tin thẻ/tài khoản không đúng quá 3 lần",
	"11": "Đã hết hạn chờ thanh toán. Xin quý khách vui lòng thực hiện lại giao dịch",
	"12": "Thẻ/Tài khoản bị khóa",
	"13": "Nhập sai mật khẩu xác thực giao dịch (OTP)",
	"24": "Khách hàng hủy giao dịch",
	"51": "Tài khoản không đủ số dư để thực hiện giao dịch",
	"65": "Tài khoản đã vượt quá hạn mức giao dịch trong ngày",
	"75": "Ngân hàng thanh toán đang bảo trì",
	"79": "Nhập sai mật khẩu thanh toán quá số lần quy định",
	"99": "Các lỗi khác",
}

// ResponseMessage traduit vnp_ResponseCode pour l'affichage client
func ResponseMessage(code string) string {
	if msg, ok := responseMessages[code]; ok {
		return msg
	}
	return responseMessages["99"]
}
