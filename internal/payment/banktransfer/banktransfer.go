// Package banktransfer prépare les instructions de virement et le QR VietQR associé.
package banktransfer

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"smartshop_back_end/internal/config"
	"smartshop_back_end/internal/models"

	"github.com/skip2/go-qrcode"
)

// Content est le libellé que le client doit reporter dans son virement
func Content(orderNumber string) string {
	return "SS " + orderNumber
}

// Instructions renvoie les coordonnées bancaires et le QR (data URL PNG) de la commande
func Instructions(cfg config.BankTransferConfig, o *models.Order) (*models.BankTransferInfo, error) {
	info := &models.BankTransferInfo{
		BankName:      cfg.BankName,
		AccountNumber: cfg.AccountNumber,
		AccountName:   cfg.AccountName,
		Amount:        o.Total,
		Content:       Content(o.OrderNumber),
	}

	if cfg.BankBIN == "" || cfg.AccountNumber == "" {
		return info, nil
	}
	qr, err := GenerateQR(VietQRPayload(cfg.BankBIN, cfg.AccountNumber, o.Total, info.Content))
	if err != nil {
		return nil, fmt.Errorf("génération QR virement: %w", err)
	}
	info.QRCode = qr
	return info, nil
}

// GenerateQR encode le payload en PNG base64 prêt pour <img src="...">
func GenerateQR(payload string) (string, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

func tlv(id, value string) string {
	return fmt.Sprintf("%s%02d%s", id, len(value), value)
}

// VietQRPayload construit un QR EMVCo dynamique (Napas 247) lisible par les applis bancaires
func VietQRPayload(bankBIN, accountNumber string, amount int64, content string) string {
	beneficiary := tlv("00", bankBIN) + tlv("01", accountNumber)
	merchant := tlv("00", "A000000727") + tlv("01", beneficiary) + tlv("02", "QRIBFTTA")

	var b strings.Builder
	b.WriteString(tlv("00", "01"))
	b.WriteString(tlv("01", "12"))
	b.WriteString(tlv("38", merchant))
	b.WriteString(tlv("53", "704"))
	b.WriteString(tlv("54", strconv.FormatInt(amount, 10)))
	b.WriteString(tlv("58", "VN"))
	b.WriteString(tlv("62", tlv("08", content)))
	b.WriteString("6304")

	payload := b.String()
	return payload + fmt.Sprintf("%04X", crc16(payload))
}

// crc16 : CRC-16/CCITT-FALSE (poly 0x1021, init 0xFFFF) exigé par EMVCo
func crc16(s string) uint16 {
	crc := uint16(0xFFFF)
	for i := 0; i < len(s); i++ {
		crc ^= uint16(s[i]) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
