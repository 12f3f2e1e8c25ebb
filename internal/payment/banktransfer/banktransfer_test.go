package banktransfer

import (
	"strings"
	"testing"

	"smartshop_back_end/internal/config"
	"smartshop_back_end/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRC16_KnownVector(t *testing.T) {
	// valeur de contrôle CRC-16/CCITT-FALSE
	assert.Equal(t, uint16(0x29B1), crc16("123456789"))
}

func TestVietQRPayload(t *testing.T) {
	p := VietQRPayload("970436", "0011001234567", 1250000, "SS SS250301000001")

	assert.True(t, strings.HasPrefix(p, "000201010212"))
	assert.Contains(t, p, "0006970436")
	assert.Contains(t, p, "01130011001234567")
	assert.Contains(t, p, "5303704")
	assert.Contains(t, p, "54071250000")
	assert.Contains(t, p, "5802VN")
	assert.Contains(t, p, "0817SS SS250301000001")

	body, crc := p[:len(p)-4], p[len(p)-4:]
	require.True(t, strings.HasSuffix(body, "6304"))
	assert.Regexp(t, `^[0-9A-F]{4}$`, crc)
}

func TestInstructions(t *testing.T) {
	cfg := config.BankTransferConfig{
		BankName:      "Vietcombank",
		BankBIN:       "970436",
		AccountNumber: "0011001234567",
		AccountName:   "CONG TY SMARTSHOP",
	}
	o := &models.Order{OrderNumber: "SS250301000001", Total: 530000}

	info, err := Instructions(cfg, o)
	require.NoError(t, err)
	assert.Equal(t, "Vietcombank", info.BankName)
	assert.Equal(t, int64(530000), info.Amount)
	assert.Equal(t, "SS SS250301000001", info.Content)
	assert.True(t, strings.HasPrefix(info.QRCode, "data:image/png;base64,"))

	cfg.BankBIN = ""
	info, err = Instructions(cfg, o)
	require.NoError(t, err)
	assert.Empty(t, info.QRCode)
}
