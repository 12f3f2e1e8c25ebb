package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// VnpayIPN répond toujours 200 : VNPay lit le résultat dans {RspCode, Message}
func (h *Handler) VnpayIPN(c *gin.Context) {
	ctx := c.Request.Context()
	resp := h.svc.Payments.HandleIPN(ctx, c.Request.URL.Query())
	log.Ctx(ctx).Info().
		Str("txn_ref", c.Query("vnp_TxnRef")).
		Str("rsp_code", resp.RspCode).
		Msg("💳 IPN VNPay")
	c.JSON(http.StatusOK, resp)
}
