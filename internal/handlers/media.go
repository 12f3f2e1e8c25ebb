package handlers

import (
	"net/http"

	"smartshop_back_end/internal/errs"
	"smartshop_back_end/internal/middleware"
	"smartshop_back_end/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const imageCacheControl = "public, max-age=86400"

// UploadImage reçoit le champ multipart "file" et renvoie {filename, url}
func (h *Handler) UploadImage(c *gin.Context) {
	// marge pour l'enveloppe multipart
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxImageSize+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		middleware.AbortWithError(c, errs.ErrInvalidInput)
		return
	}
	f, err := fh.Open()
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	defer f.Close()

	result, err := h.svc.Images.Upload(c.Request.Context(), f, fh.Size)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// ServeImage diffuse une image stockée avec son type MIME et un cache d'une journée
func (h *Handler) ServeImage(c *gin.Context) {
	ctx := c.Request.Context()
	rc, info, err := h.svc.Images.Open(ctx, c.Param("filename"))
	if err != nil {
		if !errs.IsClientError(err) {
			log.Ctx(ctx).Error().Err(err).Str("filename", c.Param("filename")).Msg("❌ Lecture image")
		}
		middleware.AbortWithError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Cache-Control", imageCacheControl)
	c.DataFromReader(http.StatusOK, info.Size, info.ContentType, rc, nil)
}
