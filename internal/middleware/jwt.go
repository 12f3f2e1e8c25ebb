package middleware

import (
	"context"
	"net/http"
	"strings"

	"smartshop_back_end/internal/auth"
	"smartshop_back_end/internal/errs"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// TokenResolver transforme un JWT en utilisateur authentifié
type TokenResolver interface {
	ViewerFromToken(ctx context.Context, token string) (*auth.Viewer, error)
}

// AuthOptional place l'utilisateur du header Authorization dans le contexte.
// Sans header la requête reste anonyme ; un token invalide donne 401.
func AuthOptional(resolver TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := auth.WithClientIP(c.Request.Context(), c.ClientIP())

		header := c.GetHeader("Authorization")
		if header == "" {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			AbortWithError(c, errs.ErrUnauthenticated)
			return
		}

		viewer, err := resolver.ViewerFromToken(ctx, strings.TrimSpace(parts[1]))
		if err != nil {
			log.Ctx(ctx).Debug().Err(err).Msg("❌ Token refusé")
			AbortWithError(c, err)
			return
		}

		ctx = auth.WithViewer(ctx, viewer)
		logger := log.Ctx(ctx).With().Str("user_id", viewer.UserID.String()).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(ctx))
		c.Next()
	}
}

// RequireAuth refuse les requêtes anonymes (routes REST)
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := auth.Require(c.Request.Context()); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// AbortWithError répond {error, code} avec le statut HTTP associé à l'erreur
func AbortWithError(c *gin.Context, err error) {
	status := errs.StatusCode(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError && !errs.IsClientError(err) {
		msg = errs.ErrInternal.Error()
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "code": errs.Code(err)})
}
