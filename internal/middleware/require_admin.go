package middleware

import (
	"smartshop_back_end/internal/auth"

	"github.com/gin-gonic/gin"
)

// RequireStaff vérifie que l'utilisateur est admin ou manager
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := auth.RequireStaff(c.Request.Context()); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
