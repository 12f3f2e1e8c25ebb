package routes

import (
	"time"

	"smartshop_back_end/internal/cache"
	"smartshop_back_end/internal/config"
	"smartshop_back_end/internal/graph"
	"smartshop_back_end/internal/handlers"
	"smartshop_back_end/internal/middleware"
	"smartshop_back_end/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
)

type Deps struct {
	Config   *config.Config
	Services *services.Services
	Schema   graphql.Schema
	Handler  *handlers.Handler
	Counter  cache.Counter
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

// RegisterRoutes branche GraphQL et les quelques routes REST
func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(
		gin.Recovery(),
		middleware.Logger(),
		cors.New(corsConfig(d.Config.CORSOrigins)),
	)

	r.GET("/healthz", d.Handler.Health)

	api := r.Group("/")
	api.Use(
		middleware.RateLimit(d.Counter, d.Config.RateLimitRPM),
		middleware.AuthOptional(d.Services.Auth),
	)

	gql := graph.Handler(d.Schema)
	api.POST("/", gql)
	api.GET("/", gql)

	api.GET("/images/:filename", d.Handler.ServeImage)
	api.POST("/api/upload", middleware.RequireAuth(), d.Handler.UploadImage)
	api.GET("/api/payment/vnpay/ipn", d.Handler.VnpayIPN)
	api.GET("/ws/cart", d.Handler.CartWebSocket)
}
