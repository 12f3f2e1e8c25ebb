// Package handlers porte les routes REST qui complètent GraphQL : images, IPN VNPay, websocket panier, santé.
package handlers

import (
	"context"

	"smartshop_back_end/internal/services"
)

// Check vérifie une dépendance externe pour /healthz
type Check func(ctx context.Context) error

type Handler struct {
	svc     *services.Services
	origins []string
	checks  map[string]Check
}

// New : origins sert au contrôle d'origine du websocket, checks aux sondes de santé
func New(svc *services.Services, origins []string, checks map[string]Check) *Handler {
	if checks == nil {
		checks = map[string]Check{}
	}
	return &Handler{svc: svc, origins: origins, checks: checks}
}
