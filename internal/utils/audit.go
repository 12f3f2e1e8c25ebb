package utils

import (
	"context"

	"github.com/rs/zerolog/log"
)

// AuditActor est l'auteur d'une action d'administration
type AuditActor struct {
	UserID string
	Email  string
	Role   string
}

// LogAction enregistre une action d'administration dans le flux de logs (champ audit=true)
func LogAction(ctx context.Context, actor AuditActor, action, resource, resourceID string, details map[string]any) {
	event := log.Ctx(ctx).Info().
		Bool("audit", true).
		Str("action", action).
		Str("resource", resource).
		Str("resource_id", resourceID).
		Str("user_id", actor.UserID).
		Str("email", actor.Email).
		Str("role", actor.Role)
	if len(details) > 0 {
		event = event.Fields(details)
	}
	event.Msg("📝 Action admin")
}

// LogFailedAction enregistre une action refusée ou en échec
func LogFailedAction(ctx context.Context, actor AuditActor, action, resource, resourceID string, err error) {
	log.Ctx(ctx).Warn().
		Bool("audit", true).
		Str("action", action).
		Str("resource", resource).
		Str("resource_id", resourceID).
		Str("user_id", actor.UserID).
		Err(err).
		Msg("🚫 Action admin échouée")
}
