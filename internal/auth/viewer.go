// Package auth transporte l'utilisateur authentifié dans le contexte de la requête.
package auth

import (
	"context"

	"smartshop_back_end/internal/errs"
	"smartshop_back_end/internal/models"
	"smartshop_back_end/internal/utils"

	"github.com/gocql/gocql"
)

type Viewer struct {
	UserID gocql.UUID
	Email  string
	Role   models.Role
}

func (v *Viewer) IsStaff() bool {
	return v != nil && v.Role.IsStaff()
}

func (v *Viewer) Actor() utils.AuditActor {
	return utils.AuditActor{UserID: v.UserID.String(), Email: v.Email, Role: string(v.Role)}
}

type ctxKey int

const (
	viewerKey ctxKey = iota
	clientIPKey
)

func WithViewer(ctx context.Context, v *Viewer) context.Context {
	return context.WithValue(ctx, viewerKey, v)
}

// FromContext renvoie nil pour une requête anonyme
func FromContext(ctx context.Context) *Viewer {
	v, _ := ctx.Value(viewerKey).(*Viewer)
	return v
}

func Require(ctx context.Context) (*Viewer, error) {
	v := FromContext(ctx)
	if v == nil {
		return nil, errs.ErrUnauthenticated
	}
	return v, nil
}

// RequireStaff : admin ou manager
func RequireStaff(ctx context.Context) (*Viewer, error) {
	v, err := Require(ctx)
	if err != nil {
		return nil, err
	}
	if !v.Role.IsStaff() {
		return nil, errs.ErrForbidden
	}
	return v, nil
}

func RequireAdmin(ctx context.Context) (*Viewer, error) {
	v, err := Require(ctx)
	if err != nil {
		return nil, err
	}
	if v.Role != models.RoleAdmin {
		return nil, errs.ErrForbidden
	}
	return v, nil
}

func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}
