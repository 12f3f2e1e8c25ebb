package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"smartshop_back_end/internal/auth"
	"smartshop_back_end/internal/errs"
	"smartshop_back_end/internal/models"
	"smartshop_back_end/internal/utils"

	"github.com/gocql/gocql"
	"github.com/rs/zerolog/log"
)

const (
	LoginMaxAttempts    = 5
	RegisterMaxAttempts = 3

	LoginCooldown    = 15 * time.Minute
	RegisterCooldown = 30 * time.Minute
)

type AuthService struct {
	deps Deps
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Phone    string `json:"phone" validate:"omitempty,vnphone"`
}

type AuthPayload struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthPayload, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = normalizePhone(in.Phone)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	ip := auth.ClientIP(ctx)
	if ip != "" {
		if err := s.checkCooldown(ctx, "register", ip); err != nil {
			return nil, err
		}
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash mot de passe: %w", err)
	}

	user := &models.User{
		ID:           models.NewID(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Phone:        in.Phone,
		Role:         models.RoleCustomer,
		CreatedAt:    s.deps.Now(),
	}
	if err := s.deps.Store.Users.Create(ctx, user); err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("user_id", user.ID.String()).Msg("👤 Nouveau compte client")
	if ip != "" {
		s.hit(ctx, "register", ip, RegisterMaxAttempts, RegisterCooldown)
	}

	s.deps.background("welcome_email", func(ctx context.Context) error {
		return s.deps.Mailer.Welcome(ctx, user)
	})
	return s.payload(user)
}

// Login renvoie la même erreur pour un email inconnu et un mauvais mot de passe.
// Après LoginMaxAttempts échecs l'email est bloqué pendant LoginCooldown.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthPayload, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.checkCooldown(ctx, "login", email); err != nil {
		return nil, err
	}

	user, err := s.deps.Store.Users.GetByEmail(ctx, email)
	if errors.Is(err, errs.ErrNotFound) {
		s.hit(ctx, "login", email, LoginMaxAttempts, LoginCooldown)
		return nil, errs.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := utils.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		s.hit(ctx, "login", email, LoginMaxAttempts, LoginCooldown)
		return nil, errs.ErrInvalidCredentials
	}
	if err := s.deps.Attempts.Reset(ctx, "login", email); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("⚠️ Réinitialisation des tentatives de connexion")
	}
	return s.payload(user)
}

// checkCooldown : si le compteur est indisponible, on laisse passer
func (s *AuthService) checkCooldown(ctx context.Context, scope, subject string) error {
	left, err := s.deps.Attempts.Cooldown(ctx, scope, subject)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("scope", scope).Msg("⚠️ Compteur de tentatives indisponible")
		return nil
	}
	if left > 0 {
		minutes := int(left.Round(time.Minute).Minutes())
		if minutes < 1 {
			minutes = 1
		}
		return fmt.Errorf("%w: réessayez dans %d minutes", errs.ErrRateLimited, minutes)
	}
	return nil
}

func (s *AuthService) hit(ctx context.Context, scope, subject string, limit int, cooldown time.Duration) {
	blocked, err := s.deps.Attempts.Hit(ctx, scope, subject, limit, cooldown)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("scope", scope).Msg("⚠️ Compteur de tentatives indisponible")
		return
	}
	if blocked {
		log.Ctx(ctx).Warn().Str("scope", scope).Dur("cooldown", cooldown).Msg("🚫 Trop de tentatives, cooldown activé")
	}
}

func (s *AuthService) payload(user *models.User) (*AuthPayload, error) {
	token, err := utils.GenerateJWT(*user, s.deps.Config.JWTSecret, s.deps.Config.JWTTTL, s.deps.Now())
	if err != nil {
		return nil, fmt.Errorf("génération token: %w", err)
	}
	return &AuthPayload{Token: token, User: user}, nil
}

// Me renvoie nil pour un visiteur anonyme
func (s *AuthService) Me(ctx context.Context) (*models.User, error) {
	v := auth.FromContext(ctx)
	if v == nil {
		return nil, nil
	}
	return s.deps.Store.Users.GetByID(ctx, v.UserID)
}

// ViewerFromToken valide un JWT et construit le Viewer de la requête.
// Un token staff est confronté au rôle en base : une rétrogradation prend effet
// sans attendre l'expiration du token.
func (s *AuthService) ViewerFromToken(ctx context.Context, token string) (*auth.Viewer, error) {
	claims, err := utils.ParseJWT(token, s.deps.Config.JWTSecret, s.deps.Now())
	if err != nil {
		return nil, err
	}
	id, err := models.ParseID(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: user_id invalide", errs.ErrUnauthenticated)
	}
	v := &auth.Viewer{UserID: id, Email: claims.Email, Role: claims.Role}
	if !claims.Role.IsStaff() {
		return v, nil
	}

	user, err := s.deps.Store.Users.GetByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, fmt.Errorf("%w: compte supprimé", errs.ErrUnauthenticated)
	}
	if err != nil {
		return nil, err
	}
	if user.Role != claims.Role {
		log.Ctx(ctx).Info().Str("user_id", id.String()).Str("token_role", string(claims.Role)).Str("role", string(user.Role)).Msg("🔁 Rôle du token périmé, rôle en base appliqué")
		v.Role = user.Role
	}
	return v, nil
}

// UpdateUserRole est réservé aux administrateurs
func (s *AuthService) UpdateUserRole(ctx context.Context, userID gocql.UUID, role models.Role) (*models.User, error) {
	v, err := auth.RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, invalid("rôle inconnu %q", role)
	}
	if userID == v.UserID && role != models.RoleAdmin {
		return nil, invalid("un administrateur ne peut pas se retirer ses propres droits")
	}
	if err := s.deps.Store.Users.UpdateRole(ctx, userID, role); err != nil {
		return nil, err
	}
	utils.LogAction(ctx, v.Actor(), "update_role", "user", userID.String(), map[string]any{"role": role})
	return s.deps.Store.Users.GetByID(ctx, userID)
}

func (s *AuthService) User(ctx context.Context, id gocql.UUID) (*models.User, error) {
	return s.deps.Store.Users.GetByID(ctx, id)
}
