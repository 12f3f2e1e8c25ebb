package scylla

import (
	"context"
	"fmt"
	"strings"

	"smartshop_back_end/internal/errs"
	"smartshop_back_end/internal/models"

	"github.com/gocql/gocql"
)

type UserRepository struct {
	session *gocql.Session
}

// Create réserve l'email via une LWT sur users_by_email puis écrit l'utilisateur
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	email := strings.ToLower(u.Email)

	var existing gocql.UUID
	applied, err := r.session.Query(`INSERT INTO users_by_email (email, user_id) VALUES (?, ?) IF NOT EXISTS`,
		email, u.ID).WithContext(ctx).ScanCAS(nil, &existing)
	if err != nil {
		return fmt.Errorf("réservation email: %w", err)
	}
	if !applied {
		return errs.ErrEmailAlreadyUsed
	}

	err = r.session.Query(`INSERT INTO users (user_id, name, email, password, phone, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, email, u.PasswordHash, u.Phone, string(u.Role), u.CreatedAt).WithContext(ctx).Exec()
	if err != nil {
		// libère l'email pour ne pas bloquer une nouvelle tentative
		_ = r.session.Query(`DELETE FROM users_by_email WHERE email = ?`, email).WithContext(ctx).Exec()
		return fmt.Errorf("insertion utilisateur: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id gocql.UUID) (*models.User, error) {
	var (
		u    models.User
		role string
	)
	err := r.session.Query(`SELECT user_id, name, email, password, phone, role, created_at FROM users WHERE user_id = ?`, id).
		WithContext(ctx).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Phone, &role, &u.CreatedAt)
	if err != nil {
		return nil, wrapNotFound(err, "utilisateur", id)
	}
	u.Role = models.Role(role)
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var id gocql.UUID
	err := r.session.Query(`SELECT user_id FROM users_by_email WHERE email = ?`, strings.ToLower(email)).
		WithContext(ctx).Scan(&id)
	if err != nil {
		return nil, wrapNotFound(err, "utilisateur", email)
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) UpdateRole(ctx context.Context, id gocql.UUID, role models.Role) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return r.session.Query(`UPDATE users SET role = ? WHERE user_id = ?`, string(role), id).WithContext(ctx).Exec()
}
