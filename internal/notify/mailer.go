// Package notify envoie les emails transactionnels (confirmation, statut, bienvenue).
package notify

import (
	"context"
	"fmt"

	"smartshop_back_end/internal/config"
	"smartshop_back_end/internal/infrastructure/circuitbreaker"
	"smartshop_back_end/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
	"github.com/wneessen/go-mail"
)

type Mailer interface {
	OrderConfirmation(ctx context.Context, o *models.Order) error
	OrderStatusChanged(ctx context.Context, o *models.Order) error
	Welcome(ctx context.Context, u *models.User) error
}

// sender isole l'envoi SMTP pour les tests
type sender func(ctx context.Context, msg *mail.Msg) error

type SMTPMailer struct {
	from    string
	shop    string
	send    sender
	breaker *gobreaker.CircuitBreaker[struct{}]
}

func NewSMTPMailer(cfg config.SMTPConfig, shopName string) (*SMTPMailer, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return nil, fmt.Errorf("client SMTP: %w", err)
	}
	return newMailer(cfg.From, shopName, client.DialAndSendWithContext), nil
}

func newMailer(from, shop string, send func(context.Context, ...*mail.Msg) error) *SMTPMailer {
	return &SMTPMailer{
		from:    from,
		shop:    shop,
		send:    func(ctx context.Context, msg *mail.Msg) error { return send(ctx, msg) },
		breaker: circuitbreaker.CreateCircuitBreaker[struct{}]("smtp"),
	}
}

func (m *SMTPMailer) deliver(ctx context.Context, to, subject, html string) error {
	if to == "" {
		return nil
	}
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, html)

	_, err := m.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, m.send(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("envoi email à %s: %w", to, err)
	}
	log.Info().Str("to", to).Str("subject", subject).Msg("📤 Email envoyé")
	return nil
}

func (m *SMTPMailer) OrderConfirmation(ctx context.Context, o *models.Order) error {
	html, err := render(confirmationTmpl, map[string]any{"Order": o, "Shop": m.shop})
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("🛒 Xác nhận đơn hàng %s - %s", o.OrderNumber, m.shop)
	return m.deliver(ctx, o.CustomerInfo.Email, subject, html)
}

func (m *SMTPMailer) OrderStatusChanged(ctx context.Context, o *models.Order) error {
	html, err := render(statusTmpl, map[string]any{"Order": o, "Shop": m.shop})
	if err != nil {
		return err
	}
	return m.deliver(ctx, o.CustomerInfo.Email, statusSubject(m.shop, o.Status), html)
}

func (m *SMTPMailer) Welcome(ctx context.Context, u *models.User) error {
	html, err := render(welcomeTmpl, map[string]any{"Name": u.Name, "Shop": m.shop})
	if err != nil {
		return err
	}
	return m.deliver(ctx, u.Email, "🎉 Chào mừng đến với "+m.shop, html)
}

// NoopMailer quand SMTP_HOST est vide
type NoopMailer struct{}

func (NoopMailer) OrderConfirmation(context.Context, *models.Order) error  { return nil }
func (NoopMailer) OrderStatusChanged(context.Context, *models.Order) error { return nil }
func (NoopMailer) Welcome(context.Context, *models.User) error             { return nil }
