// Package jobs planifie les tâches périodiques du serveur.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

const (
	ExpiryInterval = time.Minute
	expiryTimeout  = 30 * time.Second
)

// Expirer annule les commandes dont le délai de paiement est dépassé
type Expirer interface {
	ExpireUnpaid(ctx context.Context, now time.Time) (int, error)
}

type Scheduler struct {
	scheduler gocron.Scheduler
}

// Start lance l'expiration des paiements VNPay toutes les interval
func Start(expirer Expirer, interval time.Duration, now func() time.Time) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("création du scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), expiryTimeout)
			defer cancel()
			RunExpiry(ctx, expirer, now())
		}),
		gocron.WithName("expire_unpaid_orders"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("planification expiration: %w", err)
	}

	s.Start()
	log.Info().Dur("interval", interval).Msg("⏱️ Scheduler démarré")
	return &Scheduler{scheduler: s}, nil
}

func RunExpiry(ctx context.Context, expirer Expirer, now time.Time) {
	n, err := expirer.ExpireUnpaid(ctx, now)
	if err != nil {
		log.Error().Err(err).Msg("❌ Expiration des commandes impayées")
		return
	}
	if n > 0 {
		log.Info().Int("count", n).Msg("⏰ Commandes expirées")
	}
}

func (s *Scheduler) Shutdown() error {
	return s.scheduler.Shutdown()
}
