package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smartshop_back_end/internal/cache"
	"smartshop_back_end/internal/config"
	"smartshop_back_end/internal/database"
	"smartshop_back_end/internal/events"
	"smartshop_back_end/internal/graph"
	"smartshop_back_end/internal/handlers"
	"smartshop_back_end/internal/jobs"
	"smartshop_back_end/internal/logger"
	"smartshop_back_end/internal/notify"
	"smartshop_back_end/internal/repository"
	"smartshop_back_end/internal/repository/memory"
	"smartshop_back_end/internal/repository/scylla"
	"smartshop_back_end/internal/routes"
	"smartshop_back_end/internal/search"
	"smartshop_back_end/internal/services"
	"smartshop_back_end/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	logger.Setup(cfg.Env, cfg.LogLevel)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("❌ Arrêt du serveur")
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conns, err := database.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connexions: %w", err)
	}
	defer conns.Close()

	store, err := newStore(cfg, conns)
	if err != nil {
		return err
	}

	deps := services.Deps{
		Config: cfg,
		Store:  store,
		Events: newPublisher(cfg),
		Mailer: newMailer(cfg),
	}
	counter := cache.Counter(cache.NewMemoryCounter())
	checks := map[string]handlers.Check{}

	if conns.Redis != nil {
		deps.Carts = cache.NewRedisCartStore(conns.Redis)
		deps.Cache = cache.NewRedisJSONCache(conns.Redis)
		deps.Attempts = cache.NewRedisAttempts(conns.Redis)
		counter = cache.NewRedisCounter(conns.Redis)
		checks["redis"] = func(ctx context.Context) error { return conns.Redis.Ping(ctx).Err() }
	}
	if conns.Elastic != nil {
		deps.Search = search.NewElasticIndex(conns.Elastic, cfg.Elastic.Index)
	}
	if conns.MinIO != nil {
		deps.Images = storage.NewMinIOStore(conns.MinIO, cfg.MinIO.Bucket)
	} else {
		log.Warn().Msg("⚠️ MINIO_ENDPOINT non configuré — images en mémoire")
	}
	if conns.Scylla != nil {
		checks["scylla"] = func(ctx context.Context) error {
			session, err := conns.Scylla.GetSession(cfg.Scylla.ProductsKeyspace)
			if err != nil {
				return err
			}
			return session.Query("SELECT release_version FROM system.local").WithContext(ctx).Exec()
		}
	}
	defer func() {
		if err := deps.Events.Close(); err != nil {
			log.Warn().Err(err).Msg("⚠️ Fermeture Kafka")
		}
	}()

	svc := services.New(deps)
	if cfg.VNPay.TmnCode == "" {
		// commandes VNPAY refusées, COD et virement restent disponibles
		log.Warn().Msg("⚠️ VNPAY_TMN_CODE non configuré — paiement VNPay désactivé")
	}

	schema, err := graph.NewSchema(svc)
	if err != nil {
		return fmt.Errorf("schéma GraphQL: %w", err)
	}

	scheduler, err := jobs.Start(svc.Orders, jobs.ExpiryInterval, time.Now)
	if err != nil {
		return err
	}
	defer scheduler.Shutdown()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	routes.RegisterRoutes(r, routes.Deps{
		Config:   cfg,
		Services: svc,
		Schema:   schema,
		Handler:  handlers.New(svc, cfg.CORSOrigins, checks),
		Counter:  counter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("storage", cfg.StorageDriver).Msg("🚀 Serveur SmartShop lancé")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("🛑 Arrêt demandé, fermeture des connexions…")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("arrêt HTTP: %w", err)
	}
	log.Info().Msg("👋 Serveur arrêté")
	return nil
}

func newStore(cfg *config.Config, conns *database.Connections) (*repository.Store, error) {
	if conns.Scylla == nil {
		log.Warn().Msg("⚠️ STORAGE_DRIVER=memory — les données sont perdues à l'arrêt")
		return memory.New(), nil
	}
	store, err := scylla.New(conns.Scylla, cfg.Scylla)
	if err != nil {
		return nil, fmt.Errorf("dépôt ScyllaDB: %w", err)
	}
	return store, nil
}

func newPublisher(cfg *config.Config) events.Publisher {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Warn().Msg("⚠️ KAFKA_BROKERS non configuré — événements commande désactivés")
		return events.NoopPublisher{}
	}
	return events.NewKafkaPublisher(cfg.Kafka)
}

func newMailer(cfg *config.Config) notify.Mailer {
	if cfg.SMTP.Host == "" {
		log.Warn().Msg("⚠️ SMTP_HOST non configuré — emails désactivés")
		return notify.NoopMailer{}
	}
	m, err := notify.NewSMTPMailer(cfg.SMTP, cfg.Shop.Name)
	if err != nil {
		log.Error().Err(err).Msg("❌ Client SMTP — emails désactivés")
		return notify.NoopMailer{}
	}
	return m
}
