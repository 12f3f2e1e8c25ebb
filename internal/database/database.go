package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"smartshop_back_end/internal/config"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// --- Configuration ScyllaDB ---
type ScyllaKeyspaceConfig struct {
	Hosts       []string
	Keyspace    string
	Username    string
	Password    string
	SSLEnabled  bool
	CACertPath  string
	Timeout     time.Duration
	NumConns    int
	Consistency gocql.Consistency
}

type ScyllaManager struct {
	sessions map[string]*gocql.Session // keyspace → session
	configs  map[string]ScyllaKeyspaceConfig
	mu       sync.Mutex
}

// Connections regroupe les clients des services externes ; un champ nil = service désactivé
type Connections struct {
	Scylla  *ScyllaManager
	Redis   *redis.Client
	Elastic *elasticsearch.Client
	MinIO   *minio.Client
}

// Connect initialise les connexions configurées
func Connect(ctx context.Context, cfg *config.Config) (*Connections, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	conns := &Connections{}

	if cfg.StorageDriver == config.DriverScylla {
		conns.Scylla = NewScyllaManager(cfg.Scylla)
		if cfg.Scylla.AutoMigrate {
			if err := EnsureSchema(cfg.Scylla); err != nil {
				return nil, fmt.Errorf("migration ScyllaDB: %w", err)
			}
		}
		for keyspace := range conns.Scylla.configs {
			if _, err := conns.Scylla.GetSession(keyspace); err != nil {
				return nil, fmt.Errorf("échec initialisation keyspace %s: %w", keyspace, err)
			}
		}
	}

	if cfg.Redis.Addr != "" {
		client, err := connectRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		conns.Redis = client
	} else {
		log.Warn().Msg("⚠️ REDIS_HOST non configuré — panier et cache en mémoire")
	}

	if cfg.Elastic.URL != "" {
		client, err := connectElastic(cfg.Elastic)
		if err != nil {
			// la recherche retombe sur le filtre catalogue
			log.Error().Err(err).Msg("❌ Elasticsearch indisponible — recherche de secours activée")
		} else {
			conns.Elastic = client
		}
	}

	if cfg.MinIO.Endpoint != "" {
		client, err := connectMinIO(ctx, cfg.MinIO)
		if err != nil {
			return nil, err
		}
		conns.MinIO = client
	}

	log.Info().Msg("✅ Connexions initialisées")
	return conns, nil
}

// Close ferme toutes les connexions ouvertes
func (c *Connections) Close() {
	if c.Scylla != nil {
		c.Scylla.Close()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Warn().Err(err).Msg("⚠️ Fermeture Redis")
		}
	}
}

// =============================================
// SCYLLA DB (Multi-Keyspaces avec SSL)
// =============================================

func NewScyllaManager(cfg config.ScyllaConfig) *ScyllaManager {
	return &ScyllaManager{
		sessions: make(map[string]*gocql.Session),
		configs:  loadScyllaConfigs(cfg),
	}
}

func loadScyllaConfigs(cfg config.ScyllaConfig) map[string]ScyllaKeyspaceConfig {
	configs := make(map[string]ScyllaKeyspaceConfig)
	for _, ks := range []string{cfg.ProductsKeyspace, cfg.UsersKeyspace, cfg.OrdersKeyspace} {
		if ks == "" {
			continue
		}
		configs[ks] = ScyllaKeyspaceConfig{
			Hosts:       cfg.Hosts,
			Keyspace:    ks,
			Username:    cfg.Username,
			Password:    cfg.Password,
			SSLEnabled:  cfg.SSLEnabled,
			CACertPath:  cfg.CACertPath,
			Timeout:     5 * time.Second,
			NumConns:    20,
			Consistency: gocql.Quorum,
		}
	}
	return configs
}

func createScyllaCluster(config ScyllaKeyspaceConfig) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(config.Hosts...)
	cluster.Keyspace = config.Keyspace
	cluster.Consistency = config.Consistency
	cluster.Timeout = config.Timeout
	cluster.NumConns = config.NumConns
	cluster.MaxWaitSchemaAgreement = 30 * time.Second
	cluster.ReconnectInterval = 1 * time.Second

	if config.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: config.Username,
			Password: config.Password,
		}
	}

	if config.SSLEnabled {
		cluster.SslOpts = &gocql.SslOptions{
			CaPath:                 config.CACertPath,
			EnableHostVerification: true,
		}
	}

	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	return cluster
}

// GetSession retourne une session pour un keyspace donné (créée à la demande)
func (sm *ScyllaManager) GetSession(keyspace string) (*gocql.Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	config, exists := sm.configs[keyspace]
	if !exists {
		return nil, fmt.Errorf("keyspace '%s' non configuré", keyspace)
	}

	if session, exists := sm.sessions[keyspace]; exists && !session.Closed() {
		return session, nil
	}

	session, err := createScyllaCluster(config).CreateSession()
	if err != nil {
		return nil, fmt.Errorf("erreur création session pour %s: %w", keyspace, err)
	}

	sm.sessions[keyspace] = session
	log.Info().Str("keyspace", keyspace).Msg("✅ Nouvelle session ScyllaDB")
	return session, nil
}

// Close ferme toutes les sessions ScyllaDB
func (sm *ScyllaManager) Close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for keyspace, session := range sm.sessions {
		session.Close()
		log.Info().Str("keyspace", keyspace).Msg("🔌 Session ScyllaDB fermée")
	}
	sm.sessions = make(map[string]*gocql.Session)
}

// =============================================
// REDIS
// =============================================
func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("impossible de se connecter à Redis: %w", err)
	}
	log.Info().Str("addr", cfg.Addr).Msg("✅ Connecté à Redis")
	return client, nil
}

// =============================================
// ELASTICSEARCH
// =============================================
func connectElastic(cfg config.ElasticConfig) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("erreur création client Elasticsearch: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("erreur connexion Elasticsearch: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch a répondu %s", res.Status())
	}

	log.Info().Str("url", cfg.URL).Msg("✅ Connecté à Elasticsearch")
	return client, nil
}

// =============================================
// MINIO
// =============================================
func connectMinIO(ctx context.Context, cfg config.MinIOConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("erreur connexion MinIO: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("erreur vérification bucket MinIO: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("erreur création bucket MinIO: %w", err)
		}
		log.Info().Str("bucket", cfg.Bucket).Msg("🪣 Bucket créé")
	}

	log.Info().Str("endpoint", cfg.Endpoint).Msg("✅ Connecté à MinIO")
	return client, nil
}
