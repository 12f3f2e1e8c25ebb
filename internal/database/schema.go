package database

import (
	"fmt"
	"strings"
	"time"

	"smartshop_back_end/internal/config"

	"github.com/gocql/gocql"
	"github.com/rs/zerolog/log"
)

var productsTables = []string{
	`CREATE TABLE IF NOT EXISTS {ks}.products (
		product_id uuid PRIMARY KEY,
		name text, slug text, description text,
		price bigint, original_price bigint, stock int,
		category_id uuid, brand_id uuid, images list<text>,
		is_featured boolean, is_active boolean,
		rating_average double, review_count int, sold_count int,
		created_at timestamp, updated_at timestamp)`,
	`CREATE TABLE IF NOT EXISTS {ks}.categories (
		category_id uuid PRIMARY KEY,
		name text, slug text, description text, image_url text,
		parent_id uuid, created_at timestamp)`,
	`CREATE TABLE IF NOT EXISTS {ks}.brands (
		brand_id uuid PRIMARY KEY,
		name text, slug text, description text, logo_url text,
		created_at timestamp)`,
	`CREATE TABLE IF NOT EXISTS {ks}.reviews (
		review_id uuid PRIMARY KEY,
		product_id uuid, user_id uuid, user_name text, order_id uuid,
		rating int, comment text, images list<text>,
		admin_response text, admin_response_at timestamp,
		helpful_votes int, status text, created_at timestamp)`,
	`CREATE TABLE IF NOT EXISTS {ks}.reviews_by_product (
		product_id uuid, review_id uuid,
		PRIMARY KEY (product_id, review_id))`,
	`CREATE TABLE IF NOT EXISTS {ks}.reviews_by_user (
		user_id uuid, review_id uuid,
		PRIMARY KEY (user_id, review_id))`,
	`CREATE TABLE IF NOT EXISTS {ks}.review_votes (
		review_id uuid, user_id uuid,
		PRIMARY KEY (review_id, user_id))`,
}

var usersTables = []string{
	`CREATE TABLE IF NOT EXISTS {ks}.users (
		user_id uuid PRIMARY KEY,
		name text, email text, password text, phone text, role text,
		created_at timestamp)`,
	`CREATE TABLE IF NOT EXISTS {ks}.users_by_email (
		email text PRIMARY KEY, user_id uuid)`,
}

var ordersTables = []string{
	`CREATE TABLE IF NOT EXISTS {ks}.orders (
		order_id uuid PRIMARY KEY,
		order_number text, user_id uuid,
		items text, customer_info text,
		payment_method text, status text, payment_status text,
		subtotal bigint, shipping_fee bigint, total bigint,
		notes text, cancel_reason text, transaction_no text, bank_code text,
		paid_at timestamp, payment_expires_at timestamp,
		created_at timestamp, updated_at timestamp)`,
	`CREATE TABLE IF NOT EXISTS {ks}.orders_by_number (
		order_number text PRIMARY KEY, order_id uuid)`,
	`CREATE TABLE IF NOT EXISTS {ks}.orders_by_user (
		user_id uuid, created_at timestamp, order_id uuid,
		PRIMARY KEY ((user_id), created_at, order_id))
		WITH CLUSTERING ORDER BY (created_at DESC, order_id ASC)`,
}

// EnsureSchema crée keyspaces et tables (SCYLLA_AUTO_MIGRATE=true, utile en dev)
func EnsureSchema(cfg config.ScyllaConfig) error {
	bootstrap := createScyllaCluster(ScyllaKeyspaceConfig{
		Hosts:       cfg.Hosts,
		Username:    cfg.Username,
		Password:    cfg.Password,
		SSLEnabled:  cfg.SSLEnabled,
		CACertPath:  cfg.CACertPath,
		Timeout:     10 * time.Second,
		NumConns:    1,
		Consistency: gocql.Quorum,
	})
	session, err := bootstrap.CreateSession()
	if err != nil {
		return fmt.Errorf("session de migration: %w", err)
	}
	defer session.Close()

	plan := map[string][]string{
		cfg.ProductsKeyspace: productsTables,
		cfg.UsersKeyspace:    usersTables,
		cfg.OrdersKeyspace:   ordersTables,
	}

	for keyspace, tables := range plan {
		stmt := fmt.Sprintf(`CREATE KEYSPACE IF NOT EXISTS %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': %d}`,
			keyspace, cfg.ReplicationFactor)
		if err := session.Query(stmt).Exec(); err != nil {
			return fmt.Errorf("création keyspace %s: %w", keyspace, err)
		}
		for _, table := range tables {
			// gocql refuse USE : les tables sont qualifiées par le keyspace
			if err := session.Query(strings.ReplaceAll(table, "{ks}", keyspace)).Exec(); err != nil {
				return fmt.Errorf("création table dans %s: %w", keyspace, err)
			}
		}
		log.Info().Str("keyspace", keyspace).Int("tables", len(tables)).Msg("🧱 Schéma ScyllaDB vérifié")
	}
	return nil
}
