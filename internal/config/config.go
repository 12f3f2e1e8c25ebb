package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	DriverScylla = "scylla"
	DriverMemory = "memory"
)

type Config struct {
	Env           string
	Port          string
	LogLevel      string
	StorageDriver string
	CORSOrigins   []string
	RateLimitRPM  int

	JWTSecret string
	JWTTTL    time.Duration

	Scylla       ScyllaConfig
	Redis        RedisConfig
	Elastic      ElasticConfig
	MinIO        MinIOConfig
	Kafka        KafkaConfig
	SMTP         SMTPConfig
	VNPay        VNPayConfig
	BankTransfer BankTransferConfig
	Shop         ShopConfig
}

type ScyllaConfig struct {
	Hosts             []string
	Username          string
	Password          string
	ProductsKeyspace  string
	UsersKeyspace     string
	OrdersKeyspace    string
	SSLEnabled        bool
	CACertPath        string
	AutoMigrate       bool
	ReplicationFactor int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ElasticConfig struct {
	URL      string
	Username string
	Password string
	Index    string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type VNPayConfig struct {
	TmnCode       string
	HashSecret    string
	PayURL        string
	ReturnURL     string
	ExpireMinutes int
}

type BankTransferConfig struct {
	BankName      string
	BankBIN       string
	AccountNumber string
	AccountName   string
}

type ShopConfig struct {
	Name                  string
	ShippingFee           int64
	FreeShippingThreshold int64
}

// Load charge le .env (s'il existe) puis construit la configuration depuis l'environnement
func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Warn().Msg("⚠️  Aucun fichier .env trouvé — on continue avec les variables d'environnement du système")
	} else {
		log.Info().Msg("✅ Fichier .env chargé avec succès")
	}

	return &Config{
		Env:           getEnv("APP_ENV", "development"),
		Port:          getEnv("PORT", "4000"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		StorageDriver: getEnv("STORAGE_DRIVER", DriverMemory),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		RateLimitRPM:  getInt("RATE_LIMIT_RPM", 300),

		JWTSecret: getEnv("JWT_SECRET", "super_secret"),
		JWTTTL:    time.Duration(getInt("JWT_TTL_HOURS", 24)) * time.Hour,

		Scylla: ScyllaConfig{
			Hosts:             splitList(os.Getenv("SCYLLA_HOSTS")),
			Username:          os.Getenv("SCYLLA_USERNAME"),
			Password:          os.Getenv("SCYLLA_PASSWORD"),
			ProductsKeyspace:  getEnv("SCYLLA_KS_PRODUCTS_KEYSPACE", "smartshop_products"),
			UsersKeyspace:     getEnv("SCYLLA_KS_USERS_KEYSPACE", "smartshop_users"),
			OrdersKeyspace:    getEnv("SCYLLA_KS_ORDERS_KEYSPACE", "smartshop_orders"),
			SSLEnabled:        getBool("SCYLLA_SSL_ENABLED", false),
			CACertPath:        os.Getenv("SCYLLA_SSL_CA_PATH"),
			AutoMigrate:       getBool("SCYLLA_AUTO_MIGRATE", false),
			ReplicationFactor: getInt("SCYLLA_REPLICATION_FACTOR", 1),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_HOST"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		Elastic: ElasticConfig{
			URL:      os.Getenv("ELASTIC_URL"),
			Username: os.Getenv("ELASTIC_USER"),
			Password: os.Getenv("ELASTIC_PASSWORD"),
			Index:    getEnv("ELASTIC_INDEX", "products"),
		},
		MinIO: MinIOConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    getEnv("MINIO_BUCKET", "smartshop-images"),
			UseSSL:    getBool("MINIO_USE_SSL", false),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("ORDER_EVENTS_TOPIC", "order-events"),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", "noreply@smartshop.vn"),
		},
		VNPay: VNPayConfig{
			TmnCode:       os.Getenv("VNPAY_TMN_CODE"),
			HashSecret:    os.Getenv("VNPAY_HASH_SECRET"),
			PayURL:        getEnv("VNPAY_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"),
			ReturnURL:     getEnv("VNPAY_RETURN_URL", "http://localhost:3000/payment/vnpay-return"),
			ExpireMinutes: getInt("VNPAY_EXPIRE_MINUTES", 15),
		},
		BankTransfer: BankTransferConfig{
			BankName:      getEnv("BANK_NAME", "Vietcombank"),
			BankBIN:       getEnv("BANK_BIN", "970436"),
			AccountNumber: os.Getenv("BANK_ACCOUNT_NUMBER"),
			AccountName:   os.Getenv("BANK_ACCOUNT_NAME"),
		},
		Shop: ShopConfig{
			Name:                  getEnv("SHOP_NAME", "SmartShop"),
			ShippingFee:           int64(getInt("SHIPPING_FEE", 30000)),
			FreeShippingThreshold: int64(getInt("FREE_SHIPPING_THRESHOLD", 500000)),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("⚠️ Valeur entière invalide, valeur par défaut utilisée")
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return fallback
	}
	return v == "true" || v == "1" || v == "yes"
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
