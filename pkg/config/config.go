package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App      AppConfig
	DB       DBConfig
	JWT      JWTConfig
	HTTP     HTTPConfig
	Algorand AlgorandConfig
	Mail     MailConfig
	Sentry   SentryConfig
	Upload   UploadConfig
	Kafka    KafkaConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env               string // development, test, staging, production
	LogLevel          string
	Name              string
	BaseURL           string // URL pública del panel, usada en los correos
	ContentManagerURL string // ruta del content manager bajo BaseURL
}

// IsTest indica si la app corre en modo test (no se envían correos).
func (c AppConfig) IsTest() bool {
	return c.Env == "test"
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AlgorandConfig nodos, cuenta creadora y aplicación Climatecoin.
type AlgorandConfig struct {
	AlgodAddress     string
	AlgodToken       string
	IndexerAddress   string
	IndexerToken     string
	AppID            uint64 // APP_ID: aplicación que acuña y custodia los NFTs
	Mnemonic         string // ALGO_MNEMONIC: cuenta creadora (firma mint/claim/unfreeze)
	ClimatecoinASAID uint64 // CLIMATECOIN_ASA_ID: token fungible entregado en el swap
	WaitRounds       uint64
	RequestsPerSec   float64 // límite de llamadas a algod/indexer; 0 = sin límite
	ExplorerURL      string
	NFTExternalURL   string
}

// MailConfig configuración de Mailgun. Sin APIKey se usa un mailer que solo registra en log.
type MailConfig struct {
	Domain string
	APIKey string
	From   string // MAILGUN_EMAIL
	To     string // MAILGUN_EMAIL_TO: buzón de operaciones
}

// SentryConfig sink de errores. DSN vacío desactiva el reporte.
type SentryConfig struct {
	DSN string
}

// UploadConfig almacenamiento local de archivos subidos.
type UploadConfig struct {
	Dir   string
	MaxMB int
}

// KafkaConfig publicación de actividades. Sin brokers no se publica.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, APP_ID, ALGO_MNEMONIC, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:               getString(v, "APP_ENV", "development"),
			LogLevel:          getString(v, "LOG_LEVEL", "info"),
			Name:              getString(v, "APP_NAME", "climatecoin-api"),
			BaseURL:           getString(v, "BASE_URL", "http://localhost:8080"),
			ContentManagerURL: getString(v, "CONTENT_MANAGER_URL", "/admin/content-manager/collectionType"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "climatecoin"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "climatecoin-api"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Algorand: AlgorandConfig{
			AlgodAddress:   getString(v, "ALGOD_ADDRESS", "https://testnet-api.algonode.cloud"),
			AlgodToken:     getString(v, "ALGOD_TOKEN", ""),
			IndexerAddress: getString(v, "INDEXER_ADDRESS", "https://testnet-idx.algonode.cloud"),
			IndexerToken:   getString(v, "INDEXER_TOKEN", ""),
			Mnemonic:       getString(v, "ALGO_MNEMONIC", ""),
			WaitRounds:     uint64(getInt(v, "ALGO_WAIT_ROUNDS", 2)),
			RequestsPerSec: getFloat(v, "ALGO_RPS", 10),
			ExplorerURL:    getString(v, "EXPLORER_URL", "https://testnet.explorer.perawallet.app"),
			NFTExternalURL: getString(v, "NFT_EXTERNAL_URL", "https://climatecoin.io"),
		},
		Mail: MailConfig{
			Domain: getString(v, "MAILGUN_DOMAIN", ""),
			APIKey: getString(v, "MAILGUN_API_KEY", ""),
			From:   getString(v, "MAILGUN_EMAIL", ""),
			To:     getString(v, "MAILGUN_EMAIL_TO", ""),
		},
		Sentry: SentryConfig{
			DSN: getString(v, "SENTRY_DSN", ""),
		},
		Upload: UploadConfig{
			Dir:   getString(v, "UPLOAD_DIR", "public/uploads"),
			MaxMB: getInt(v, "UPLOAD_MAX_MB", 20),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getString(v, "KAFKA_BROKERS", "")),
			Topic:   getString(v, "KAFKA_TOPIC", "carbon-activities"),
		},
	}

	var err error
	if cfg.Algorand.AppID, err = getUint(v, "APP_ID"); err != nil {
		return nil, err
	}
	if cfg.Algorand.ClimatecoinASAID, err = getUint(v, "CLIMATECOIN_ASA_ID"); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getFloat(v *viper.Viper, key string, def float64) float64 {
	if !v.IsSet(key) {
		return def
	}
	f, err := strconv.ParseFloat(v.GetString(key), 64)
	if err != nil {
		return def
	}
	return f
}

// getUint lee un ID numérico de Algorand (APP_ID, CLIMATECOIN_ASA_ID). Ausente = 0.
func getUint(v *viper.Viper, key string) (uint64, error) {
	if !v.IsSet(key) || v.GetString(key) == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(strings.TrimSpace(v.GetString(key)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s inválido: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
