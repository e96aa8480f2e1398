package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backends de almacenamiento del ledger.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App    AppConfig
	Log    LogConfig
	DB     DBConfig
	JWT    JWTConfig
	HTTP   HTTPConfig
	Ledger LedgerConfig
	Redis  RedisConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env  string // development, staging, production
	Name string
}

// LogConfig nivel de log.
type LogConfig struct {
	Level string
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
	MaxConns    int
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

// LedgerConfig parámetros del motor de ledger.
type LedgerConfig struct {
	Store        string // postgres | memory
	MaxRetries   int
	RetryBackoff time.Duration
	Isolation    string // read_committed | repeatable_read | serializable
	AuditTimeout time.Duration
	SeedFile     string // catálogo JSON para el store en memoria
}

// RedisConfig caché opcional de totales; Addr vacío la desactiva.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// Enabled indica si hay Redis configurado.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, LEDGER_MAX_RETRIES, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:  getString(v, "APP_ENV", "development"),
			Name: getString(v, "APP_NAME", "stock-ledger"),
		},
		Log: LogConfig{
			Level: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "stock_ledger"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 25),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "stock-ledger"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Ledger: LedgerConfig{
			Store:        strings.ToLower(getString(v, "LEDGER_STORE", StorePostgres)),
			MaxRetries:   getInt(v, "LEDGER_MAX_RETRIES", 3),
			RetryBackoff: time.Duration(getInt(v, "LEDGER_RETRY_BACKOFF_MS", 20)) * time.Millisecond,
			Isolation:    strings.ToLower(getString(v, "LEDGER_ISOLATION", "read_committed")),
			AuditTimeout: time.Duration(getInt(v, "LEDGER_AUDIT_TIMEOUT_MS", 3000)) * time.Millisecond,
			SeedFile:     getString(v, "LEDGER_SEED_FILE", ""),
		},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", ""),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
			CacheTTL: time.Duration(getInt(v, "STOCK_CACHE_TTL_SECONDS", 30)) * time.Second,
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Ledger.Store {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("config: LEDGER_STORE inválido %q", c.Ledger.Store)
	}
	switch c.Ledger.Isolation {
	case "read_committed", "repeatable_read", "serializable":
	default:
		return fmt.Errorf("config: LEDGER_ISOLATION inválido %q", c.Ledger.Isolation)
	}
	if c.Ledger.MaxRetries < 0 {
		return fmt.Errorf("config: LEDGER_MAX_RETRIES debe ser >= 0")
	}
	return nil
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
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
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
