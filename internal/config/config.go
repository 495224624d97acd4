package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Config is the application configuration, read from the environment.
type Config struct {
	AppPort       string
	DBDriver      string
	DatabaseDSN   string
	DBVerbose     bool
	JWTSecret     string
	JWTTTL        time.Duration
	BcryptCost    int
	RabbitMQURL   string
	OrderLogPath  string
	LogLevel      string
	AccessLog     bool
	CartIdleTTL   time.Duration
	SeedProducts  bool
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "storefront.db")
	v.SetDefault("DB_VERBOSE", false)
	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("BCRYPT_COST", bcrypt.DefaultCost)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("ORDER_LOG_PATH", "Logs/orders.log")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ACCESS_LOG", true)
	v.SetDefault("CART_IDLE_TTL", "12h")
	v.SetDefault("SEED_PRODUCTS", false)
	v.SetDefault("ADMIN_USERNAME", "")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
}

// Load reads the configuration from v, which should already have defaults
// and environment binding applied.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:       v.GetString("APP_PORT"),
		DBDriver:      v.GetString("DB_DRIVER"),
		DatabaseDSN:   v.GetString("DATABASE_DSN"),
		DBVerbose:     v.GetBool("DB_VERBOSE"),
		JWTSecret:     v.GetString("JWT_SECRET"),
		JWTTTL:        v.GetDuration("JWT_TTL"),
		BcryptCost:    v.GetInt("BCRYPT_COST"),
		RabbitMQURL:   v.GetString("RABBITMQ_URL"),
		OrderLogPath:  v.GetString("ORDER_LOG_PATH"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		AccessLog:     v.GetBool("ACCESS_LOG"),
		CartIdleTTL:   v.GetDuration("CART_IDLE_TTL"),
		SeedProducts:  v.GetBool("SEED_PRODUCTS"),
		AdminUsername: v.GetString("ADMIN_USERNAME"),
		AdminEmail:    v.GetString("ADMIN_EMAIL"),
		AdminPassword: v.GetString("ADMIN_PASSWORD"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must not be empty")
	}
	if cfg.JWTTTL <= 0 {
		return nil, fmt.Errorf("JWT_TTL must be positive, got %s", cfg.JWTTTL)
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("BCRYPT_COST must be within [%d, %d], got %d", bcrypt.MinCost, bcrypt.MaxCost, cfg.BcryptCost)
	}
	if cfg.AdminUsername != "" && len(cfg.AdminPassword) < 6 {
		return nil, fmt.Errorf("ADMIN_PASSWORD must have at least 6 characters when ADMIN_USERNAME is set")
	}
	return cfg, nil
}
