package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Neo4j     Neo4jConfig     `mapstructure:"neo4j"`
	NATS      NATSConfig      `mapstructure:"nats"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Community CommunityConfig `mapstructure:"community"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	Debug       bool   `mapstructure:"debug"`
}

// IsProduction reports whether the app runs with production defaults
func (c AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	HTTPPort        int           `mapstructure:"http_port"`
	GRPCPort        int           `mapstructure:"grpc_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	Schema          string        `mapstructure:"schema"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s&search_path=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.Schema,
	)
}

type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type Neo4jConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	URI                string `mapstructure:"uri"`
	Username           string `mapstructure:"username"`
	Password           string `mapstructure:"password"`
	Database           string `mapstructure:"database"`
	MaxConnections     int    `mapstructure:"max_connections"`
	MaxLifetimeMinutes int    `mapstructure:"max_lifetime_minutes"`
}

type NATSConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	URL           string `mapstructure:"url"`
	StreamName    string `mapstructure:"stream_name"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// Validate fails when no signing secret is configured
func (c JWTConfig) Validate() error {
	if strings.TrimSpace(c.Secret) == "" {
		return errors.New("jwt.secret is not configured (set SCAMSHIELD_JWT_SECRET)")
	}
	return nil
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

// ScoringConfig tunes the risk scorer and phone intelligence
type ScoringConfig struct {
	CatalogVersion       string   `mapstructure:"catalog_version"`
	DefaultRegion        string   `mapstructure:"default_region"`
	BlacklistWeight      int      `mapstructure:"blacklist_weight"`
	RepeatedDigitsWeight int      `mapstructure:"repeated_digits_weight"`
	SeedBlacklist        []string `mapstructure:"seed_blacklist"`
}

// CommunityConfig holds reputation rewards and leaderboard limits
type CommunityConfig struct {
	SubmitPoints            int `mapstructure:"submit_points"`
	VerifiedSubmitterPoints int `mapstructure:"verified_submitter_points"`
	VerifierPoints          int `mapstructure:"verifier_points"`
	LeaderboardDefaultLimit int `mapstructure:"leaderboard_default_limit"`
	LeaderboardMaxLimit     int `mapstructure:"leaderboard_max_limit"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "scamshield")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "0.1.0")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.grpc_port", 9090)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 20*time.Second)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "scamshield")
	v.SetDefault("database.dbname", "scamshield")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.schema", "public")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.key_prefix", "scamshield:")

	v.SetDefault("neo4j.uri", "neo4j://localhost:7687")
	v.SetDefault("neo4j.database", "neo4j")
	v.SetDefault("neo4j.max_connections", 20)
	v.SetDefault("neo4j.max_lifetime_minutes", 60)

	v.SetDefault("nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("nats.stream_name", "SCAMSHIELD_COMMUNITY")
	v.SetDefault("nats.subject_prefix", "scamshield")

	v.SetDefault("jwt.issuer", "scamshield")

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"})
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.requests_per_minute", 120)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.time_format", time.RFC3339)

	v.SetDefault("scoring.catalog_version", "2024.1")
	v.SetDefault("scoring.default_region", "NG")
	v.SetDefault("scoring.blacklist_weight", 50)
	v.SetDefault("scoring.repeated_digits_weight", 10)
	v.SetDefault("scoring.seed_blacklist", []string{"08031234567", "09051234567", "08101234567"})

	v.SetDefault("community.submit_points", 10)
	v.SetDefault("community.verified_submitter_points", 50)
	v.SetDefault("community.verifier_points", 25)
	v.SetDefault("community.leaderboard_default_limit", 10)
	v.SetDefault("community.leaderboard_max_limit", 100)
}

// Load reads configuration from file and environment variables.
// A missing config file is not an error; defaults and env still apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/scamshield")
	}

	v.SetEnvPrefix("SCAMSHIELD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// viper does not auto-bind nested keys that only exist in defaults
	v.BindEnv("database.enabled", "SCAMSHIELD_DATABASE_ENABLED")
	v.BindEnv("database.host", "SCAMSHIELD_DATABASE_HOST")
	v.BindEnv("database.password", "SCAMSHIELD_DATABASE_PASSWORD")
	v.BindEnv("redis.enabled", "SCAMSHIELD_REDIS_ENABLED")
	v.BindEnv("redis.host", "SCAMSHIELD_REDIS_HOST")
	v.BindEnv("redis.password", "SCAMSHIELD_REDIS_PASSWORD")
	v.BindEnv("neo4j.enabled", "SCAMSHIELD_NEO4J_ENABLED")
	v.BindEnv("neo4j.password", "SCAMSHIELD_NEO4J_PASSWORD")
	v.BindEnv("nats.enabled", "SCAMSHIELD_NATS_ENABLED")
	v.BindEnv("jwt.secret", "SCAMSHIELD_JWT_SECRET")
	v.BindEnv("app.environment", "SCAMSHIELD_APP_ENVIRONMENT")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadDefault loads configuration with default path
func LoadDefault() (*Config, error) {
	return Load("")
}
