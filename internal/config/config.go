package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"             env:"HTTP_PORT"               env-default:"8080"`
	RequestTimeout  time.Duration `yaml:"request_timeout"  env:"HTTP_REQUEST_TIMEOUT"    env-default:"30s"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"HTTP_READ_TIMEOUT"       env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"HTTP_WRITE_TIMEOUT"      env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"HTTP_IDLE_TIMEOUT"       env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT"   env-default:"10s"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"   env:"HTTP_MAX_BODY_BYTES"     env-default:"1048576"`
}

// DatabaseConfig selects the relational store. Driver is "sqlite" or "postgres".
// For sqlite the DSN is a file path, for postgres a libpq connection string.
type DatabaseConfig struct {
	Driver       string `yaml:"driver"         env:"DB_DRIVER"          env-default:"sqlite"`
	DSN          string `yaml:"dsn"            env:"DB_DSN"             env-default:"./shop.db"`
	MaxOpenConns int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"  env-default:"25"`
	MaxIdleConns int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"  env-default:"10"`
}

// RedisConfig enables the cart cache when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr"      env:"REDIS_ADDR"`
	Password string        `yaml:"password"  env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db"        env:"REDIS_DB"        env-default:"0"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"REDIS_CACHE_TTL" env-default:"15m"`
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

// KafkaConfig enables the order event publisher when Brokers is set.
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"       env:"KAFKA_BROKERS"       env-separator:","`
	Topic        string        `yaml:"topic"         env:"KAFKA_TOPIC"         env-default:"shop.orders"`
	GroupID      string        `yaml:"group_id"      env:"KAFKA_GROUP_ID"      env-default:"shop-cart-cache"`
	PollInterval time.Duration `yaml:"poll_interval" env:"KAFKA_POLL_INTERVAL" env-default:"1s"`
	BatchSize    int           `yaml:"batch_size"    env:"KAFKA_BATCH_SIZE"    env-default:"100"`
}

func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

type MongoConfig struct {
	URI        string `yaml:"uri"        env:"MONGO_URI"        env-default:"mongodb://localhost:27017"`
	Database   string `yaml:"database"   env:"MONGO_DB_NAME"    env-default:"291db"`
	Collection string `yaml:"collection" env:"MONGO_COLLECTION" env-default:"articles"`
	BatchSize  int    `yaml:"batch_size" env:"MONGO_BATCH_SIZE" env-default:"5000"`
}

type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"       env:"AUTH_JWT_SECRET"       env-default:"dev-only-secret-change-me-0123456789"`
	JWTIssuer      string        `yaml:"jwt_issuer"       env:"AUTH_JWT_ISSUER"       env-default:"go_shop"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" env:"AUTH_ACCESS_TOKEN_TTL" env-default:"12h"`
	// Salesperson account created on start when SalesPassword is set.
	SalesUserID   int64  `yaml:"sales_user_id"  env:"AUTH_SALES_USER_ID"  env-default:"100"`
	SalesPassword string `yaml:"sales_password" env:"AUTH_SALES_PASSWORD"`
}

type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
