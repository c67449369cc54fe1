package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerCfg struct {
	Port                string `mapstructure:"port"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
	Development         bool   `mapstructure:"development"`
}

type MongoCfg struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type JWTCfg struct {
	Algorithm     string `mapstructure:"algorithm"` // RS256 or HS256
	PublicKeyPath string `mapstructure:"public_key_path"`
	HSSecret      string `mapstructure:"hs_secret"`
}

type RedisCfg struct {
	Addr     string `mapstructure:"addr"` // empty disables cross-node fan-out
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

type KafkaCfg struct {
	Brokers []string `mapstructure:"brokers"` // empty disables the event stream
	Topic   string   `mapstructure:"topic"`
}

type ChatCfg struct {
	CompanyDomain            string `mapstructure:"company_domain"`
	AdminEmail               string `mapstructure:"admin_email"`
	HistoryLimit             int64  `mapstructure:"history_limit"`
	SoftDeleteBatchSize      int    `mapstructure:"soft_delete_batch_size"`
	RateLimitPerSec          int    `mapstructure:"rate_limit_per_sec"`
	PurgeMessagesOnGroupDrop bool   `mapstructure:"purge_messages_on_group_delete"`
}

type Config struct {
	Server ServerCfg `mapstructure:"server"`
	Mongo  MongoCfg  `mapstructure:"mongo"`
	JWT    JWTCfg    `mapstructure:"jwt"`
	Redis  RedisCfg  `mapstructure:"redis"`
	Kafka  KafkaCfg  `mapstructure:"kafka"`
	Chat   ChatCfg   `mapstructure:"chat"`
	// Derived
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Load reads config.yaml (path optional) with APP_* env overrides. A .env
// file next to the binary is honored the same way the services always did.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", "5002")
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 15)
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "connect")
	v.SetDefault("jwt.algorithm", "RS256")
	v.SetDefault("jwt.public_key_path", "./keys/jwt_pub.pem")
	v.SetDefault("redis.channel", "connect:rooms")
	v.SetDefault("kafka.topic", "chat.messages")
	v.SetDefault("chat.company_domain", "acertax.com")
	v.SetDefault("chat.history_limit", 200)
	v.SetDefault("chat.soft_delete_batch_size", 400)
	v.SetDefault("chat.rate_limit_per_sec", 20)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.ReadTimeout = time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second
	cfg.WriteTimeout = time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second
	return &cfg, nil
}
