package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	DB       DBConfig       `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Wallet   WalletConfig   `mapstructure:"wallet"`
	Signer   SignerConfig   `mapstructure:"signer"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Observer ObserverConfig `mapstructure:"observer"`
	Activity ActivityConfig `mapstructure:"activity"`
	Apps     []AppEntry     `mapstructure:"apps"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	HttpPort string `mapstructure:"http_port"`
}

type DBConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	MQType   string `mapstructure:"mq_type"` // "redis" or "kafka"
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
}

type WalletConfig struct {
	Provider        string        `mapstructure:"provider"` // "rpc" (注入式钱包) or "local" (开发钱包)
	RpcUrl          string        `mapstructure:"rpc_url"`
	KeystorePath    string        `mapstructure:"keystore_path"`
	Password        string        `mapstructure:"password"` // 通常通过环境变量 WALLET_PASSWORD 传入
	Mnemonic        string        `mapstructure:"mnemonic"` // 仅限开发环境
	DerivationPath  string        `mapstructure:"derivation_path"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	ExpectedNetwork string        `mapstructure:"expected_network"`
}

type SignerConfig struct {
	AutoCloseDelay time.Duration `mapstructure:"auto_close_delay"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type WorkerConfig struct {
	Concurrency int           `mapstructure:"concurrency"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	Group       string        `mapstructure:"group"`
}

// ObserverConfig 应用合约日志扫描
type ObserverConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Interval   time.Duration `mapstructure:"interval"`
	StartBlock uint64        `mapstructure:"start_block"` // 0 表示从启动时的最新高度开始
	BatchSize  uint64        `mapstructure:"batch_size"`
}

type ActivityConfig struct {
	Retention time.Duration `mapstructure:"retention"`
	PruneCron string        `mapstructure:"prune_cron"`
	Topic     string        `mapstructure:"topic"`
}

// AppEntry 已安装的应用实例 (地址 -> 名称解析用)
type AppEntry struct {
	Name         string `mapstructure:"name"`
	ProxyAddress string `mapstructure:"proxy_address"`
	AppID        string `mapstructure:"app_id"`
}

var Global Config

func Init() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// 环境变量设置
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 设置默认值
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Warning: Config file not found, using defaults and environment variables")
		} else {
			log.Fatalf("Fatal error config file: %s \n", err)
		}
	}

	if err := viper.Unmarshal(&Global); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	log.Printf("Configuration loaded successfully. Env: %s", Global.App.Env)
}

func setDefaults() {
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.http_port", "8080")

	viper.SetDefault("db.enabled", false)
	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.user", "signer_user")
	viper.SetDefault("db.password", "signer_password")
	viper.SetDefault("db.name", "signer_db")

	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.mq_type", "redis")

	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})

	viper.SetDefault("wallet.provider", "rpc")
	viper.SetDefault("wallet.rpc_url", "http://localhost:8545")
	viper.SetDefault("wallet.keystore_path", "wallet.json")
	viper.SetDefault("wallet.derivation_path", "m/44'/60'/0'/0/0")
	viper.SetDefault("wallet.poll_interval", 2*time.Second)
	viper.SetDefault("wallet.expected_network", "main")

	viper.SetDefault("signer.auto_close_delay", 3*time.Second)
	viper.SetDefault("signer.request_timeout", 5*time.Minute)

	viper.SetDefault("worker.concurrency", 10)
	viper.SetDefault("worker.cache_ttl", 24*time.Hour)
	viper.SetDefault("worker.group", "signer_app_workers")

	viper.SetDefault("observer.enabled", false)
	viper.SetDefault("observer.interval", 4*time.Second)
	viper.SetDefault("observer.batch_size", 500)

	viper.SetDefault("activity.retention", 7*24*time.Hour)
	viper.SetDefault("activity.prune_cron", "@every 1h")
	viper.SetDefault("activity.topic", "signer_events_activity")
}
