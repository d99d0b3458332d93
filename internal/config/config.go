package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config 应用全部配置，字段通过 mapstructure 标签与 config.yaml 对应
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	Store       StoreConfig       `mapstructure:"store"`
	Redis       RedisConfig       `mapstructure:"redis"`
	ShortLink   ShortLinkConfig   `mapstructure:"shortlink"`
	Relay       RelayConfig       `mapstructure:"relay"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
	I18n        I18nConfig        `mapstructure:"i18n"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
	// BaseURL 非空时替代 https://<host> 作为短链前缀
	BaseURL         string        `mapstructure:"base_url" validate:"omitempty,url"`
	UI              bool          `mapstructure:"ui"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	// Path 为空时只输出到控制台
	Path       string `mapstructure:"path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

type StoreConfig struct {
	Driver     string `mapstructure:"driver" validate:"oneof=memory badger redis mysql sqlite"`
	BadgerPath string `mapstructure:"badger_path" validate:"required_if=Driver badger"`
	DSN        string `mapstructure:"dsn" validate:"required_if=Driver mysql,required_if=Driver sqlite"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

type ShortLinkConfig struct {
	CodeLength  int `mapstructure:"code_length" validate:"gte=1,lte=32"`
	MaxAttempts int `mapstructure:"max_attempts" validate:"gte=1"`
}

type RelayConfig struct {
	UserAgent      string        `mapstructure:"user_agent" validate:"required"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" validate:"gt=0"`
	HeaderTimeout  time.Duration `mapstructure:"header_timeout" validate:"gt=0"`
}

type MaintenanceConfig struct {
	// Schedule cron 表达式，为空则不启动定时任务
	Schedule string `mapstructure:"schedule"`
}

type I18nConfig struct {
	DefaultLang string `mapstructure:"default_lang" validate:"required"`
}

// SetDefaults 注册默认值，配置文件缺失时仍可启动
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.base_url", "")
	v.SetDefault("server.ui", false)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", "logs/shortlink.log")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age", 7)
	v.SetDefault("log.compress", false)

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.badger_path", "data/badger")
	v.SetDefault("store.dsn", "")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("shortlink.code_length", 6)
	v.SetDefault("shortlink.max_attempts", 20)

	v.SetDefault("relay.user_agent", "Mozilla/5.0 (compatible; ShortlinkProxy/1.0)")
	v.SetDefault("relay.connect_timeout", 10*time.Second)
	v.SetDefault("relay.header_timeout", 30*time.Second)

	v.SetDefault("maintenance.schedule", "*/10 * * * *")

	v.SetDefault("i18n.default_lang", "en")
}

// Load 读取 config.yaml（当前目录或 ./configs），环境变量 SHORTLINK_* 覆盖同名配置。
// configFile 非空时只读取该文件。
func Load(configFile string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix("SHORTLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置取值
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("invalid config %s: failed on %q", e.Namespace(), e.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
