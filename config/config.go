// Package config 从配置文件与环境变量加载运行配置
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/Khanviph/tron1/client"
)

const (
	Production  = "production"
	Development = "development"

	ProviderModeLocal  = "local"
	ProviderModeBridge = "bridge"

	EnvPrefix     = "TRON_MULTISIG"
	EnvConfigFile = "TRON_MULTISIG_CONFIG_FILE"

	defaultEndpoint         = "https://api.trongrid.io"
	defaultNodeTimeout      = 30 * time.Second
	defaultNodeMaxRetries   = 3
	defaultProviderMode     = ProviderModeLocal
	defaultBridgeURL        = "ws://127.0.0.1:8765/bridge"
	defaultKeystoreDir      = "keystore"
	defaultWaiterInterval   = time.Second
	defaultWaiterAttempts   = 10
	defaultHandshakeTimeout = 5 * time.Second
)

type Config struct {
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`

	Node     NodeConfig     `mapstructure:"node"`
	Provider ProviderConfig `mapstructure:"provider"`
	Keystore KeystoreConfig `mapstructure:"keystore"`
	Waiter   WaiterConfig   `mapstructure:"waiter"`
}

type NodeConfig struct {
	Endpoint   string        `mapstructure:"endpoint"`
	Timeout    time.Duration `mapstructure:"timeout"`
	APIKey     string        `mapstructure:"api_key"`
	MaxRetries int           `mapstructure:"max_retries"`
}

type ProviderConfig struct {
	Mode             string        `mapstructure:"mode"`
	BridgeURL        string        `mapstructure:"bridge_url"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
}

type KeystoreConfig struct {
	Dir      string `mapstructure:"dir"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
}

type WaiterConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

// Load 读取配置；configPath 为空时依次尝试 TRON_MULTISIG_CONFIG_FILE 与默认搜索路径
//
// 未显式指定且找不到配置文件时只使用默认值与环境变量。
func Load(configPath string) (*Config, error) {
	v := viper.New()
	explicit := initViper(v, configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("viper read config: %w", err)
		}
	}
	return decode(v)
}

func initViper(v *viper.Viper, configPath string) bool {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 环境变量只对已知键生效，这里为每个键登记默认值
	v.SetDefault("environment", Development)
	v.SetDefault("debug", false)
	v.SetDefault("node.endpoint", defaultEndpoint)
	v.SetDefault("node.timeout", defaultNodeTimeout)
	v.SetDefault("node.api_key", "")
	v.SetDefault("node.max_retries", defaultNodeMaxRetries)
	v.SetDefault("provider.mode", defaultProviderMode)
	v.SetDefault("provider.bridge_url", defaultBridgeURL)
	v.SetDefault("provider.handshake_timeout", defaultHandshakeTimeout)
	v.SetDefault("keystore.dir", defaultKeystoreDir)
	v.SetDefault("keystore.address", "")
	v.SetDefault("keystore.password", "")
	v.SetDefault("waiter.interval", defaultWaiterInterval)
	v.SetDefault("waiter.max_attempts", defaultWaiterAttempts)

	if configPath == "" {
		configPath = os.Getenv(EnvConfigFile)
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		return true
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.tron-multisig/")
	return false
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = Development
	}
	if cfg.Node.Endpoint == "" {
		cfg.Node.Endpoint = defaultEndpoint
	}
	if cfg.Node.Timeout <= 0 {
		cfg.Node.Timeout = defaultNodeTimeout
	}
	if cfg.Provider.Mode == "" {
		cfg.Provider.Mode = defaultProviderMode
	}
	if cfg.Provider.HandshakeTimeout <= 0 {
		cfg.Provider.HandshakeTimeout = defaultHandshakeTimeout
	}
	if cfg.Keystore.Dir == "" {
		cfg.Keystore.Dir = defaultKeystoreDir
	}
	if cfg.Waiter.Interval <= 0 {
		cfg.Waiter.Interval = defaultWaiterInterval
	}
}

func validate(cfg *Config) error {
	validEnvironments := []string{Production, Development}
	if !slices.Contains(validEnvironments, cfg.Environment) {
		return fmt.Errorf("invalid environment '%s'. Must be one of: %s", cfg.Environment, strings.Join(validEnvironments, ", "))
	}

	validModes := []string{ProviderModeLocal, ProviderModeBridge}
	if !slices.Contains(validModes, cfg.Provider.Mode) {
		return fmt.Errorf("invalid provider mode '%s'. Must be one of: %s", cfg.Provider.Mode, strings.Join(validModes, ", "))
	}
	if cfg.Provider.Mode == ProviderModeBridge && cfg.Provider.BridgeURL == "" {
		return errors.New("provider.bridge_url is required in bridge mode")
	}
	if cfg.Node.Timeout < time.Second {
		return fmt.Errorf("node.timeout must be at least 1s, got %s", cfg.Node.Timeout)
	}
	if cfg.Waiter.MaxAttempts < 0 {
		return fmt.Errorf("waiter.max_attempts must not be negative, got %d", cfg.Waiter.MaxAttempts)
	}
	if cfg.Node.MaxRetries < 0 {
		return fmt.Errorf("node.max_retries must not be negative, got %d", cfg.Node.MaxRetries)
	}
	return nil
}

// IsProduction 是否为生产环境
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, Production)
}

// ClientConfig 转换为节点客户端配置
func (c *Config) ClientConfig(logger client.Logger) *client.Config {
	retry := client.DefaultRetryConfig()
	retry.MaxRetries = c.Node.MaxRetries
	return &client.Config{
		Endpoint: c.Node.Endpoint,
		Timeout:  int(c.Node.Timeout / time.Second),
		APIKey:   c.Node.APIKey,
		Retry:    retry,
		Debug:    c.Debug,
		Logger:   logger,
	}
}
