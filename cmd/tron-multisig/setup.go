package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Khanviph/tron1/client"
	"github.com/Khanviph/tron1/config"
	"github.com/Khanviph/tron1/logger"
	"github.com/Khanviph/tron1/provider"
	"github.com/Khanviph/tron1/wallet"
)

const envKeystorePassword = "TRON_MULTISIG_KEYSTORE_PASSWORD"

func loadConfig(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if debug {
		cfg.Debug = true
	}
	return cfg, logger.New(os.Stderr, cfg.Environment, cfg.Debug), nil
}

// newLocator 按配置构造提供者查找器，返回的 cleanup 负责释放连接
func newLocator(cfg *config.Config, log *logger.Logger) (provider.Locator, func(), error) {
	switch cfg.Provider.Mode {
	case config.ProviderModeBridge:
		bcfg := provider.DefaultBridgeConfig()
		bcfg.HandshakeTimeout = cfg.Provider.HandshakeTimeout
		bcfg.Logger = log.With("component", "bridge")
		locator := provider.NewBridgeLocator(cfg.Provider.BridgeURL, bcfg, cfg.Provider.HandshakeTimeout)
		return locator, func() { _ = locator.Close() }, nil

	case config.ProviderModeLocal:
		c, err := client.NewClient(cfg.ClientConfig(log.With("component", "client")))
		if err != nil {
			return nil, nil, fmt.Errorf("create node client: %w", err)
		}
		w, err := loadWallet(cfg)
		if err != nil {
			_ = c.Close()
			return nil, nil, err
		}
		local := provider.NewLocal(c, w, log.With("component", "provider"))
		return provider.Static(local), func() { _ = c.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unsupported provider mode %q", cfg.Provider.Mode)
}

// loadWallet 未配置账户时返回 nil，提供者将处于未解锁状态
func loadWallet(cfg *config.Config) (wallet.Wallet, error) {
	if cfg.Keystore.Address == "" {
		return nil, nil
	}
	password := cfg.Keystore.Password
	if password == "" {
		password = os.Getenv(envKeystorePassword)
	}
	if password == "" {
		return nil, errors.New("keystore password is required (keystore.password or " + envKeystorePassword + ")")
	}
	km, err := wallet.NewKeystoreManager(cfg.Keystore.Dir)
	if err != nil {
		return nil, err
	}
	w, err := km.LoadWallet(cfg.Keystore.Address, password)
	if err != nil {
		return nil, fmt.Errorf("load keystore for %s: %w", cfg.Keystore.Address, err)
	}
	return w, nil
}
