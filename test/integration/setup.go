package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Khanviph/tron1/client"
	"github.com/Khanviph/tron1/wallet"
)

const (
	// EnvNodeEndpoint 测试节点 HTTP API 地址；未设置时跳过集成测试
	EnvNodeEndpoint = "TRON_IT_ENDPOINT"
	// EnvAPIKey TronGrid API Key（可选）
	EnvAPIKey = "TRON_IT_API_KEY"
	// EnvPrivateKey 已充值测试账户的私钥
	EnvPrivateKey = "TRON_IT_PRIVATE_KEY"

	// DefaultTimeout 默认超时时间
	DefaultTimeout = 30 * time.Second
)

// TestConfig 测试配置
type TestConfig struct {
	NodeEndpoint string
	APIKey       string
	Timeout      time.Duration
}

// LoadTestConfig 从环境变量读取配置，未配置节点时跳过测试
func LoadTestConfig(t *testing.T) *TestConfig {
	endpoint := os.Getenv(EnvNodeEndpoint)
	if endpoint == "" {
		t.Skipf("%s not set, skipping integration test", EnvNodeEndpoint)
	}
	return &TestConfig{
		NodeEndpoint: endpoint,
		APIKey:       os.Getenv(EnvAPIKey),
		Timeout:      DefaultTimeout,
	}
}

// SetupTestClient 创建客户端并确认节点可用
func SetupTestClient(t *testing.T) client.Client {
	cfg := LoadTestConfig(t)

	c, err := client.NewClient(&client.Config{
		Endpoint: cfg.NodeEndpoint,
		APIKey:   cfg.APIKey,
		Timeout:  int(cfg.Timeout.Seconds()),
	})
	require.NoError(t, err, "创建客户端失败")
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Logf("关闭客户端时出现警告: %v", err)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = c.GetNodeInfo(ctx)
	require.NoError(t, err, "节点不可用: %s", cfg.NodeEndpoint)

	return c
}

// FundedTestWallet 返回已充值的测试账户，未配置私钥时跳过测试
func FundedTestWallet(t *testing.T) wallet.Wallet {
	privateKey := os.Getenv(EnvPrivateKey)
	if privateKey == "" {
		t.Skipf("%s not set, skipping test that needs a funded account", EnvPrivateKey)
	}
	w, err := wallet.NewWalletFromPrivateKey(privateKey)
	require.NoError(t, err, "从私钥创建测试钱包失败")
	return w
}

// CreateTestWallet 创建随机测试钱包
func CreateTestWallet(t *testing.T) wallet.Wallet {
	w, err := wallet.NewWallet()
	require.NoError(t, err, "创建测试钱包失败")
	return w
}
