package client

// Config 客户端配置
type Config struct {
	// Endpoint 节点 HTTP API 地址，例如 https://api.trongrid.io
	Endpoint string

	// Timeout 超时时间（秒）
	Timeout int

	// APIKey TronGrid API Key（可选，写入 TRON-PRO-API-KEY 请求头）
	APIKey string

	// Retry 只读请求的重试配置；为 nil 时使用默认配置
	Retry *RetryConfig

	// 调试模式
	Debug bool

	// 日志器（可选）
	Logger Logger
}

// Logger 日志接口
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Endpoint: "https://api.trongrid.io",
		Timeout:  30,
		Debug:    false,
	}
}
