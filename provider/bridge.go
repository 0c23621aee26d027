package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Khanviph/tron1/client"
	"github.com/Khanviph/tron1/types"
	"github.com/Khanviph/tron1/utils"
)

// 桥接协议方法名（JSON-RPC 2.0 over WebSocket）
//
// 中继页面运行在装有 TronLink 的浏览器中，把这些调用转发给 window.tronWeb。
const (
	MethodStatus             = "tron_status"
	MethodStatusChanged      = "tron_statusChanged"
	MethodSign               = "tron_sign"
	MethodSendRawTransaction = "tron_sendRawTransaction"
	MethodRequest            = "tron_request"
	MethodGetNodeInfo        = "tron_getNodeInfo"
)

// ErrBridgeClosed 桥接连接已关闭
var ErrBridgeClosed = errors.New("bridge connection is closed")

// BridgeConfig 桥接提供者配置
type BridgeConfig struct {
	// HandshakeTimeout WebSocket 握手超时
	HandshakeTimeout time.Duration
	// RequestTimeout 普通请求超时；签名请求不受此限制
	RequestTimeout time.Duration
	// Logger 日志器（可选）
	Logger client.Logger
}

// DefaultBridgeConfig 返回默认桥接配置
func DefaultBridgeConfig() BridgeConfig {
	return BridgeConfig{
		HandshakeTimeout: 10 * time.Second,
		RequestTimeout:   30 * time.Second,
	}
}

// BridgeStatus 中继页面上报的 tronWeb 状态
type BridgeStatus struct {
	Ready          bool `json:"ready"`
	DefaultAddress struct {
		Base58 string `json:"base58"`
		Hex    string `json:"hex"`
	} `json:"defaultAddress"`
	Host string `json:"host"`
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      uint64      `json:"id"`
}

// rpcMessage 既可能是响应，也可能是服务端推送的通知（ID 为 0 且带 Method）
type rpcMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// Bridge 通过 WebSocket 中继访问浏览器钱包的提供者
type Bridge struct {
	endpoint       string
	conn           *websocket.Conn
	writeMu        sync.Mutex
	closed         int32
	nextID         uint64
	requests       map[uint64]chan *rpcMessage
	muReq          sync.Mutex
	statusMu       sync.RWMutex
	status         BridgeStatus
	requestTimeout time.Duration
	logger         client.Logger
	done           chan struct{}
}

// DialBridge 连接中继并拉取一次状态
func DialBridge(ctx context.Context, endpoint string, cfg BridgeConfig) (*Bridge, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial bridge: %w", err)
	}

	b := &Bridge{
		endpoint:       endpoint,
		conn:           conn,
		requests:       make(map[uint64]chan *rpcMessage),
		requestTimeout: cfg.RequestTimeout,
		logger:         cfg.Logger,
		done:           make(chan struct{}),
	}
	go b.readLoop()

	if err := b.Refresh(ctx); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

// readLoop 消息读取循环
func (b *Bridge) readLoop() {
	defer func() {
		atomic.StoreInt32(&b.closed, 1)
		b.muReq.Lock()
		for id, ch := range b.requests {
			close(ch)
			delete(b.requests, id)
		}
		b.muReq.Unlock()
		close(b.done)
	}()

	for {
		var msg rpcMessage
		if err := b.conn.ReadJSON(&msg); err != nil {
			if b.logger != nil && atomic.LoadInt32(&b.closed) == 0 {
				b.logger.Warn("Bridge read failed", "endpoint", b.endpoint, "error", err)
			}
			return
		}

		if msg.Method == MethodStatusChanged {
			b.applyStatus(msg.Params)
			continue
		}

		b.muReq.Lock()
		ch, exists := b.requests[msg.ID]
		if exists {
			delete(b.requests, msg.ID)
		}
		b.muReq.Unlock()

		if exists {
			ch <- &msg
		}
	}
}

func (b *Bridge) applyStatus(raw json.RawMessage) {
	var status BridgeStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		if b.logger != nil {
			b.logger.Warn("Invalid bridge status", "error", err)
		}
		return
	}
	b.statusMu.Lock()
	b.status = status
	b.statusMu.Unlock()
}

// call 发送请求并等待响应；timeout 为 0 时只受 ctx 约束
func (b *Bridge) call(ctx context.Context, method string, params interface{}, timeout time.Duration) (json.RawMessage, error) {
	if atomic.LoadInt32(&b.closed) == 1 {
		return nil, ErrBridgeClosed
	}

	reqID := atomic.AddUint64(&b.nextID, 1)
	respCh := make(chan *rpcMessage, 1)
	b.muReq.Lock()
	b.requests[reqID] = respCh
	b.muReq.Unlock()

	forget := func() {
		b.muReq.Lock()
		delete(b.requests, reqID)
		b.muReq.Unlock()
	}

	b.writeMu.Lock()
	err := b.conn.WriteJSON(rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: reqID})
	b.writeMu.Unlock()
	if err != nil {
		forget()
		return nil, fmt.Errorf("write request: %w", err)
	}

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case resp, ok := <-respCh:
		return unwrapResponse(resp, ok)
	case <-b.done:
		// 读循环已退出，可能在注册前就已清空了请求表
		forget()
		select {
		case resp, ok := <-respCh:
			return unwrapResponse(resp, ok)
		default:
			return nil, ErrBridgeClosed
		}
	case <-ctx.Done():
		forget()
		return nil, ctx.Err()
	case <-timeoutCh:
		forget()
		return nil, client.NewTimeoutError()
	}
}

func unwrapResponse(resp *rpcMessage, ok bool) (json.RawMessage, error) {
	if !ok || resp == nil {
		return nil, ErrBridgeClosed
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Result, nil
}

// Refresh 重新拉取 tronWeb 状态
func (b *Bridge) Refresh(ctx context.Context) error {
	result, err := b.call(ctx, MethodStatus, []interface{}{}, b.requestTimeout)
	if err != nil {
		return fmt.Errorf("query bridge status: %w", err)
	}
	b.applyStatus(result)
	return nil
}

// Status 当前缓存的状态
func (b *Bridge) Status() BridgeStatus {
	b.statusMu.RLock()
	defer b.statusMu.RUnlock()
	return b.status
}

// Ready 实现 Provider
func (b *Bridge) Ready() bool {
	return !b.Closed() && b.Status().Ready
}

// DefaultAddress 实现 Provider
func (b *Bridge) DefaultAddress() string {
	return b.Status().DefaultAddress.Base58
}

// Host 实现 HostReporter
func (b *Bridge) Host() string {
	return b.Status().Host
}

// IsAddress 地址校验在本地完成，规则与 tronWeb.isAddress 一致
func (b *Bridge) IsAddress(addr string) bool {
	return utils.IsAddress(addr)
}

// ToHex 与 tronWeb.address.toHex 一致
func (b *Bridge) ToHex(addr string) (string, error) {
	return utils.ToHex(addr)
}

// Sign 转发给浏览器钱包签名，等待用户确认，不设超时
func (b *Bridge) Sign(ctx context.Context, tx *types.Transaction) (*types.Transaction, error) {
	result, err := b.call(ctx, MethodSign, []interface{}{tx}, 0)
	if err != nil {
		return nil, err
	}
	var signed types.Transaction
	if err := json.Unmarshal(result, &signed); err != nil {
		return nil, fmt.Errorf("decode signed transaction: %w", err)
	}
	return &signed, nil
}

// SendRawTransaction 转发广播
func (b *Bridge) SendRawTransaction(ctx context.Context, tx *types.Transaction) (*types.BroadcastResult, error) {
	result, err := b.call(ctx, MethodSendRawTransaction, []interface{}{tx}, b.requestTimeout)
	if err != nil {
		return nil, err
	}
	var receipt types.BroadcastResult
	if err := json.Unmarshal(result, &receipt); err != nil {
		return nil, fmt.Errorf("decode broadcast result: %w", err)
	}
	receipt.Message = types.DecodeNodeMessage(receipt.Message)
	return &receipt, nil
}

// Request 转发 fullNode.request
func (b *Bridge) Request(ctx context.Context, path string, body interface{}, method string) (*types.Transaction, error) {
	result, err := b.call(ctx, MethodRequest, []interface{}{path, body, method}, b.requestTimeout)
	if err != nil {
		return nil, err
	}
	if string(result) == "null" || len(result) == 0 {
		return nil, nil
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, fmt.Errorf("decode node response: %w", err)
	}
	if nodeErr, ok := types.ParseNodeError(payload); ok {
		return nil, nodeErr
	}

	var tx types.Transaction
	if err := json.Unmarshal(result, &tx); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	return &tx, nil
}

// GetNodeInfo 转发 trx.getNodeInfo
func (b *Bridge) GetNodeInfo(ctx context.Context) (map[string]interface{}, error) {
	result, err := b.call(ctx, MethodGetNodeInfo, []interface{}{}, b.requestTimeout)
	if err != nil {
		return nil, err
	}
	var info map[string]interface{}
	if err := json.Unmarshal(result, &info); err != nil {
		return nil, fmt.Errorf("decode node info: %w", err)
	}
	return info, nil
}

// Done 连接断开后关闭
func (b *Bridge) Done() <-chan struct{} {
	return b.done
}

// Closed 连接是否已关闭
func (b *Bridge) Closed() bool {
	return atomic.LoadInt32(&b.closed) == 1
}

// Close 关闭连接
func (b *Bridge) Close() error {
	if atomic.CompareAndSwapInt32(&b.closed, 0, 1) {
		b.writeMu.Lock()
		defer b.writeMu.Unlock()
		return b.conn.Close()
	}
	return nil
}

// BridgeLocator 每次查找时确保中继连接可用
//
// 连接失败时返回 nil，等价于浏览器中 window.tronWeb 尚未注入。
type BridgeLocator struct {
	endpoint string
	cfg      BridgeConfig
	timeout  time.Duration

	mu      sync.Mutex
	current *Bridge
}

// NewBridgeLocator 创建中继查找器，timeout 为单次连接/刷新的上限
func NewBridgeLocator(endpoint string, cfg BridgeConfig, timeout time.Duration) *BridgeLocator {
	return &BridgeLocator{
		endpoint: endpoint,
		cfg:      cfg,
		timeout:  timeout,
	}
}

// Lookup 实现 Locator
func (l *BridgeLocator) Lookup() Provider {
	l.mu.Lock()
	defer l.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	if l.current != nil && !l.current.Closed() {
		if err := l.current.Refresh(ctx); err != nil && l.cfg.Logger != nil {
			l.cfg.Logger.Warn("Bridge status refresh failed", "error", err)
		}
		return l.current
	}

	b, err := DialBridge(ctx, l.endpoint, l.cfg)
	if err != nil {
		if l.cfg.Logger != nil {
			l.cfg.Logger.Debug("Bridge not available", "endpoint", l.endpoint, "error", err)
		}
		return nil
	}
	l.current = b
	return b
}

// Close 关闭当前连接
func (l *BridgeLocator) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current == nil {
		return nil
	}
	err := l.current.Close()
	l.current = nil
	return err
}
