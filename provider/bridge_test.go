package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Khanviph/tron1/types"
)

// fakeRelay 模拟运行在浏览器里的中继页面
type fakeRelay struct {
	t        *testing.T
	mu       sync.Mutex
	writeMu  sync.Mutex
	status   BridgeStatus
	signGate chan struct{}
	server   *httptest.Server
	conns    []*websocket.Conn
}

func newFakeRelay(t *testing.T) *fakeRelay {
	r := &fakeRelay{t: t}
	r.status.Ready = true
	r.status.DefaultAddress.Base58 = "T9yD14Nj9j7xAB4dbGeiX9h8unkKHxuWwb"
	r.status.Host = "https://api.shasta.trongrid.io"

	upgrader := websocket.Upgrader{}
	r.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		r.mu.Lock()
		r.conns = append(r.conns, conn)
		r.mu.Unlock()
		go r.serve(conn)
	}))
	t.Cleanup(r.server.Close)
	return r
}

func (r *fakeRelay) url() string {
	return "ws" + strings.TrimPrefix(r.server.URL, "http")
}

func (r *fakeRelay) serve(conn *websocket.Conn) {
	reply := func(id uint64, result interface{}, rpcErr *rpcError) {
		r.writeMu.Lock()
		defer r.writeMu.Unlock()
		msg := map[string]interface{}{"jsonrpc": "2.0", "id": id}
		if rpcErr != nil {
			msg["error"] = rpcErr
		} else {
			msg["result"] = result
		}
		conn.WriteJSON(msg)
	}

	for {
		var req struct {
			ID     uint64            `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		switch req.Method {
		case MethodStatus:
			r.mu.Lock()
			status := r.status
			r.mu.Unlock()
			reply(req.ID, status, nil)
		case MethodSign:
			var tx types.Transaction
			json.Unmarshal(req.Params[0], &tx)
			gate := r.signGate
			go func(id uint64) {
				if gate != nil {
					<-gate
				}
				if tx.TxID == "reject" {
					reply(id, nil, &rpcError{Code: 4001, Message: "Confirmation declined by user"})
					return
				}
				tx.Signature = append(tx.Signature, "deadbeef")
				reply(id, tx, nil)
			}(req.ID)
		case MethodSendRawTransaction:
			reply(req.ID, map[string]interface{}{"result": true, "txid": "abc"}, nil)
		case MethodRequest:
			var path string
			json.Unmarshal(req.Params[0], &path)
			if path != "/wallet/accountpermissionupdate" {
				reply(req.ID, map[string]interface{}{"Error": "unknown path"}, nil)
				return
			}
			reply(req.ID, map[string]interface{}{"txID": "abc", "raw_data_hex": "0a02"}, nil)
		case MethodGetNodeInfo:
			reply(req.ID, map[string]interface{}{"activeConnectCount": 5}, nil)
		default:
			reply(req.ID, nil, &rpcError{Code: -32601, Message: "method not found"})
		}
	}
}

func (r *fakeRelay) pushStatus(status BridgeStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = status
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	for _, c := range r.conns {
		c.WriteJSON(map[string]interface{}{"jsonrpc": "2.0", "method": MethodStatusChanged, "params": status})
	}
}

func testBridgeConfig() BridgeConfig {
	return BridgeConfig{HandshakeTimeout: time.Second, RequestTimeout: 2 * time.Second}
}

func TestBridge_StatusAndCalls(t *testing.T) {
	relay := newFakeRelay(t)
	ctx := context.Background()

	b, err := DialBridge(ctx, relay.url(), testBridgeConfig())
	require.NoError(t, err)
	defer b.Close()

	assert.True(t, b.Ready())
	assert.Equal(t, "T9yD14Nj9j7xAB4dbGeiX9h8unkKHxuWwb", b.DefaultAddress())
	assert.Equal(t, "https://api.shasta.trongrid.io", b.Host())
	assert.True(t, b.IsAddress(b.DefaultAddress()))

	tx, err := b.Request(ctx, "/wallet/accountpermissionupdate", map[string]interface{}{}, "post")
	require.NoError(t, err)
	assert.Equal(t, "abc", tx.TxID)

	signed, err := b.Sign(ctx, tx)
	require.NoError(t, err)
	assert.Equal(t, []string{"deadbeef"}, signed.Signature)

	receipt, err := b.SendRawTransaction(ctx, signed)
	require.NoError(t, err)
	assert.True(t, receipt.Result)

	info, err := b.GetNodeInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(5), info["activeConnectCount"])
}

func TestBridge_NodeErrorFromRequest(t *testing.T) {
	relay := newFakeRelay(t)
	b, err := DialBridge(context.Background(), relay.url(), testBridgeConfig())
	require.NoError(t, err)
	defer b.Close()

	_, err = b.Request(context.Background(), "/wallet/other", nil, "post")
	_, ok := types.IsNodeError(err)
	assert.True(t, ok, "expected NodeError, got %v", err)
}

func TestBridge_SignRejectedAndWaitsWithoutTimeout(t *testing.T) {
	relay := newFakeRelay(t)
	relay.signGate = make(chan struct{})

	cfg := testBridgeConfig()
	cfg.RequestTimeout = 20 * time.Millisecond
	b, err := DialBridge(context.Background(), relay.url(), cfg)
	require.NoError(t, err)
	defer b.Close()

	done := make(chan error, 1)
	go func() {
		_, err := b.Sign(context.Background(), &types.Transaction{TxID: "reject"})
		done <- err
	}()

	// 签名等待时间超过 RequestTimeout 也不应超时
	select {
	case err := <-done:
		t.Fatalf("sign returned early: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
	close(relay.signGate)

	err = <-done
	var rpcErr *rpcError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, 4001, rpcErr.Code)
}

func TestBridge_StatusNotification(t *testing.T) {
	relay := newFakeRelay(t)
	b, err := DialBridge(context.Background(), relay.url(), testBridgeConfig())
	require.NoError(t, err)
	defer b.Close()

	locked := BridgeStatus{Ready: true}
	relay.pushStatus(locked)

	assert.Eventually(t, func() bool { return b.DefaultAddress() == "" }, time.Second, 5*time.Millisecond)
	assert.True(t, b.Ready())
}

func TestBridge_CloseFailsPendingCalls(t *testing.T) {
	relay := newFakeRelay(t)
	relay.signGate = make(chan struct{})
	defer close(relay.signGate)

	b, err := DialBridge(context.Background(), relay.url(), testBridgeConfig())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := b.Sign(context.Background(), &types.Transaction{TxID: "abc"})
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, b.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrBridgeClosed)
	case <-time.After(time.Second):
		t.Fatal("pending call was not released")
	}
	assert.False(t, b.Ready())
	<-b.Done()
}

func TestBridgeLocator(t *testing.T) {
	locator := NewBridgeLocator("ws://127.0.0.1:1/unreachable", testBridgeConfig(), 200*time.Millisecond)
	assert.Nil(t, locator.Lookup())

	relay := newFakeRelay(t)
	locator = NewBridgeLocator(relay.url(), testBridgeConfig(), time.Second)
	defer locator.Close()

	p := locator.Lookup()
	require.NotNil(t, p)
	assert.True(t, p.Ready())
	assert.Same(t, p, locator.Lookup())
}
