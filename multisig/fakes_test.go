package multisig

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Khanviph/tron1/types"
)

// fakeProvider 内存提供者：以 T 开头且不含 '!' 的字符串视为合法地址
type fakeProvider struct {
	mu sync.Mutex

	ready   bool
	address string

	requestTx    *types.Transaction
	requestErr   error
	signErr      error
	signGate     chan struct{}
	signPanic    bool
	broadcast    *types.BroadcastResult
	broadcastErr error
	nodeInfoErr  error
	nodeInfoGate chan struct{}

	calls      []string
	lastPath   string
	lastMethod string
	lastBody   interface{}
	signedIn   *types.Transaction
	broadcasts []*types.Transaction
	toHexCalls int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		ready:   true,
		address: "TOwner",
		requestTx: &types.Transaction{
			TxID:       "abc123",
			RawData:    json.RawMessage(`{"contract":[]}`),
			RawDataHex: "0a02",
		},
		broadcast: &types.BroadcastResult{Result: true, TxID: "abc123"},
	}
}

func (p *fakeProvider) record(call string) {
	p.mu.Lock()
	p.calls = append(p.calls, call)
	p.mu.Unlock()
}

func (p *fakeProvider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *fakeProvider) Ready() bool            { return p.ready }
func (p *fakeProvider) DefaultAddress() string { return p.address }

func (p *fakeProvider) IsAddress(addr string) bool {
	return len(addr) > 1 && strings.HasPrefix(addr, "T") && !strings.Contains(addr, "!")
}

func (p *fakeProvider) ToHex(addr string) (string, error) {
	p.mu.Lock()
	p.toHexCalls++
	p.mu.Unlock()
	if !p.IsAddress(addr) {
		return "", errors.New("not an address")
	}
	return "41" + strings.ToLower(addr[1:]), nil
}

func (p *fakeProvider) Request(ctx context.Context, path string, body interface{}, method string) (*types.Transaction, error) {
	p.record("request")
	p.mu.Lock()
	p.lastPath, p.lastMethod, p.lastBody = path, method, body
	p.mu.Unlock()
	if p.requestErr != nil {
		return nil, p.requestErr
	}
	return p.requestTx.Clone(), nil
}

func (p *fakeProvider) Sign(ctx context.Context, tx *types.Transaction) (*types.Transaction, error) {
	p.record("sign")
	p.mu.Lock()
	p.signedIn = tx.Clone()
	p.mu.Unlock()
	if p.signPanic {
		panic("provider exploded")
	}
	if p.signGate != nil {
		select {
		case <-p.signGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.signErr != nil {
		return nil, p.signErr
	}
	signed := tx.Clone()
	signed.Signature = append(signed.Signature, "deadbeef")
	return signed, nil
}

func (p *fakeProvider) SendRawTransaction(ctx context.Context, tx *types.Transaction) (*types.BroadcastResult, error) {
	p.record("broadcast")
	p.mu.Lock()
	p.broadcasts = append(p.broadcasts, tx.Clone())
	p.mu.Unlock()
	if p.broadcastErr != nil {
		return nil, p.broadcastErr
	}
	return p.broadcast, nil
}

func (p *fakeProvider) GetNodeInfo(ctx context.Context) (map[string]interface{}, error) {
	p.record("nodeinfo")
	if p.nodeInfoGate != nil {
		select {
		case <-p.nodeInfoGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.nodeInfoErr != nil {
		return nil, p.nodeInfoErr
	}
	return map[string]interface{}{"configNodeInfo": map[string]interface{}{"codeVersion": "4.7.4"}}, nil
}

// manualClock 固定时间；After 立即触发，block 为真时永不触发
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	block  bool
	sleeps []time.Duration
}

func newManualClock() *manualClock {
	return &manualClock{now: time.UnixMilli(1700000000000)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	if c.block {
		return nil
	}
	ch := make(chan time.Time, 1)
	ch <- c.now.Add(d)
	return ch
}

func (c *manualClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}
