package multisig

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Khanviph/tron1/client"
	"github.com/Khanviph/tron1/provider"
)

// MaxControllers 表单中控制地址的上限
const MaxControllers = 5

// ErrBusy 已有一次提交正在进行
var ErrBusy = errors.New("multisig: submission already in progress")

// State 对外可见的工作流状态
type State struct {
	ProviderReady  bool
	Busy           bool
	ErrorMessage   string
	SuccessMessage string
	TxID           string
}

// Form 表单输入
type Form struct {
	Target      string
	Controllers []string
	Threshold   int
}

func (f Form) clone() Form {
	f.Controllers = append([]string(nil), f.Controllers...)
	return f
}

// Controller 编排 Waiter、Builder 与 Pipeline，持有全部可见状态
type Controller struct {
	mu       sync.Mutex
	state    State
	form     Form
	provider provider.Provider

	waiter *Waiter
	clock  Clock
	logger client.Logger
}

// ControllerOption Controller 选项
type ControllerOption func(*Controller)

// WithClock 替换 Pipeline 使用的时钟
func WithClock(c Clock) ControllerOption {
	return func(ctl *Controller) { ctl.clock = c }
}

// WithLogger 设置日志
func WithLogger(l client.Logger) ControllerOption {
	return func(ctl *Controller) { ctl.logger = orNop(l) }
}

// NewController 创建 Controller，初始表单含一个空的控制地址、门限为 1
func NewController(waiter *Waiter, opts ...ControllerOption) *Controller {
	c := &Controller{
		form: Form{
			Controllers: []string{""},
			Threshold:   1,
		},
		waiter: waiter,
		clock:  SystemClock(),
		logger: nopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect 等待提供者就绪
//
// 就绪状态在提供者可用时立即写入，随后查询一次节点信息用于诊断，
// 失败仅记录日志。
func (c *Controller) Connect(ctx context.Context) error {
	if c.waiter == nil {
		err := newError(KindProviderNotDetected, nil)
		c.setError(err)
		return err
	}

	p, err := c.waiter.Wait(ctx)
	if err != nil {
		c.setError(err)
		return err
	}

	c.mu.Lock()
	c.provider = p
	c.state.ProviderReady = true
	c.mu.Unlock()

	if hr, ok := p.(provider.HostReporter); ok {
		c.logger.Info("Connected to node", "host", hr.Host())
	}
	if info, err := p.GetNodeInfo(ctx); err != nil {
		c.logger.Warn("Failed to get node info", "error", err)
	} else {
		c.logger.Debug("Node info", "info", info)
	}
	return nil
}

// Submit 用当前表单执行一次权限更新
//
// 已有提交在进行时立即返回 ErrBusy 且不改变状态。
// 提交结果以 State() 为准：失败写入 State.ErrorMessage，成功写入
// State.SuccessMessage，结束后工作流回到可再次提交的空闲状态。
// 返回的 error 只是同一结果的副本，供调用方按 Kind 区分，无需再次处理。
func (c *Controller) Submit(ctx context.Context) (err error) {
	c.mu.Lock()
	if c.state.Busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state.Busy = true
	c.state.ErrorMessage = ""
	c.state.SuccessMessage = ""
	c.state.TxID = ""
	p := c.provider
	ready := c.state.ProviderReady
	form := c.form.clone()
	c.mu.Unlock()

	runID := uuid.NewString()
	c.logger.Info("Submitting permission update", "run", runID, "target", form.Target, "threshold", form.Threshold)

	var txID string
	defer func() {
		if r := recover(); r != nil {
			err = newError(KindUnknownFailure, fmt.Errorf("panic: %v", r))
		}
		c.finish(runID, txID, err)
	}()

	txID, err = c.run(ctx, p, ready, form)
	return err
}

func (c *Controller) run(ctx context.Context, p provider.Provider, ready bool, form Form) (string, error) {
	if !ready || p == nil {
		return "", newError(KindProviderNotConnected, nil)
	}
	req, err := BuildPermissionUpdate(form.Target, form.Controllers, form.Threshold, p)
	if err != nil {
		return "", err
	}
	return NewPipeline(p, c.clock, c.logger).Execute(ctx, req)
}

func (c *Controller) finish(runID, txID string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Busy = false
	if err != nil {
		c.state.ErrorMessage = UserMessage(err)
		c.logger.Error("Permission update failed", "run", runID, "kind", KindOf(err).String(), "error", err)
		return
	}
	c.state.TxID = txID
	c.state.SuccessMessage = SuccessMessage(txID)
	c.logger.Info("Permission update succeeded", "run", runID, "txID", txID)
}

func (c *Controller) setError(err error) {
	c.mu.Lock()
	c.state.ErrorMessage = UserMessage(err)
	c.mu.Unlock()
}

// SuccessMessage 成功提示
func SuccessMessage(txID string) string {
	return fmt.Sprintf("多签权限设置成功! 交易ID: %s", txID)
}

// State 返回状态快照
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Form 返回表单副本
func (c *Controller) Form() Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form.clone()
}

// SetTarget 设置被控制地址
func (c *Controller) SetTarget(target string) {
	c.mu.Lock()
	c.form.Target = target
	c.mu.Unlock()
}

// AddController 追加一个空的控制地址，已达上限时返回 false
func (c *Controller) AddController() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.form.Controllers) >= MaxControllers {
		return false
	}
	c.form.Controllers = append(c.form.Controllers, "")
	return true
}

// RemoveController 删除第 i 个控制地址，至少保留一个
//
// 门限超过剩余数量时下调到剩余数量。
func (c *Controller) RemoveController(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.form.Controllers)
	if n <= 1 || i < 0 || i >= n {
		return false
	}
	controllers := make([]string, 0, n-1)
	controllers = append(controllers, c.form.Controllers[:i]...)
	controllers = append(controllers, c.form.Controllers[i+1:]...)
	c.form.Controllers = controllers
	if c.form.Threshold > len(controllers) {
		c.form.Threshold = len(controllers)
	}
	return true
}

// UpdateController 修改第 i 个控制地址
func (c *Controller) UpdateController(i int, addr string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.form.Controllers) {
		return false
	}
	c.form.Controllers[i] = addr
	return true
}

// SetThreshold 设置门限，限制在 [1, 控制地址数量] 范围内
func (c *Controller) SetThreshold(t int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t > len(c.form.Controllers) {
		t = len(c.form.Controllers)
	}
	if t < 1 {
		t = 1
	}
	c.form.Threshold = t
	return t
}

// SetControllers 一次性替换控制地址，超出上限的部分被丢弃
func (c *Controller) SetControllers(addrs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	controllers := append([]string(nil), addrs...)
	if len(controllers) > MaxControllers {
		controllers = controllers[:MaxControllers]
	}
	if len(controllers) == 0 {
		controllers = []string{""}
	}
	c.form.Controllers = controllers
	if c.form.Threshold > len(controllers) {
		c.form.Threshold = len(controllers)
	}
}
