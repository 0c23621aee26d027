package multisig

import "time"

// Clock 时间源，测试中可替换
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock 返回真实时钟
func SystemClock() Clock {
	return systemClock{}
}
