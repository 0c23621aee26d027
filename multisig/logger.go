package multisig

import "github.com/Khanviph/tron1/client"

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func orNop(l client.Logger) client.Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}
