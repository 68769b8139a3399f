package monitoring

import (
	"sync/atomic"
	"time"
)

// Monitor reports errors to an external tracker. Implementations are called
// from concurrent year workers.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Flush(timeout time.Duration)
}

// NopMonitor drops every report.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Flush(time.Duration)                       {}

type holder struct{ m Monitor }

var current atomic.Pointer[holder]

func init() { current.Store(&holder{NopMonitor{}}) }

// Init sets the process-wide monitor. A nil monitor is ignored.
func Init(m Monitor) {
	if m != nil {
		current.Store(&holder{m})
	}
}

// Current returns the process-wide monitor.
func Current() Monitor { return current.Load().m }

// CaptureException reports err with tags such as the year and the failing
// module. A nil error is not reported.
func CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	Current().CaptureException(err, tags)
}

// Flush waits up to d for buffered reports to be sent.
func Flush(d time.Duration) { Current().Flush(d) }
