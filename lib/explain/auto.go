package explain

import (
	"sync/atomic"
	"time"

	"github.com/benz9527/bstviz/lib/tree"
)

// Auto resumes every step after a fixed delay. A non-positive delay
// resumes at once.
type Auto struct {
	delay atomic.Int64
}

func NewAuto(delay time.Duration) *Auto {
	a := &Auto{}
	a.SetDelay(delay)
	return a
}

func (a *Auto) SetDelay(delay time.Duration) {
	a.delay.Store(int64(delay))
}

func (a *Auto) Delay() time.Duration {
	return time.Duration(a.delay.Load())
}

func (a *Auto) Show(tree.Step) <-chan struct{} {
	d := a.Delay()
	if d <= 0 {
		return resolved()
	}
	token := make(chan struct{})
	time.AfterFunc(d, func() {
		close(token)
	})
	return token
}
