package explain

import (
	"sync"

	"github.com/benz9527/bstviz/lib/tree"
)

// Interactive suspends every step until Next is called. The latest step is
// published on Steps, older unread steps are dropped.
type Interactive struct {
	lock    sync.Mutex
	pending chan struct{}
	steps   chan tree.Step
}

func NewInteractive() *Interactive {
	return &Interactive{
		steps: make(chan tree.Step, 1),
	}
}

func (e *Interactive) Show(step tree.Step) <-chan struct{} {
	token := make(chan struct{})
	e.lock.Lock()
	e.pending = token
	for {
		select {
		case e.steps <- step:
			e.lock.Unlock()
			return token
		default:
		}
		select {
		case <-e.steps:
		default:
		}
	}
}

// Next resumes the suspended operation. It reports false if no operation
// was waiting.
func (e *Interactive) Next() bool {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.pending == nil {
		return false
	}
	close(e.pending)
	e.pending = nil
	return true
}

func (e *Interactive) Pending() bool {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.pending != nil
}

func (e *Interactive) Steps() <-chan tree.Step {
	return e.steps
}
