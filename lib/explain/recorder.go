package explain

import (
	"slices"
	"sync"

	"github.com/benz9527/bstviz/lib/tree"
)

// Recorder keeps every step and never suspends.
type Recorder struct {
	lock  sync.Mutex
	steps []tree.Step
}

func NewRecorder() *Recorder {
	return &Recorder{
		steps: make([]tree.Step, 0, 64),
	}
}

func (r *Recorder) Show(step tree.Step) <-chan struct{} {
	r.lock.Lock()
	r.steps = append(r.steps, step)
	r.lock.Unlock()
	return resolved()
}

func (r *Recorder) Steps() []tree.Step {
	r.lock.Lock()
	defer r.lock.Unlock()
	return slices.Clone(r.steps)
}

func (r *Recorder) Titles() []string {
	r.lock.Lock()
	defer r.lock.Unlock()
	titles := make([]string, 0, len(r.steps))
	for _, s := range r.steps {
		titles = append(titles, s.Title)
	}
	return titles
}

func (r *Recorder) Reset() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.steps = r.steps[:0]
}
