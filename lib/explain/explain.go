// Package explain provides the observers driving the step-wise trees: they
// decide when a suspended operation may resume.
package explain

import (
	"github.com/benz9527/bstviz/lib/tree"
)

var (
	_ tree.Explainer = (*Interactive)(nil)
	_ tree.Explainer = (*Auto)(nil)
	_ tree.Explainer = (*Recorder)(nil)
	_ tree.Explainer = (*logged)(nil)
	_ tree.Explainer = (*metered)(nil)
)

func resolved() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}
