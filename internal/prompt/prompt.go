// Package prompt relays textual challenge questions to a human operator.
package prompt

import (
	"github.com/manifoldco/promptui"
	"go.uber.org/fx"
)

//go:generate go run go.uber.org/mock/mockgen -source=prompt.go -destination=mocks/mock.go

// Relay surfaces a question and blocks until the operator answers. No
// timeout is imposed and the answer's shape is not validated.
type Relay interface {
	Ask(question string) (string, error)
	// AskSecret behaves like Ask but does not echo the typed answer.
	AskSecret(question string) (string, error)
}

// TerminalRelay asks on the controlling terminal.
type TerminalRelay struct{}

func NewTerminalRelay() *TerminalRelay {
	return &TerminalRelay{}
}

func (r *TerminalRelay) Ask(question string) (string, error) {
	p := promptui.Prompt{Label: question}
	return p.Run()
}

func (r *TerminalRelay) AskSecret(question string) (string, error) {
	p := promptui.Prompt{Label: question, Mask: '*'}
	return p.Run()
}

var _ Relay = (*TerminalRelay)(nil)

var Module = fx.Provide(
	fx.Annotate(
		NewTerminalRelay,
		fx.As(new(Relay)),
	),
)
