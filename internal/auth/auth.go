// Package auth drives multi-round interactive authentication as an explicit
// challenge/response state machine. Each adapter owns one Flow; the adapter
// supplies a Service that talks to its backing platform, while the flow owns
// the credential cache, the human relay and the captcha solver.
package auth

import (
	"context"

	"github.com/AlexXanderGrib/post-copier/internal/captcha"
)

// State of a Flow. Terminal states are StateAuthenticated, StateCached and
// StateFailed.
type State int

const (
	StateIdle State = iota
	// StateCached: a stored token still established a session.
	StateCached
	// StateInteractive: no usable token, entering the prompt round-trip.
	StateInteractive
	StateAwaitingPrimaryCredential
	StateAwaitingSecondaryChallenge
	StateAwaitingCaptcha
	StateAuthenticated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCached:
		return "cached"
	case StateInteractive:
		return "interactive"
	case StateAwaitingPrimaryCredential:
		return "awaiting_primary_credential"
	case StateAwaitingSecondaryChallenge:
		return "awaiting_secondary_challenge"
	case StateAwaitingCaptcha:
		return "awaiting_captcha"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Kind of proof a challenge demands.
type Kind int

const (
	// KindPrimary: login, phone number, api token and the like.
	KindPrimary Kind = iota
	// KindSecret: a primary credential that must not be echoed.
	KindSecret
	// KindCode: one-time code, two-factor confirmation.
	KindCode
	// KindCaptcha: opaque image bytes to be solved.
	KindCaptcha
)

// Challenge is one demand for proof issued by the backing service. Image is
// set only for KindCaptcha.
type Challenge struct {
	Kind   Kind
	Prompt string
	Image  []byte
}

// Outcome of one exchange: either a session token or the next challenge.
type Outcome struct {
	Token string
	Next  *Challenge
}

// Service is implemented by platform adapters. Any challenge type may be
// skipped: the service simply never issues it for this login.
type Service interface {
	// Validate reports whether a previously issued token still establishes a
	// usable session.
	Validate(ctx context.Context, token string) error
	// First starts an interactive login and returns the opening outcome,
	// usually a primary-credential challenge.
	First(ctx context.Context) (*Outcome, error)
	// Next answers the pending challenge. A wrong captcha answer surfaces as
	// a re-issued captcha challenge, not an error.
	Next(ctx context.Context, ch *Challenge, answer string) (*Outcome, error)
}

// Login captchas are 4-7 case-sensitive latin characters.
var defaultCaptchaOptions = captcha.Options{
	MinLen:        4,
	MaxLen:        7,
	CaseSensitive: true,
	Language:      2,
}
