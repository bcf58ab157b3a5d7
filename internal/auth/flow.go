package auth

import (
	"context"
	"fmt"

	"github.com/AlexXanderGrib/post-copier/internal/captcha"
	"github.com/AlexXanderGrib/post-copier/internal/credstore"
	"github.com/AlexXanderGrib/post-copier/internal/prompt"
	"github.com/AlexXanderGrib/post-copier/pkg/errors"
	"github.com/AlexXanderGrib/post-copier/pkg/logger"
)

// Flow runs the challenge/response protocol for one adapter. On success the
// resulting token overwrites the stored value for Key; on failure the store
// is left untouched. No retry cap is imposed: the flow loops for as long as
// the service keeps issuing challenges and the operator keeps answering.
type Flow struct {
	store   credstore.Store
	key     string
	relay   prompt.Relay
	solver  captcha.Solver
	copts   captcha.Options
	logger  logger.Logger
	current State
}

type FlowOpts struct {
	Store  credstore.Store
	Key    string
	Relay  prompt.Relay
	Solver captcha.Solver // optional; captcha challenges fail without one
	Logger logger.Logger
	// Captcha overrides the solver hints when non-zero.
	Captcha captcha.Options
}

func NewFlow(opts FlowOpts) *Flow {
	copts := opts.Captcha
	if copts == (captcha.Options{}) {
		copts = defaultCaptchaOptions
	}

	return &Flow{
		store:  opts.Store,
		key:    opts.Key,
		relay:  opts.Relay,
		solver: opts.Solver,
		copts:  copts,
		logger: opts.Logger,
	}
}

// State reports the flow's last reached state, for logs and tests.
func (f *Flow) State() State {
	return f.current
}

// Run authenticates against svc and returns a usable session token.
func (f *Flow) Run(ctx context.Context, svc Service) (string, error) {
	if token, ok := f.store.Get(f.key); ok {
		if err := svc.Validate(ctx, token); err == nil {
			f.current = StateCached
			f.logger.Debug("Using cached credential", "key", f.key)
			return token, nil
		}
		f.logger.Warn("Cached credential no longer valid, re-authenticating", "key", f.key)
	}

	f.current = StateInteractive
	outcome, err := svc.First(ctx)
	if err != nil {
		return "", f.fail(err)
	}

	for outcome.Token == "" {
		ch := outcome.Next
		if ch == nil {
			return "", f.fail(fmt.Errorf("service returned neither token nor challenge"))
		}

		answer, err := f.answer(ctx, ch)
		if err != nil {
			return "", f.fail(err)
		}

		outcome, err = svc.Next(ctx, ch, answer)
		if err != nil {
			return "", f.fail(err)
		}
	}

	f.current = StateAuthenticated
	f.store.Set(f.key, outcome.Token)
	f.logger.Info("Authenticated", "key", f.key)
	return outcome.Token, nil
}

func (f *Flow) answer(ctx context.Context, ch *Challenge) (string, error) {
	switch ch.Kind {
	case KindPrimary:
		f.current = StateAwaitingPrimaryCredential
		return f.relay.Ask(ch.Prompt)
	case KindSecret:
		f.current = StateAwaitingPrimaryCredential
		return f.relay.AskSecret(ch.Prompt)
	case KindCode:
		f.current = StateAwaitingSecondaryChallenge
		return f.relay.Ask(ch.Prompt)
	case KindCaptcha:
		f.current = StateAwaitingCaptcha
		if f.solver == nil {
			return "", fmt.Errorf("service demands a captcha but no solver is configured")
		}
		return f.solver.SolveImage(ctx, ch.Image, f.copts)
	default:
		return "", fmt.Errorf("unknown challenge kind %d", ch.Kind)
	}
}

func (f *Flow) fail(err error) error {
	f.current = StateFailed
	return errors.WrapKind(err, errors.ErrAuthentication, "interactive authentication failed")
}
