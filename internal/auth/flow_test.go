package auth

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexXanderGrib/post-copier/internal/captcha"
	"github.com/AlexXanderGrib/post-copier/pkg/errors"
	"github.com/AlexXanderGrib/post-copier/pkg/logger"
)

type memStore struct {
	values map[string]string
	sets   int
}

func newMemStore() *memStore {
	return &memStore{values: make(map[string]string)}
}

func (s *memStore) Load(context.Context) error  { return nil }
func (s *memStore) Flush(context.Context) error { return nil }

func (s *memStore) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s *memStore) Set(key, value string) {
	s.sets++
	s.values[key] = value
}

type scriptedRelay struct {
	answers   []string
	questions []string
}

func (r *scriptedRelay) Ask(q string) (string, error) {
	return r.next(q)
}

func (r *scriptedRelay) AskSecret(q string) (string, error) {
	return r.next(q)
}

func (r *scriptedRelay) next(q string) (string, error) {
	r.questions = append(r.questions, q)
	if len(r.answers) == 0 {
		return "", fmt.Errorf("operator cancelled")
	}
	answer := r.answers[0]
	r.answers = r.answers[1:]
	return answer, nil
}

type scriptedSolver struct {
	answers []string
	calls   int
}

func (s *scriptedSolver) SolveImage(context.Context, []byte, captcha.Options) (string, error) {
	s.calls++
	answer := s.answers[0]
	if len(s.answers) > 1 {
		s.answers = s.answers[1:]
	}
	return answer, nil
}

// loginService models a service demanding login, password, then a captcha
// it re-issues until the answer matches.
type loginService struct {
	captchaAnswer string
	validTokens   map[string]bool

	login    string
	password string
}

func (s *loginService) Validate(_ context.Context, token string) error {
	if s.validTokens[token] {
		return nil
	}
	return fmt.Errorf("token rejected")
}

func (s *loginService) First(context.Context) (*Outcome, error) {
	return &Outcome{Next: &Challenge{Kind: KindPrimary, Prompt: "Login"}}, nil
}

func (s *loginService) Next(_ context.Context, ch *Challenge, answer string) (*Outcome, error) {
	switch {
	case s.login == "":
		s.login = answer
		return &Outcome{Next: &Challenge{Kind: KindSecret, Prompt: "Password"}}, nil
	case s.password == "":
		s.password = answer
		if s.password != "hunter2" {
			return nil, fmt.Errorf("wrong password")
		}
	case ch.Kind == KindCaptcha && answer != s.captchaAnswer:
		// Wrong answer: re-issue, do not fail.
	}

	if s.captchaAnswer != "" && (ch.Kind != KindCaptcha || answer != s.captchaAnswer) {
		return &Outcome{Next: &Challenge{Kind: KindCaptcha, Image: []byte{1, 2, 3}}}, nil
	}
	return &Outcome{Token: "fresh-token"}, nil
}

func newFlow(store *memStore, relay *scriptedRelay, solver *scriptedSolver) *Flow {
	var s captcha.Solver
	if solver != nil {
		s = solver
	}
	return NewFlow(FlowOpts{
		Store:  store,
		Key:    "TOKEN",
		Relay:  relay,
		Solver: s,
		Logger: logger.New(logger.Opts{}),
	})
}

func TestRunUsesCachedToken(t *testing.T) {
	store := newMemStore()
	store.values["TOKEN"] = "cached"
	relay := &scriptedRelay{}

	flow := newFlow(store, relay, nil)
	token, err := flow.Run(context.Background(), &loginService{validTokens: map[string]bool{"cached": true}})

	require.NoError(t, err)
	assert.Equal(t, "cached", token)
	assert.Equal(t, StateCached, flow.State())
	assert.Empty(t, relay.questions, "a valid cached token must not prompt the operator")
	assert.Zero(t, store.sets, "a valid cached token must not be rewritten")
}

func TestRunInteractiveLogin(t *testing.T) {
	store := newMemStore()
	relay := &scriptedRelay{answers: []string{"alice", "hunter2"}}

	flow := newFlow(store, relay, nil)
	token, err := flow.Run(context.Background(), &loginService{})

	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)
	assert.Equal(t, StateAuthenticated, flow.State())
	assert.Equal(t, []string{"Login", "Password"}, relay.questions)

	stored, ok := store.Get("TOKEN")
	require.True(t, ok)
	assert.Equal(t, "fresh-token", stored)
}

func TestRunInvalidCachedTokenFallsBackToInteractive(t *testing.T) {
	store := newMemStore()
	store.values["TOKEN"] = "stale"
	relay := &scriptedRelay{answers: []string{"alice", "hunter2"}}

	flow := newFlow(store, relay, nil)
	token, err := flow.Run(context.Background(), &loginService{})

	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)

	stored, _ := store.Get("TOKEN")
	assert.Equal(t, "fresh-token", stored, "the stale token must be overwritten")
}

func TestRunCaptchaLoopsOnWrongAnswer(t *testing.T) {
	store := newMemStore()
	relay := &scriptedRelay{answers: []string{"alice", "hunter2"}}
	solver := &scriptedSolver{answers: []string{"wr0ng", "r1ght"}}

	flow := newFlow(store, relay, solver)
	token, err := flow.Run(context.Background(), &loginService{captchaAnswer: "r1ght"})

	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)
	assert.Equal(t, 2, solver.calls, "a wrong answer must re-issue the captcha, not fail")
	assert.Equal(t, []string{"Login", "Password"}, relay.questions,
		"the primary credential is asked exactly once")
}

func TestRunRejectedCredentialLeavesStoreUntouched(t *testing.T) {
	store := newMemStore()
	relay := &scriptedRelay{answers: []string{"alice", "wrong-password"}}

	flow := newFlow(store, relay, nil)
	_, err := flow.Run(context.Background(), &loginService{})

	require.Error(t, err)
	assert.True(t, errors.IsAuthentication(err))
	assert.Equal(t, StateFailed, flow.State())
	assert.Zero(t, store.sets)
}

func TestRunOperatorCancelFails(t *testing.T) {
	store := newMemStore()
	relay := &scriptedRelay{} // no answers: every prompt errors

	flow := newFlow(store, relay, nil)
	_, err := flow.Run(context.Background(), &loginService{})

	require.Error(t, err)
	assert.True(t, errors.IsAuthentication(err))
	assert.Zero(t, store.sets)
}

func TestRunCaptchaWithoutSolverFails(t *testing.T) {
	store := newMemStore()
	relay := &scriptedRelay{answers: []string{"alice", "hunter2"}}

	flow := newFlow(store, relay, nil)
	_, err := flow.Run(context.Background(), &loginService{captchaAnswer: "r1ght"})

	require.Error(t, err)
	assert.True(t, errors.IsAuthentication(err))
	assert.Equal(t, StateFailed, flow.State())
}
