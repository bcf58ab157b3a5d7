// Package captcha solves image CAPTCHAs through the rucaptcha HTTP API.
package captcha

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/AlexXanderGrib/post-copier/pkg/config"
	"github.com/AlexXanderGrib/post-copier/pkg/errors"
	"github.com/AlexXanderGrib/post-copier/pkg/logger"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/fx"
)

// Options hint the solver about the expected answer.
type Options struct {
	MinLen        int
	MaxLen        int
	CaseSensitive bool
	// Language: 1 cyrillic, 2 latin, 0 unset.
	Language int
	// Phrase marks captchas containing several words.
	Phrase bool
}

// Solver turns image bytes into a typed answer.
type Solver interface {
	SolveImage(ctx context.Context, image []byte, opts Options) (string, error)
}

const (
	defaultEndpoint = "https://rucaptcha.com"
	notReady        = "CAPCHA_NOT_READY"
)

// RucaptchaSolver submits the image to in.php and polls res.php until a
// human worker answers.
type RucaptchaSolver struct {
	key      string
	endpoint string
	client   *http.Client
	logger   logger.Logger
}

type SolverOpts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

func NewRucaptchaSolver(opts SolverOpts) *RucaptchaSolver {
	return &RucaptchaSolver{
		key:      opts.Config.Captcha.Key,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   opts.Logger,
	}
}

func (s *RucaptchaSolver) SolveImage(ctx context.Context, image []byte, opts Options) (string, error) {
	id, err := s.submit(ctx, image, opts)
	if err != nil {
		return "", err
	}

	s.logger.Debug("Captcha submitted", "id", id)

	var answer string
	poll := func() error {
		result, err := s.poll(ctx, id)
		if err != nil {
			return backoff.Permanent(err)
		}
		if result == notReady {
			return fmt.Errorf("captcha %s not solved yet", id)
		}
		answer = result
		return nil
	}

	// Workers typically answer within a minute; poll every 5s up to 24 times.
	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(5*time.Second), 24),
		ctx,
	)
	if err := backoff.Retry(poll, bo); err != nil {
		return "", errors.WrapKind(err, errors.ErrTransport, "captcha was not solved in time")
	}

	return answer, nil
}

func (s *RucaptchaSolver) submit(ctx context.Context, image []byte, opts Options) (string, error) {
	form := url.Values{
		"key":    {s.key},
		"method": {"base64"},
		"body":   {base64.StdEncoding.EncodeToString(image)},
	}
	if opts.MinLen > 0 {
		form.Set("min_len", strconv.Itoa(opts.MinLen))
	}
	if opts.MaxLen > 0 {
		form.Set("max_len", strconv.Itoa(opts.MaxLen))
	}
	if opts.CaseSensitive {
		form.Set("regsense", "1")
	}
	if opts.Language > 0 {
		form.Set("language", strconv.Itoa(opts.Language))
	}
	if opts.Phrase {
		form.Set("phrase", "1")
	}

	body, err := s.call(ctx, http.MethodPost, s.endpoint+"/in.php", form)
	if err != nil {
		return "", err
	}

	id, ok := strings.CutPrefix(body, "OK|")
	if !ok {
		return "", errors.Kind(errors.ErrTransport, fmt.Sprintf("captcha service rejected image: %s", body))
	}
	return id, nil
}

func (s *RucaptchaSolver) poll(ctx context.Context, id string) (string, error) {
	form := url.Values{
		"key":    {s.key},
		"action": {"get"},
		"id":     {id},
	}

	body, err := s.call(ctx, http.MethodGet, s.endpoint+"/res.php?"+form.Encode(), nil)
	if err != nil {
		return "", err
	}

	if body == notReady {
		return notReady, nil
	}
	answer, ok := strings.CutPrefix(body, "OK|")
	if !ok {
		return "", errors.Kind(errors.ErrTransport, fmt.Sprintf("captcha poll failed: %s", body))
	}
	return answer, nil
}

func (s *RucaptchaSolver) call(ctx context.Context, method, rawURL string, form url.Values) (string, error) {
	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return "", err
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", errors.WrapKind(err, errors.ErrTransport, "captcha service unreachable")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.WrapKind(err, errors.ErrTransport, "failed to read captcha response")
	}

	return strings.TrimSpace(string(data)), nil
}

var _ Solver = (*RucaptchaSolver)(nil)

var Module = fx.Provide(
	fx.Annotate(
		NewRucaptchaSolver,
		fx.As(new(Solver)),
	),
)
