package vk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/AlexXanderGrib/post-copier/internal/auth"
)

// Authenticate establishes a session with a cached token or runs the direct
// authorization flow: login and password first, then whatever the service
// demands next (a one-time code, a captcha, or both in sequence).
func (v *VkImpl) Authenticate(ctx context.Context) error {
	flow := auth.NewFlow(auth.FlowOpts{
		Store:  v.store,
		Key:    tokenKey,
		Relay:  v.relay,
		Solver: v.solver,
		Logger: v.logger,
	})

	token, err := flow.Run(ctx, &directAuth{vk: v})
	if err != nil {
		return err
	}

	v.token = token
	return nil
}

// directAuth drives the password grant against the authorization endpoint.
// It holds the in-flight login state between challenge rounds; one login
// runs at a time per adapter.
type directAuth struct {
	vk *VkImpl

	login    string
	password string
	// validationSid is set while a one-time code is pending.
	validationSid string
	// captchaSid is set while a captcha answer is pending.
	captchaSid string
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`

	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`

	ValidationType string `json:"validation_type"`
	ValidationSid  string `json:"validation_sid"`
	PhoneMask      string `json:"phone_mask"`

	CaptchaSid string `json:"captcha_sid"`
	CaptchaImg string `json:"captcha_img"`
}

func (a *directAuth) Validate(ctx context.Context, token string) error {
	prev := a.vk.token
	a.vk.token = token

	err := a.vk.call(ctx, "users.get", url.Values{}, nil)
	if err != nil {
		a.vk.token = prev
	}
	return err
}

func (a *directAuth) First(_ context.Context) (*auth.Outcome, error) {
	return &auth.Outcome{
		Next: &auth.Challenge{Kind: auth.KindPrimary, Prompt: "Login (phone or email)"},
	}, nil
}

func (a *directAuth) Next(ctx context.Context, ch *auth.Challenge, answer string) (*auth.Outcome, error) {
	extra := url.Values{}

	// Route on the challenge being answered, never on which fields happen to
	// be empty: an empty answer must not shift later rounds.
	switch ch.Kind {
	case auth.KindPrimary:
		a.login = answer
		return &auth.Outcome{
			Next: &auth.Challenge{Kind: auth.KindSecret, Prompt: "Password"},
		}, nil
	case auth.KindSecret:
		a.password = answer
	case auth.KindCode:
		extra.Set("code", answer)
	case auth.KindCaptcha:
		extra.Set("captcha_sid", a.captchaSid)
		extra.Set("captcha_key", answer)
	default:
		return nil, fmt.Errorf("unexpected challenge kind %v", ch.Kind)
	}

	return a.submit(ctx, extra)
}

func (a *directAuth) submit(ctx context.Context, extra url.Values) (*auth.Outcome, error) {
	form := url.Values{
		"grant_type":    {"password"},
		"client_id":     {a.vk.config.Vk.ClientID},
		"client_secret": {a.vk.config.Vk.ClientSecret},
		"username":      {a.login},
		"password":      {a.password},
		"scope":         {"all"},
		"2fa_supported": {"1"},
		"v":             {a.vk.config.Vk.ApiVersion},
	}
	if a.validationSid != "" {
		form.Set("validation_sid", a.validationSid)
	}
	for key, values := range extra {
		form[key] = values
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet,
		a.vk.oauthURL+"/token?"+form.Encode(),
		nil,
	)
	if err != nil {
		return nil, err
	}

	resp, err := a.vk.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("authorization endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result tokenResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("malformed authorization response: %w", err)
	}

	switch {
	case result.AccessToken != "":
		a.vk.logger.Debug("Direct authorization succeeded")
		return &auth.Outcome{Token: result.AccessToken}, nil

	case result.Error == "need_validation":
		a.validationSid = result.ValidationSid
		prompt := fmt.Sprintf("Code (sent via %s", result.ValidationType)
		if result.PhoneMask != "" {
			prompt += " to " + result.PhoneMask
		}
		prompt += ")"
		return &auth.Outcome{
			Next: &auth.Challenge{Kind: auth.KindCode, Prompt: prompt},
		}, nil

	case result.Error == "need_captcha":
		a.captchaSid = result.CaptchaSid
		image, err := a.vk.fetch(ctx, result.CaptchaImg)
		if err != nil {
			return nil, fmt.Errorf("failed to download captcha image: %w", err)
		}
		return &auth.Outcome{
			Next: &auth.Challenge{Kind: auth.KindCaptcha, Image: image},
		}, nil

	default:
		return nil, fmt.Errorf("authorization rejected: %s (%s)", result.Error, result.ErrorDescription)
	}
}

var _ auth.Service = (*directAuth)(nil)
