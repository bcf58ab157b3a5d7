package vk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/AlexXanderGrib/post-copier/pkg/errors"
	"github.com/AlexXanderGrib/post-copier/pkg/retry"
)

type apiError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

type envelope struct {
	Error    *apiError       `json:"error"`
	Response json.RawMessage `json:"response"`
}

// call invokes one API method and decodes its response payload into out.
// Calls are paced through the shared rate limiter; transient transport
// failures are retried, API-level errors are not.
func (v *VkImpl) call(ctx context.Context, method string, params url.Values, out any) error {
	if err := v.limiter.Wait(ctx, v.Name()); err != nil {
		return err
	}

	form := url.Values{}
	for key, values := range params {
		form[key] = values
	}
	form.Set("access_token", v.token)
	form.Set("v", v.config.Vk.ApiVersion)

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(
			ctx, http.MethodPost,
			v.apiURL+"/"+method,
			strings.NewReader(form.Encode()),
		)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := v.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err = io.ReadAll(resp.Body)
		return err
	}

	if err := retry.Do(ctx, v.logger, "vk."+method, operation, retry.DefaultConfig()); err != nil {
		return errors.WrapKind(err, errors.ErrTransport, fmt.Sprintf("vk %s request failed", method))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return errors.WrapKind(err, errors.ErrTransport, fmt.Sprintf("vk %s returned malformed response", method))
	}
	if env.Error != nil {
		return errors.Kind(errors.ErrTransport,
			fmt.Sprintf("vk %s failed with code %d: %s", method, env.Error.Code, env.Error.Message))
	}

	if out != nil {
		if err := json.Unmarshal(env.Response, out); err != nil {
			return errors.WrapKind(err, errors.ErrTransport, fmt.Sprintf("vk %s returned unexpected payload", method))
		}
	}
	return nil
}

// fetch downloads raw bytes from an absolute URL, outside the API envelope.
func (v *VkImpl) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := v.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return io.ReadAll(resp.Body)
}
