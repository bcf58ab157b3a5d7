// Package vk implements the platform capability for VK communities: direct
// authorization with two-factor and captcha challenges, group listing, wall
// retrieval and wall publishing.
package vk

import (
	"net/http"
	"time"

	"github.com/AlexXanderGrib/post-copier/internal/captcha"
	"github.com/AlexXanderGrib/post-copier/internal/credstore"
	"github.com/AlexXanderGrib/post-copier/internal/platform"
	"github.com/AlexXanderGrib/post-copier/internal/prompt"
	"github.com/AlexXanderGrib/post-copier/internal/ratelimit"
	"github.com/AlexXanderGrib/post-copier/pkg/config"
	"github.com/AlexXanderGrib/post-copier/pkg/logger"
	"go.uber.org/fx"
)

const (
	// Credential store key owned by this adapter.
	tokenKey = "VK_TOKEN"

	defaultAPIURL   = "https://api.vk.com/method"
	defaultOAuthURL = "https://oauth.vk.com"
)

type Opts struct {
	fx.In

	Config  *config.Config
	Logger  logger.Logger
	Store   credstore.Store
	Relay   prompt.Relay
	Solver  captcha.Solver
	Limiter ratelimit.Limiter
}

// VkImpl talks to the VK REST API with a user token.
type VkImpl struct {
	config  *config.Config
	logger  logger.Logger
	store   credstore.Store
	relay   prompt.Relay
	solver  captcha.Solver
	limiter ratelimit.Limiter

	http     *http.Client
	apiURL   string
	oauthURL string

	token string
}

func New(opts Opts) *VkImpl {
	return &VkImpl{
		config:   opts.Config,
		logger:   opts.Logger.With("platform", "vk"),
		store:    opts.Store,
		relay:    opts.Relay,
		solver:   opts.Solver,
		limiter:  opts.Limiter,
		http:     &http.Client{Timeout: 60 * time.Second},
		apiURL:   defaultAPIURL,
		oauthURL: defaultOAuthURL,
	}
}

func (v *VkImpl) Name() string {
	return "vk"
}

var _ platform.Platform = (*VkImpl)(nil)
