// Package telegram implements the platform capability on the Telegram Bot
// API. The bot token is the primary credential; listings are built from the
// configured chats and the bot's update feed, since the Bot API exposes no
// global dialog list.
package telegram

import (
	"context"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/AlexXanderGrib/post-copier/internal/auth"
	"github.com/AlexXanderGrib/post-copier/internal/credstore"
	"github.com/AlexXanderGrib/post-copier/internal/platform"
	"github.com/AlexXanderGrib/post-copier/internal/prompt"
	"github.com/AlexXanderGrib/post-copier/pkg/config"
	"github.com/AlexXanderGrib/post-copier/pkg/logger"
	"go.uber.org/fx"
)

// Credential store key owned by this adapter.
const tokenKey = "TELEGRAM_TOKEN"

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
	Store  credstore.Store
	Relay  prompt.Relay
}

type TelegramImpl struct {
	config *config.Config
	logger logger.Logger
	store  credstore.Store
	relay  prompt.Relay
	http   *http.Client

	bot *tgbotapi.BotAPI

	// The update feed is consumed at most once per adapter instance: paging
	// it confirms and discards updates server-side.
	feedOnce sync.Once
	feed     []tgbotapi.Update
	feedErr  error
}

func New(opts Opts) *TelegramImpl {
	return &TelegramImpl{
		config: opts.Config,
		logger: opts.Logger.With("platform", "telegram"),
		store:  opts.Store,
		relay:  opts.Relay,
		http:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (t *TelegramImpl) Name() string {
	return "telegram"
}

// Authenticate validates the cached bot token or asks the operator for one.
// The Bot API has no secondary challenges; the flow ends after the primary
// credential.
func (t *TelegramImpl) Authenticate(ctx context.Context) error {
	flow := auth.NewFlow(auth.FlowOpts{
		Store:  t.store,
		Key:    tokenKey,
		Relay:  t.relay,
		Logger: t.logger,
	})

	_, err := flow.Run(ctx, &botAuth{t: t})
	return err
}

// botAuth exchanges the bot token for a session. Connecting performs the
// service-side getMe check, so a rejected token fails here.
type botAuth struct {
	t *TelegramImpl
}

func (a *botAuth) Validate(_ context.Context, token string) error {
	return a.connect(token)
}

func (a *botAuth) First(_ context.Context) (*auth.Outcome, error) {
	return &auth.Outcome{
		Next: &auth.Challenge{Kind: auth.KindSecret, Prompt: "Bot token"},
	}, nil
}

func (a *botAuth) Next(_ context.Context, _ *auth.Challenge, answer string) (*auth.Outcome, error) {
	if err := a.connect(answer); err != nil {
		return nil, err
	}
	return &auth.Outcome{Token: answer}, nil
}

func (a *botAuth) connect(token string) error {
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, a.t.http)
	if err != nil {
		return err
	}

	a.t.bot = bot
	a.t.logger.Debug("Bot session established", "username", bot.Self.UserName)
	return nil
}

var _ auth.Service = (*botAuth)(nil)

var _ platform.Platform = (*TelegramImpl)(nil)
