package telegram

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"

	"github.com/AlexXanderGrib/post-copier/internal/domain"
)

// chatSource resolves one configured chat into a Source plus the bot's
// posting rights in it.
type chatSource struct {
	source  domain.Source
	canPost bool
}

func (t *TelegramImpl) listChats(ctx context.Context) ([]chatSource, error) {
	ids := t.config.TelegramChatIDs()
	chats := make([]chatSource, 0, len(ids))

	for _, raw := range ids {
		chatID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			t.logger.Warn("Skipping malformed chat id", "chat_id", raw)
			continue
		}

		chat, err := t.bot.GetChat(tgbotapi.ChatInfoConfig{
			ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
		})
		if err != nil {
			return nil, err
		}

		member, err := t.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
			ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
				ChatID: chatID,
				UserID: t.bot.Self.ID,
			},
		})
		if err != nil {
			return nil, err
		}

		chats = append(chats, chatSource{
			source: domain.Source{
				ID:     strconv.FormatInt(chat.ID, 10),
				Title:  chat.Title,
				Domain: chat.UserName,
			},
			canPost: member.IsCreator() || (member.IsAdministrator() && member.CanPostMessages),
		})
	}

	return chats, nil
}

// GetDestinations lists the configured chats where the bot holds posting
// rights.
func (t *TelegramImpl) GetDestinations(ctx context.Context) ([]domain.Source, error) {
	chats, err := t.listChats(ctx)
	if err != nil {
		return nil, err
	}

	postable := lo.Filter(chats, func(c chatSource, _ int) bool { return c.canPost })
	return lo.Map(postable, func(c chatSource, _ int) domain.Source { return c.source }), nil
}

// GetSources lists readable chats: configured chats without posting rights
// plus channels seen in the update feed, minus every destination.
func (t *TelegramImpl) GetSources(ctx context.Context) ([]domain.Source, error) {
	chats, err := t.listChats(ctx)
	if err != nil {
		return nil, err
	}

	seen, err := t.feedChats(ctx)
	if err != nil {
		return nil, err
	}

	destinationIDs := make(map[string]struct{})
	for _, c := range chats {
		if c.canPost {
			destinationIDs[c.source.ID] = struct{}{}
		}
	}

	var sources []domain.Source
	known := make(map[string]struct{})
	for _, s := range append(lo.Map(chats, func(c chatSource, _ int) domain.Source { return c.source }), seen...) {
		if _, isDestination := destinationIDs[s.ID]; isDestination {
			continue
		}
		if _, dup := known[s.ID]; dup {
			continue
		}
		known[s.ID] = struct{}{}
		sources = append(sources, s)
	}

	return sources, nil
}

// feedChats collects the channels whose posts appeared in the update feed.
func (t *TelegramImpl) feedChats(ctx context.Context) ([]domain.Source, error) {
	updates, err := t.fetchUpdates(ctx)
	if err != nil {
		return nil, err
	}

	var chats []domain.Source
	known := make(map[int64]struct{})
	for _, update := range updates {
		post := update.ChannelPost
		if post == nil || post.Chat == nil {
			continue
		}
		if _, dup := known[post.Chat.ID]; dup {
			continue
		}
		known[post.Chat.ID] = struct{}{}
		chats = append(chats, domain.Source{
			ID:     strconv.FormatInt(post.Chat.ID, 10),
			Title:  post.Chat.Title,
			Domain: post.Chat.UserName,
		})
	}

	return chats, nil
}
