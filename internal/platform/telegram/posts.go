package telegram

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/AlexXanderGrib/post-copier/internal/domain"
	"github.com/AlexXanderGrib/post-copier/internal/platform/collect"
)

const (
	updatesPerRequest = 100
	// Newest-N window returned per source.
	postsMax = 100
)

// mimeKinds maps a document's mime-type prefix to the shared file types.
var mimeKinds = map[string]domain.FileType{
	"image":       domain.FileTypeImage,
	"audio":       domain.FileTypeAudio,
	"video":       domain.FileTypeVideo,
	"text":        domain.FileTypeDocument,
	"application": domain.FileTypeDocument,
}

// fetchUpdates returns the pending update feed, paging it on first use and
// memoizing the result. Sending an offset confirms and discards every older
// update server-side, so the feed can only be walked once; GetSources and
// GetPosts both read the memoized snapshot.
func (t *TelegramImpl) fetchUpdates(ctx context.Context) ([]tgbotapi.Update, error) {
	t.feedOnce.Do(func() {
		t.feed, t.feedErr = t.pageUpdates(ctx)
	})
	return t.feed, t.feedErr
}

// pageUpdates walks the whole feed. The Bot API cursor is an update-id
// watermark rather than a numeric offset, so the fetch closure keeps its own
// cursor; the collector still owns batch accumulation and the
// stop-on-short-batch rule.
func (t *TelegramImpl) pageUpdates(ctx context.Context) ([]tgbotapi.Update, error) {
	cursor := 0

	fetch := func(ctx context.Context, _, count int) (collect.Page[tgbotapi.Update], error) {
		updates, err := t.bot.GetUpdates(tgbotapi.UpdateConfig{
			Offset: cursor,
			Limit:  count,
		})
		if err != nil {
			return collect.Page[tgbotapi.Update]{}, err
		}

		if len(updates) > 0 {
			cursor = updates[len(updates)-1].UpdateID + 1
		}
		return collect.Page[tgbotapi.Update]{Items: updates}, nil
	}

	return collect.All(ctx, fetch, collect.Options{PerRequest: updatesPerRequest})
}

// GetPosts returns the channel posts of source that passed through the
// bot's update feed, newest-bounded. The Bot API cannot page arbitrary
// channel history, so the feed is the retrievable window.
func (t *TelegramImpl) GetPosts(ctx context.Context, source domain.Source) ([]domain.Post, error) {
	updates, err := t.fetchUpdates(ctx)
	if err != nil {
		return nil, err
	}

	var posts []domain.Post
	for _, update := range updates {
		msg := update.ChannelPost
		if msg == nil || msg.Chat == nil {
			continue
		}
		if strconv.FormatInt(msg.Chat.ID, 10) != source.ID {
			continue
		}

		posts = append(posts, domain.Post{
			PostContent: domain.PostContent{
				Text:  messageText(msg),
				Files: messageFiles(msg),
			},
			ID:     int64(msg.MessageID),
			Source: source,
			Date:   msg.Time(),
		})
	}

	// The feed runs oldest to newest; the window keeps the newest posts.
	if len(posts) > postsMax {
		posts = posts[len(posts)-postsMax:]
	}

	return posts, nil
}

func messageText(msg *tgbotapi.Message) string {
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

// messageFiles maps the message's media to shared files. Raw carries the
// Bot API file_id needed to re-fetch the bytes later.
func messageFiles(msg *tgbotapi.Message) []domain.File {
	var files []domain.File

	if len(msg.Photo) > 0 {
		// Renditions are ordered small to large; the last downloads best.
		largest := msg.Photo[len(msg.Photo)-1]
		files = append(files, domain.File{
			Type: domain.FileTypeImage,
			ID:   largest.FileUniqueID,
			Raw:  largest.FileID,
		})
	}

	if msg.Video != nil {
		files = append(files, domain.File{
			Type: domain.FileTypeVideo,
			ID:   msg.Video.FileUniqueID,
			Raw:  msg.Video.FileID,
		})
	}

	if msg.Audio != nil {
		files = append(files, domain.File{
			Type: domain.FileTypeAudio,
			ID:   msg.Audio.FileUniqueID,
			Raw:  msg.Audio.FileID,
		})
	}

	if msg.Document != nil {
		files = append(files, domain.File{
			Type: documentType(msg.Document.MimeType),
			ID:   msg.Document.FileUniqueID,
			Raw:  msg.Document.FileID,
		})
	}

	return files
}

func documentType(mimeType string) domain.FileType {
	prefix, _, _ := strings.Cut(mimeType, "/")
	return domain.MapKind(mimeKinds, prefix)
}
