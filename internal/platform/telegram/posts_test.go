package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexXanderGrib/post-copier/internal/domain"
	"github.com/AlexXanderGrib/post-copier/pkg/config"
	"github.com/AlexXanderGrib/post-copier/pkg/logger"
)

// newTestTelegram connects a TelegramImpl to a fake Bot API server. The
// handler mux serves method paths like "/getUpdates".
func newTestTelegram(t *testing.T, mux *http.ServeMux) *TelegramImpl {
	t.Helper()

	root := http.NewServeMux()
	root.HandleFunc("/getMe", func(w http.ResponseWriter, _ *http.Request) {
		writeResult(w, tgbotapi.User{ID: 1, UserName: "copier_bot", IsBot: true})
	})
	root.Handle("/", mux)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Strip the /bot<token> prefix the client prepends to every method.
		r.URL.Path = "/" + r.URL.Path[len("/botTOKEN/"):]
		root.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	bot, err := tgbotapi.NewBotAPIWithClient("TOKEN", srv.URL+"/bot%s/%s", srv.Client())
	require.NoError(t, err)

	return &TelegramImpl{
		config: &config.Config{},
		logger: logger.New(logger.Opts{}),
		http:   srv.Client(),
		bot:    bot,
	}
}

func writeResult(w http.ResponseWriter, result any) {
	raw, _ := json.Marshal(result)
	_ = json.NewEncoder(w).Encode(tgbotapi.APIResponse{Ok: true, Result: raw})
}

func channelPost(updateID int, chatID int64, chatTitle string, messageID int, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: updateID,
		ChannelPost: &tgbotapi.Message{
			MessageID: messageID,
			Date:      1700000000 + messageID,
			Chat:      &tgbotapi.Chat{ID: chatID, Type: "channel", Title: chatTitle},
			Text:      text,
		},
	}
}

func TestGetPostsFiltersOtherChats(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/getUpdates", func(w http.ResponseWriter, _ *http.Request) {
		writeResult(w, []tgbotapi.Update{
			channelPost(1, -100, "Feed A", 10, "a-first"),
			channelPost(2, -200, "Feed B", 11, "b-only"),
			channelPost(3, -100, "Feed A", 12, "a-second"),
			// Non-channel updates pass through the feed untouched.
			{UpdateID: 4, Message: &tgbotapi.Message{MessageID: 13, Chat: &tgbotapi.Chat{ID: 5}}},
		})
	})

	tg := newTestTelegram(t, mux)
	source := domain.Source{ID: "-100", Title: "Feed A"}
	posts, err := tg.GetPosts(context.Background(), source)
	require.NoError(t, err)

	require.Len(t, posts, 2)
	assert.EqualValues(t, 10, posts[0].ID)
	assert.Equal(t, "a-first", posts[0].Text)
	assert.EqualValues(t, 12, posts[1].ID)
	for _, p := range posts {
		assert.Equal(t, source.ID, p.Source.ID)
	}
}

// discardingFeed serves getUpdates the way the Bot API does: an offset
// confirms every older update, which is then gone for good.
func discardingFeed(pending []tgbotapi.Update, calls *int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		*calls++
		_ = r.ParseForm()

		offset, _ := strconv.Atoi(r.Form.Get("offset"))
		for len(pending) > 0 && pending[0].UpdateID < offset {
			pending = pending[1:]
		}

		limit, _ := strconv.Atoi(r.Form.Get("limit"))
		if limit == 0 || limit > len(pending) {
			limit = len(pending)
		}
		writeResult(w, pending[:limit])
	}
}

func TestFeedSurvivesListingBeforeRetrieval(t *testing.T) {
	pending := make([]tgbotapi.Update, 120)
	for i := range pending {
		pending[i] = channelPost(i+1, -100, "Feed", i+1, "t")
	}

	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/getUpdates", discardingFeed(pending, &calls))

	tg := newTestTelegram(t, mux)

	sources, err := tg.GetSources(context.Background())
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "-100", sources[0].ID)

	// Listing sources already walked (and thereby emptied) the feed; the
	// posts must come from the same snapshot.
	posts, err := tg.GetPosts(context.Background(), sources[0])
	require.NoError(t, err)
	require.Len(t, posts, 100)

	// Newest-bounded window: with 120 pending, the oldest 20 drop off.
	assert.EqualValues(t, 21, posts[0].ID)
	assert.EqualValues(t, 120, posts[len(posts)-1].ID)

	assert.Equal(t, 2, calls, "the feed is paged exactly once")
}

func TestFetchUpdatesAdvancesWatermark(t *testing.T) {
	var offsets []string
	mux := http.NewServeMux()
	mux.HandleFunc("/getUpdates", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		offsets = append(offsets, r.Form.Get("offset"))

		if len(offsets) > 1 {
			writeResult(w, []tgbotapi.Update{})
			return
		}
		batch := make([]tgbotapi.Update, 100)
		for i := range batch {
			batch[i] = channelPost(i+1, -100, "Feed", i+1, "t")
		}
		writeResult(w, batch)
	})

	tg := newTestTelegram(t, mux)
	updates, err := tg.fetchUpdates(context.Background())
	require.NoError(t, err)

	assert.Len(t, updates, 100)
	// The second request resumes past the last seen update id; the zero
	// offset of the first request travels as an absent parameter.
	assert.Equal(t, []string{"", "101"}, offsets)
}

func TestMessageTextPrefersTextOverCaption(t *testing.T) {
	assert.Equal(t, "plain", messageText(&tgbotapi.Message{Text: "plain"}))
	assert.Equal(t, "captioned", messageText(&tgbotapi.Message{Caption: "captioned"}))
	assert.Equal(t, "", messageText(&tgbotapi.Message{}))
}

func TestMessageFilesPicksLargestPhotoRendition(t *testing.T) {
	msg := &tgbotapi.Message{
		Photo: []tgbotapi.PhotoSize{
			{FileID: "small-id", FileUniqueID: "small", Width: 90, Height: 90},
			{FileID: "large-id", FileUniqueID: "large", Width: 1280, Height: 1280},
		},
	}

	files := messageFiles(msg)
	require.Len(t, files, 1)
	assert.Equal(t, domain.FileTypeImage, files[0].Type)
	assert.Equal(t, "large", files[0].ID)
	assert.Equal(t, "large-id", files[0].Raw)
}

func TestMessageFilesCollectsEveryMediaSlot(t *testing.T) {
	msg := &tgbotapi.Message{
		Photo:    []tgbotapi.PhotoSize{{FileID: "p-id", FileUniqueID: "p"}},
		Video:    &tgbotapi.Video{FileID: "v-id", FileUniqueID: "v"},
		Audio:    &tgbotapi.Audio{FileID: "a-id", FileUniqueID: "a"},
		Document: &tgbotapi.Document{FileID: "d-id", FileUniqueID: "d", MimeType: "application/pdf"},
	}

	files := messageFiles(msg)
	require.Len(t, files, 4)

	types := make([]domain.FileType, 0, len(files))
	for _, f := range files {
		types = append(types, f.Type)
	}
	assert.Equal(t, []domain.FileType{
		domain.FileTypeImage,
		domain.FileTypeVideo,
		domain.FileTypeAudio,
		domain.FileTypeDocument,
	}, types)
}

func TestMessageFilesEmptyMessage(t *testing.T) {
	assert.Empty(t, messageFiles(&tgbotapi.Message{Text: "no media"}))
}

func TestDocumentTypeByMimePrefix(t *testing.T) {
	for mime, want := range map[string]domain.FileType{
		"image/png":                domain.FileTypeImage,
		"video/mp4":                domain.FileTypeVideo,
		"audio/ogg":                domain.FileTypeAudio,
		"text/plain":               domain.FileTypeDocument,
		"application/zip":          domain.FileTypeDocument,
		"font/woff2":               domain.FileTypeUnsupported,
		"":                         domain.FileTypeUnsupported,
		"not-a-mime":               domain.FileTypeUnsupported,
		"application/octet-stream": domain.FileTypeDocument,
	} {
		assert.Equal(t, want, documentType(mime), "mime %q", mime)
	}
}
