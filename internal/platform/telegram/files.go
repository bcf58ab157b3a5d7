package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/AlexXanderGrib/post-copier/internal/domain"
	"github.com/AlexXanderGrib/post-copier/pkg/errors"
)

// GetFileContents downloads the bytes behind a file this adapter produced.
func (t *TelegramImpl) GetFileContents(ctx context.Context, file domain.File) ([]byte, error) {
	fileID, ok := file.Raw.(string)
	if !ok {
		return nil, errors.Kind(errors.ErrDownload, "file was not produced by this adapter")
	}

	directURL, err := t.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, errors.WrapKind(err, errors.ErrDownload, fmt.Sprintf("failed to resolve file %s", file.ID))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, directURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.http.Do(req)
	if err != nil {
		return nil, errors.WrapKind(err, errors.ErrDownload, fmt.Sprintf("failed to download file %s", file.ID))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Kind(errors.ErrDownload,
			fmt.Sprintf("file %s download returned %s", file.ID, resp.Status))
	}

	return io.ReadAll(resp.Body)
}

// UploadFile stages raw bytes through the staging chat and returns a file
// attachable to a later post. Bytes whose content type cannot be classified
// are rejected.
func (t *TelegramImpl) UploadFile(ctx context.Context, fileType domain.FileType, contents []byte) (domain.File, error) {
	detected := mimetype.Detect(contents)
	if detected.Extension() == "" {
		return domain.File{}, errors.Kind(errors.ErrUpload, "unable to detect file type")
	}

	payload := tgbotapi.FileBytes{
		Name:  uuid.NewString() + detected.Extension(),
		Bytes: contents,
	}

	stagingChat := t.config.Telegram.StagingChat
	var msg tgbotapi.Chattable
	switch fileType {
	case domain.FileTypeImage:
		msg = tgbotapi.NewPhoto(stagingChat, payload)
	case domain.FileTypeVideo:
		msg = tgbotapi.NewVideo(stagingChat, payload)
	case domain.FileTypeAudio:
		msg = tgbotapi.NewAudio(stagingChat, payload)
	default:
		msg = tgbotapi.NewDocument(stagingChat, payload)
	}

	sent, err := t.bot.Send(msg)
	if err != nil {
		return domain.File{}, errors.WrapKind(err, errors.ErrUpload, "staging upload failed")
	}

	files := messageFiles(&sent)
	if len(files) == 0 {
		return domain.File{}, errors.Kind(errors.ErrUpload, "staging message carries no media")
	}

	uploaded := files[0]
	uploaded.Type = fileType
	return uploaded, nil
}

// Post publishes content in the destination chat and returns the new
// message id. Multiple files go out as one media group preserving order; a
// single file goes out as a plain media message, since sendMediaGroup
// requires 2-10 items.
func (t *TelegramImpl) Post(ctx context.Context, sourceID string, content domain.PostContent) (int64, error) {
	chatID, err := strconv.ParseInt(sourceID, 10, 64)
	if err != nil {
		return 0, errors.WrapKind(err, errors.ErrPublish, "malformed destination id")
	}

	if len(content.Files) == 0 {
		sent, err := t.bot.Send(tgbotapi.NewMessage(chatID, content.Text))
		if err != nil {
			return 0, errors.WrapKind(err, errors.ErrPublish, "message publish failed")
		}
		return int64(sent.MessageID), nil
	}

	if len(content.Files) == 1 {
		file := content.Files[0]
		fileID, ok := file.Raw.(string)
		if !ok {
			return 0, errors.Kind(errors.ErrPublish,
				fmt.Sprintf("file %s was not uploaded through this adapter", file.ID))
		}

		sent, err := t.bot.Send(singleMedia(chatID, file.Type, tgbotapi.FileID(fileID), content.Text))
		if err != nil {
			return 0, errors.WrapKind(err, errors.ErrPublish, "media publish failed")
		}
		return int64(sent.MessageID), nil
	}

	media := make([]interface{}, 0, len(content.Files))
	for i, file := range content.Files {
		fileID, ok := file.Raw.(string)
		if !ok {
			return 0, errors.Kind(errors.ErrPublish,
				fmt.Sprintf("file %s was not uploaded through this adapter", file.ID))
		}

		caption := ""
		if i == 0 {
			caption = content.Text
		}
		media = append(media, inputMedia(file.Type, tgbotapi.FileID(fileID), caption))
	}

	sent, err := t.bot.SendMediaGroup(tgbotapi.MediaGroupConfig{
		ChatID: chatID,
		Media:  media,
	})
	if err != nil {
		return 0, errors.WrapKind(err, errors.ErrPublish, "media group publish failed")
	}
	if len(sent) == 0 {
		return 0, errors.Kind(errors.ErrPublish, "media group publish returned no messages")
	}

	return int64(sent[0].MessageID), nil
}

func singleMedia(chatID int64, fileType domain.FileType, file tgbotapi.RequestFileData, caption string) tgbotapi.Chattable {
	switch fileType {
	case domain.FileTypeImage:
		m := tgbotapi.NewPhoto(chatID, file)
		m.Caption = caption
		return m
	case domain.FileTypeVideo:
		m := tgbotapi.NewVideo(chatID, file)
		m.Caption = caption
		return m
	case domain.FileTypeAudio:
		m := tgbotapi.NewAudio(chatID, file)
		m.Caption = caption
		return m
	default:
		m := tgbotapi.NewDocument(chatID, file)
		m.Caption = caption
		return m
	}
}

func inputMedia(fileType domain.FileType, file tgbotapi.RequestFileData, caption string) interface{} {
	switch fileType {
	case domain.FileTypeImage:
		m := tgbotapi.NewInputMediaPhoto(file)
		m.Caption = caption
		return m
	case domain.FileTypeVideo:
		m := tgbotapi.NewInputMediaVideo(file)
		m.Caption = caption
		return m
	case domain.FileTypeAudio:
		m := tgbotapi.NewInputMediaAudio(file)
		m.Caption = caption
		return m
	default:
		m := tgbotapi.NewInputMediaDocument(file)
		m.Caption = caption
		return m
	}
}
