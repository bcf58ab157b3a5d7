package vk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/AlexXanderGrib/post-copier/internal/domain"
	"github.com/AlexXanderGrib/post-copier/pkg/errors"
)

type photoSize struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// GetFileContents downloads the bytes of a file this adapter produced.
// Images resolve to their largest rendition; documents carry a direct URL.
// Other kinds have no downloadable representation here.
func (v *VkImpl) GetFileContents(ctx context.Context, file domain.File) ([]byte, error) {
	inner, ok := file.Raw.(json.RawMessage)
	if !ok {
		return nil, errors.Kind(errors.ErrDownload, "file was not produced by this adapter")
	}

	var downloadURL string
	switch file.Type {
	case domain.FileTypeImage:
		var payload struct {
			Sizes []photoSize `json:"sizes"`
		}
		if err := json.Unmarshal(inner, &payload); err != nil {
			return nil, errors.WrapKind(err, errors.ErrDownload, "malformed photo payload")
		}
		best := -1
		for _, size := range payload.Sizes {
			if area := size.Width * size.Height; area > best {
				best = area
				downloadURL = size.URL
			}
		}

	case domain.FileTypeDocument:
		var payload struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(inner, &payload); err != nil {
			return nil, errors.WrapKind(err, errors.ErrDownload, "malformed document payload")
		}
		downloadURL = payload.URL
	}

	if downloadURL == "" {
		return nil, errors.Kind(errors.ErrDownload,
			fmt.Sprintf("file %s of type %s has no downloadable url", file.ID, file.Type))
	}

	contents, err := v.fetch(ctx, downloadURL)
	if err != nil {
		return nil, errors.WrapKind(err, errors.ErrDownload, fmt.Sprintf("failed to download file %s", file.ID))
	}
	return contents, nil
}

// UploadFile stages bytes on the wall upload servers. Images and documents
// are the kinds the wall accepts from raw bytes.
func (v *VkImpl) UploadFile(ctx context.Context, t domain.FileType, contents []byte) (domain.File, error) {
	switch t {
	case domain.FileTypeImage:
		return v.uploadWallPhoto(ctx, contents)
	case domain.FileTypeDocument:
		return v.uploadWallDocument(ctx, contents)
	default:
		return domain.File{}, errors.Kind(errors.ErrUpload,
			fmt.Sprintf("cannot upload files of type %s", t))
	}
}

func (v *VkImpl) uploadWallPhoto(ctx context.Context, contents []byte) (domain.File, error) {
	var server struct {
		UploadURL string `json:"upload_url"`
	}
	if err := v.call(ctx, "photos.getWallUploadServer", url.Values{}, &server); err != nil {
		return domain.File{}, errors.WrapKind(err, errors.ErrUpload, "failed to get photo upload server")
	}

	uploaded, err := v.multipartUpload(ctx, server.UploadURL, "photo", "photo.jpg", contents)
	if err != nil {
		return domain.File{}, errors.WrapKind(err, errors.ErrUpload, "photo upload failed")
	}

	var stage struct {
		Server int64  `json:"server"`
		Photo  string `json:"photo"`
		Hash   string `json:"hash"`
	}
	if err := json.Unmarshal(uploaded, &stage); err != nil {
		return domain.File{}, errors.WrapKind(err, errors.ErrUpload, "malformed photo upload response")
	}

	var saved []struct {
		ID      int64 `json:"id"`
		OwnerID int64 `json:"owner_id"`
	}
	err = v.call(ctx, "photos.saveWallPhoto", url.Values{
		"server": {strconv.FormatInt(stage.Server, 10)},
		"photo":  {stage.Photo},
		"hash":   {stage.Hash},
	}, &saved)
	if err != nil {
		return domain.File{}, errors.WrapKind(err, errors.ErrUpload, "failed to save wall photo")
	}
	if len(saved) == 0 {
		return domain.File{}, errors.Kind(errors.ErrUpload, "wall photo save returned nothing")
	}

	raw, _ := json.Marshal(saved[0])
	return domain.File{
		Type: domain.FileTypeImage,
		ID:   fmt.Sprintf("photo%d_%d", saved[0].OwnerID, saved[0].ID),
		Raw:  json.RawMessage(raw),
	}, nil
}

func (v *VkImpl) uploadWallDocument(ctx context.Context, contents []byte) (domain.File, error) {
	var server struct {
		UploadURL string `json:"upload_url"`
	}
	if err := v.call(ctx, "docs.getWallUploadServer", url.Values{}, &server); err != nil {
		return domain.File{}, errors.WrapKind(err, errors.ErrUpload, "failed to get document upload server")
	}

	uploaded, err := v.multipartUpload(ctx, server.UploadURL, "file", "document", contents)
	if err != nil {
		return domain.File{}, errors.WrapKind(err, errors.ErrUpload, "document upload failed")
	}

	var stage struct {
		File string `json:"file"`
	}
	if err := json.Unmarshal(uploaded, &stage); err != nil {
		return domain.File{}, errors.WrapKind(err, errors.ErrUpload, "malformed document upload response")
	}

	var saved struct {
		Doc struct {
			ID      int64  `json:"id"`
			OwnerID int64  `json:"owner_id"`
			URL     string `json:"url"`
		} `json:"doc"`
	}
	if err := v.call(ctx, "docs.save", url.Values{"file": {stage.File}}, &saved); err != nil {
		return domain.File{}, errors.WrapKind(err, errors.ErrUpload, "failed to save document")
	}

	raw, _ := json.Marshal(saved.Doc)
	return domain.File{
		Type: domain.FileTypeDocument,
		ID:   fmt.Sprintf("doc%d_%d", saved.Doc.OwnerID, saved.Doc.ID),
		Raw:  json.RawMessage(raw),
		URL:  saved.Doc.URL,
	}, nil
}

// multipartUpload posts contents to a one-off upload server URL and returns
// the raw staging response.
func (v *VkImpl) multipartUpload(ctx context.Context, uploadURL, field, filename string, contents []byte) (json.RawMessage, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(contents); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := v.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// Post publishes content on the destination community's wall.
func (v *VkImpl) Post(ctx context.Context, sourceID string, content domain.PostContent) (int64, error) {
	attachments := make([]string, 0, len(content.Files))
	for _, file := range content.Files {
		attachments = append(attachments, file.ID)
	}

	params := url.Values{
		"owner_id": {sourceID},
		"message":  {content.Text},
	}
	if len(attachments) > 0 {
		params.Set("attachments", strings.Join(attachments, ","))
	}

	var result struct {
		PostID int64 `json:"post_id"`
	}
	if err := v.call(ctx, "wall.post", params, &result); err != nil {
		return 0, errors.WrapKind(err, errors.ErrPublish, "wall publish failed")
	}

	return result.PostID, nil
}
