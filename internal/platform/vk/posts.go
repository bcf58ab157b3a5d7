package vk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/AlexXanderGrib/post-copier/internal/domain"
	"github.com/AlexXanderGrib/post-copier/internal/platform/collect"
)

const (
	postsPerRequest = 100
	// Newest-N window returned per source.
	postsMax = 100
)

// Native attachment kinds this adapter can decode. Anything else maps to
// unsupported and still travels through the pipeline.
var attachmentKinds = map[string]domain.FileType{
	"photo":    domain.FileTypeImage,
	"video":    domain.FileTypeVideo,
	"audio":    domain.FileTypeAudio,
	"doc":      domain.FileTypeDocument,
	"graffiti": domain.FileTypeImage,
	"link":     domain.FileTypeLink,
}

type wallPost struct {
	ID          int64             `json:"id"`
	PostID      int64             `json:"post_id"`
	Date        int64             `json:"date"`
	Text        string            `json:"text"`
	Attachments []json.RawMessage `json:"attachments"`
}

type wallList struct {
	Count int        `json:"count"`
	Items []wallPost `json:"items"`
}

func (v *VkImpl) GetPosts(ctx context.Context, source domain.Source) ([]domain.Post, error) {
	fetch := func(ctx context.Context, offset, count int) (collect.Page[wallPost], error) {
		params := url.Values{
			"owner_id": {source.ID},
			"extended": {"1"},
			"offset":   {strconv.Itoa(offset)},
			"count":    {strconv.Itoa(count)},
		}

		var list wallList
		if err := v.call(ctx, "wall.get", params, &list); err != nil {
			return collect.Page[wallPost]{}, err
		}
		return collect.Page[wallPost]{Items: list.Items, Total: list.Count}, nil
	}

	items, err := collect.All(ctx, fetch, collect.Options{
		PerRequest: postsPerRequest,
		Max:        postsMax,
	})
	if err != nil {
		return nil, err
	}

	posts := make([]domain.Post, 0, len(items))
	for _, item := range items {
		id := item.ID
		if id == 0 {
			id = item.PostID
		}

		files := make([]domain.File, 0, len(item.Attachments))
		for _, raw := range item.Attachments {
			file, err := parseAttachment(raw)
			if err != nil {
				v.logger.Warn("Skipping malformed attachment", "post_id", id, "error", err)
				continue
			}
			files = append(files, file)
		}

		posts = append(posts, domain.Post{
			PostContent: domain.PostContent{
				Text:  item.Text,
				Files: files,
			},
			ID:     id,
			Source: source,
			Date:   time.Unix(item.Date, 0),
		})
	}

	return posts, nil
}

// parseAttachment extracts the typed payload of one wall attachment. The
// payload object sits under a key named after the attachment kind; it is
// kept raw on the file for later re-fetching.
func parseAttachment(raw json.RawMessage) (domain.File, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return domain.File{}, fmt.Errorf("attachment without a type: %w", err)
	}

	var payloads map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payloads); err != nil {
		return domain.File{}, err
	}
	inner, ok := payloads[head.Type]
	if !ok {
		return domain.File{}, fmt.Errorf("attachment %q carries no payload", head.Type)
	}

	var meta struct {
		OwnerID   int64  `json:"owner_id"`
		ID        int64  `json:"id"`
		AccessKey string `json:"access_key"`
	}
	if err := json.Unmarshal(inner, &meta); err != nil {
		return domain.File{}, err
	}

	id := fmt.Sprintf("%s%d_%d", head.Type, meta.OwnerID, meta.ID)
	if meta.AccessKey != "" {
		id += "_" + meta.AccessKey
	}

	return domain.File{
		Type: domain.MapKind(attachmentKinds, head.Type),
		ID:   id,
		Raw:  inner,
	}, nil
}
