package vk

import (
	"context"
	"net/url"
	"strconv"

	"github.com/AlexXanderGrib/post-copier/internal/domain"
	"github.com/AlexXanderGrib/post-copier/internal/platform/collect"
	"github.com/samber/lo"
)

const groupsPerRequest = 1000

type group struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	ScreenName string `json:"screen_name"`
	Photo200   string `json:"photo_200"`
}

type groupList struct {
	Count int     `json:"count"`
	Items []group `json:"items"`
}

// listGroups pages through the identity's communities. filter narrows the
// list to an access level, e.g. "editor" for communities this identity may
// post to.
func (v *VkImpl) listGroups(ctx context.Context, filter string) ([]domain.Source, error) {
	fetch := func(ctx context.Context, offset, count int) (collect.Page[group], error) {
		params := url.Values{
			"extended": {"1"},
			"offset":   {strconv.Itoa(offset)},
			"count":    {strconv.Itoa(count)},
		}
		if filter != "" {
			params.Set("filter", filter)
		}

		var list groupList
		if err := v.call(ctx, "groups.get", params, &list); err != nil {
			return collect.Page[group]{}, err
		}
		return collect.Page[group]{Items: list.Items, Total: list.Count}, nil
	}

	groups, err := collect.All(ctx, fetch, collect.Options{PerRequest: groupsPerRequest})
	if err != nil {
		return nil, err
	}

	return lo.Map(groups, func(g group, _ int) domain.Source {
		return domain.Source{
			// Communities are sign-encoded: wall owner ids of groups are
			// negative in the API.
			ID:     strconv.FormatInt(-g.ID, 10),
			Title:  g.Name,
			Domain: g.ScreenName,
			Image:  g.Photo200,
		}
	}), nil
}

func (v *VkImpl) GetSources(ctx context.Context) ([]domain.Source, error) {
	sources, err := v.listGroups(ctx, "")
	if err != nil {
		return nil, err
	}

	destinations, err := v.GetDestinations(ctx)
	if err != nil {
		return nil, err
	}

	destinationIDs := lo.SliceToMap(destinations, func(d domain.Source) (string, struct{}) {
		return d.ID, struct{}{}
	})

	return lo.Filter(sources, func(s domain.Source, _ int) bool {
		_, isDestination := destinationIDs[s.ID]
		return !isDestination
	}), nil
}

func (v *VkImpl) GetDestinations(ctx context.Context) ([]domain.Source, error) {
	return v.listGroups(ctx, "editor")
}
