package app

import (
	"fmt"

	"github.com/manifoldco/promptui"

	"github.com/AlexXanderGrib/post-copier/internal/domain"
)

func pickSource(label string, sources []domain.Source) (domain.Source, error) {
	items := make([]string, len(sources))
	for i, s := range sources {
		title := s.Title
		if s.Domain != "" {
			title = fmt.Sprintf("%s (@%s)", title, s.Domain)
		}
		items[i] = title
	}

	idx, _, err := (&promptui.Select{Label: label, Items: items, Size: 10}).Run()
	if err != nil {
		return domain.Source{}, err
	}
	return sources[idx], nil
}

func pickPost(label string, posts []domain.Post) (domain.Post, error) {
	items := make([]string, len(posts))
	for i, p := range posts {
		text := p.Text
		if len(text) > 60 {
			text = text[:57] + "..."
		}
		items[i] = fmt.Sprintf("#%d %s [%d files] %s",
			p.ID, p.Date.Format("2006-01-02"), len(p.Files), text)
	}

	idx, _, err := (&promptui.Select{Label: label, Items: items, Size: 10}).Run()
	if err != nil {
		return domain.Post{}, err
	}
	return posts[idx], nil
}
