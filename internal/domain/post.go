package domain

import "time"

// PostContent is the publishable part of a post: text plus attachments in
// display order.
type PostContent struct {
	Text  string
	Files []File
}

// Post is one unit of content read from a platform. Constructed only during
// retrieval; Files may be empty.
type Post struct {
	PostContent

	ID     int64
	Source Source
	Date   time.Time
}
