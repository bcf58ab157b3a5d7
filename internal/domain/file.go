package domain

// FileType classifies a media attachment. Unsupported is the fallback for
// native kinds with no mapping; it is never an error.
type FileType string

const (
	FileTypeImage       FileType = "image"
	FileTypeVideo       FileType = "video"
	FileTypeAudio       FileType = "audio"
	FileTypeLink        FileType = "link"
	FileTypeDocument    FileType = "document"
	FileTypeUnsupported FileType = "unsupported"
)

// File references one media attachment of a post.
//
// Raw is a platform-private handle owned by the adapter that produced the
// file. It must only ever be passed back to methods of that same adapter;
// no other component may inspect it.
type File struct {
	Type FileType
	ID   string
	Raw  any
	URL  string // optional
}

// MapKind resolves a platform-native attachment kind through the adapter's
// mapping table, defaulting to FileTypeUnsupported for unknown kinds.
func MapKind(kinds map[string]FileType, kind string) FileType {
	if t, ok := kinds[kind]; ok {
		return t
	}
	return FileTypeUnsupported
}
