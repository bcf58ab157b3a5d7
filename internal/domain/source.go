package domain

// Source is a place content can be read from or published to. Its ID is
// unique within one platform's namespace and may carry platform-specific
// encoding (VK sign-encodes the entity kind, for example).
type Source struct {
	ID     string
	Title  string
	Image  string // thumbnail URL, optional
	Domain string // human-readable handle, optional
}
