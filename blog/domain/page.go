package domain

// Page is a static page such as "about". Pages have no publication date.
type Page struct {
	Slug        string
	Title       string
	Template    string
	Description string
	Draft       bool

	RawContent string
	FilePath   string
	Digest     string

	HTML string
}
