package api

type PostSummary struct {
	Slug          string   `json:"slug"`
	Title         string   `json:"title"`
	Date          string   `json:"date"`
	Updated       string   `json:"updated,omitempty"`
	Author        string   `json:"author,omitempty"`
	Description   string   `json:"description,omitempty"`
	Category      string   `json:"category,omitempty"`
	Tags          []string `json:"tags"`
	FeaturedImage string   `json:"featured_image,omitempty"`
	Snippet       string   `json:"snippet"`
}

type TocEntry struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	ID    string `json:"id"`
}

type RelatedPost struct {
	Label string      `json:"label"`
	Post  PostSummary `json:"post"`
}

type Post struct {
	PostSummary
	HTML       string        `json:"html"`
	TOC        []TocEntry    `json:"toc,omitempty"`
	Related    []RelatedPost `json:"related"`
	Similar    []PostSummary `json:"similar"`
	Generation uint64        `json:"generation"`
}

type PostList struct {
	Posts      []PostSummary `json:"posts"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	Total      int           `json:"total"`
	HasNext    bool          `json:"has_next"`
	HasPrev    bool          `json:"has_prev"`
	Categories []string      `json:"categories"`
	Generation uint64        `json:"generation"`
}

type Page struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	HTML        string `json:"html"`
	Generation  uint64 `json:"generation"`
}

type Error struct {
	Error string `json:"error"`
}
