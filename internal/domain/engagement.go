package domain

import (
	"net/url"
	"strings"
	"time"
)

// Post is the minimal view of a blog post this service needs. Posts
// themselves are managed elsewhere.
type Post struct {
	ID    int64  `json:"id" db:"id"`
	Title string `json:"title" db:"title"`
}

// Comment is a visitor comment on a post.
type Comment struct {
	ID         int64     `json:"id" db:"id"`
	PostID     int64     `json:"post" db:"post_id"`
	VisitorID  int64     `json:"visiteur" db:"visitor_id"`
	AuthorName string    `json:"author_name,omitempty" db:"author_name"`
	Content    string    `json:"content" db:"content"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Message is a contact-form message addressed to the site owner.
type Message struct {
	ID        int64     `json:"id" db:"id"`
	VisitorID int64     `json:"visiteur" db:"visitor_id"`
	Subject   string    `json:"subject" db:"subject"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// BroadcastKind distinguishes the two one-to-many message types.
type BroadcastKind string

const (
	BroadcastNewsletter   BroadcastKind = "newsletter"
	BroadcastAnnouncement BroadcastKind = "announcement"
)

// Newsletter is authored content sent to every visitor through the
// newsletter template. Immutable once created.
type Newsletter struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Subtitle    string    `json:"subtitle" db:"subtitle"`
	MainContent string    `json:"main_content" db:"main_content"`
	Quote       string    `json:"quote" db:"quote"`
	Conclusion  string    `json:"conclusion" db:"conclusion"`
	ImageURL    string    `json:"image_url" db:"image_url"`
	ArticleURL  string    `json:"article_url" db:"article_url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Validate checks the fields a newsletter cannot be sent without.
func (n Newsletter) Validate() error {
	switch {
	case n.Title == "":
		return Required("title")
	case n.MainContent == "":
		return Required("main_content")
	case n.Conclusion == "":
		return Required("conclusion")
	}
	if err := validateLink("image_url", n.ImageURL); err != nil {
		return err
	}
	return validateLink("article_url", n.ArticleURL)
}

// validateLink accepts an empty value or an absolute http(s) URL. Links end
// up in mail attributes, so other schemes such as javascript: are refused.
func validateLink(field, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return Invalid(field, "must be an absolute http or https URL")
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return nil
	}
	return Invalid(field, "must be an absolute http or https URL")
}

// Announcement is a short broadcast rendered from inline HTML.
type Announcement struct {
	ID          int64     `json:"id" db:"id"`
	MainContent string    `json:"main_content" db:"main_content"`
	Conclusion  string    `json:"conclusion" db:"conclusion"`
	Quote       string    `json:"quote" db:"quote"`
	ImageURL    string    `json:"image_url" db:"image_url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Validate checks the fields an announcement cannot be sent without.
func (a Announcement) Validate() error {
	if a.MainContent == "" {
		return Required("main_content")
	}
	return validateLink("image_url", a.ImageURL)
}

// Visit is the metadata captured by the visit tracker.
type Visit struct {
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent"`
	Page      string `json:"page"`
	Referrer  string `json:"referrer"`
}

// DashboardStats is the admin dashboard read model.
type DashboardStats struct {
	Visitors       int       `json:"visitors"`
	Posts          int       `json:"posts"`
	Comments       int       `json:"comments"`
	Messages       int       `json:"messages"`
	Newsletters    int       `json:"newsletters"`
	Announcements  int       `json:"announcements"`
	RecentComments []Comment `json:"recent_comments"`
	RecentMessages []Message `json:"recent_messages"`
}
