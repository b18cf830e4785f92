package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/foxfolio/portfolio-api/internal/domain"
)

// Request bodies accept both the English field names and the French ones
// used by the existing frontend (nom, contenu, objet, contenuP1, ...).

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	OldPassword     string `json:"old_password"`
	NewPassword     string `json:"new_password"`
}

func (r changePasswordRequest) current() string {
	return firstNonEmpty(r.CurrentPassword, r.OldPassword)
}

type subscribeRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Nom   string `json:"nom"`
}

func (r subscribeRequest) name() string { return firstNonEmpty(r.Name, r.Nom) }

type commentRequest struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Nom     string `json:"nom"`
	Content string `json:"content"`
	Contenu string `json:"contenu"`
}

func (r commentRequest) name() string    { return firstNonEmpty(r.Name, r.Nom) }
func (r commentRequest) content() string { return firstNonEmpty(r.Content, r.Contenu) }

type messageRequest struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Nom     string `json:"nom"`
	Subject string `json:"subject"`
	Objet   string `json:"objet"`
	Content string `json:"content"`
	Contenu string `json:"contenu"`
}

func (r messageRequest) name() string    { return firstNonEmpty(r.Name, r.Nom) }
func (r messageRequest) subject() string { return firstNonEmpty(r.Subject, r.Objet) }
func (r messageRequest) content() string { return firstNonEmpty(r.Content, r.Contenu) }

type newsletterRequest struct {
	Title          string `json:"title"`
	Subtitle       string `json:"subtitle"`
	MainContent    string `json:"main_content"`
	MainContentAlt string `json:"mainContent"`
	Quote          string `json:"quote"`
	Conclusion     string `json:"conclusion"`
	ImageURL       string `json:"image_url"`
	ImageURLAlt    string `json:"imageUrl"`
	ArticleURL     string `json:"article_url"`
	ArticleURLAlt  string `json:"articleUrl"`
}

func (r newsletterRequest) newsletter() domain.Newsletter {
	return domain.Newsletter{
		Title:       r.Title,
		Subtitle:    r.Subtitle,
		MainContent: firstNonEmpty(r.MainContent, r.MainContentAlt),
		Quote:       r.Quote,
		Conclusion:  r.Conclusion,
		ImageURL:    firstNonEmpty(r.ImageURL, r.ImageURLAlt),
		ArticleURL:  firstNonEmpty(r.ArticleURL, r.ArticleURLAlt),
	}
}

type announcementRequest struct {
	MainContent       string `json:"main_content"`
	MainContentAlt    string `json:"mainContent"`
	ContenuP1         string `json:"contenuP1"`
	Conclusion        string `json:"conclusion"`
	ContenuConclusion string `json:"contenuConclusion"`
	Quote             string `json:"quote"`
	ContenuSitation   string `json:"contenuSitation"`
	ImageURL          string `json:"image_url"`
	ImageURLAlt       string `json:"imageUrl"`
}

func (r announcementRequest) announcement() domain.Announcement {
	return domain.Announcement{
		MainContent: firstNonEmpty(r.MainContent, r.MainContentAlt, r.ContenuP1),
		Conclusion:  firstNonEmpty(r.Conclusion, r.ContenuConclusion),
		Quote:       firstNonEmpty(r.Quote, r.ContenuSitation),
		ImageURL:    firstNonEmpty(r.ImageURL, r.ImageURLAlt),
	}
}

type visitRequest struct {
	Page     string `json:"page"`
	Referrer string `json:"referrer"`
}

// referrer falls back to the Referer header.
func (v visitRequest) referrer(r *http.Request) string {
	return firstNonEmpty(v.Referrer, r.Referer())
}

// decodeQuietly parses a JSON body without writing any response.
func decodeQuietly(r *http.Request, dst any) error {
	return json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(dst)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
