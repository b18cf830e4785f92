package mailing

import (
	"fmt"
	"time"

	"github.com/foxfolio/portfolio-api/internal/domain"
)

// Profile is the site identity injected into every template.
type Profile struct {
	SiteName   string
	OwnerEmail string
}

func (p Profile) data() Data {
	return Data{"site_name": p.SiteName, "owner_email": p.OwnerEmail}
}

func visitorData(v domain.Visitor) Data {
	return Data{"email": v.Email, "name": v.Name}
}

// Composer builds the subject and bodies of every message the service
// sends.
type Composer struct {
	engine  *Engine
	profile Profile
	now     func() time.Time
}

// NewComposer returns a Composer rendering through engine.
func NewComposer(engine *Engine, profile Profile) *Composer {
	if profile.SiteName == "" {
		profile.SiteName = "Fox"
	}
	return &Composer{engine: engine, profile: profile, now: time.Now}
}

// Profile returns the site identity.
func (c *Composer) Profile() Profile { return c.profile }

// Mail is a composed message. HTML is empty for plain-text mail.
type Mail struct {
	Subject string
	Text    string
	HTML    string
}

// Newsletter renders the newsletter for one recipient.
func (c *Composer) Newsletter(n domain.Newsletter, to domain.Visitor) (Mail, error) {
	body, err := c.engine.Render(TemplateNewsletter, Data{
		"newsletter": Data{
			"title":        n.Title,
			"subtitle":     n.Subtitle,
			"main_content": n.MainContent,
			"quote":        n.Quote,
			"conclusion":   n.Conclusion,
			"image_url":    n.ImageURL,
			"article_url":  n.ArticleURL,
		},
		"recipient": visitorData(to),
		"year":      c.now().Year(),
		"profile":   c.profile.data(),
	})
	if err != nil {
		return Mail{}, err
	}
	return Mail{Subject: fmt.Sprintf("%s : %s", c.profile.SiteName, n.Title), HTML: body}, nil
}

// Announcement renders an announcement. The body does not vary per
// recipient.
func (c *Composer) Announcement(a domain.Announcement) (Mail, error) {
	body, err := c.engine.Render(TemplateAnnouncement, Data{
		"announcement": Data{
			"main_content": a.MainContent,
			"conclusion":   a.Conclusion,
			"quote":        a.Quote,
			"image_url":    a.ImageURL,
		},
		"profile": c.profile.data(),
	})
	if err != nil {
		return Mail{}, err
	}
	return Mail{Subject: fmt.Sprintf("%s : Announcement", c.profile.SiteName), HTML: body}, nil
}

// Welcome renders the plain-text greeting sent to a new subscriber.
func (c *Composer) Welcome(v domain.Visitor) (Mail, error) {
	body, err := c.engine.Render(TemplateWelcome, Data{
		"recipient": visitorData(v),
		"profile":   c.profile.data(),
	})
	if err != nil {
		return Mail{}, err
	}
	return Mail{Subject: fmt.Sprintf("Welcome to %s!", c.profile.SiteName), Text: body}, nil
}

// NewSubscriber renders the owner alert for a new subscriber.
func (c *Composer) NewSubscriber(v domain.Visitor) (Mail, error) {
	body, err := c.engine.Render(TemplateNewSubscriber, Data{
		"visitor": visitorData(v),
		"profile": c.profile.data(),
	})
	if err != nil {
		return Mail{}, err
	}
	return Mail{Subject: fmt.Sprintf("%s: new newsletter subscriber %s", c.profile.SiteName, v.Email), Text: body}, nil
}

// ContactMessage renders the owner alert for a contact-form message.
func (c *Composer) ContactMessage(v domain.Visitor, m domain.Message) (Mail, error) {
	body, err := c.engine.Render(TemplateContactMessage, Data{
		"visitor": visitorData(v),
		"message": Data{"subject": m.Subject, "content": m.Content},
		"profile": c.profile.data(),
	})
	if err != nil {
		return Mail{}, err
	}
	return Mail{Subject: fmt.Sprintf("%s: new message: %s", c.profile.SiteName, m.Subject), Text: body}, nil
}

// Visit renders the owner alert for a tracked visit.
func (c *Composer) Visit(v domain.Visit) (Mail, error) {
	body, err := c.engine.Render(TemplateVisit, Data{
		"visit": Data{
			"ip":         v.IP,
			"user_agent": v.UserAgent,
			"page":       v.Page,
			"referrer":   v.Referrer,
		},
		"profile": c.profile.data(),
	})
	if err != nil {
		return Mail{}, err
	}
	subject := fmt.Sprintf("%s: new visit", c.profile.SiteName)
	if v.Page != "" {
		subject += " on " + v.Page
	}
	return Mail{Subject: subject, Text: body}, nil
}
