package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewsletterValidate_Links(t *testing.T) {
	base := Newsletter{Title: "t", MainContent: "m", Conclusion: "c"}

	tests := []struct {
		name    string
		image   string
		article string
		field   string
	}{
		{name: "no links"},
		{name: "https links", image: "https://fox.dev/a.png", article: "https://fox.dev/posts/1"},
		{name: "plain http", article: "http://fox.dev/posts/1"},
		{name: "javascript scheme", article: "javascript:alert(1)", field: "article_url"},
		{name: "data uri", image: "data:image/png;base64,AAAA", field: "image_url"},
		{name: "relative path", image: "/media/a.png", field: "image_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := base
			n.ImageURL, n.ArticleURL = tt.image, tt.article
			err := n.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestAnnouncementValidate(t *testing.T) {
	assert.ErrorIs(t, Announcement{}.Validate(), ErrValidation)
	assert.NoError(t, Announcement{MainContent: "m", ImageURL: "https://fox.dev/a.png"}.Validate())
	assert.ErrorIs(t, Announcement{MainContent: "m", ImageURL: "javascript:void(0)"}.Validate(), ErrValidation)
}
