package model

import "time"

// BlogPost is a news or guide article.
type BlogPost struct {
	ID          string     `json:"id" bson:"_id"`
	Title       string     `json:"title" bson:"title" validate:"required,max=300"`
	Slug        string     `json:"slug" bson:"slug" validate:"required,slug,max=300"`
	Excerpt     string     `json:"excerpt" bson:"excerpt" validate:"max=1000"`
	Content     string     `json:"content" bson:"content"`
	CoverImage  string     `json:"coverImage,omitempty" bson:"coverImage,omitempty" validate:"omitempty,imageref"`
	Author      string     `json:"author" bson:"author" validate:"max=200"`
	Tags        []string   `json:"tags" bson:"tags" validate:"dive,required,max=50"`
	Published   bool       `json:"published" bson:"published"`
	PublishedAt *time.Time `json:"publishedAt,omitempty" bson:"publishedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// Normalize fills defaults and stamps PublishedAt the first time the post
// is published.
func (b *BlogPost) Normalize(now time.Time) {
	if b.Tags == nil {
		b.Tags = []string{}
	}
	if b.Published && b.PublishedAt == nil {
		b.PublishedAt = &now
	}
}

// TeamMember is a staff profile.
type TeamMember struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name" validate:"required,max=200"`
	Position  string    `json:"position" bson:"position" validate:"max=200"`
	Bio       string    `json:"bio" bson:"bio"`
	Photo     string    `json:"photo,omitempty" bson:"photo,omitempty" validate:"omitempty,imageref"`
	Email     string    `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	Phone     string    `json:"phone,omitempty" bson:"phone,omitempty" validate:"max=50"`
	Order     int       `json:"order" bson:"order"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// HeroSlide is a home page banner.
type HeroSlide struct {
	ID        string    `json:"id" bson:"_id"`
	Title     string    `json:"title" bson:"title" validate:"required,max=200"`
	Subtitle  string    `json:"subtitle" bson:"subtitle" validate:"max=500"`
	Image     string    `json:"image" bson:"image" validate:"required,imageref"`
	CTAText   string    `json:"ctaText,omitempty" bson:"ctaText,omitempty" validate:"max=100"`
	CTALink   string    `json:"ctaLink,omitempty" bson:"ctaLink,omitempty" validate:"max=500"`
	Order     int       `json:"order" bson:"order"`
	Active    bool      `json:"active" bson:"active"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// SettingsID is the id of the singleton settings document.
const SettingsID = "site"

// Settings holds site-wide contact details.
type Settings struct {
	ID           string            `json:"id" bson:"_id"`
	SiteName     string            `json:"siteName" bson:"siteName" validate:"max=200"`
	Tagline      string            `json:"tagline" bson:"tagline" validate:"max=300"`
	ContactEmail string            `json:"contactEmail,omitempty" bson:"contactEmail,omitempty" validate:"omitempty,email"`
	ContactPhone string            `json:"contactPhone,omitempty" bson:"contactPhone,omitempty" validate:"max=50"`
	Address      string            `json:"address,omitempty" bson:"address,omitempty" validate:"max=500"`
	WhatsApp     string            `json:"whatsapp,omitempty" bson:"whatsapp,omitempty" validate:"max=50"`
	Social       map[string]string `json:"social" bson:"social" validate:"dive,keys,required,max=50,endkeys,max=500"`
	CreatedAt    time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt" bson:"updatedAt"`
}

// DefaultSettings is returned before settings are first saved.
func DefaultSettings() Settings {
	return Settings{
		ID:       SettingsID,
		SiteName: "EstateDesk",
		Social:   map[string]string{},
	}
}
