package models

import "time"

// Settings is the site-wide settings singleton.
type Settings struct {
	UpdatedAt       time.Time `json:"updatedAt"`
	BlogName        string    `json:"blogName"`
	BlogDescription string    `json:"blogDescription"`
	HeroTitle       string    `json:"heroTitle"`
	HeroSubtitle    string    `json:"heroSubtitle"`
	Twitter         string    `json:"twitter"`
	LinkedIn        string    `json:"linkedin"`
	GitHub          string    `json:"github"`
	MetaTitle       string    `json:"metaTitle"`
	MetaDescription string    `json:"metaDescription"`
	MetaKeywords    string    `json:"metaKeywords"`
}

// DefaultSettings returns the values used when no settings row exists yet.
func DefaultSettings() Settings {
	return Settings{
		BlogName:  "My Blog",
		HeroTitle: "Welcome to My Blog",
	}
}

// SettingsPatch carries a partial update; nil fields are left unchanged.
type SettingsPatch struct {
	BlogName        *string `json:"blogName,omitempty"`
	BlogDescription *string `json:"blogDescription,omitempty"`
	HeroTitle       *string `json:"heroTitle,omitempty"`
	HeroSubtitle    *string `json:"heroSubtitle,omitempty"`
	Twitter         *string `json:"twitter,omitempty"`
	LinkedIn        *string `json:"linkedin,omitempty"`
	GitHub          *string `json:"github,omitempty"`
	MetaTitle       *string `json:"metaTitle,omitempty"`
	MetaDescription *string `json:"metaDescription,omitempty"`
	MetaKeywords    *string `json:"metaKeywords,omitempty"`
}

// Apply copies every non-nil field of the patch onto s.
func (p SettingsPatch) Apply(s *Settings) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&s.BlogName, p.BlogName)
	set(&s.BlogDescription, p.BlogDescription)
	set(&s.HeroTitle, p.HeroTitle)
	set(&s.HeroSubtitle, p.HeroSubtitle)
	set(&s.Twitter, p.Twitter)
	set(&s.LinkedIn, p.LinkedIn)
	set(&s.GitHub, p.GitHub)
	set(&s.MetaTitle, p.MetaTitle)
	set(&s.MetaDescription, p.MetaDescription)
	set(&s.MetaKeywords, p.MetaKeywords)
}

// IsEmpty reports whether the patch changes nothing.
func (p SettingsPatch) IsEmpty() bool {
	return p.BlogName == nil && p.BlogDescription == nil && p.HeroTitle == nil &&
		p.HeroSubtitle == nil && p.Twitter == nil && p.LinkedIn == nil &&
		p.GitHub == nil && p.MetaTitle == nil && p.MetaDescription == nil &&
		p.MetaKeywords == nil
}
