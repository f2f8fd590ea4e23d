package domain

import "time"

const DefaultSiteName = "AQUAHIMIYA"

// PublicSettings is the part of the settings record every visitor may read.
type PublicSettings struct {
	SiteName       string `json:"siteName"`
	WhatsappNumber string `json:"whatsappNumber"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Address        string `json:"address"`
	WorkingHours   string `json:"workingHours"`
}

// AuthToken is the single admin session. A zero ExpiresAt never expires.
type AuthToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the token is past its expiry at now.
func (t *AuthToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

// Settings is the full record including the private credentials.
type Settings struct {
	PublicSettings
	AdminPasswordHash string
	AuthToken         *AuthToken
}

// DefaultPublicSettings is written the first time settings are read.
func DefaultPublicSettings() PublicSettings {
	return PublicSettings{
		SiteName:       DefaultSiteName,
		WhatsappNumber: "996555123456",
		Phone:          "+996 (555) 12-34-56",
		Email:          "info@aquachemistry.kg",
		Address:        "г. Бишкек, ул. Примерная 123",
		WorkingHours:   "Пн-Пт: 9:00-18:00",
	}
}
