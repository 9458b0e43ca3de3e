package model

import "time"

// Locale selects the language of notification text.
type Locale string

const (
	LocaleTR Locale = "tr"
	LocaleEN Locale = "en"
)

// ParseLocale maps anything other than "en" to Turkish, the app's default language.
func ParseLocale(s string) Locale {
	if Locale(s) == LocaleEN {
		return LocaleEN
	}
	return LocaleTR
}

// PushKeys are the client's ECDH public key and auth secret.
type PushKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Subscription is a web push endpoint registered by a client.
type Subscription struct {
	Endpoint  string    `json:"endpoint"`
	Keys      PushKeys  `json:"keys"`
	Locale    Locale    `json:"locale"`
	CreatedAt time.Time `json:"createdAt"`
}

// Preference is a client's notification setting.
type Preference struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Locale  Locale `json:"locale"  yaml:"locale"`
}
