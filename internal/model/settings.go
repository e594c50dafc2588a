package model

import (
	"strconv"
	"strings"
	"time"
)

// Settings is the site configuration edited from the admin panel. It is
// stored as dotted key/value rows ("theme.primaryColor").
type Settings struct {
	Theme         ThemeSettings        `json:"theme"`
	Notifications NotificationSettings `json:"notifications"`
	Email         EmailSettings        `json:"email"`
}

type ThemeSettings struct {
	PrimaryColor string `json:"primaryColor"`
	DarkMode     bool   `json:"darkMode"`
	Font         string `json:"font"`
}

type NotificationSettings struct {
	EmailAlerts     bool `json:"emailAlerts"`
	NewMessages     bool `json:"newMessages"`
	NewTestimonials bool `json:"newTestimonials"`
}

type EmailSettings struct {
	FromName  string `json:"fromName"`
	FromEmail string `json:"fromEmail"`
	SMTPHost  string `json:"smtpHost"`
	SMTPPort  string `json:"smtpPort"`
	SMTPUser  string `json:"smtpUser"`
	SMTPPass  string `json:"smtpPass"`
}

// SettingEntry is one stored row.
type SettingEntry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Category  string    `json:"category"`
	UpdatedBy *int64    `json:"updated_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultSettings mirrors what a fresh install shows.
func DefaultSettings() Settings {
	return Settings{
		Theme:         ThemeSettings{PrimaryColor: "#3B82F6", Font: "Inter"},
		Notifications: NotificationSettings{EmailAlerts: true, NewMessages: true, NewTestimonials: true},
	}
}

// Entries flattens s into stored rows.
func (s Settings) Entries() []SettingEntry {
	return []SettingEntry{
		entry("theme", "primaryColor", s.Theme.PrimaryColor),
		entry("theme", "darkMode", strconv.FormatBool(s.Theme.DarkMode)),
		entry("theme", "font", s.Theme.Font),
		entry("notifications", "emailAlerts", strconv.FormatBool(s.Notifications.EmailAlerts)),
		entry("notifications", "newMessages", strconv.FormatBool(s.Notifications.NewMessages)),
		entry("notifications", "newTestimonials", strconv.FormatBool(s.Notifications.NewTestimonials)),
		entry("email", "fromName", s.Email.FromName),
		entry("email", "fromEmail", s.Email.FromEmail),
		entry("email", "smtpHost", s.Email.SMTPHost),
		entry("email", "smtpPort", s.Email.SMTPPort),
		entry("email", "smtpUser", s.Email.SMTPUser),
		entry("email", "smtpPass", s.Email.SMTPPass),
	}
}

func entry(category, name, value string) SettingEntry {
	return SettingEntry{Key: category + "." + name, Value: value, Category: category}
}

// SettingsFromEntries rebuilds Settings from stored rows on top of the
// defaults. Unknown keys are ignored.
func SettingsFromEntries(entries []SettingEntry) Settings {
	s := DefaultSettings()
	for _, e := range entries {
		switch e.Key {
		case "theme.primaryColor":
			s.Theme.PrimaryColor = e.Value
		case "theme.darkMode":
			s.Theme.DarkMode = parseBool(e.Value, s.Theme.DarkMode)
		case "theme.font":
			s.Theme.Font = e.Value
		case "notifications.emailAlerts":
			s.Notifications.EmailAlerts = parseBool(e.Value, s.Notifications.EmailAlerts)
		case "notifications.newMessages":
			s.Notifications.NewMessages = parseBool(e.Value, s.Notifications.NewMessages)
		case "notifications.newTestimonials":
			s.Notifications.NewTestimonials = parseBool(e.Value, s.Notifications.NewTestimonials)
		case "email.fromName":
			s.Email.FromName = e.Value
		case "email.fromEmail":
			s.Email.FromEmail = e.Value
		case "email.smtpHost":
			s.Email.SMTPHost = e.Value
		case "email.smtpPort":
			s.Email.SMTPPort = e.Value
		case "email.smtpUser":
			s.Email.SMTPUser = e.Value
		case "email.smtpPass":
			s.Email.SMTPPass = e.Value
		}
	}
	return s
}

func parseBool(v string, fallback bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return b
}

// Redacted returns a copy safe to send to the browser.
func (s Settings) Redacted() Settings {
	if s.Email.SMTPPass != "" {
		s.Email.SMTPPass = "********"
	}
	return s
}
