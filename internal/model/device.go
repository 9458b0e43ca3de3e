package model

// Device message types exchanged with agents.
const (
	MessageSettingsChanged = "NOTIFICATION_SETTINGS_CHANGED"
	MessageSkipWaiting     = "SKIP_WAITING"
	MessagePush            = "PUSH"
)

// DeviceMessage is the JSON envelope on an agent's control and broadcast topics.
type DeviceMessage struct {
	Type    string `json:"type"`
	Enabled *bool  `json:"enabled,omitempty"`
	Locale  Locale `json:"locale,omitempty"`
	Title   string `json:"title,omitempty"`
	Body    string `json:"body,omitempty"`
}

// Notification is what a device displays.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag"`
}

const (
	PushTag          = "ramadan-push"
	pushDefaultTitle = "Ramadan 2026"
	pushDefaultBody  = "Hatırlatıcı"
)

// ApplyTo merges a settings message into pref. An absent enabled flag means
// enabled; an unknown locale keeps the current one.
func (m DeviceMessage) ApplyTo(pref Preference) Preference {
	pref.Enabled = m.Enabled == nil || *m.Enabled
	if m.Locale == LocaleEN || m.Locale == LocaleTR {
		pref.Locale = m.Locale
	}
	return pref
}

// PushNotification is what a PUSH message displays. Without a title the
// default text is used.
func (m DeviceMessage) PushNotification() Notification {
	n := Notification{Title: m.Title, Body: m.Body, Tag: PushTag}
	if n.Title == "" {
		n.Title = pushDefaultTitle
		if n.Body == "" {
			n.Body = pushDefaultBody
		}
	}
	return n
}
