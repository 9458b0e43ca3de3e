package reminder

import (
	"fmt"

	"github.com/Nixie-Tech-LLC/ramadan/internal/model"
)

// Message is the notification text, and the push payload wire format.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type phrases struct {
	suhoor, iftar          string
	suhoorNow, iftarNow    string
	remaining, suhoorUntil string
	iftarUntil             string
	testTitle              string
}

var catalog = map[model.Locale]phrases{
	model.LocaleTR: {
		suhoor:      "Sahur Vakti!",
		iftar:       "İftar Vakti!",
		suhoorNow:   "Sahur vakti geldi",
		iftarNow:    "İftar vakti geldi",
		remaining:   "%d dakika kaldı",
		suhoorUntil: "%d dakika sonra Sahur vakti",
		iftarUntil:  "%d dakika sonra İftar vakti",
		testTitle:   "Test – Bildirimler çalışıyor",
	},
	model.LocaleEN: {
		suhoor:      "Suhoor Time!",
		iftar:       "Iftar Time!",
		suhoorNow:   "Suhoor time has started",
		iftarNow:    "Iftar time has started",
		remaining:   "%d min remaining",
		suhoorUntil: "%d minutes until Suhoor",
		iftarUntil:  "%d minutes until Iftar",
		testTitle:   "Test – Notifications working",
	},
}

// Render returns the localized text for a slot.
func Render(locale model.Locale, prayer model.Prayer, minutesBefore int) Message {
	p, ok := catalog[locale]
	if !ok {
		p = catalog[model.LocaleTR]
	}
	if prayer == model.PrayerMaghrib {
		if minutesBefore == 0 {
			return Message{Title: p.iftar, Body: p.iftarNow}
		}
		return Message{Title: fmt.Sprintf(p.remaining, minutesBefore), Body: fmt.Sprintf(p.iftarUntil, minutesBefore)}
	}
	if minutesBefore == 0 {
		return Message{Title: p.suhoor, Body: p.suhoorNow}
	}
	return Message{Title: fmt.Sprintf(p.remaining, minutesBefore), Body: fmt.Sprintf(p.suhoorUntil, minutesBefore)}
}

// RenderSlot is Render for a slot.
func RenderSlot(locale model.Locale, s Slot) Message {
	return Render(locale, s.Prayer, s.MinutesBefore)
}

// TestMessage is the connectivity-test broadcast text.
func TestMessage(locale model.Locale) Message {
	p, ok := catalog[locale]
	if !ok {
		p = catalog[model.LocaleTR]
	}
	return Message{Title: p.testTitle, Body: "Ramadan 2026 Doha"}
}
