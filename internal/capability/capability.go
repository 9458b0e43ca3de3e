// Package capability decides which local reminder channel a client can run.
package capability

import (
	"regexp"
	"strings"
)

// Channel is a local reminder execution context.
type Channel string

const (
	// Background is a repeating one-minute ticker that survives the UI.
	Background Channel = "background"
	// Foreground arms deferred callbacks while the app is open.
	Foreground Channel = "foreground"
)

// Capabilities describe what a client host supports.
type Capabilities struct {
	BackgroundTimers bool `json:"backgroundTimers"`
	Push             bool `json:"push"`
}

var appleMobile = regexp.MustCompile(`iPhone|iPad|iPod`)

// Detect inspects a User-Agent. Safari and every iOS browser suspend
// background timers; iOS only accepts web push from home-screen apps.
func Detect(userAgent string, standalone bool) Capabilities {
	ios := appleMobile.MatchString(userAgent)
	safari := strings.Contains(userAgent, "Safari") && !strings.Contains(userAgent, "Chrome")
	return Capabilities{
		BackgroundTimers: !ios && !safari,
		Push:             !ios || standalone,
	}
}

// Select picks the local channel for c.
func Select(c Capabilities) Channel {
	if c.BackgroundTimers {
		return Background
	}
	return Foreground
}

// Parse maps a configured mode to a channel. "auto" and unknown values
// report false so the caller falls back to Detect.
func Parse(mode string) (Channel, bool) {
	switch Channel(strings.ToLower(strings.TrimSpace(mode))) {
	case Background:
		return Background, true
	case Foreground:
		return Foreground, true
	}
	return "", false
}
