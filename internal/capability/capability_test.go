package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	chromeLinux  = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	safariMac    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_2) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15"
	iPhoneSafari = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Mobile/15E148 Safari/604.1"
	goAgent      = "ramadan-agent/1.0"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		name       string
		ua         string
		standalone bool
		want       Capabilities
		channel    Channel
	}{
		{"chrome", chromeLinux, false, Capabilities{BackgroundTimers: true, Push: true}, Background},
		{"desktop safari", safariMac, false, Capabilities{BackgroundTimers: false, Push: true}, Foreground},
		{"iphone tab", iPhoneSafari, false, Capabilities{BackgroundTimers: false, Push: false}, Foreground},
		{"iphone home screen", iPhoneSafari, true, Capabilities{BackgroundTimers: false, Push: true}, Foreground},
		{"headless agent", goAgent, false, Capabilities{BackgroundTimers: true, Push: true}, Background},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Detect(tc.ua, tc.standalone)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.channel, Select(got))
		})
	}
}

func TestParse(t *testing.T) {
	ch, ok := Parse(" Foreground ")
	assert.True(t, ok)
	assert.Equal(t, Foreground, ch)

	_, ok = Parse("auto")
	assert.False(t, ok)
}
