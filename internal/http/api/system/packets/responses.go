package packets

// RESPONSES FOR /api/capabilities and /api/health

type CapabilitiesResponse struct {
	Channel          string `json:"channel"`
	BackgroundTimers bool   `json:"backgroundTimers"`
	Push             bool   `json:"push"`
}

type HealthResponse struct {
	OK    bool   `json:"ok"`
	Store string `json:"store"`
}
