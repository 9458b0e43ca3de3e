package packets

// RESPONSES FOR /api/push-*

type OKResponse struct {
	OK bool `json:"ok"`
}

type PublicKeyResponse struct {
	PublicKey string `json:"publicKey"`
}
