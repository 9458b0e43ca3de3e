package packets

// REQUESTS FOR /api/push-subscribe

type Keys struct {
	P256dh string `json:"p256dh" binding:"required"`
	Auth   string `json:"auth" binding:"required"`
}

type Subscription struct {
	Endpoint string `json:"endpoint" binding:"required,url"`
	Keys     Keys   `json:"keys" binding:"required"`
}

type SubscribeRequest struct {
	Subscription Subscription `json:"subscription" binding:"required"`
	Locale       string       `json:"locale"`
}
