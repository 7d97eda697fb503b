package dto

// WhatsAppWebhook is the inbound payload posted by the WhatsApp gateway.
type WhatsAppWebhook struct {
	Event    string              `json:"event"`
	Instance string              `json:"instance"`
	Data     WhatsAppWebhookData `json:"data"`
}

type WhatsAppWebhookData struct {
	Key      WhatsAppMessageKey `json:"key"`
	PushName string             `json:"pushName"`
	Message  WhatsAppMessage    `json:"message"`
}

type WhatsAppMessageKey struct {
	RemoteJID string `json:"remoteJid"`
	FromMe    bool   `json:"fromMe"`
	ID        string `json:"id"`
}

type WhatsAppMessage struct {
	Conversation    string                   `json:"conversation"`
	ExtendedText    *WhatsAppExtendedMessage `json:"extendedTextMessage,omitempty"`
}

type WhatsAppExtendedMessage struct {
	Text string `json:"text"`
}

// Text returns the message body regardless of which variant carried it.
func (m WhatsAppMessage) Text() string {
	if m.Conversation != "" {
		return m.Conversation
	}
	if m.ExtendedText != nil {
		return m.ExtendedText.Text
	}
	return ""
}

type WebhookResponse struct {
	Status string `json:"status"`
	Action string `json:"action,omitempty"`
}
