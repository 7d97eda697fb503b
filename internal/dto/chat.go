package dto

type ConversationResponse struct {
	ID          string   `json:"id"`
	ClientPhone string   `json:"client_phone"`
	ClientName  string   `json:"client_name,omitempty"`
	Status      string   `json:"status"`
	HandledBy   string   `json:"handled_by"`
	Tags        []string `json:"tags,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

type MessageResponse struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	Sender         string `json:"sender"`
	Content        string `json:"content"`
	CreatedAt      string `json:"created_at"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required"`
	Sender  string `json:"sender" validate:"required,oneof=client agent"`
}

type TransferRequest struct {
	Reason string `json:"reason"`
}

type SummarizeResponse struct {
	ConversationID string `json:"conversation_id"`
	Summary        string `json:"summary"`
}
