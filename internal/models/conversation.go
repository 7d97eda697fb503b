package models

import (
	"time"

	"github.com/google/uuid"
)

type ConversationStatus string

const (
	ConversationActive      ConversationStatus = "active"
	ConversationTransferred ConversationStatus = "transferred"
	ConversationClosed      ConversationStatus = "closed"
)

type HandledBy string

const (
	HandledByAI    HandledBy = "ai"
	HandledByHuman HandledBy = "human"
)

type MessageSender string

const (
	SenderClient MessageSender = "client"
	SenderAI     MessageSender = "ai"
	SenderAgent  MessageSender = "agent"
)

// Conversation groups the messages exchanged with one client phone on one
// channel. Tags are written by operators (e.g. "vip") and read by the rule
// engine.
type Conversation struct {
	ID             uuid.UUID          `db:"id"`
	OrganizationID uuid.UUID          `db:"organization_id"`
	ClientPhone    string             `db:"client_phone"`
	ClientName     string             `db:"client_name"`
	Channel        string             `db:"channel"`
	Status         ConversationStatus `db:"status"`
	HandledBy      HandledBy          `db:"handled_by"`
	Tags           []string           `db:"tags"`
	CreatedAt      time.Time          `db:"created_at"`
	UpdatedAt      time.Time          `db:"updated_at"`
}

type Message struct {
	ID             uuid.UUID     `db:"id"`
	ConversationID uuid.UUID     `db:"conversation_id"`
	Content        string        `db:"content"`
	Sender         MessageSender `db:"sender"`
	CreatedAt      time.Time     `db:"created_at"`
}
