package domain

import "time"

// Account is one configured monitoring identity. The credential is an opaque
// session token (gotd session bytes in base64, or a Telethon string session);
// it is never inspected outside internal/telegram.
type Account struct {
	Name       string `json:"name"`
	Credential string `json:"session_str"`
}

// Dialog is a conversation entity visible to an account, reduced to what
// discovery needs.
type Dialog struct {
	ID        int64
	Title     string
	IsGroup   bool
	IsChannel bool
}

// Message is an inbound message event, fully resolved at conversion time so
// downstream handlers never touch the network for metadata.
type Message struct {
	ID             int
	ChatID         int64
	ChatTitle      string
	ChatHandle     string // public username of the chat, empty for private
	SenderID       int64
	SenderName     string
	SenderUsername string
	SenderIsBot    bool
	Text           string
	IsGroup        bool
	IsChannel      bool
	Timestamp      time.Time
}

// ChatEventReason says how the account became a member of a chat.
type ChatEventReason int

const (
	ChatEventJoined ChatEventReason = iota
	ChatEventCreated
	ChatEventAdded
)

// ChatEvent is a chat-membership event for the observing account.
type ChatEvent struct {
	ChatID    int64
	IsGroup   bool
	IsChannel bool
	Reason    ChatEventReason
}

// Verdict is the outcome of the message filter.
type Verdict int

const (
	// VerdictDrop suppresses the message.
	VerdictDrop Verdict = iota
	// VerdictNotifyWatch notifies because the sender is watchlisted;
	// the dedup cache is not updated afterwards.
	VerdictNotifyWatch
	// VerdictNotifyKeyword notifies because of a keyword hit; the sender is
	// recorded in the dedup cache after dispatch.
	VerdictNotifyKeyword
)
