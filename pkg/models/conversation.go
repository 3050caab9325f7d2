package models

// Conversation metadata. Participants are fixed at creation time; this core
// never mutates the set.
type Conversation struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Participants []int64 `json:"participants"`
	CreatedAt    string  `json:"created_at"`
}

// HasParticipant reports whether userID is a member of the conversation.
func (c *Conversation) HasParticipant(userID int64) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// ConversationSummary is the per-viewer listing row: the viewer's own read
// cursor, their unread count and the most recent message content (empty
// string marshals as null via the pointer).
type ConversationSummary struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	LastReadMessageID int64   `json:"last_read_message_id"`
	UnreadCount       int     `json:"unread_count"`
	LastMessage       *string `json:"last_message"`
}
