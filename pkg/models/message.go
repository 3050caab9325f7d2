package models

// Message is a single chat message. Messages are immutable once appended;
// IDs are assigned by the store and are strictly increasing in creation
// order, so ascending ID order equals chronological order.
type Message struct {
	ID             int64  `json:"id"`
	ConversationID int64  `json:"conversation_id"`
	SenderID       int64  `json:"sender_id"`
	Content        string `json:"content"`
	CreatedAt      string `json:"created_at"`
}

// AnnotatedMessage is a message as returned to a viewer: the stored fields
// plus the sender's display name and the read receipt computed at query time.
// IsRead is 0/1 rather than a bool to match the wire format.
type AnnotatedMessage struct {
	Message
	SenderName string `json:"sender_name"`
	IsRead     int    `json:"is_read"`
}
