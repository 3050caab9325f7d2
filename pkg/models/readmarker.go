package models

// ReadMarker records, per (conversation, participant), the highest message ID
// that participant has acknowledged. The cursor is monotonically
// non-decreasing; the store enforces this, not callers. A participant with no
// stored marker reads as LastReadMessageID 0 ("nothing read").
type ReadMarker struct {
	ConversationID    int64  `json:"conversation_id"`
	UserID            int64  `json:"user_id"`
	LastReadMessageID int64  `json:"last_read_message_id"`
	LastReadAt        string `json:"last_read_at,omitempty"`
}
