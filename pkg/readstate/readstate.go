// Package readstate derives read receipts and unread counts from the message
// log and the read markers. Everything here is computed at query time from
// the stores; nothing is cached or materialized.
package readstate

import (
	"chatsync/pkg/models"
	"chatsync/pkg/store"
)

// UnreadCount counts the messages in a conversation that the viewer has not
// acknowledged: sender is someone else and the ID is past the viewer's
// cursor. It is 0 immediately after the viewer sends (their marker
// auto-advances) and immediately after the viewer marks the conversation
// read.
func UnreadCount(conversationID, viewerID int64) (int, error) {
	marker, err := store.GetMarker(conversationID, viewerID)
	if err != nil {
		return 0, err
	}
	msgs, err := store.ListMessages(conversationID, 0)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range msgs {
		if m.SenderID != viewerID && m.ID > marker {
			n++
		}
	}
	return n, nil
}

// IsRead reports whether every other participant has acknowledged the
// message, i.e. the message ID is at or below the minimum cursor among the
// other participants. With two participants this is the familiar read
// receipt; with more it is read-by-the-slowest-other-reader (AND semantics).
func IsRead(m models.Message) (bool, error) {
	min, err := store.MinMarkerExcept(m.ConversationID, m.SenderID)
	if err != nil {
		return false, err
	}
	return m.ID <= min, nil
}

// Summary builds the per-viewer conversation listing row.
func Summary(conv models.Conversation, viewerID int64) (models.ConversationSummary, error) {
	s := models.ConversationSummary{ID: conv.ID, Name: conv.Name}
	marker, err := store.GetMarker(conv.ID, viewerID)
	if err != nil {
		return s, err
	}
	s.LastReadMessageID = marker

	msgs, err := store.ListMessages(conv.ID, 0)
	if err != nil {
		return s, err
	}
	for _, m := range msgs {
		if m.SenderID != viewerID && m.ID > marker {
			s.UnreadCount++
		}
	}
	if len(msgs) > 0 {
		last := msgs[len(msgs)-1].Content
		s.LastMessage = &last
	}
	return s, nil
}
