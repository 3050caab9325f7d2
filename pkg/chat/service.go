// Package chat is the synchronization service: the operations that mutate
// the message log and the read markers, and the queries that return them
// annotated with derived read state. Every mutation leaves the two stores
// mutually consistent, or surfaces an InconsistencyWarning when it cannot.
package chat

import (
	"errors"

	"chatsync/pkg/logger"
	"chatsync/pkg/models"
	"chatsync/pkg/readstate"
	"chatsync/pkg/store"
	"chatsync/pkg/validation"
)

// SendMessage appends a message and advances the sender's own marker to it,
// so senders never see their own messages as unread. The two steps are not
// one transaction: when the marker advance fails after a successful append,
// the message is still returned together with an *InconsistencyWarning so
// the caller can log it; the repair sweep re-derives the cursor later.
func SendMessage(conversationID, senderID int64, content string) (models.Message, error) {
	m, err := store.AppendMessage(conversationID, senderID, content)
	if err != nil {
		return models.Message{}, err
	}
	if _, _, err := store.AdvanceMarker(conversationID, senderID, m.ID); err != nil {
		inconsistencies.Inc()
		enqueueRepair(conversationID)
		return m, &InconsistencyWarning{
			ConversationID: conversationID,
			UserID:         senderID,
			MessageID:      m.ID,
			Err:            err,
		}
	}
	return m, nil
}

// FetchMessages returns a conversation's messages in ascending ID order,
// annotated with the sender's display name and the viewer-independent read
// receipt. beforeID > 0 returns the page of messages older than that ID.
func FetchMessages(conversationID, viewerID, beforeID int64) ([]models.AnnotatedMessage, error) {
	if err := validation.ValidateUserID(viewerID); err != nil {
		return nil, err
	}
	if _, err := store.GetConversation(conversationID); err != nil {
		return nil, err
	}
	msgs, err := store.ListMessages(conversationID, beforeID)
	if err != nil {
		return nil, err
	}

	names := map[int64]string{}
	// is_read depends only on the sender, so the min-other-marker is shared
	// by all messages from the same sender.
	minOther := map[int64]int64{}

	out := make([]models.AnnotatedMessage, 0, len(msgs))
	for _, m := range msgs {
		am := models.AnnotatedMessage{Message: m}
		name, ok := names[m.SenderID]
		if !ok {
			u, err := store.GetUser(m.SenderID)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return nil, err
			}
			name = u.Username
			names[m.SenderID] = name
		}
		am.SenderName = name

		min, ok := minOther[m.SenderID]
		if !ok {
			min, err = store.MinMarkerExcept(conversationID, m.SenderID)
			if err != nil {
				return nil, err
			}
			minOther[m.SenderID] = min
		}
		if m.ID <= min {
			am.IsRead = 1
		}
		out = append(out, am)
	}
	return out, nil
}

// FetchConversations returns one summary per conversation the viewer
// participates in, ascending by conversation ID.
func FetchConversations(viewerID int64) ([]models.ConversationSummary, error) {
	if err := validation.ValidateUserID(viewerID); err != nil {
		return nil, err
	}
	convs, err := store.ListConversationsFor(viewerID)
	if err != nil {
		return nil, err
	}
	out := make([]models.ConversationSummary, 0, len(convs))
	for _, c := range convs {
		s, err := readstate.Summary(c, viewerID)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// MarkRead advances the user's marker to the conversation's current latest
// message ID and returns that ID. Calling it again with no new messages is a
// no-op on the stored state.
func MarkRead(conversationID, userID int64) (int64, error) {
	if err := validation.ValidateUserID(userID); err != nil {
		return 0, err
	}
	if _, err := store.GetConversation(conversationID); err != nil {
		return 0, err
	}
	latest, err := store.LatestMessageID(conversationID)
	if err != nil {
		return 0, err
	}
	if latest == 0 {
		return 0, nil
	}
	if _, advanced, err := store.AdvanceMarker(conversationID, userID, latest); err != nil {
		return 0, err
	} else if advanced {
		logger.Info("conversation_marked_read", "conversation", conversationID, "user", userID, "marker", latest)
	}
	return latest, nil
}
