package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"

	"chatsync/pkg/logger"
	"chatsync/pkg/models"
)

// AdvanceMarker advances the (conversation, user) read marker to messageID
// using set-if-greater semantics: acknowledging a stale identifier is a no-op
// rather than a regression. The comparison and write happen under markerMu so
// concurrent advances cannot interleave into a lower final value. Returns the
// resulting marker value and whether it moved.
func AdvanceMarker(conversationID, userID, messageID int64) (int64, bool, error) {
	if db == nil {
		return 0, false, errNotOpen
	}
	markerMu.Lock()
	defer markerMu.Unlock()

	cur, err := GetMarker(conversationID, userID)
	if err != nil {
		return 0, false, err
	}
	if messageID <= cur {
		staleAcks.Inc()
		logger.Debug("marker_advance_stale", "conversation", conversationID, "user", userID, "have", cur, "got", messageID)
		return cur, false, nil
	}
	mk := models.ReadMarker{
		ConversationID:    conversationID,
		UserID:            userID,
		LastReadMessageID: messageID,
		LastReadAt:        time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(mk)
	if err != nil {
		return cur, false, fmt.Errorf("failed to marshal marker: %w", err)
	}
	if err := db.Set(markerKey(conversationID, userID), data, pebble.Sync); err != nil {
		logger.Error("marker_advance_failed", "conversation", conversationID, "user", userID, "error", err)
		return cur, false, err
	}
	markerAdvances.Inc()
	logger.Debug("marker_advanced", "conversation", conversationID, "user", userID, "to", messageID)
	return messageID, true, nil
}

// GetMarker returns the user's read cursor for a conversation, 0 if never
// set.
func GetMarker(conversationID, userID int64) (int64, error) {
	v, err := get(markerKey(conversationID, userID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	var mk models.ReadMarker
	if err := json.Unmarshal(v, &mk); err != nil {
		return 0, fmt.Errorf("invalid marker for conv %d user %d: %w", conversationID, userID, err)
	}
	return mk.LastReadMessageID, nil
}

// MinMarkerExcept returns the minimum read cursor among all participants of
// the conversation except excludeUserID. With more than two participants this
// is the "slowest other reader": a message counts as read only once every
// other participant has passed it. With zero other participants it returns 0,
// so such messages never show as read.
func MinMarkerExcept(conversationID, excludeUserID int64) (int64, error) {
	conv, err := GetConversation(conversationID)
	if err != nil {
		return 0, err
	}
	min := int64(0)
	found := false
	for _, p := range conv.Participants {
		if p == excludeUserID {
			continue
		}
		mk, err := GetMarker(conversationID, p)
		if err != nil {
			return 0, err
		}
		if !found || mk < min {
			min = mk
			found = true
		}
	}
	if !found {
		return 0, nil
	}
	return min, nil
}
