package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cockroachdb/pebble"

	"chatsync/pkg/logger"
	"chatsync/pkg/models"
	"chatsync/pkg/validation"
)

// AppendMessage appends a message to a conversation's log. The message ID is
// allocated from the global counter under idMu and committed in the same
// synced batch as the message itself, so IDs are strictly increasing, never
// reused, and never assigned without a persisted message.
func AppendMessage(conversationID, senderID int64, content string) (models.Message, error) {
	var m models.Message
	if db == nil {
		return m, errNotOpen
	}
	if err := validation.ValidateSend(conversationID, senderID, content); err != nil {
		return m, err
	}
	if _, err := GetConversation(conversationID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return m, fmt.Errorf("conversation %d: %w", conversationID, ErrNotFound)
		}
		return m, err
	}

	idMu.Lock()
	defer idMu.Unlock()

	batch := db.NewBatch()
	defer batch.Close()

	id, err := nextID("msg", batch)
	if err != nil {
		return m, err
	}
	m = models.Message{
		ID:             id,
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(m)
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := batch.Set(msgKey(conversationID, id), data, nil); err != nil {
		return models.Message{}, err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		logger.Error("append_message_failed", "conversation", conversationID, "error", err)
		return models.Message{}, err
	}
	messagesAppended.Inc()
	logger.Info("message_appended", "conversation", conversationID, "id", id, "sender", senderID)
	return m, nil
}

// ListMessages returns a conversation's messages in ascending ID order.
// When beforeID > 0 only messages with ID strictly less than beforeID are
// returned (an older page, not a delta; the exposed beforeId parameter keeps
// this semantic).
func ListMessages(conversationID, beforeID int64) ([]models.Message, error) {
	if db == nil {
		return nil, errNotOpen
	}
	prefix := msgPrefix(conversationID)
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []models.Message
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var m models.Message
		if err := json.Unmarshal(iter.Value(), &m); err != nil {
			return nil, fmt.Errorf("invalid message at %s: %w", iter.Key(), err)
		}
		if beforeID > 0 && m.ID >= beforeID {
			break
		}
		out = append(out, m)
	}
	return out, iter.Error()
}

// LatestMessageID returns the highest message ID in a conversation, or 0
// when the conversation has no messages.
func LatestMessageID(conversationID int64) (int64, error) {
	if db == nil {
		return 0, errNotOpen
	}
	prefix := msgPrefix(conversationID)
	// upper bound: prefix with the next byte after ':' appended would be
	// wrong; use prefix + 0xff padding via SeekLT on prefix-end.
	end := append(append([]byte(nil), prefix...), 0xff)
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return 0, err
	}
	defer iter.Close()
	if !iter.SeekLT(end) {
		return 0, iter.Error()
	}
	if !bytes.HasPrefix(iter.Key(), prefix) {
		return 0, iter.Error()
	}
	id, err := strconv.ParseInt(string(iter.Key()[len(prefix):]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt message key %s: %w", iter.Key(), err)
	}
	return id, nil
}
