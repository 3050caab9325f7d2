package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"

	"chatsync/pkg/logger"
	"chatsync/pkg/models"
	"chatsync/pkg/validation"
)

// The user and conversation directory is consumed read-only by the sync
// core; records are created here only by seeding and operator tooling.

// CreateUser stores a new user with a freshly assigned ID.
func CreateUser(username string) (models.User, error) {
	var u models.User
	if db == nil {
		return u, errNotOpen
	}
	if username == "" {
		return u, validation.Errorf("username is required")
	}
	idMu.Lock()
	defer idMu.Unlock()

	batch := db.NewBatch()
	defer batch.Close()
	id, err := nextID("user", batch)
	if err != nil {
		return u, err
	}
	u = models.User{ID: id, Username: username, CreatedAt: time.Now().UTC().Format(time.RFC3339Nano)}
	data, err := json.Marshal(u)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := batch.Set(userKey(id), data, nil); err != nil {
		return models.User{}, err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return models.User{}, err
	}
	logger.Info("user_created", "id", id, "username", username)
	return u, nil
}

// GetUser returns a user record by ID.
func GetUser(id int64) (models.User, error) {
	var u models.User
	v, err := get(userKey(id))
	if err != nil {
		return u, err
	}
	if err := json.Unmarshal(v, &u); err != nil {
		return u, fmt.Errorf("invalid user %d: %w", id, err)
	}
	return u, nil
}

// ListUsers returns all users in ascending ID order.
func ListUsers() ([]models.User, error) {
	if db == nil {
		return nil, errNotOpen
	}
	prefix := []byte("user:")
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []models.User
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var u models.User
		if err := json.Unmarshal(iter.Value(), &u); err != nil {
			return nil, fmt.Errorf("invalid user at %s: %w", iter.Key(), err)
		}
		out = append(out, u)
	}
	return out, iter.Error()
}

// CreateConversation stores a conversation with the given display name and
// fixed participant set. Each participant implicitly starts with marker 0
// ("nothing read"); no marker record is written until their first
// acknowledgement.
func CreateConversation(name string, participants []int64) (models.Conversation, error) {
	var c models.Conversation
	if db == nil {
		return c, errNotOpen
	}
	if len(participants) == 0 {
		return c, validation.Errorf("participants are required")
	}
	idMu.Lock()
	defer idMu.Unlock()

	batch := db.NewBatch()
	defer batch.Close()
	id, err := nextID("conv", batch)
	if err != nil {
		return c, err
	}
	c = models.Conversation{
		ID:           id,
		Name:         name,
		Participants: append([]int64(nil), participants...),
		CreatedAt:    time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(c)
	if err != nil {
		return models.Conversation{}, fmt.Errorf("failed to marshal conversation: %w", err)
	}
	if err := batch.Set(convMetaKey(id), data, nil); err != nil {
		return models.Conversation{}, err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return models.Conversation{}, err
	}
	logger.Info("conversation_created", "id", id, "name", name, "participants", len(participants))
	return c, nil
}

// GetConversation returns conversation metadata by ID.
func GetConversation(id int64) (models.Conversation, error) {
	var c models.Conversation
	v, err := get(convMetaKey(id))
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(v, &c); err != nil {
		return c, fmt.Errorf("invalid conversation %d: %w", id, err)
	}
	return c, nil
}

// ListConversations returns all conversations in ascending ID order.
func ListConversations() ([]models.Conversation, error) {
	if db == nil {
		return nil, errNotOpen
	}
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	prefix := []byte("conv:")
	suffix := []byte(":meta")
	var out []models.Conversation
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		if !bytes.HasSuffix(iter.Key(), suffix) {
			continue
		}
		var c models.Conversation
		if err := json.Unmarshal(iter.Value(), &c); err != nil {
			return nil, fmt.Errorf("invalid conversation at %s: %w", iter.Key(), err)
		}
		out = append(out, c)
	}
	return out, iter.Error()
}

// ListConversationsFor returns the conversations userID participates in,
// ascending by ID.
func ListConversationsFor(userID int64) ([]models.Conversation, error) {
	all, err := ListConversations()
	if err != nil {
		return nil, err
	}
	var out []models.Conversation
	for _, c := range all {
		if c.HasParticipant(userID) {
			out = append(out, c)
		}
	}
	return out, nil
}
